package main

import (
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/vnknews/vnknews/internal/ingestion"
	"github.com/vnknews/vnknews/internal/models"
	"github.com/vnknews/vnknews/internal/sources"
)

const maxCellWidth = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderRunReport(w io.Writer, report *ingestion.RunReport) {
	t := newTable(w)
	t.SetTitle("%s  %s", report.Status, report.Message)
	t.AppendHeader(table.Row{"Source", "Found", "New", "Error"})
	for _, s := range report.Sources {
		t.AppendRow(table.Row{s.Source, s.Found, s.NewItems, truncate(s.Error)})
	}
	t.AppendFooter(table.Row{"Total", report.Total, report.NewItems, ""})
	t.SetCaption("duplicates: %d within run, %d already stored", report.InRunDuplicates, report.AlreadyStored)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	t.Render()
}

func renderRunLogs(w io.Writer, logs []models.RunLog) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Run At", "Status", "Items", "Message", "Failed Sources"})
	for _, log := range logs {
		failed := make([]string, 0, len(log.ErrorDetails))
		for source := range log.ErrorDetails {
			failed = append(failed, source)
		}
		sort.Strings(failed)

		t.AppendRow(table.Row{
			log.RunAt.Local().Format(time.DateTime),
			log.Status,
			log.ItemsFound,
			truncate(log.Message),
			strings.Join(failed, ", "),
		})
	}
	t.Render()
}

func renderSources(w io.Writer, infos []sources.Info) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Language", "Listing URLs"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.ID, info.Name, info.Language, strings.Join(info.ListingURLs, "\n")})
	}
	t.Render()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string) string {
	return text.Trim(s, maxCellWidth)
}
