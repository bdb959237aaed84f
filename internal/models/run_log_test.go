package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDeriveRunStatus(t *testing.T) {
	tests := []struct {
		name      string
		succeeded int
		failed    int
		want      RunStatus
	}{
		{"All succeeded", 9, 0, RunStatusSuccess},
		{"Some failed", 8, 1, RunStatusPartial},
		{"All failed", 0, 9, RunStatusFailed},
		{"No sources", 0, 0, RunStatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveRunStatus(tt.succeeded, tt.failed); got != tt.want {
				t.Errorf("DeriveRunStatus(%d, %d) = %v, want %v", tt.succeeded, tt.failed, got, tt.want)
			}
		})
	}
}

func TestRunLogErrorDetailsJSON(t *testing.T) {
	at := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	log := RunLog{
		Status: RunStatusPartial,
		ErrorDetails: map[string]SourceError{
			"tuoitre": {Message: "fetch failed", Time: at},
		},
	}
	if !log.HasErrors() {
		t.Fatal("expected HasErrors")
	}

	data, err := json.Marshal(log)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		ErrorDetails map[string]map[string]interface{} `json:"error_details"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	entry, ok := decoded.ErrorDetails["tuoitre"]
	if !ok {
		t.Fatalf("missing tuoitre entry in %s", data)
	}
	if entry["time"] != "2026-05-02T09:30:00Z" {
		t.Errorf("time = %v, want RFC 3339", entry["time"])
	}
	if _, hasStack := entry["stack"]; hasStack {
		t.Error("empty stack should be omitted")
	}

	clean := RunLog{Status: RunStatusSuccess}
	if clean.HasErrors() {
		t.Error("expected no errors")
	}
	data, _ = json.Marshal(clean)
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	if _, ok := raw["error_details"]; ok {
		t.Error("error_details should be omitted when empty")
	}
}
