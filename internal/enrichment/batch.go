package enrichment

import (
	"context"
	"sync"

	"github.com/vnknews/vnknews/internal/models"
)

// Progress is reported once per finished batch. Counts are cumulative.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
}

// ProgressFunc receives batch progress. It is called from the caller's goroutine.
type ProgressFunc func(Progress)

// BatchTranslateTitles runs title mode over items in batches of batchSize.
// Items within a batch run in parallel; batches run one after another.
// Results are returned in input order.
func BatchTranslateTitles(ctx context.Context, e Enricher, items []models.NewsItem, batchSize int, progress ProgressFunc) []TitleResult {
	results := make([]TitleResult, len(items))
	runBatches(len(items), batchSize, progress, func(i int) bool {
		results[i] = e.TranslateTitle(ctx, items[i])
		return results[i].Err == nil
	})
	return results
}

// BatchTranslateFull runs full-article mode with the same batching as titles.
func BatchTranslateFull(ctx context.Context, e Enricher, items []models.NewsItem, batchSize int, progress ProgressFunc) []FullResult {
	results := make([]FullResult, len(items))
	runBatches(len(items), batchSize, progress, func(i int) bool {
		results[i] = e.TranslateFull(ctx, items[i])
		return results[i].Err == nil
	})
	return results
}

func runBatches(total, batchSize int, progress ProgressFunc, work func(i int) bool) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	state := Progress{Total: total}
	for start := 0; start < total; start += batchSize {
		end := min(start+batchSize, total)

		ok := make([]bool, end-start)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok[i-start] = work(i)
			}(i)
		}
		wg.Wait()

		for _, succeeded := range ok {
			if succeeded {
				state.Success++
			} else {
				state.Failed++
			}
		}
		state.Completed = end

		if progress != nil {
			progress(state)
		}
	}
}
