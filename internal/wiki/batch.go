package wiki

import (
	"fmt"
	"strings"

	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/metrics"
)

// MaxBatchSize is the number of titles the API accepts in one titles= parameter.
const MaxBatchSize = 50

// ForEachBatch splits titles into contiguous chunks of at most size titles and
// calls fn once per chunk, in order. Outputs are concatenated in input order.
// A size outside 1..MaxBatchSize is clamped to MaxBatchSize.
//
// fn must build fresh parameters per chunk so continuation tokens never leak
// from one chunk into the next.
func ForEachBatch[T any](titles []string, size int, fn func(batch []string) ([]T, error)) ([]T, error) {
	if len(titles) == 0 {
		return nil, ferrors.ErrNoTitles
	}
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}

	var out []T
	for start := 0; start < len(titles); start += size {
		end := min(start+size, len(titles))
		metrics.TitleBatches.Inc()

		items, err := fn(titles[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end-1, err)
		}
		out = append(out, items...)
	}
	return out, nil
}

// JoinTitles joins titles into the pipe-separated form of a titles= parameter.
func JoinTitles(titles []string) string {
	return strings.Join(titles, "|")
}
