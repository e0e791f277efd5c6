package sheets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"grades-dashboard-go/grades"
	"grades-dashboard-go/metrics"
)

// DefaultTimeout bounds a sheet download when none is configured.
const DefaultTimeout = 10 * time.Second

// maxSheetBytes caps the downloaded CSV.
const maxSheetBytes = 8 << 20

// ErrFetchFailure covers unreachable sheets, non-200 answers and timeouts.
var ErrFetchFailure = errors.New("could not fetch the published sheet")

// Fetcher downloads and parses published CSV sheets.
type Fetcher struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64 // larger sheets are rejected
}

// NewFetcher returns a Fetcher with its own HTTP client.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{Client: &http.Client{}, Timeout: timeout, MaxBytes: maxSheetBytes}
}

// Fetch downloads src and parses it as comma separated grades.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (sheet *grades.Sheet, err error) {
	defer func() { metrics.SheetFetches.WithLabelValues(metrics.Result(err)).Inc() }()

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s answered %s", ErrFetchFailure, src.ID, resp.Status)
	}

	// Read fully before parsing so a timeout mid-body fails the whole fetch.
	limit := f.MaxBytes
	if limit <= 0 {
		limit = maxSheetBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFetchFailure, src.ID, limit)
	}
	sheet, err = grades.Parse(bytes.NewReader(body), grades.Options{Delimiter: ',', SkipUnnamed: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}
	return sheet, nil
}
