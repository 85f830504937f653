// Package search executes catalogue queries: it fetches result pages from
// the OpenSearch endpoint, parses entries into product records and merges
// result sets into one deduplicated, chronologically sorted list.
package search

import (
	"context"
	"sort"

	"github.com/koenigleon/oads-download/internal/domain"
	"github.com/koenigleon/oads-download/internal/observability"
	"github.com/koenigleon/oads-download/internal/query"
)

// Page is one fetched and parsed result page.
type Page struct {
	TotalResults int
	Records      []domain.ProductRecord
	// Skipped counts entries dropped because they failed structural parsing.
	Skipped int
}

// PageSource fetches one result page. The HTTP implementation lives in this
// package; tests inject a mock.
type PageSource interface {
	FetchPage(ctx context.Context, collection string, params query.Params, startIndex int) (*Page, error)
}

// Client turns one query into the flat record sequence it matches. Page
// sizing lives in the PageSource; the client only bounds how many pages one
// query may fetch.
type Client struct {
	source   PageSource
	maxPages int
	logger   observability.Logger
	metrics  observability.Metrics
}

func NewClient(source PageSource, maxPages int, logger observability.Logger, metrics observability.Metrics) *Client {
	return &Client{
		source:   source,
		maxPages: maxPages,
		logger:   logger,
		metrics:  metrics,
	}
}

// Search starts a lazy, finite, non-restartable sequence over the records
// matching params in the given collection. Each page is fetched on demand;
// calling Search again re-issues the network requests.
func (c *Client) Search(ctx context.Context, collection string, params query.Params) *Results {
	return &Results{
		ctx:        ctx,
		client:     c,
		collection: collection,
		params:     params,
		total:      -1,
	}
}

// Results iterates the records of one query with an explicit cursor
// (offset, total) instead of hidden loop state.
type Results struct {
	ctx        context.Context
	client     *Client
	collection string
	params     query.Params

	buffer []domain.ProductRecord
	pos    int

	// offset is the startIndex of the next page fetch; total is the
	// totalResults count reported by the catalogue, -1 before the first page.
	offset int
	total  int
	pages  int

	err  error
	done bool
}

// Next returns the next record. It fetches further pages as needed and
// returns false when the sequence is exhausted or failed; check Err.
func (r *Results) Next() (domain.ProductRecord, bool) {
	for {
		if r.pos < len(r.buffer) {
			record := r.buffer[r.pos]
			r.pos++
			return record, true
		}
		if r.done || r.err != nil {
			return domain.ProductRecord{}, false
		}
		r.fetchNextPage()
	}
}

// Err reports the failure that ended the sequence early, if any.
func (r *Results) Err() error {
	return r.err
}

// Collect drains the sequence into a slice.
func (r *Results) Collect() ([]domain.ProductRecord, error) {
	var records []domain.ProductRecord
	for {
		record, ok := r.Next()
		if !ok {
			return records, r.err
		}
		records = append(records, record)
	}
}

func (r *Results) fetchNextPage() {
	if r.pages >= r.client.maxPages {
		// Safeguard against unbounded queries; what was fetched stands.
		r.client.logger.Warn(r.ctx, "Page safeguard reached, truncating search", observability.Fields{
			"collection": r.collection,
			"max_pages":  r.client.maxPages,
			"fetched":    r.offset,
		})
		r.done = true
		return
	}

	page, err := r.client.source.FetchPage(r.ctx, r.collection, r.params, r.offset)
	if err != nil {
		r.err = domain.NewError(domain.CodeSearchFailed, "page fetch failed", err, domain.IsRetryable(err))
		r.client.metrics.RecordError("search", "page_fetch")
		return
	}
	r.pages++

	if page.Skipped > 0 {
		r.client.metrics.RecordError("search", "malformed_entry")
	}

	records := page.Records
	if r.params.FrameWindowStart != nil && r.params.FrameWindowEnd != nil {
		records = filterFrameWindow(records, *r.params.FrameWindowStart, *r.params.FrameWindowEnd)
	}

	if r.total < 0 {
		r.total = page.TotalResults
	}
	r.buffer = records
	r.pos = 0
	r.offset += len(page.Records) + page.Skipped

	// The catalogue reports totalResults on every page; an empty page also
	// means there is nothing further to fetch.
	if r.offset >= r.total || len(page.Records)+page.Skipped == 0 {
		r.done = true
	}
}

// filterFrameWindow keeps records inside the inclusive orbit/frame interval.
// The catalogue cannot express a frame range directly, so the range query is
// issued by orbit number alone and narrowed here.
func filterFrameWindow(records []domain.ProductRecord, start, end domain.OrbitFrame) []domain.ProductRecord {
	kept := records[:0:0]
	for _, record := range records {
		of := domain.OrbitFrame{Orbit: record.Orbit, Frame: record.Frame}
		if of.Before(start) || end.Before(of) {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}

// Merge flattens result sets from sibling queries into one sequence:
// duplicates (same id) collapse to a single record and the result is sorted
// ascending by (acquisitionStart, id).
func Merge(sets ...[]domain.ProductRecord) []domain.ProductRecord {
	seen := make(map[string]bool)
	var merged []domain.ProductRecord
	for _, set := range sets {
		for _, record := range set {
			if seen[record.ID] {
				continue
			}
			seen[record.ID] = true
			merged = append(merged, record)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Before(merged[j])
	})
	return merged
}
