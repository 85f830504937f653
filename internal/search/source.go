package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/koenigleon/oads-download/internal/domain"
	"github.com/koenigleon/oads-download/internal/observability"
	"github.com/koenigleon/oads-download/internal/query"
)

// Doer executes one HTTP request. *http.Client satisfies it; tests inject a
// mock.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSource fetches result pages from the OpenSearch endpoint, retrying
// transient failures with backoff before giving up on a page.
type HTTPSource struct {
	baseURL    string
	pageSize   int
	doer       Doer
	userAgent  string
	maxRetries int
	// backoff is replaced in tests to avoid sleeping.
	backoff func(attempt int) time.Duration
	logger  observability.Logger
}

func NewHTTPSource(baseURL string, pageSize int, doer Doer, userAgent string, maxRetries int, logger observability.Logger) *HTTPSource {
	return &HTTPSource{
		baseURL:    baseURL,
		pageSize:   pageSize,
		doer:       doer,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
		logger: logger,
	}
}

// FetchPage issues one page request and parses the feed. Entries failing
// structural parsing are logged and counted, never propagated as failures.
func (s *HTTPSource) FetchPage(ctx context.Context, collection string, params query.Params, startIndex int) (*Page, error) {
	values := params.Values(s.pageSize, startIndex)
	values.Set("parentIdentifier", collection)
	requestURL := fmt.Sprintf("%s/request?%s", s.baseURL, values.Encode())

	body, err := s.fetch(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var f feed
	if err := xml.Unmarshal(body, &f); err != nil {
		return nil, domain.NewError(domain.CodeSearchFailed, "catalogue response is not a valid feed", err, false)
	}

	page := &Page{TotalResults: f.TotalResults}
	for _, e := range f.Entries {
		record, err := parseEntry(e)
		if err != nil {
			page.Skipped++
			s.logger.Warn(ctx, "Skipping malformed catalogue entry", observability.Fields{
				"collection": collection,
				"identifier": e.Identifier,
				"reason":     err.Error(),
			})
			continue
		}
		page.Records = append(page.Records, record)
	}
	return page, nil
}

func (s *HTTPSource) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			s.logger.Debug(ctx, "Retrying page fetch", observability.Fields{
				"url":     requestURL,
				"attempt": attempt + 1,
			})
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, domain.NewError(domain.CodeSearchFailed, "failed to create request", err, false)
		}
		req.Header.Set("User-Agent", s.userAgent)
		req.Header.Set("Accept", "application/atom+xml")

		resp, err := s.doer.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("catalogue returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, domain.NewError(domain.CodeSearchFailed,
				fmt.Sprintf("catalogue returned status %d", resp.StatusCode), nil, false)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}

	return nil, domain.NewError(domain.CodeSearchFailed,
		fmt.Sprintf("page fetch failed after %d attempts", s.maxRetries+1), lastErr, true)
}
