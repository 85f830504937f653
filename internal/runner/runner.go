// Package runner orchestrates one batch run: normalize each requested
// product spec, build and execute its catalogue queries, narrow the merged
// results and hand the selected records to the download pipeline. Failures
// stay local to the product type or record they belong to; the run always
// ends with a complete summary.
package runner

import (
	"context"

	"github.com/koenigleon/oads-download/internal/catalogue"
	"github.com/koenigleon/oads-download/internal/criteria"
	"github.com/koenigleon/oads-download/internal/domain"
	"github.com/koenigleon/oads-download/internal/observability"
	"github.com/koenigleon/oads-download/internal/query"
	"github.com/koenigleon/oads-download/internal/search"
	"github.com/koenigleon/oads-download/internal/selection"
)

// Request is one batch run: the raw product specs plus the run-wide options
// and narrowing.
type Request struct {
	// RunID correlates logs, metrics and the summary of one invocation.
	// Generated when empty.
	RunID string

	ProductSpecs []string
	Options      criteria.Options

	// SelectIndex narrows the merged listing to a single record (1-based,
	// negative from the end). Nil selects everything.
	SelectIndex *int

	// Preview lists the matching records without downloading anything.
	Preview bool
}

// DownloadService is the pipeline seam; tests inject a mock.
type DownloadService interface {
	Download(ctx context.Context, record domain.ProductRecord) domain.DownloadResult
}

// Runner executes batch runs.
type Runner struct {
	normalizer  *criteria.Normalizer
	client      *search.Client
	downloader  DownloadService
	collections map[string]bool
	strict      bool
	logger      observability.Logger
	metrics     observability.Metrics
}

func New(
	normalizer *criteria.Normalizer,
	client *search.Client,
	downloader DownloadService,
	enabledCollections []string,
	strictCollections bool,
	logger observability.Logger,
	metrics observability.Metrics,
) *Runner {
	enabled := make(map[string]bool, len(enabledCollections))
	for _, c := range enabledCollections {
		enabled[c] = true
	}
	return &Runner{
		normalizer:  normalizer,
		client:      client,
		downloader:  downloader,
		collections: enabled,
		strict:      strictCollections,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run processes every requested product spec and returns the aggregated
// summary. It never returns an error: per-type and per-record failures are
// carried inside the summary.
func (r *Runner) Run(ctx context.Context, req Request) *Summary {
	summary := newSummary(req.RunID)
	for _, spec := range req.ProductSpecs {
		outcome := r.runProduct(ctx, spec, req)
		summary.add(outcome)
	}
	summary.finish()
	return summary
}

func (r *Runner) runProduct(ctx context.Context, spec string, req Request) ProductOutcome {
	outcome := ProductOutcome{Spec: spec}

	crit, err := r.normalizer.Normalize(ctx, spec, req.Options)
	if err != nil {
		r.logger.Error(ctx, "Rejecting product spec", err, observability.Fields{"spec": spec})
		r.metrics.RecordError("normalize", string(domain.CodeOf(err)))
		outcome.Err = err
		return outcome
	}
	outcome.ProductType = crit.ProductType

	collections := r.enabledCandidates(crit.ProductType)
	if len(collections) == 0 {
		err := domain.NewError(domain.CodeNoCollection,
			"none of the product's candidate collections is enabled in the configuration", nil, false)
		if r.strict {
			outcome.Err = err
			return outcome
		}
		// Policy choice: without strict mode a missing entitlement is a
		// warning and the product type is skipped.
		r.logger.Warn(ctx, "No enabled collection for product type, skipping", observability.Fields{
			"product_type": crit.ProductType,
		})
		return outcome
	}

	records, allFailed, searchErr := r.executeQueries(ctx, query.Build(crit), collections)
	if allFailed {
		outcome.Err = searchErr
		return outcome
	}

	merged := search.Merge(records...)
	outcome.Listing = selection.Listing(merged)
	r.logger.Info(ctx, "Search complete", observability.Fields{
		"product_type": crit.ProductType,
		"results":      len(merged),
	})

	if req.Preview {
		return outcome
	}

	selected, err := selection.Select(merged, req.SelectIndex)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	for _, record := range selected {
		outcome.Results = append(outcome.Results, r.downloader.Download(ctx, record))
	}
	return outcome
}

// executeQueries runs every query of one criteria set. Collections are tried
// in order per query; the first collection returning hits wins. A failed
// query degrades gracefully: sibling queries still contribute their results.
func (r *Runner) executeQueries(ctx context.Context, queries []query.Params, collections []string) (sets [][]domain.ProductRecord, allFailed bool, firstErr error) {
	failures := 0
	for _, params := range queries {
		records, err := r.executeQuery(ctx, params, collections)
		if err != nil {
			failures++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sets = append(sets, records)
	}
	return sets, len(queries) > 0 && failures == len(queries), firstErr
}

func (r *Runner) executeQuery(ctx context.Context, params query.Params, collections []string) ([]domain.ProductRecord, error) {
	var lastErr error
	succeeded := false
	for _, collection := range collections {
		records, err := r.client.Search(ctx, collection, params).Collect()
		if err != nil {
			r.logger.Error(ctx, "Query failed", err, observability.Fields{
				"collection":   collection,
				"product_type": params.ProductType,
			})
			lastErr = err
			continue
		}
		succeeded = true
		if len(records) > 0 {
			return records, nil
		}
	}
	if !succeeded && lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

func (r *Runner) enabledCandidates(productType string) []string {
	var out []string
	for _, c := range catalogue.Collections(productType) {
		if r.collections[c] {
			out = append(out, c)
		}
	}
	return out
}
