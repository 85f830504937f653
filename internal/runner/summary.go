package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/koenigleon/oads-download/internal/domain"
	"github.com/koenigleon/oads-download/internal/selection"
)

// ProductOutcome is the result of one requested product spec.
type ProductOutcome struct {
	Spec        string
	ProductType string

	// Err marks the whole product type as failed (bad spec, no entitled
	// collection in strict mode, all queries failed, bad selection index).
	Err error

	Listing []selection.ListingEntry
	Results []domain.DownloadResult
}

// Summary aggregates one run. The run id correlates summary, logs and
// metrics of the same invocation.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	Products []ProductOutcome

	Downloaded int
	Skipped    int
	Failed     int
}

func newSummary(runID string) *Summary {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &Summary{
		RunID:   runID,
		Started: time.Now().UTC(),
	}
}

func (s *Summary) add(outcome ProductOutcome) {
	s.Products = append(s.Products, outcome)
	for _, result := range outcome.Results {
		switch result.Status {
		case domain.StatusSuccess:
			s.Downloaded++
		case domain.StatusSkipped:
			s.Skipped++
		case domain.StatusFailed:
			s.Failed++
		}
	}
}

func (s *Summary) finish() {
	s.Finished = time.Now().UTC()
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// HasFailedProduct reports whether at least one requested product type
// failed entirely; only then does the process exit nonzero.
func (s *Summary) HasFailedProduct() bool {
	for _, p := range s.Products {
		if p.Err != nil {
			return true
		}
	}
	return false
}
