// Package selection narrows the merged result list to the records that will
// actually be downloaded, and produces the enumerated preview listing.
package selection

import (
	"github.com/koenigleon/oads-download/internal/domain"
)

// ListingEntry is one line of the preview listing shown to the user.
type ListingEntry struct {
	// Index is 1-based, matching what Select accepts.
	Index int
	ID    string
}

// Listing enumerates records with their selection indices. The order is the
// ordering key already applied upstream; no re-sorting happens here.
func Listing(records []domain.ProductRecord) []ListingEntry {
	listing := make([]ListingEntry, len(records))
	for i, record := range records {
		listing[i] = ListingEntry{Index: i + 1, ID: record.ID}
	}
	return listing
}

// Select applies the optional index narrowing. A nil index selects every
// record. Indices are 1-based; negative indices count from the end, so -1 is
// the latest record. Index 0 or a magnitude beyond the record count is an
// error and nothing gets downloaded.
func Select(records []domain.ProductRecord, index *int) ([]domain.ProductRecord, error) {
	if index == nil {
		return records, nil
	}

	i := *index
	count := len(records)
	if i == 0 || i > count || i < -count {
		return nil, domain.ErrIndexOutOfRange(i, count)
	}
	if i < 0 {
		i += count + 1
	}
	return records[i-1 : i], nil
}
