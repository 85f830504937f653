package domain

import (
	"fmt"
	"time"
)

// Level is the processing tier of a product, used to group downloads on disk.
type Level string

const (
	LevelL1    Level = "L1"
	LevelL2a   Level = "L2a"
	LevelL2b   Level = "L2b"
	LevelAux   Level = "Aux"
	LevelOrbit Level = "Orbit"
)

// ProductAlias maps between the full product-type identifier, its shorthand
// and the product level. The table is built once at startup and never mutated.
type ProductAlias struct {
	FullName  string
	Shorthand string
	Level     Level
}

// OrbitFrame addresses one frame of one orbit, e.g. 02163E.
type OrbitFrame struct {
	Orbit int
	Frame string
}

// String renders the canonical OOOOOF form (5-digit orbit, 1-letter frame).
func (of OrbitFrame) String() string {
	return fmt.Sprintf("%05d%s", of.Orbit, of.Frame)
}

// Before reports whether of sorts before other by (orbit, frame).
func (of OrbitFrame) Before(other OrbitFrame) bool {
	if of.Orbit != other.Orbit {
		return of.Orbit < other.Orbit
	}
	return of.Frame < other.Frame
}

// OrbitFrameKind selects which variant of OrbitFrameSpec is populated.
type OrbitFrameKind int

const (
	// FrameKindNone means no orbit/frame filtering.
	FrameKindNone OrbitFrameKind = iota
	// FrameKindSingle filters on exactly one orbit+frame.
	FrameKindSingle
	// FrameKindFrameRange filters on an inclusive range of orbit+frame pairs.
	FrameKindFrameRange
	// FrameKindOrbitRange filters on an orbit-number range with an explicit
	// list of allowed frame letters.
	FrameKindOrbitRange
)

// OrbitFrameSpec holds exactly one of the accepted orbit/frame filter forms.
type OrbitFrameSpec struct {
	Kind OrbitFrameKind

	// Single holds the frame for FrameKindSingle.
	Single OrbitFrame

	// Start and End bound the range for FrameKindFrameRange (inclusive).
	Start OrbitFrame
	End   OrbitFrame

	// StartOrbit, EndOrbit and FrameLetters apply to FrameKindOrbitRange.
	StartOrbit   int
	EndOrbit     int
	FrameLetters []string
}

// TimeWindow is either a single instant (frame-containing-instant semantics)
// or an explicit [Start, End) range. When neither is set and no orbit/frame
// filter narrows the search, MostRecent must be set so the degenerate
// "latest products" query is explicit rather than accidental.
type TimeWindow struct {
	Instant    *time.Time
	Start      *time.Time
	End        *time.Time
	MostRecent bool
}

// Geometry is a circular spatial filter around a point.
type Geometry struct {
	Lat          float64
	Lon          float64
	RadiusMeters int
}

// BoundingBox is a rectangular spatial filter in degrees.
type BoundingBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

// SearchCriteria is the canonical form of one requested product type,
// produced by the normalizer and consumed by the query builder.
type SearchCriteria struct {
	ProductType string
	// Baseline is the two-letter processor baseline, empty for "latest".
	Baseline   string
	OrbitFrame OrbitFrameSpec
	TimeWindow TimeWindow
	Geometry   *Geometry
	BBox       *BoundingBox
}

// ProductRecord is one catalogue search hit. Immutable once parsed.
type ProductRecord struct {
	ID               string
	ProductType      string
	Baseline         string
	Orbit            int
	Frame            string
	AcquisitionStart time.Time
	AcquisitionEnd   time.Time
	DownloadURL      string
	// SizeBytes is the catalogue-reported payload size, -1 when unknown.
	SizeBytes int64
}

// Before implements the ordering key (acquisitionStart, id) used for both
// presentation indices and deduplication order.
func (r ProductRecord) Before(other ProductRecord) bool {
	if !r.AcquisitionStart.Equal(other.AcquisitionStart) {
		return r.AcquisitionStart.Before(other.AcquisitionStart)
	}
	return r.ID < other.ID
}

// Status classifies the outcome of one download attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// DownloadResult is the per-record outcome of the download pipeline.
// Exactly one is produced per selected record and never mutated afterwards.
type DownloadResult struct {
	Record    ProductRecord
	Status    Status
	LocalPath string
	// Reason explains failed and skipped outcomes.
	Reason string
}
