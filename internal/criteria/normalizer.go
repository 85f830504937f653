// Package criteria converts raw user search criteria into the canonical
// SearchCriteria consumed by the query builder. All validation of product
// spec strings, orbit/frame forms, timestamps and geometry happens here, so
// later stages can assume well-formed input.
package criteria

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/koenigleon/oads-download/internal/catalogue"
	"github.com/koenigleon/oads-download/internal/domain"
	"github.com/koenigleon/oads-download/internal/observability"
)

// frameLetters are the valid EarthCARE frame designators.
const frameLetters = "ABCDEFGH"

var baselinePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// Options carries the run-wide temporal, spatial and orbit/frame options
// that apply to every requested product type.
type Options struct {
	// ProductVersion is the --product_version value; "latest" and "" both
	// mean no baseline filter. A colon suffix on the product spec wins over
	// this.
	ProductVersion string

	Timestamp string
	StartTime string
	EndTime   string

	// Orbit/frame forms, mutually exclusive.
	OrbitAndFrame string   // single OOOOOF
	FrameRange    []string // two OOOOOF values, start and end
	OrbitRange    []int    // two orbit numbers, start and end
	FrameLetters  []string // allowed frame letters for OrbitRange

	Lat          *float64
	Lon          *float64
	RadiusMeters *int

	// BBox is a bounding box as four degrees values in the order south
	// latitude, west longitude, north latitude, east longitude. Mutually
	// exclusive with the radius search.
	BBox []float64
}

// Normalizer builds SearchCriteria from one product spec token plus the
// run-wide options.
type Normalizer struct {
	logger observability.Logger
}

func NewNormalizer(logger observability.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize validates a product spec (optionally carrying a ":XY" baseline
// suffix) together with opts and produces the canonical criteria for that
// product type. Errors are local to this product type; the caller keeps
// processing other requested types.
func (n *Normalizer) Normalize(ctx context.Context, spec string, opts Options) (domain.SearchCriteria, error) {
	token, baseline, err := splitBaseline(spec)
	if err != nil {
		return domain.SearchCriteria{}, err
	}

	alias, err := catalogue.Resolve(token)
	if err != nil {
		return domain.SearchCriteria{}, err
	}

	optVersion := opts.ProductVersion
	if strings.EqualFold(optVersion, "latest") {
		optVersion = ""
	}
	if baseline == "" {
		if optVersion != "" {
			upper := strings.ToUpper(optVersion)
			if !baselinePattern.MatchString(upper) {
				return domain.SearchCriteria{}, domain.ErrInvalidBaseline(optVersion)
			}
			baseline = upper
		}
	} else if optVersion != "" && !strings.EqualFold(optVersion, baseline) {
		// The colon form is the more specific statement of intent.
		n.logger.Warn(ctx, "Baseline suffix overrides --product_version", observability.Fields{
			"product_type":    alias.FullName,
			"suffix":          baseline,
			"product_version": optVersion,
		})
	}

	orbitFrame, err := normalizeOrbitFrame(opts)
	if err != nil {
		return domain.SearchCriteria{}, err
	}

	window, err := normalizeTimeWindow(opts, orbitFrame)
	if err != nil {
		return domain.SearchCriteria{}, err
	}

	geometry, err := normalizeGeometry(opts)
	if err != nil {
		return domain.SearchCriteria{}, err
	}

	bbox, err := normalizeBBox(opts)
	if err != nil {
		return domain.SearchCriteria{}, err
	}
	if geometry != nil && bbox != nil {
		return domain.SearchCriteria{}, domain.ErrIncompleteGeometry(
			"a radius search and a bounding box are mutually exclusive")
	}

	return domain.SearchCriteria{
		ProductType: alias.FullName,
		Baseline:    baseline,
		OrbitFrame:  orbitFrame,
		TimeWindow:  window,
		Geometry:    geometry,
		BBox:        bbox,
	}, nil
}

// splitBaseline separates an optional ":XY" baseline suffix from the product
// token. The suffix must be exactly two letters.
func splitBaseline(spec string) (token, baseline string, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) == 1 {
		return spec, "", nil
	}
	baseline = strings.ToUpper(strings.TrimSpace(parts[1]))
	if !baselinePattern.MatchString(baseline) {
		return "", "", domain.ErrInvalidBaseline(parts[1])
	}
	return parts[0], baseline, nil
}

// ParseOrbitFrame parses the OOOOOF form: a 5-digit orbit number followed by
// a single frame letter A-H (any case).
func ParseOrbitFrame(value string) (domain.OrbitFrame, error) {
	if len(value) != 6 {
		return domain.OrbitFrame{}, domain.ErrInvalidRange(
			fmt.Sprintf("orbit/frame %q must be 5 digits followed by a frame letter", value))
	}
	orbit, err := strconv.Atoi(value[:5])
	if err != nil {
		return domain.OrbitFrame{}, domain.ErrInvalidRange(
			fmt.Sprintf("orbit/frame %q has a non-numeric orbit number", value))
	}
	frame := strings.ToUpper(value[5:])
	if !strings.Contains(frameLetters, frame) {
		return domain.OrbitFrame{}, domain.ErrInvalidRange(
			fmt.Sprintf("frame letter %q is not in A-H", value[5:]))
	}
	return domain.OrbitFrame{Orbit: orbit, Frame: frame}, nil
}

func normalizeOrbitFrame(opts Options) (domain.OrbitFrameSpec, error) {
	forms := 0
	if opts.OrbitAndFrame != "" {
		forms++
	}
	if len(opts.FrameRange) > 0 {
		forms++
	}
	if len(opts.OrbitRange) > 0 {
		forms++
	}
	if forms > 1 {
		return domain.OrbitFrameSpec{}, domain.ErrInvalidRange(
			"orbit_and_frame, frame_range and orbit_range are mutually exclusive")
	}
	if len(opts.FrameLetters) > 0 && len(opts.OrbitRange) == 0 {
		return domain.OrbitFrameSpec{}, domain.ErrInvalidRange(
			"frame letters only apply to an orbit range")
	}

	switch {
	case opts.OrbitAndFrame != "":
		of, err := ParseOrbitFrame(opts.OrbitAndFrame)
		if err != nil {
			return domain.OrbitFrameSpec{}, err
		}
		return domain.OrbitFrameSpec{Kind: domain.FrameKindSingle, Single: of}, nil

	case len(opts.FrameRange) > 0:
		if len(opts.FrameRange) != 2 {
			return domain.OrbitFrameSpec{}, domain.ErrInvalidRange(
				"frame range needs exactly a start and an end orbit/frame")
		}
		start, err := ParseOrbitFrame(opts.FrameRange[0])
		if err != nil {
			return domain.OrbitFrameSpec{}, err
		}
		end, err := ParseOrbitFrame(opts.FrameRange[1])
		if err != nil {
			return domain.OrbitFrameSpec{}, err
		}
		if end.Before(start) {
			return domain.OrbitFrameSpec{}, domain.ErrInvalidRange(
				fmt.Sprintf("frame range start %s is after end %s", start, end))
		}
		return domain.OrbitFrameSpec{Kind: domain.FrameKindFrameRange, Start: start, End: end}, nil

	case len(opts.OrbitRange) > 0:
		if len(opts.OrbitRange) != 2 {
			return domain.OrbitFrameSpec{}, domain.ErrInvalidRange(
				"orbit range needs exactly a start and an end orbit number")
		}
		startOrbit, endOrbit := opts.OrbitRange[0], opts.OrbitRange[1]
		if startOrbit <= 0 || endOrbit <= 0 {
			return domain.OrbitFrameSpec{}, domain.ErrInvalidRange("orbit numbers must be positive")
		}
		if startOrbit > endOrbit {
			return domain.OrbitFrameSpec{}, domain.ErrInvalidRange(
				fmt.Sprintf("orbit range start %d is after end %d", startOrbit, endOrbit))
		}
		letters := make([]string, 0, len(opts.FrameLetters))
		for _, l := range opts.FrameLetters {
			upper := strings.ToUpper(strings.TrimSpace(l))
			if len(upper) != 1 || !strings.Contains(frameLetters, upper) {
				return domain.OrbitFrameSpec{}, domain.ErrInvalidRange(
					fmt.Sprintf("frame letter %q is not in A-H", l))
			}
			letters = append(letters, upper)
		}
		return domain.OrbitFrameSpec{
			Kind:         domain.FrameKindOrbitRange,
			StartOrbit:   startOrbit,
			EndOrbit:     endOrbit,
			FrameLetters: letters,
		}, nil
	}

	return domain.OrbitFrameSpec{Kind: domain.FrameKindNone}, nil
}

func normalizeTimeWindow(opts Options, orbitFrame domain.OrbitFrameSpec) (domain.TimeWindow, error) {
	if opts.Timestamp != "" && (opts.StartTime != "" || opts.EndTime != "") {
		return domain.TimeWindow{}, domain.ErrInvalidRange(
			"a timestamp and a start/end range are mutually exclusive")
	}

	if opts.Timestamp != "" {
		instant, err := ParseTimestamp(opts.Timestamp)
		if err != nil {
			return domain.TimeWindow{}, err
		}
		return domain.TimeWindow{Instant: &instant}, nil
	}

	window := domain.TimeWindow{}
	if opts.StartTime != "" {
		start, err := ParseTimestamp(opts.StartTime)
		if err != nil {
			return domain.TimeWindow{}, err
		}
		window.Start = &start
	}
	if opts.EndTime != "" {
		end, err := ParseTimestamp(opts.EndTime)
		if err != nil {
			return domain.TimeWindow{}, err
		}
		window.End = &end
	}
	if window.Start != nil && window.End != nil && window.End.Before(*window.Start) {
		return domain.TimeWindow{}, domain.ErrInvalidRange(
			fmt.Sprintf("start time %s is after end time %s", window.Start, window.End))
	}

	// Without any temporal or orbit/frame narrowing the query degenerates to
	// "most recent", which must be explicit rather than accidental.
	if window.Start == nil && window.End == nil && orbitFrame.Kind == domain.FrameKindNone {
		window.MostRecent = true
	}
	return window, nil
}

func normalizeGeometry(opts Options) (*domain.Geometry, error) {
	hasPoint := opts.Lat != nil && opts.Lon != nil
	hasRadius := opts.RadiusMeters != nil

	if !hasPoint && !hasRadius && opts.Lat == nil && opts.Lon == nil {
		return nil, nil
	}
	if opts.Lat == nil || opts.Lon == nil || !hasRadius {
		return nil, domain.ErrIncompleteGeometry(
			"a radius search needs latitude, longitude and radius together")
	}
	if *opts.RadiusMeters <= 0 {
		return nil, domain.ErrIncompleteGeometry(
			fmt.Sprintf("radius must be positive, got %d", *opts.RadiusMeters))
	}
	if *opts.Lat < -90 || *opts.Lat > 90 {
		return nil, domain.ErrIncompleteGeometry(
			fmt.Sprintf("latitude %v is outside [-90, 90]", *opts.Lat))
	}
	if *opts.Lon < -180 || *opts.Lon > 180 {
		return nil, domain.ErrIncompleteGeometry(
			fmt.Sprintf("longitude %v is outside [-180, 180]", *opts.Lon))
	}
	return &domain.Geometry{
		Lat:          *opts.Lat,
		Lon:          *opts.Lon,
		RadiusMeters: *opts.RadiusMeters,
	}, nil
}

func normalizeBBox(opts Options) (*domain.BoundingBox, error) {
	if len(opts.BBox) == 0 {
		return nil, nil
	}
	if len(opts.BBox) != 4 {
		return nil, domain.ErrIncompleteGeometry(
			"a bounding box needs exactly <latS>,<lonW>,<latN>,<lonE>")
	}
	box := domain.BoundingBox{
		South: opts.BBox[0],
		West:  opts.BBox[1],
		North: opts.BBox[2],
		East:  opts.BBox[3],
	}
	if box.South < -90 || box.South > 90 || box.North < -90 || box.North > 90 {
		return nil, domain.ErrIncompleteGeometry(
			fmt.Sprintf("bounding box latitudes %v, %v must be in [-90, 90]", box.South, box.North))
	}
	if box.West < -180 || box.West > 180 || box.East < -180 || box.East > 180 {
		return nil, domain.ErrIncompleteGeometry(
			fmt.Sprintf("bounding box longitudes %v, %v must be in [-180, 180]", box.West, box.East))
	}
	if box.South > box.North {
		return nil, domain.ErrIncompleteGeometry(
			fmt.Sprintf("bounding box south latitude %v is above north latitude %v", box.South, box.North))
	}
	return &box, nil
}
