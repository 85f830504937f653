// Package query maps canonical search criteria onto catalogue query
// parameter sets. The parameter names are part of the external contract with
// the catalogue and must not change.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/koenigleon/oads-download/internal/domain"
)

// Params is one catalogue query. A Params value is derived from criteria
// alone, so re-issuing it always expresses the same search.
type Params struct {
	ProductType string
	Baseline    string

	// Frame is a single frame letter filter; the catalogue dialect filters
	// one letter at a time.
	Frame string
	// OrbitNumber is either "N" or the range form "[a,b]".
	OrbitNumber string

	Start *time.Time
	End   *time.Time

	Geometry *domain.Geometry
	BBox     *domain.BoundingBox

	// FrameWindow bounds records to an inclusive orbit/frame interval that
	// the catalogue cannot express directly; the search client applies it to
	// parsed records.
	FrameWindowStart *domain.OrbitFrame
	FrameWindowEnd   *domain.OrbitFrame
}

// Values encodes the query for one result page.
func (p Params) Values(pageSize, startIndex int) url.Values {
	v := url.Values{}
	v.Set("httpAccept", "application/atom+xml")
	v.Set("productType", fmt.Sprintf("[%s]", p.ProductType))
	if p.Baseline != "" {
		v.Set("productVersion", p.Baseline)
	}
	if p.Frame != "" {
		v.Set("frame", p.Frame)
	}
	if p.OrbitNumber != "" {
		v.Set("orbitNumber", p.OrbitNumber)
	}
	if p.Start != nil {
		v.Set("startDate", p.Start.UTC().Format(time.RFC3339))
	}
	if p.End != nil {
		v.Set("endDate", p.End.UTC().Format(time.RFC3339))
	}
	if p.Geometry != nil {
		v.Set("lat", strconv.FormatFloat(p.Geometry.Lat, 'f', -1, 64))
		v.Set("lon", strconv.FormatFloat(p.Geometry.Lon, 'f', -1, 64))
		v.Set("radius", strconv.Itoa(p.Geometry.RadiusMeters))
	}
	if p.BBox != nil {
		// geo:box order: west,south,east,north.
		v.Set("bbox", fmt.Sprintf("%s,%s,%s,%s",
			strconv.FormatFloat(p.BBox.West, 'f', -1, 64),
			strconv.FormatFloat(p.BBox.South, 'f', -1, 64),
			strconv.FormatFloat(p.BBox.East, 'f', -1, 64),
			strconv.FormatFloat(p.BBox.North, 'f', -1, 64)))
	}
	v.Set("count", strconv.Itoa(pageSize))
	v.Set("startIndex", strconv.Itoa(startIndex))
	return v
}

// Build produces one Params per temporal/spatial slice the criteria needs.
// Most criteria yield exactly one query; an orbit range with N frame letters
// yields N, one per letter. Wide time ranges stay a single query since
// pagination is the catalogue client's responsibility.
func Build(c domain.SearchCriteria) []Params {
	base := Params{
		ProductType: c.ProductType,
		Baseline:    c.Baseline,
		Geometry:    c.Geometry,
		BBox:        c.BBox,
	}

	if c.TimeWindow.Instant != nil {
		// Frame-containing-instant semantics: a zero-width interval matches
		// the frame whose acquisition covers the instant.
		base.Start = c.TimeWindow.Instant
		base.End = c.TimeWindow.Instant
	} else {
		base.Start = c.TimeWindow.Start
		base.End = c.TimeWindow.End
	}

	switch c.OrbitFrame.Kind {
	case domain.FrameKindSingle:
		base.OrbitNumber = strconv.Itoa(c.OrbitFrame.Single.Orbit)
		base.Frame = c.OrbitFrame.Single.Frame
		return []Params{base}

	case domain.FrameKindFrameRange:
		start, end := c.OrbitFrame.Start, c.OrbitFrame.End
		base.OrbitNumber = orbitRange(start.Orbit, end.Orbit)
		base.FrameWindowStart = &start
		base.FrameWindowEnd = &end
		return []Params{base}

	case domain.FrameKindOrbitRange:
		base.OrbitNumber = orbitRange(c.OrbitFrame.StartOrbit, c.OrbitFrame.EndOrbit)
		if len(c.OrbitFrame.FrameLetters) == 0 {
			return []Params{base}
		}
		params := make([]Params, 0, len(c.OrbitFrame.FrameLetters))
		for _, letter := range c.OrbitFrame.FrameLetters {
			p := base
			p.Frame = letter
			params = append(params, p)
		}
		return params

	default:
		return []Params{base}
	}
}

func orbitRange(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("[%d,%d]", start, end)
}
