package search

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/koenigleon/oads-download/internal/domain"
)

// Atom feed schema of the catalogue response. The element names and
// namespaces are a stable external contract.
type feed struct {
	XMLName      xml.Name `xml:"http://www.w3.org/2005/Atom feed"`
	TotalResults int      `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	Entries      []entry  `xml:"entry"`
}

type entry struct {
	Identifier string `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Title      string `xml:"title"`
	Date       string `xml:"http://purl.org/dc/elements/1.1/ date"`
	Updated    string `xml:"updated"`
	Links      []link `xml:"link"`
}

type link struct {
	Rel    string `xml:"rel,attr"`
	Href   string `xml:"href,attr"`
	Length int64  `xml:"length,attr"`
}

// sensingTimeLayout is the compact UTC form used inside product filenames.
const sensingTimeLayout = "20060102T150405Z"

// Fixed character positions inside an EarthCARE product filename, e.g.
// ECA_EXAC_ATL_NOM_1B_20240731T134500Z_20240731T140212Z_00981E.
const (
	filenameMinLen     = 60
	baselineStart      = 6
	baselineEnd        = 8
	productTypeStart   = 9
	productTypeEnd     = 19
	sensingStartOffset = 20
	sensingStartEnd    = 36
	orbitStart         = 54
	orbitEnd           = 59
	framePos           = 59
)

// parseEntry converts one feed entry into a ProductRecord. A malformed entry
// yields an error that the caller logs and skips; it never fails the search.
func parseEntry(e entry) (domain.ProductRecord, error) {
	id := strings.TrimSpace(e.Identifier)
	if id == "" {
		return domain.ProductRecord{}, domain.NewError(domain.CodeMalformedEntry,
			"entry has no dc:identifier", nil, false)
	}

	name := productFilename(id)
	if len(name) < sensingStartEnd {
		return domain.ProductRecord{}, domain.NewError(domain.CodeMalformedEntry,
			fmt.Sprintf("identifier %q is shorter than a product filename", id), nil, false)
	}

	record := domain.ProductRecord{
		ID:          id,
		ProductType: name[productTypeStart:productTypeEnd],
		Baseline:    name[baselineStart:baselineEnd],
		SizeBytes:   -1,
	}

	// Orbit products (ORBSCT/ORBPRE/ORBRES) carry no orbit+frame suffix, so
	// their names fall short of the full layout; they keep the zero values.
	if len(name) >= filenameMinLen {
		orbit := 0
		if _, err := fmt.Sscanf(name[orbitStart:orbitEnd], "%05d", &orbit); err != nil {
			return domain.ProductRecord{}, domain.NewError(domain.CodeMalformedEntry,
				fmt.Sprintf("identifier %q has a non-numeric orbit number", id), err, false)
		}
		record.Orbit = orbit
		record.Frame = name[framePos : framePos+1]
	}

	start, end, err := parseAcquisition(e, name)
	if err != nil {
		return domain.ProductRecord{}, err
	}
	record.AcquisitionStart = start
	record.AcquisitionEnd = end

	for _, l := range e.Links {
		if l.Rel == "enclosure" {
			record.DownloadURL = l.Href
			if l.Length > 0 {
				record.SizeBytes = l.Length
			}
			break
		}
	}
	if record.DownloadURL == "" {
		return domain.ProductRecord{}, domain.NewError(domain.CodeMalformedEntry,
			fmt.Sprintf("entry %q has no enclosure link", id), nil, false)
	}

	return record, nil
}

// parseAcquisition takes the acquisition interval from dc:date
// ("start/end" in RFC3339), falling back to the sensing time encoded in the
// filename when dc:date is absent.
func parseAcquisition(e entry, name string) (time.Time, time.Time, error) {
	if e.Date != "" {
		parts := strings.SplitN(e.Date, "/", 2)
		start, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[0]))
		if err != nil {
			return time.Time{}, time.Time{}, domain.NewError(domain.CodeMalformedEntry,
				fmt.Sprintf("entry %q has unparsable dc:date %q", e.Identifier, e.Date), err, false)
		}
		end := start
		if len(parts) == 2 {
			if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[1])); err == nil {
				end = parsed
			}
		}
		return start.UTC(), end.UTC(), nil
	}

	start, err := time.Parse(sensingTimeLayout, name[sensingStartOffset:sensingStartEnd])
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewError(domain.CodeMalformedEntry,
			fmt.Sprintf("entry %q has neither dc:date nor a sensing time", e.Identifier), err, false)
	}
	return start.UTC(), start.UTC(), nil
}

// productFilename strips any path and archive extension from an identifier.
func productFilename(id string) string {
	name := path.Base(id)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}
