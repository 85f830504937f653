package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koenigleon/oads-download/internal/domain"
)

func TestBuild_SingleFrame(t *testing.T) {
	criteria := domain.SearchCriteria{
		ProductType: "ATL_NOM_1B",
		Baseline:    "AC",
		OrbitFrame: domain.OrbitFrameSpec{
			Kind:   domain.FrameKindSingle,
			Single: domain.OrbitFrame{Orbit: 2163, Frame: "E"},
		},
	}

	params := Build(criteria)
	require.Len(t, params, 1)

	values := params[0].Values(100, 0)
	assert.Equal(t, "[ATL_NOM_1B]", values.Get("productType"))
	assert.Equal(t, "AC", values.Get("productVersion"))
	assert.Equal(t, "E", values.Get("frame"))
	assert.Equal(t, "2163", values.Get("orbitNumber"))
}

func TestBuild_FrameRange(t *testing.T) {
	criteria := domain.SearchCriteria{
		ProductType: "ATL_NOM_1B",
		OrbitFrame: domain.OrbitFrameSpec{
			Kind:  domain.FrameKindFrameRange,
			Start: domain.OrbitFrame{Orbit: 981, Frame: "A"},
			End:   domain.OrbitFrame{Orbit: 983, Frame: "C"},
		},
	}

	params := Build(criteria)
	require.Len(t, params, 1)

	p := params[0]
	assert.Equal(t, "[981,983]", p.OrbitNumber)
	assert.Empty(t, p.Frame)
	require.NotNil(t, p.FrameWindowStart)
	require.NotNil(t, p.FrameWindowEnd)
	assert.Equal(t, domain.OrbitFrame{Orbit: 981, Frame: "A"}, *p.FrameWindowStart)
	assert.Equal(t, domain.OrbitFrame{Orbit: 983, Frame: "C"}, *p.FrameWindowEnd)
}

func TestBuild_OrbitRange(t *testing.T) {
	t.Run("one query per frame letter", func(t *testing.T) {
		criteria := domain.SearchCriteria{
			ProductType: "ATL_NOM_1B",
			OrbitFrame: domain.OrbitFrameSpec{
				Kind:         domain.FrameKindOrbitRange,
				StartOrbit:   981,
				EndOrbit:     990,
				FrameLetters: []string{"A", "B"},
			},
		}

		params := Build(criteria)
		require.Len(t, params, 2)
		assert.Equal(t, "A", params[0].Frame)
		assert.Equal(t, "B", params[1].Frame)
		for _, p := range params {
			assert.Equal(t, "[981,990]", p.OrbitNumber)
		}
	})

	t.Run("no frame letters means no frame filter", func(t *testing.T) {
		criteria := domain.SearchCriteria{
			ProductType: "ATL_NOM_1B",
			OrbitFrame: domain.OrbitFrameSpec{
				Kind:       domain.FrameKindOrbitRange,
				StartOrbit: 981,
				EndOrbit:   990,
			},
		}

		params := Build(criteria)
		require.Len(t, params, 1)
		assert.Empty(t, params[0].Frame)
		assert.Equal(t, "[981,990]", params[0].OrbitNumber)
	})

	t.Run("degenerate single-orbit range", func(t *testing.T) {
		criteria := domain.SearchCriteria{
			ProductType: "ATL_NOM_1B",
			OrbitFrame: domain.OrbitFrameSpec{
				Kind:       domain.FrameKindOrbitRange,
				StartOrbit: 981,
				EndOrbit:   981,
			},
		}

		params := Build(criteria)
		require.Len(t, params, 1)
		assert.Equal(t, "981", params[0].OrbitNumber)
	})
}

func TestBuild_TimeWindow(t *testing.T) {
	t.Run("instant becomes a zero-width interval", func(t *testing.T) {
		instant := time.Date(2024, 7, 31, 13, 45, 0, 0, time.UTC)
		criteria := domain.SearchCriteria{
			ProductType: "ATL_NOM_1B",
			TimeWindow:  domain.TimeWindow{Instant: &instant},
		}

		params := Build(criteria)
		require.Len(t, params, 1)

		values := params[0].Values(100, 0)
		assert.Equal(t, "2024-07-31T13:45:00Z", values.Get("startDate"))
		assert.Equal(t, "2024-07-31T13:45:00Z", values.Get("endDate"))
	})

	t.Run("explicit range", func(t *testing.T) {
		start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)
		criteria := domain.SearchCriteria{
			ProductType: "ATL_NOM_1B",
			TimeWindow:  domain.TimeWindow{Start: &start, End: &end},
		}

		values := Build(criteria)[0].Values(100, 0)
		assert.Equal(t, "2024-07-01T00:00:00Z", values.Get("startDate"))
		assert.Equal(t, "2024-07-31T00:00:00Z", values.Get("endDate"))
	})
}

func TestParams_Values(t *testing.T) {
	p := Params{
		ProductType: "MSI_RGR_1C",
		Geometry:    &domain.Geometry{Lat: 52.52, Lon: 13.4, RadiusMeters: 50000},
	}

	values := p.Values(500, 1000)
	assert.Equal(t, "application/atom+xml", values.Get("httpAccept"))
	assert.Equal(t, "[MSI_RGR_1C]", values.Get("productType"))
	assert.Equal(t, "52.52", values.Get("lat"))
	assert.Equal(t, "13.4", values.Get("lon"))
	assert.Equal(t, "50000", values.Get("radius"))
	assert.Equal(t, "500", values.Get("count"))
	assert.Equal(t, "1000", values.Get("startIndex"))

	// Optional filters stay out of the query entirely.
	_, hasBaseline := values["productVersion"]
	_, hasFrame := values["frame"]
	_, hasOrbit := values["orbitNumber"]
	_, hasBBox := values["bbox"]
	assert.False(t, hasBaseline)
	assert.False(t, hasFrame)
	assert.False(t, hasOrbit)
	assert.False(t, hasBBox)
}

func TestParams_Values_BoundingBox(t *testing.T) {
	p := Params{
		ProductType: "MSI_RGR_1C",
		BBox:        &domain.BoundingBox{South: 37.7, West: 14.9, North: 37.78, East: 14.99},
	}

	values := p.Values(500, 0)
	assert.Equal(t, "14.9,37.7,14.99,37.78", values.Get("bbox"))
}

func TestBuild_CarriesBoundingBox(t *testing.T) {
	box := &domain.BoundingBox{South: 37.7, West: 14.9, North: 37.78, East: 14.99}
	params := Build(domain.SearchCriteria{ProductType: "ATL_NOM_1B", BBox: box})

	require.Len(t, params, 1)
	assert.Equal(t, box, params[0].BBox)
}
