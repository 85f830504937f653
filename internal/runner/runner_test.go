package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/koenigleon/oads-download/internal/criteria"
	"github.com/koenigleon/oads-download/internal/domain"
	"github.com/koenigleon/oads-download/internal/search"
	"github.com/koenigleon/oads-download/mocks"
)

var allCollections = []string{
	"EarthCAREL0L1Products",
	"EarthCAREL1InstChecked",
	"EarthCAREL1Validated",
	"EarthCAREL2Products",
	"EarthCAREL2InstChecked",
	"JAXAL2Products",
	"EarthCAREAuxiliary",
}

func testRecord(id string, offset time.Duration) domain.ProductRecord {
	return domain.ProductRecord{
		ID:               id,
		ProductType:      "ATL_NOM_1B",
		Baseline:         "AC",
		Orbit:            981,
		Frame:            "E",
		AcquisitionStart: time.Date(2024, 7, 31, 13, 45, 0, 0, time.UTC).Add(offset),
		DownloadURL:      "https://host/oads/data/" + id + ".ZIP",
		SizeBytes:        -1,
	}
}

func page(records ...domain.ProductRecord) *search.Page {
	return &search.Page{TotalResults: len(records), Records: records}
}

func emptyPage() *search.Page {
	return &search.Page{TotalResults: 0}
}

type fixture struct {
	source     *mocks.MockPageSource
	downloader *mocks.MockDownloadService
	runner     *Runner
}

func newFixture(collections []string, strict bool) *fixture {
	source := &mocks.MockPageSource{}
	downloader := &mocks.MockDownloadService{}
	logger := mocks.NewQuietLogger()
	metrics := mocks.NewQuietMetrics()

	client := search.NewClient(source, 10, logger, metrics)
	normalizer := criteria.NewNormalizer(logger)

	return &fixture{
		source:     source,
		downloader: downloader,
		runner:     New(normalizer, client, downloader, collections, strict, logger, metrics),
	}
}

func successResult(record domain.ProductRecord) domain.DownloadResult {
	return domain.DownloadResult{Record: record, Status: domain.StatusSuccess, LocalPath: record.ID + ".ZIP"}
}

func TestRun_DownloadsEveryMatch(t *testing.T) {
	f := newFixture(allCollections, false)
	first := testRecord("product-a", 0)
	second := testRecord("product-b", time.Hour)

	f.source.On("FetchPage", mock.Anything, "EarthCAREL0L1Products", mock.Anything, 0).
		Return(page(first, second), nil).Once()
	f.downloader.On("Download", mock.Anything, first).Return(successResult(first)).Once()
	f.downloader.On("Download", mock.Anything, second).Return(successResult(second)).Once()

	summary := f.runner.Run(context.Background(), Request{
		RunID:        "run-1",
		ProductSpecs: []string{"ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
	})

	assert.Equal(t, "run-1", summary.RunID)
	require.Len(t, summary.Products, 1)

	outcome := summary.Products[0]
	assert.NoError(t, outcome.Err)
	assert.Equal(t, "ATL_NOM_1B", outcome.ProductType)
	require.Len(t, outcome.Listing, 2)
	assert.Equal(t, 1, outcome.Listing[0].Index)
	assert.Equal(t, "product-a", outcome.Listing[0].ID)

	assert.Equal(t, 2, summary.Downloaded)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.HasFailedProduct())
	f.source.AssertExpectations(t)
	f.downloader.AssertExpectations(t)
}

func TestRun_CollectionFallback(t *testing.T) {
	f := newFixture(allCollections, false)
	record := testRecord("product-a", 0)

	// The first collection is entitled but empty; the second one has the hit.
	f.source.On("FetchPage", mock.Anything, "EarthCAREL0L1Products", mock.Anything, 0).
		Return(emptyPage(), nil).Once()
	f.source.On("FetchPage", mock.Anything, "EarthCAREL1InstChecked", mock.Anything, 0).
		Return(page(record), nil).Once()
	f.downloader.On("Download", mock.Anything, record).Return(successResult(record)).Once()

	summary := f.runner.Run(context.Background(), Request{
		ProductSpecs: []string{"ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
	})

	assert.Equal(t, 1, summary.Downloaded)
	f.source.AssertExpectations(t)
}

func TestRun_Preview(t *testing.T) {
	f := newFixture(allCollections, false)
	record := testRecord("product-a", 0)

	f.source.On("FetchPage", mock.Anything, "EarthCAREL0L1Products", mock.Anything, 0).
		Return(page(record), nil).Once()

	summary := f.runner.Run(context.Background(), Request{
		ProductSpecs: []string{"ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
		Preview:      true,
	})

	require.Len(t, summary.Products, 1)
	assert.Len(t, summary.Products[0].Listing, 1)
	assert.Empty(t, summary.Products[0].Results)
	assert.Zero(t, summary.Downloaded)
	f.downloader.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestRun_SelectIndex(t *testing.T) {
	f := newFixture(allCollections, false)
	first := testRecord("product-a", 0)
	second := testRecord("product-b", time.Hour)

	f.source.On("FetchPage", mock.Anything, "EarthCAREL0L1Products", mock.Anything, 0).
		Return(page(first, second), nil).Once()
	f.downloader.On("Download", mock.Anything, second).Return(successResult(second)).Once()

	index := -1
	summary := f.runner.Run(context.Background(), Request{
		ProductSpecs: []string{"ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
		SelectIndex:  &index,
	})

	assert.Equal(t, 1, summary.Downloaded)
	f.downloader.AssertExpectations(t)
	f.downloader.AssertNumberOfCalls(t, "Download", 1)
}

func TestRun_SelectIndexOutOfRange(t *testing.T) {
	f := newFixture(allCollections, false)
	f.source.On("FetchPage", mock.Anything, "EarthCAREL0L1Products", mock.Anything, 0).
		Return(page(testRecord("product-a", 0)), nil).Once()

	index := 5
	summary := f.runner.Run(context.Background(), Request{
		ProductSpecs: []string{"ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
		SelectIndex:  &index,
	})

	require.Len(t, summary.Products, 1)
	assert.Equal(t, domain.CodeIndexOutOfRange, domain.CodeOf(summary.Products[0].Err))
	assert.True(t, summary.HasFailedProduct())
	f.downloader.AssertNotCalled(t, "Download", mock.Anything, mock.Anything)
}

func TestRun_BadSpecFailsOnlyThatProduct(t *testing.T) {
	f := newFixture(allCollections, false)
	record := testRecord("product-a", 0)

	f.source.On("FetchPage", mock.Anything, "EarthCAREL0L1Products", mock.Anything, 0).
		Return(page(record), nil).Once()
	f.downloader.On("Download", mock.Anything, record).Return(successResult(record)).Once()

	summary := f.runner.Run(context.Background(), Request{
		ProductSpecs: []string{"NOPE", "ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
	})

	require.Len(t, summary.Products, 2)
	assert.Equal(t, domain.CodeUnknownProduct, domain.CodeOf(summary.Products[0].Err))
	assert.NoError(t, summary.Products[1].Err)
	assert.Equal(t, 1, summary.Downloaded)
	assert.True(t, summary.HasFailedProduct())
}

func TestRun_NoEnabledCollection(t *testing.T) {
	// Only level 2 collections are entitled; ANOM is a level 1 product.
	l2Only := []string{"EarthCAREL2Products"}

	t.Run("strict mode fails the product type", func(t *testing.T) {
		f := newFixture(l2Only, true)
		summary := f.runner.Run(context.Background(), Request{
			ProductSpecs: []string{"ANOM"},
			Options:      criteria.Options{OrbitAndFrame: "00981E"},
		})

		require.Len(t, summary.Products, 1)
		assert.Equal(t, domain.CodeNoCollection, domain.CodeOf(summary.Products[0].Err))
		assert.True(t, summary.HasFailedProduct())
	})

	t.Run("default mode skips with a warning", func(t *testing.T) {
		f := newFixture(l2Only, false)
		summary := f.runner.Run(context.Background(), Request{
			ProductSpecs: []string{"ANOM"},
			Options:      criteria.Options{OrbitAndFrame: "00981E"},
		})

		require.Len(t, summary.Products, 1)
		assert.NoError(t, summary.Products[0].Err)
		assert.Empty(t, summary.Products[0].Listing)
		assert.False(t, summary.HasFailedProduct())
	})
}

func TestRun_AllQueriesFailed(t *testing.T) {
	f := newFixture(allCollections, false)
	searchErr := domain.NewError(domain.CodeSearchFailed, "catalogue down", nil, true)

	for _, collection := range []string{"EarthCAREL0L1Products", "EarthCAREL1InstChecked", "EarthCAREL1Validated"} {
		f.source.On("FetchPage", mock.Anything, collection, mock.Anything, 0).
			Return(nil, searchErr).Once()
	}

	summary := f.runner.Run(context.Background(), Request{
		ProductSpecs: []string{"ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
	})

	require.Len(t, summary.Products, 1)
	assert.Equal(t, domain.CodeSearchFailed, domain.CodeOf(summary.Products[0].Err))
	assert.True(t, summary.HasFailedProduct())
}

func TestRun_FailedCollectionFallsThrough(t *testing.T) {
	f := newFixture(allCollections, false)
	record := testRecord("product-a", 0)
	searchErr := domain.NewError(domain.CodeSearchFailed, "catalogue down", nil, true)

	f.source.On("FetchPage", mock.Anything, "EarthCAREL0L1Products", mock.Anything, 0).
		Return(nil, searchErr).Once()
	f.source.On("FetchPage", mock.Anything, "EarthCAREL1InstChecked", mock.Anything, 0).
		Return(page(record), nil).Once()
	f.downloader.On("Download", mock.Anything, record).Return(successResult(record)).Once()

	summary := f.runner.Run(context.Background(), Request{
		ProductSpecs: []string{"ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
	})

	require.Len(t, summary.Products, 1)
	assert.NoError(t, summary.Products[0].Err)
	assert.Equal(t, 1, summary.Downloaded)
}

func TestRun_PerRecordFailuresStayLocal(t *testing.T) {
	f := newFixture(allCollections, false)
	first := testRecord("product-a", 0)
	second := testRecord("product-b", time.Hour)

	f.source.On("FetchPage", mock.Anything, "EarthCAREL0L1Products", mock.Anything, 0).
		Return(page(first, second), nil).Once()
	f.downloader.On("Download", mock.Anything, first).
		Return(domain.DownloadResult{Record: first, Status: domain.StatusFailed, Reason: "mirrors down"}).Once()
	f.downloader.On("Download", mock.Anything, second).Return(successResult(second)).Once()

	summary := f.runner.Run(context.Background(), Request{
		ProductSpecs: []string{"ANOM"},
		Options:      criteria.Options{OrbitAndFrame: "00981E"},
	})

	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 1, summary.Failed)
	// A failed record is not a failed product type; the exit code stays zero.
	assert.False(t, summary.HasFailedProduct())
}

func TestRun_GeneratesRunID(t *testing.T) {
	f := newFixture(allCollections, false)
	summary := f.runner.Run(context.Background(), Request{})
	assert.NotEmpty(t, summary.RunID)
	assert.False(t, summary.Finished.Before(summary.Started))
}
