// Command oads-download searches the EO-CAT catalogue for EarthCARE products
// and downloads the selected results from the OADS dissemination servers.
//
// Credentials and behavior come from the environment (see internal/config);
// search criteria come from the command line:
//
//	oads-download [flags] PRODUCT[:BASELINE] ...
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koenigleon/oads-download/internal/archive/s3"
	"github.com/koenigleon/oads-download/internal/config"
	"github.com/koenigleon/oads-download/internal/criteria"
	"github.com/koenigleon/oads-download/internal/domain"
	"github.com/koenigleon/oads-download/internal/observability"
	"github.com/koenigleon/oads-download/internal/observability/metrics"
	"github.com/koenigleon/oads-download/internal/observability/stdout"
	"github.com/koenigleon/oads-download/internal/pipeline"
	"github.com/koenigleon/oads-download/internal/runner"
	"github.com/koenigleon/oads-download/internal/search"
)

func main() {
	req, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	runID := uuid.NewString()
	req.RunID = runID

	logger := stdout.New(cfg.ServiceName, cfg.LogLevel, os.Stderr, observability.Fields{
		"run_id":      runID,
		"environment": cfg.Environment,
	})
	promMetrics := metrics.New(cfg.ServiceName)

	ctx := context.Background()
	run := buildRunner(ctx, cfg, logger, promMetrics)

	summary := run.Run(ctx, *req)
	printSummary(summary, req.Preview)

	if cfg.PushgatewayURL != "" {
		if err := promMetrics.Push(cfg.PushgatewayURL); err != nil {
			logger.Warn(ctx, "Metrics push failed", observability.Fields{"error": err.Error()})
		}
	}

	if summary.HasFailedProduct() {
		os.Exit(1)
	}
}

// buildRunner assembles the dependency graph: HTTP client, catalogue search
// client, optional S3 archiver, download pipeline and runner.
func buildRunner(ctx context.Context, cfg *config.Config, logger observability.Logger, promMetrics *metrics.PrometheusMetrics) *runner.Runner {
	// Catalogue pages are small, so a whole-exchange timeout is fine there.
	// Payload transfers get their own client with no body deadline.
	catalogueClient := &http.Client{Timeout: cfg.HTTP.Timeout}
	downloadClient := pipeline.NewHTTPClient(cfg.HTTP)

	source := search.NewHTTPSource(
		cfg.Catalogue.BaseURL,
		cfg.Catalogue.PageSize,
		catalogueClient,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxRetries,
		logger.WithFields(observability.Fields{"component": "search"}),
	)
	client := search.NewClient(source, cfg.Catalogue.MaxPages,
		logger.WithFields(observability.Fields{"component": "search"}), promMetrics)

	var archiver pipeline.Archiver
	if cfg.Archive.Enabled() {
		a, err := s3.New(ctx, cfg.Archive,
			logger.WithFields(observability.Fields{"component": "archive"}), promMetrics)
		if err != nil {
			log.Fatalf("archive setup failed: %v", err)
		}
		archiver = a
	}

	downloader := pipeline.NewDownloader(downloadClient, cfg, archiver,
		logger.WithFields(observability.Fields{"component": "pipeline"}), promMetrics)

	normalizer := criteria.NewNormalizer(logger.WithFields(observability.Fields{"component": "criteria"}))

	return runner.New(normalizer, client, downloader, cfg.Collections, cfg.StrictCollections,
		logger.WithFields(observability.Fields{"component": "runner"}), promMetrics)
}

// parseFlags is the thin CLI shell; all validation beyond basic syntax
// happens in the criteria normalizer.
func parseFlags(args []string) (*runner.Request, error) {
	fs := flag.NewFlagSet("oads-download", flag.ContinueOnError)

	var (
		timestamp  = fs.String("t", "", `search for frames containing a timestamp (e.g. "2024-07-31 13:45")`)
		startTime  = fs.String("st", "", "start of sensing time")
		endTime    = fs.String("et", "", "end of sensing time")
		orbitFrame = fs.String("oaf", "", "orbit and frame, e.g. 00981E")
		frameRange = fs.String("frame_range", "", "orbit/frame range, e.g. 00981A,00983C")
		orbitRange = fs.String("orbit_range", "", "orbit number range, e.g. 981,990")
		frames     = fs.String("f", "", "comma-separated frame letters for an orbit range, e.g. A,B")
		radius     = fs.Int("r", 0, "search radius in meters around -lat/-lon")
		bbox       = fs.String("bbox", "", "bounding box search, e.g. 14.9,37.7,14.99,37.78 (<latS>,<lonW>,<latN>,<lonE>)")
		lat        = fs.Float64("lat", 0, "latitude of the radius search point")
		lon        = fs.Float64("lon", 0, "longitude of the radius search point")
		version    = fs.String("pv", "", `processor baseline, e.g. "AC" or "latest"`)
		index      = fs.Int("i", 0, "select a single file from the listing (1-based, negative from the end)")
		preview    = fs.Bool("no_download", false, "list matching products without downloading")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() == 0 {
		return nil, fmt.Errorf("no product types requested; pass product names like ANOM or ATL_NOM_1B")
	}

	opts := criteria.Options{
		ProductVersion: *version,
		Timestamp:      *timestamp,
		StartTime:      *startTime,
		EndTime:        *endTime,
		OrbitAndFrame:  *orbitFrame,
		FrameRange:     splitList(*frameRange),
		FrameLetters:   splitList(*frames),
	}
	if *bbox != "" {
		for _, part := range splitList(*bbox) {
			value, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid bounding box value %q", part)
			}
			opts.BBox = append(opts.BBox, value)
		}
	}
	if *orbitRange != "" {
		for _, part := range splitList(*orbitRange) {
			orbit, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid orbit number %q", part)
			}
			opts.OrbitRange = append(opts.OrbitRange, orbit)
		}
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["lat"] {
		opts.Lat = lat
	}
	if set["lon"] {
		opts.Lon = lon
	}
	if set["r"] {
		opts.RadiusMeters = radius
	}

	req := &runner.Request{
		ProductSpecs: fs.Args(),
		Options:      opts,
		Preview:      *preview,
	}
	if set["i"] {
		req.SelectIndex = index
	}
	return req, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// printSummary writes the user-facing listing and run summary to stdout,
// separate from the structured logs on stderr.
func printSummary(summary *runner.Summary, preview bool) {
	for _, product := range summary.Products {
		if product.Err != nil {
			fmt.Printf("%s: FAILED: %v\n", product.Spec, product.Err)
			continue
		}

		if len(product.Listing) == 0 {
			fmt.Printf("%s: no products found\n", product.Spec)
			continue
		}

		fmt.Printf("%s: %d product(s) found\n", product.Spec, len(product.Listing))
		width := len(strconv.Itoa(len(product.Listing)))
		for _, entry := range product.Listing {
			fmt.Printf("  %*d : %s\n", width, entry.Index, entry.ID)
		}

		for _, result := range product.Results {
			switch result.Status {
			case domain.StatusSuccess:
				fmt.Printf("  downloaded %s -> %s\n", result.Record.ID, result.LocalPath)
			case domain.StatusSkipped:
				fmt.Printf("  skipped %s (%s)\n", result.Record.ID, result.Reason)
			case domain.StatusFailed:
				fmt.Printf("  failed %s: %s\n", result.Record.ID, result.Reason)
			}
		}
	}

	if preview {
		fmt.Println("no files downloaded (preview mode)")
	}
	fmt.Printf("run %s finished in %s: %d downloaded, %d skipped, %d failed\n",
		summary.RunID, summary.Duration().Round(time.Millisecond), summary.Downloaded, summary.Skipped, summary.Failed)
}
