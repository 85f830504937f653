// Package pipeline turns selected catalogue records into files on disk. It
// streams each payload from one of two dissemination mirrors with failover,
// verifies the received size, optionally extracts the archive and places the
// product under the planned directory. Outcomes are per record: one failure
// never aborts the batch.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/koenigleon/oads-download/internal/config"
	"github.com/koenigleon/oads-download/internal/domain"
	"github.com/koenigleon/oads-download/internal/observability"
	"github.com/koenigleon/oads-download/internal/pathplan"
)

// Reasons reported in skipped results.
const ReasonAlreadyExists = "already exists"

// Doer executes one HTTP request. *http.Client satisfies it; tests inject a
// mock.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Archiver uploads a materialized product to long-term storage. Archival is
// best effort; its failure never fails a download.
type Archiver interface {
	Archive(ctx context.Context, localPath, key string) error
}

// NewHTTPClient builds the client used for payload transfers. Products run to
// gigabytes, so the deadlines sit on connection setup and the response header
// only; an overall client timeout would cut long transfers off mid-body.
func NewHTTPClient(cfg config.HTTPConfig) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: cfg.Timeout,
		},
	}
}

// Downloader materializes product records on disk.
type Downloader struct {
	doer     Doer
	creds    config.Credentials
	mirrors  []string
	dataDir  string
	unzip    bool
	subdirs  bool
	override bool

	// archiver is nil when S3 archival is disabled.
	archiver Archiver

	// authFailures counts consecutive authentication rejections; once
	// authLimit is reached the remaining batch is short-circuited since the
	// credentials are evidently wrong, not the network.
	authFailures int
	authLimit    int

	logger  observability.Logger
	metrics observability.Metrics
}

func NewDownloader(doer Doer, cfg *config.Config, archiver Archiver, logger observability.Logger, metrics observability.Metrics) *Downloader {
	mirrors := []string{cfg.Mirrors.Primary}
	if cfg.Mirrors.Secondary != "" {
		mirrors = append(mirrors, cfg.Mirrors.Secondary)
	}

	return &Downloader{
		doer:      doer,
		creds:     cfg.Credentials,
		mirrors:   mirrors,
		dataDir:   cfg.DataDirectory,
		unzip:     cfg.Unzip,
		subdirs:   cfg.Subdirs,
		override:  cfg.Overwrite,
		archiver:  archiver,
		authLimit: cfg.Mirrors.AuthFailureLimit,
		logger:    logger,
		metrics:   metrics,
	}
}

// Download fetches one record and files it under the planned directory.
// Every outcome is reported as a DownloadResult; errors never propagate out
// of the batch loop.
func (d *Downloader) Download(ctx context.Context, record domain.ProductRecord) domain.DownloadResult {
	d.metrics.StartOperation("download")
	defer d.metrics.EndOperation("download")
	start := time.Now()
	defer func() {
		d.metrics.RecordDuration("download", time.Since(start).Seconds())
	}()

	if d.authLimit > 0 && d.authFailures >= d.authLimit {
		d.metrics.RecordError("download", "auth_short_circuit")
		return failed(record, domain.NewError(domain.CodeAuthRejected,
			"skipped after repeated authentication rejections", nil, false))
	}

	destDir := d.dataDir
	if d.subdirs {
		destDir = pathplan.Plan(record, d.dataDir)
	}

	zipName := archiveFilename(payloadFilename(record))
	zipPath := filepath.Join(destDir, zipName)
	productPath := strings.TrimSuffix(zipPath, ".ZIP")

	tryDownload, tryUnzip := d.planSteps(zipPath, productPath)
	if !tryDownload && !tryUnzip {
		d.logger.Info(ctx, "Product already present, skipping", observability.Fields{
			"id":   record.ID,
			"path": d.localPath(zipPath, productPath),
		})
		d.metrics.RecordSuccess("skip")
		return domain.DownloadResult{
			Record:    record,
			Status:    domain.StatusSkipped,
			LocalPath: d.localPath(zipPath, productPath),
			Reason:    ReasonAlreadyExists,
		}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		d.metrics.RecordError("download", "mkdir")
		return failed(record, fmt.Errorf("create destination directory: %w", err))
	}

	if tryDownload {
		if err := d.fetch(ctx, record, zipPath); err != nil {
			d.metrics.RecordError("download", errorType(err))
			d.logger.Error(ctx, "Download failed", err, observability.Fields{
				"id": record.ID,
			})
			return failed(record, err)
		}
		d.authFailures = 0
	}

	localPath := zipPath
	if tryUnzip {
		if err := extractZip(zipPath, productPath); err != nil {
			// Keep the archive on disk so the payload can be recovered by
			// hand.
			d.metrics.RecordError("download", "extraction")
			return failed(record, domain.NewError(domain.CodeExtractionFailed,
				fmt.Sprintf("extracting %s", zipName), err, false))
		}
		if err := os.Remove(zipPath); err != nil {
			d.logger.Warn(ctx, "Could not remove archive after extraction", observability.Fields{
				"path": zipPath, "error": err.Error(),
			})
		}
		localPath = productPath
	}

	d.archive(ctx, record, localPath)

	if record.SizeBytes > 0 {
		d.metrics.RecordFileSize(record.ProductType, record.SizeBytes)
	}
	d.metrics.RecordSuccess("download")
	d.logger.Info(ctx, "Product materialized", observability.Fields{
		"id":   record.ID,
		"path": localPath,
	})

	return domain.DownloadResult{
		Record:    record,
		Status:    domain.StatusSuccess,
		LocalPath: localPath,
	}
}

// planSteps decides, from what is already on disk, whether the payload needs
// downloading and whether it needs extracting. Existing non-empty outputs
// make repeated runs idempotent and cheap; the override flag forces both
// steps.
func (d *Downloader) planSteps(zipPath, productPath string) (tryDownload, tryUnzip bool) {
	if d.override {
		return true, d.unzip
	}
	zipExists := existsNonEmpty(zipPath)
	productExists := existsNonEmpty(productPath)

	tryDownload = !zipExists && !productExists
	tryUnzip = d.unzip && !productExists
	return tryDownload, tryUnzip
}

func (d *Downloader) localPath(zipPath, productPath string) string {
	if existsNonEmpty(productPath) {
		return productPath
	}
	return zipPath
}

// fetch streams the payload to a temporary file next to the destination and
// renames it into place once the size is verified. Mirror 1 is tried first;
// retryable failures move on to mirror 2.
func (d *Downloader) fetch(ctx context.Context, record domain.ProductRecord, zipPath string) error {
	var lastErr error
	for i, mirror := range d.mirrors {
		downloadURL, err := mirrorURL(mirror, record.DownloadURL)
		if err != nil {
			return err
		}

		if i > 0 {
			d.logger.Warn(ctx, "Primary mirror failed, trying secondary", observability.Fields{
				"id":    record.ID,
				"error": lastErr.Error(),
			})
		}

		err = d.fetchFrom(ctx, downloadURL, record, zipPath)
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			// Authentication rejections and 404s fail the same way on the
			// second mirror; do not hammer it.
			if domain.CodeOf(err) == domain.CodeAuthRejected {
				d.authFailures++
			}
			return err
		}
		lastErr = err
	}

	return domain.NewError(domain.CodeAllMirrorsFailed,
		fmt.Sprintf("all %d mirrors failed for %s", len(d.mirrors), record.ID), lastErr, true)
}

func (d *Downloader) fetchFrom(ctx context.Context, downloadURL string, record domain.ProductRecord, zipPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return domain.NewError(domain.CodeAllMirrorsFailed, "failed to create request", err, false)
	}
	// Credentials go on every request so expired ones surface as an
	// authentication failure instead of a silent empty download.
	req.SetBasicAuth(d.creds.Username, d.creds.Password)

	resp, err := d.doer.Do(req)
	if err != nil {
		return domain.NewError(domain.CodeAllMirrorsFailed, "connection failed", err, true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewError(domain.CodeAuthRejected,
			fmt.Sprintf("dissemination server rejected credentials with status %d", resp.StatusCode), nil, false)
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewError(domain.CodeNotFound,
			fmt.Sprintf("product %s not found on server", record.ID), nil, false)
	case resp.StatusCode >= 500:
		return domain.NewError(domain.CodeAllMirrorsFailed,
			fmt.Sprintf("server returned status %d", resp.StatusCode), nil, true)
	case resp.StatusCode != http.StatusOK:
		return domain.NewError(domain.CodeAllMirrorsFailed,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil, false)
	}

	return d.stream(resp.Body, record, zipPath)
}

// stream writes the body to zipPath via a .part temp file, verifying the
// byte count against the catalogue-reported size when known.
func (d *Downloader) stream(body io.Reader, record domain.ProductRecord, zipPath string) error {
	tempPath := zipPath + ".part"
	file, err := os.Create(tempPath)
	if err != nil {
		return domain.NewError(domain.CodeAllMirrorsFailed, "create temporary file", err, false)
	}

	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tempPath)
		if copyErr == nil {
			copyErr = closeErr
		}
		return domain.NewError(domain.CodeAllMirrorsFailed, "streaming payload", copyErr, true)
	}

	if record.SizeBytes > 0 && written != record.SizeBytes {
		os.Remove(tempPath)
		return domain.NewError(domain.CodeSizeMismatch,
			fmt.Sprintf("received %d bytes, catalogue reports %d", written, record.SizeBytes), nil, true)
	}

	if err := os.Rename(tempPath, zipPath); err != nil {
		os.Remove(tempPath)
		return domain.NewError(domain.CodeAllMirrorsFailed, "moving payload into place", err, false)
	}
	return nil
}

// archive uploads the materialized product when an archiver is configured.
func (d *Downloader) archive(ctx context.Context, record domain.ProductRecord, localPath string) {
	if d.archiver == nil {
		return
	}
	key, err := filepath.Rel(d.dataDir, localPath)
	if err != nil {
		key = filepath.Base(localPath)
	}
	if err := d.archiver.Archive(ctx, localPath, filepath.ToSlash(key)); err != nil {
		d.metrics.RecordError("archive", "upload")
		d.logger.Warn(ctx, "Archival failed, download kept", observability.Fields{
			"id":    record.ID,
			"error": err.Error(),
		})
	}
}

// payloadFilename is the file name of the payload on the dissemination
// server, falling back to the product id when the enclosure URL is odd.
func payloadFilename(record domain.ProductRecord) string {
	if u, err := url.Parse(record.DownloadURL); err == nil {
		if name := path.Base(u.Path); name != "" && name != "/" && name != "." {
			return name
		}
	}
	return record.ID
}

// mirrorURL rebases the record's enclosure URL onto a mirror host.
func mirrorURL(mirror, enclosure string) (string, error) {
	base, err := url.Parse(mirror)
	if err != nil {
		return "", domain.NewError(domain.CodeAllMirrorsFailed,
			fmt.Sprintf("invalid mirror %q", mirror), err, false)
	}
	enc, err := url.Parse(enclosure)
	if err != nil {
		return "", domain.NewError(domain.CodeAllMirrorsFailed,
			fmt.Sprintf("invalid enclosure URL %q", enclosure), err, false)
	}
	base.Path = enc.Path
	base.RawQuery = enc.RawQuery
	return base.String(), nil
}

func existsNonEmpty(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	if info.IsDir() {
		entries, err := os.ReadDir(p)
		return err == nil && len(entries) > 0
	}
	return info.Size() > 0
}

func failed(record domain.ProductRecord, err error) domain.DownloadResult {
	return domain.DownloadResult{
		Record: record,
		Status: domain.StatusFailed,
		Reason: err.Error(),
	}
}

func errorType(err error) string {
	switch domain.CodeOf(err) {
	case domain.CodeAuthRejected:
		return "auth"
	case domain.CodeNotFound:
		return "not_found"
	case domain.CodeSizeMismatch:
		return "size_mismatch"
	case domain.CodeExtractionFailed:
		return "extraction"
	default:
		return "transfer"
	}
}
