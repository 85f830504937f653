package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractZip unpacks archivePath into destDir. The archive itself is left in
// place; deleting it after a successful extraction is the caller's decision.
func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := extractFile(file, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, destDir string) error {
	target := filepath.Join(destDir, filepath.Clean(file.Name))

	// Reject entries that would escape the destination directory.
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("archive entry %q escapes destination directory", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %q: %w", file.Name, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %q: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
	if err != nil {
		return fmt.Errorf("create %q: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write %q: %w", target, err)
	}
	return nil
}

// archiveFilename normalizes the payload filename to carry exactly one .ZIP
// extension. Some auxiliary products arrive with the extension missing or
// doubled on the dissemination servers.
func archiveFilename(name string) string {
	base := name
	for {
		ext := filepath.Ext(base)
		if !strings.EqualFold(ext, ".zip") {
			break
		}
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".ZIP"
}
