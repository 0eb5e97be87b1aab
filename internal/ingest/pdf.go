// internal/ingest/pdf.go
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ExtractPDFText converts a PDF to plain text using the poppler
// pdftotext utility, which must be on PATH. Layout mode keeps the
// article numbering readable.
func ExtractPDFText(ctx context.Context, path string) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not found on PATH (install poppler-utils): %w", err)
	}

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("pdftotext failed on %s: %s", path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("pdftotext failed on %s: %w", path, err)
	}

	return string(out), nil
}

// FetchSource resolves a document source to a local file path. HTTP
// and HTTPS URLs are downloaded into dir; anything else is treated as
// a local path and returned as-is.
func FetchSource(ctx context.Context, source, dir string) (string, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		if _, err := os.Stat(source); err != nil {
			return "", fmt.Errorf("source file not found: %w", err)
		}
		return source, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %d", source, resp.StatusCode)
	}

	dest := filepath.Join(dir, downloadName(source))

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", dest, err)
	}

	return dest, nil
}

// downloadName derives a local filename from the URL path, so query
// strings like ?v=2 never end up in the filename.
func downloadName(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return "source.pdf"
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "source.pdf"
	}
	return name
}
