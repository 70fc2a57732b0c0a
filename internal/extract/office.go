package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultSofficeTimeout bounds the conversion subprocess so one hung
// LibreOffice instance cannot stall a whole batch.
const DefaultSofficeTimeout = 60 * time.Second

// Office extracts doc/docx/odt/rtf content by converting to text with a
// headless LibreOffice subprocess. The subprocess runs under a per-call
// timeout; a timeout is reported as an error (transport-class failure), not
// a skip.
type Office struct {
	// Binary overrides the soffice executable name, for tests.
	Binary string
	// Timeout bounds one conversion. Zero means DefaultSofficeTimeout.
	Timeout time.Duration
}

// Extract implements Extractor.
func (o Office) Extract(ctx context.Context, path string) (Result, error) {
	binary := o.Binary
	if binary == "" {
		binary = "soffice"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return Result{Method: "office-convert", Note: "libreoffice not installed"}, nil
	}

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultSofficeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outDir, err := os.MkdirTemp("", "archivist-office-*")
	if err != nil {
		return Result{}, fmt.Errorf("create conversion dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, binary, "--headless", "--convert-to", "txt:Text", "--outdir", outDir, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, fmt.Errorf("office conversion timed out after %s", timeout)
		}
		return Result{}, fmt.Errorf("office conversion failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	converted := filepath.Join(outDir, stem+".txt")
	raw, err := os.ReadFile(converted)
	if err != nil {
		return Result{Method: "office-convert", Note: "conversion produced no output"}, nil
	}
	if !utf8.Valid(raw) {
		return Result{Method: "office-convert", Note: "conversion produced non-text output"}, nil
	}

	return Result{Text: clampText(string(raw)), Method: "office-convert"}, nil
}
