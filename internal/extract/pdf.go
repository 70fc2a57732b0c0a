package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the embedded text layer of a PDF. Scanned PDFs without a text
// layer yield an empty result with a note; OCR is out of scope here.
type PDF struct{}

// Extract implements Extractor.
func (PDF) Extract(_ context.Context, path string) (result Result, err error) {
	// The pdf library panics on some malformed files; a broken PDF is a
	// skip, not a crash.
	defer func() {
		if r := recover(); r != nil {
			result = Result{Method: "pdf-text", Note: fmt.Sprintf("malformed pdf: %v", r)}
			err = nil
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return Result{Method: "pdf-text", Note: fmt.Sprintf("unreadable pdf: %v", err)}, nil
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return Result{Method: "pdf-text", Note: fmt.Sprintf("no text layer: %v", err)}, nil
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return Result{Method: "pdf-text", Note: fmt.Sprintf("no text layer: %v", err)}, nil
	}

	return Result{Text: clampText(buf.String()), Method: "pdf-text"}, nil
}
