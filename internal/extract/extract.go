// Package extract turns files into plain text for the facts phase. Each
// supported kind has one Extractor; the registry dispatches on the kind
// assigned at discovery. Extraction failures that mean "nothing usable here"
// surface as an empty Result with a note, never as an error: only real I/O or
// subprocess faults are errors.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextBytes caps how much extracted text is carried forward; model prompts
// only ever see the head of the document anyway.
const MaxTextBytes = 120_000

// Result is the outcome of one extraction.
type Result struct {
	// Text is the extracted content. Empty text is the skip signal.
	Text string
	// Method names how the text was obtained (plain-text, markdown,
	// pdf-text, xlsx-cells, office-convert, vision-caption).
	Method string
	// Note explains an empty Text (e.g. "no vision capability").
	Note string
}

// Extractor converts one file into text.
type Extractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Registry maps discovery kinds to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// Config carries the knobs the default registry needs.
type Config struct {
	// Captioner produces a description for image files; nil means no vision
	// capability is configured and images are skipped.
	Captioner Captioner
	// SofficeTimeout bounds the office-conversion subprocess. Zero uses
	// DefaultSofficeTimeout.
	SofficeTimeout time.Duration
}

// NewRegistry builds the default registry for all supported kinds.
func NewRegistry(cfg Config) *Registry {
	return &Registry{extractors: map[string]Extractor{
		"txt":    PlainText{},
		"md":     Markdown{},
		"pdf":    PDF{},
		"xlsx":   XLSX{},
		"office": Office{Timeout: cfg.SofficeTimeout},
		"image":  Image{Captioner: cfg.Captioner},
	}}
}

// ForKind returns the extractor registered for kind.
func (r *Registry) ForKind(kind string) (Extractor, bool) {
	e, ok := r.extractors[kind]
	return e, ok
}

// Register replaces the extractor for a kind. Used by tests and by callers
// that want to wire alternative implementations.
func (r *Registry) Register(kind string, e Extractor) {
	r.extractors[kind] = e
}

// clampText trims, truncates to MaxTextBytes on a rune boundary, and
// collapses Windows line endings.
func clampText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if len(text) <= MaxTextBytes {
		return text
	}
	cut := text[:MaxTextBytes]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// PlainText reads UTF-8 text files directly.
type PlainText struct{}

// Extract implements Extractor.
func (PlainText) Extract(_ context.Context, path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		return Result{Method: "plain-text", Note: "file is not valid UTF-8 text"}, nil
	}
	return Result{Text: clampText(string(raw)), Method: "plain-text"}, nil
}
