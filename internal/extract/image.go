package extract

import (
	"context"
)

// Captioner describes an image in text, typically via a vision-capable model.
type Captioner interface {
	Caption(ctx context.Context, path string) (string, error)
}

// Image extracts image content through a vision captioner. Without one
// configured, images are skipped with an explicit reason rather than failing.
type Image struct {
	Captioner Captioner
}

// Extract implements Extractor.
func (i Image) Extract(ctx context.Context, path string) (Result, error) {
	if i.Captioner == nil {
		return Result{Method: "vision-caption", Note: "no vision capability"}, nil
	}
	caption, err := i.Captioner.Caption(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: clampText(caption), Method: "vision-caption"}, nil
}
