package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown extracts the textual content of Markdown files by walking the
// parsed AST, so headings, emphasis markers, and link targets do not pollute
// the facts prompt.
type Markdown struct{}

// Extract implements Extractor.
func (Markdown) Extract(_ context.Context, path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(raw))

	var b strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(raw))
			if node.HardLineBreak() || node.SoftLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			for i := 0; i < node.Lines().Len(); i++ {
				line := node.Lines().At(i)
				b.Write(line.Value(raw))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("walk markdown %s: %w", path, err)
	}

	return Result{Text: clampText(b.String()), Method: "markdown"}, nil
}
