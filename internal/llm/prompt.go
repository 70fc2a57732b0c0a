package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Prompt content caps: the model only ever sees the head of a document.
const maxPromptContent = 8000

const captionPrompt = "Describe this image in 2-4 sentences. Mention any visible text, " +
	"dates, document type, and organizations. Reply with plain text only."

// clampContent truncates to maxPromptContent bytes on a rune boundary, so a
// clamped prompt is still valid UTF-8.
func clampContent(content string) string {
	if len(content) <= maxPromptContent {
		return content
	}
	cut := content[:maxPromptContent]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// FactsPromptInput carries the context for the phase-1 prompt.
type FactsPromptInput struct {
	Filename string
	ModTime  string
	YearHint string // best-effort hint from path/content, may be empty
	Content  string
}

// BuildFactsPrompt renders the phase-1 prompt. The model is asked for a
// summary, a reference-year hint, and a confidence, as strict JSON.
func BuildFactsPrompt(in FactsPromptInput) string {
	yearHintLine := "year_hint_from_metadata: null"
	if in.YearHint != "" {
		yearHintLine = "year_hint_from_metadata: " + in.YearHint
	}

	return fmt.Sprintf(`You are a document archiving assistant. Reply with VALID JSON only (no extra text, no code fences).

Goal:
- understand what this document is about
- write a 2-6 sentence summary of its purpose and content
- estimate the year the document refers to (year_hint); use "unknown" if the content gives no usable year
- if year_hint_from_metadata is present, use it ONLY if the content doesn't clearly contradict it
- report your confidence as a number between 0 and 1

Input:
filename: %s
mtime: %s
%s
content:
"""%s"""

Output JSON schema:
{"summary": string, "year_hint": string, "confidence": number}`,
		in.Filename, in.ModTime, yearHintLine, clampContent(in.Content))
}

// ClassifyPromptInput carries the context for the phase-2 prompt.
type ClassifyPromptInput struct {
	Filename      string
	Summary       string
	YearHint      string
	CategoryNames []string
	TaxonomyBlock string
}

// BuildClassifyPrompt renders the phase-2 prompt. The model picks a category
// from the taxonomy, settles the reference year, and proposes a descriptive
// archive filename.
func BuildClassifyPrompt(in ClassifyPromptInput) string {
	return fmt.Sprintf(`You are a document archiving assistant. Reply with VALID JSON only (no extra text, no code fences).

Goal:
- choose a category from: %s
- taxonomy (meaning + examples):
%s
- decide the reference year the document refers to; use "unknown" if it cannot be determined
- optionally estimate the production year (when the document was produced, if different)
- propose a meaningful, descriptive file name (proposed_name) using words separated by spaces
  - use 6-12 words when possible (not too short)
  - include key entities (company/person) and month/period if present
  - copy proper names as-is; if uncertain, omit the entity
  - do NOT include generic words like "this document", "text", "image"
  - keep the original file extension
- report your confidence as a number between 0 and 1
- optionally add short notes explaining the choice

Input:
filename: %s
year_hint: %s
document summary:
"""%s"""

Output JSON schema:
{"category": string, "reference_year": string, "production_year": string|null, "proposed_name": string, "confidence": number, "notes": string|null}`,
		strings.Join(in.CategoryNames, ", "), in.TaxonomyBlock, in.Filename, orUnknown(in.YearHint), in.Summary)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
