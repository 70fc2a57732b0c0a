// Package parser validates raw model output against the phase-specific JSON
// schemas. Model output is unreliable input: every malformed response becomes
// a Failure value with a short diagnostic, never a panic or a propagated
// fault. The orchestrator maps each Failure to the skipped status.
package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/harrison/archivist/internal/models"
	"github.com/harrison/archivist/internal/taxonomy"
)

// Failure describes why model output did not validate. It intentionally does
// not implement error: a Failure is a normal outcome (a skip), not a fault.
type Failure struct {
	Reason string
}

func fail(format string, args ...interface{}) *Failure {
	return &Failure{Reason: fmt.Sprintf(format, args...)}
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// validYear accepts a 4-digit year or the literal unknown marker.
func validYear(s string) bool {
	return s == models.YearUnknown || yearPattern.MatchString(s)
}

// extractJSONObject trims any prose the model wrapped around the outermost
// JSON object. Returns the raw input unchanged when no braces are found.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

// factsPayload uses pointers so missing required fields are distinguishable
// from zero values.
type factsPayload struct {
	Summary    *string  `json:"summary"`
	YearHint   *string  `json:"year_hint"`
	Confidence *float64 `json:"confidence"`
}

// ParseFacts decodes phase-1 output against the facts schema:
// {summary: string, year_hint: string|"unknown", confidence: number 0..1}.
func ParseFacts(raw string) (models.FactsResult, *Failure) {
	var payload factsPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return models.FactsResult{}, fail("facts output is not valid JSON: %v", err)
	}

	if payload.Summary == nil {
		return models.FactsResult{}, fail("facts output missing required field summary")
	}
	summary := strings.TrimSpace(*payload.Summary)
	if summary == "" {
		return models.FactsResult{}, fail("facts output has empty summary")
	}
	if payload.YearHint == nil {
		return models.FactsResult{}, fail("facts output missing required field year_hint")
	}
	yearHint := strings.TrimSpace(*payload.YearHint)
	if !validYear(yearHint) {
		return models.FactsResult{}, fail("facts output has invalid year_hint %q", yearHint)
	}
	if payload.Confidence == nil {
		return models.FactsResult{}, fail("facts output missing required field confidence")
	}
	if *payload.Confidence < 0 || *payload.Confidence > 1 {
		return models.FactsResult{}, fail("facts output confidence %.2f outside 0..1", *payload.Confidence)
	}

	return models.FactsResult{
		Summary:    summary,
		YearHint:   yearHint,
		Confidence: *payload.Confidence,
	}, nil
}

type classificationPayload struct {
	Category       *string  `json:"category"`
	ReferenceYear  *string  `json:"reference_year"`
	ProductionYear *string  `json:"production_year"`
	ProposedName   *string  `json:"proposed_name"`
	Confidence     *float64 `json:"confidence"`
	Notes          *string  `json:"notes"`
}

// ParseClassification decodes phase-2 output against the classification
// schema and checks the category against the taxonomy. The category is
// normalized to its canonical spelling.
func ParseClassification(raw string, tax taxonomy.Taxonomy) (models.ClassificationResult, *Failure) {
	var payload classificationPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return models.ClassificationResult{}, fail("classification output is not valid JSON: %v", err)
	}

	if payload.Category == nil {
		return models.ClassificationResult{}, fail("classification output missing required field category")
	}
	category := tax.Canonical(*payload.Category)
	if category == "" {
		return models.ClassificationResult{}, fail("category %q is not in the taxonomy", strings.TrimSpace(*payload.Category))
	}
	if payload.ReferenceYear == nil {
		return models.ClassificationResult{}, fail("classification output missing required field reference_year")
	}
	refYear := strings.TrimSpace(*payload.ReferenceYear)
	if !validYear(refYear) {
		return models.ClassificationResult{}, fail("classification output has invalid reference_year %q", refYear)
	}

	productionYear := ""
	if payload.ProductionYear != nil {
		productionYear = strings.TrimSpace(*payload.ProductionYear)
		if productionYear != "" && !validYear(productionYear) {
			return models.ClassificationResult{}, fail("classification output has invalid production_year %q", productionYear)
		}
	}

	if payload.ProposedName == nil || strings.TrimSpace(*payload.ProposedName) == "" {
		return models.ClassificationResult{}, fail("classification output missing proposed_name")
	}
	if payload.Confidence == nil {
		return models.ClassificationResult{}, fail("classification output missing required field confidence")
	}
	if *payload.Confidence < 0 || *payload.Confidence > 1 {
		return models.ClassificationResult{}, fail("classification output confidence %.2f outside 0..1", *payload.Confidence)
	}

	notes := ""
	if payload.Notes != nil {
		notes = strings.TrimSpace(*payload.Notes)
	}

	return models.ClassificationResult{
		Category:       category,
		ReferenceYear:  refYear,
		ProductionYear: productionYear,
		ProposedName:   strings.TrimSpace(*payload.ProposedName),
		Confidence:     *payload.Confidence,
		Notes:          notes,
	}, nil
}
