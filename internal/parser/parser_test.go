package parser

import (
	"testing"

	"github.com/harrison/archivist/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFacts(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		result, failure := ParseFacts(`{"summary": "Electricity bill for March", "year_hint": "2022", "confidence": 0.85}`)
		require.Nil(t, failure)
		assert.Equal(t, "Electricity bill for March", result.Summary)
		assert.Equal(t, "2022", result.YearHint)
		assert.InDelta(t, 0.85, result.Confidence, 1e-9)
	})

	t.Run("unknown year marker", func(t *testing.T) {
		result, failure := ParseFacts(`{"summary": "Handwritten note", "year_hint": "unknown", "confidence": 0.4}`)
		require.Nil(t, failure)
		assert.Equal(t, "unknown", result.YearHint)
	})

	t.Run("prose around the JSON object is tolerated", func(t *testing.T) {
		raw := "Sure! Here is the JSON:\n{\"summary\": \"A payslip\", \"year_hint\": \"2021\", \"confidence\": 0.9}\nLet me know if you need more."
		result, failure := ParseFacts(raw)
		require.Nil(t, failure)
		assert.Equal(t, "A payslip", result.Summary)
	})

	t.Run("failures", func(t *testing.T) {
		cases := []struct {
			name string
			raw  string
			want string
		}{
			{"not JSON", "I could not read this document.", "not valid JSON"},
			{"missing summary", `{"year_hint": "2022", "confidence": 0.5}`, "missing required field summary"},
			{"empty summary", `{"summary": "  ", "year_hint": "2022", "confidence": 0.5}`, "empty summary"},
			{"missing year_hint", `{"summary": "x", "confidence": 0.5}`, "missing required field year_hint"},
			{"bad year", `{"summary": "x", "year_hint": "22", "confidence": 0.5}`, "invalid year_hint"},
			{"year prose", `{"summary": "x", "year_hint": "around 2020", "confidence": 0.5}`, "invalid year_hint"},
			{"missing confidence", `{"summary": "x", "year_hint": "2022"}`, "missing required field confidence"},
			{"confidence out of range", `{"summary": "x", "year_hint": "2022", "confidence": 1.4}`, "outside 0..1"},
			{"wrong type", `{"summary": 7, "year_hint": "2022", "confidence": 0.5}`, "not valid JSON"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, failure := ParseFacts(tc.raw)
				require.NotNil(t, failure)
				assert.Contains(t, failure.Reason, tc.want)
			})
		}
	})
}

func TestParseClassification(t *testing.T) {
	tax := taxonomy.Default()

	t.Run("valid payload", func(t *testing.T) {
		raw := `{"category": "finance", "reference_year": "2022", "proposed_name": "electricity invoice march 2022.pdf", "confidence": 0.9, "notes": "utility bill"}`
		result, failure := ParseClassification(raw, tax)
		require.Nil(t, failure)
		assert.Equal(t, "finance", result.Category)
		assert.Equal(t, "2022", result.ReferenceYear)
		assert.Equal(t, "electricity invoice march 2022.pdf", result.ProposedName)
		assert.Equal(t, "utility bill", result.Notes)
	})

	t.Run("category normalized to canonical spelling", func(t *testing.T) {
		raw := `{"category": "Finance", "reference_year": "unknown", "proposed_name": "n.pdf", "confidence": 0.7}`
		result, failure := ParseClassification(raw, tax)
		require.Nil(t, failure)
		assert.Equal(t, "finance", result.Category)
	})

	t.Run("optional production_year", func(t *testing.T) {
		raw := `{"category": "media", "reference_year": "1998", "production_year": "2005", "proposed_name": "scan.jpg", "confidence": 0.6}`
		result, failure := ParseClassification(raw, tax)
		require.Nil(t, failure)
		assert.Equal(t, "2005", result.ProductionYear)
	})

	t.Run("failures", func(t *testing.T) {
		cases := []struct {
			name string
			raw  string
			want string
		}{
			{"category outside taxonomy", `{"category": "cooking", "reference_year": "2022", "proposed_name": "n.pdf", "confidence": 0.9}`, "not in the taxonomy"},
			{"missing category", `{"reference_year": "2022", "proposed_name": "n.pdf", "confidence": 0.9}`, "missing required field category"},
			{"bad reference year", `{"category": "finance", "reference_year": "long ago", "proposed_name": "n.pdf", "confidence": 0.9}`, "invalid reference_year"},
			{"bad production year", `{"category": "finance", "reference_year": "2022", "production_year": "05", "proposed_name": "n.pdf", "confidence": 0.9}`, "invalid production_year"},
			{"missing proposed_name", `{"category": "finance", "reference_year": "2022", "confidence": 0.9}`, "missing proposed_name"},
			{"garbage", `null`, "missing required field category"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, failure := ParseClassification(tc.raw, tax)
				require.NotNil(t, failure)
				assert.Contains(t, failure.Reason, tc.want)
			})
		}
	})
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject("noise {\"a\":1} trailing"))
	assert.Equal(t, "no braces here", extractJSONObject("no braces here"))
}
