// Package taxonomy defines the category set documents are classified into.
// A taxonomy can be loaded from a YAML file or fall back to the built-in
// default; it is rendered into the classification prompt and used to validate
// model output.
package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownCategory is the fallback category for unclassified or skipped items.
const UnknownCategory = "unknown"

// Category is one classification target with the keyword examples shown to
// the model.
type Category struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Examples    []string `yaml:"examples,omitempty"`
}

// Taxonomy is an ordered set of categories.
type Taxonomy struct {
	Categories []Category `yaml:"categories"`
}

// Default returns the built-in taxonomy used when no file is configured.
func Default() Taxonomy {
	return Taxonomy{Categories: []Category{
		{Name: "house", Description: "Home, property, rent, utilities, household paperwork",
			Examples: []string{"rent", "lease", "condominium", "property tax", "utility bill", "electricity", "gas", "water", "internet", "home insurance", "maintenance"}},
		{Name: "purchases", Description: "Purchases and subscriptions",
			Examples: []string{"receipt", "order confirmation", "subscription", "e-commerce", "warranty", "invoice for goods/services"}},
		{Name: "travel", Description: "Travel and transportation",
			Examples: []string{"flight", "hotel", "booking", "ticket", "itinerary", "car rental", "travel insurance"}},
		{Name: "tax", Description: "Taxes and public administration",
			Examples: []string{"tax return", "agency letter", "payment notice", "municipality tax"}},
		{Name: "finance", Description: "Banking, payments, and financial statements",
			Examples: []string{"bank statement", "transfer", "card statement", "account", "payment receipt", "invoice"}},
		{Name: "legal", Description: "Legal documents and compliance",
			Examples: []string{"contract", "terms", "privacy policy", "legal letter", "complaint", "power of attorney"}},
		{Name: "work", Description: "Employment and professional documents",
			Examples: []string{"payslip", "payroll", "timesheet", "employment agreement", "HR"}},
		{Name: "personal", Description: "Personal documents, IDs, letters, handwritten notes",
			Examples: []string{"identity card", "passport", "driving licence", "certificate", "personal letter", "notes"}},
		{Name: "medical", Description: "Health and medical records",
			Examples: []string{"medical report", "prescription", "lab results", "vaccination"}},
		{Name: "edu", Description: "Education and training",
			Examples: []string{"certificate", "transcript", "diploma", "course material", "thesis", "enrollment"}},
		{Name: "media", Description: "Media and content",
			Examples: []string{"ebook", "article", "photo", "screenshot", "audio", "video"}},
		{Name: "tech", Description: "Technical docs",
			Examples: []string{"manual", "datasheet", "spec", "API documentation", "architecture", "configuration", "logs"}},
		{Name: UnknownCategory, Description: "Unclassified / skipped"},
	}}
}

// Load reads a taxonomy from a YAML file. A missing path returns the default
// taxonomy without error; a malformed file is an error.
func Load(path string) (Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Taxonomy{}, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return Taxonomy{}, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}
	if err := tax.Validate(); err != nil {
		return Taxonomy{}, err
	}
	return tax, nil
}

// Validate checks the taxonomy for empty or duplicate category names and
// guarantees the unknown fallback category is present.
func (t *Taxonomy) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("taxonomy has no categories")
	}
	seen := make(map[string]bool, len(t.Categories))
	hasUnknown := false
	for i, c := range t.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("taxonomy category %d has an empty name", i)
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			return fmt.Errorf("duplicate taxonomy category %q", name)
		}
		seen[lower] = true
		if lower == UnknownCategory {
			hasUnknown = true
		}
	}
	if !hasUnknown {
		t.Categories = append(t.Categories, Category{Name: UnknownCategory, Description: "Unclassified / skipped"})
	}
	return nil
}

// Contains reports whether name matches a category, case-insensitively.
func (t Taxonomy) Contains(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, c := range t.Categories {
		if strings.ToLower(c.Name) == lower {
			return true
		}
	}
	return false
}

// Canonical returns the canonical spelling for a category name, or "" when it
// is not part of the taxonomy.
func (t Taxonomy) Canonical(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, c := range t.Categories {
		if strings.ToLower(c.Name) == lower {
			return c.Name
		}
	}
	return ""
}

// Names returns the category names in declaration order.
func (t Taxonomy) Names() []string {
	names := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		names = append(names, c.Name)
	}
	return names
}

// PromptBlock renders the taxonomy as the category list embedded in the
// classification prompt, one "name | description | examples" line per
// category.
func (t Taxonomy) PromptBlock() string {
	var b strings.Builder
	for _, c := range t.Categories {
		b.WriteString(c.Name)
		b.WriteString(" | ")
		b.WriteString(c.Description)
		if len(c.Examples) > 0 {
			b.WriteString(" | ")
			b.WriteString(strings.Join(c.Examples, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
