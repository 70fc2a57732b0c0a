package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTaxonomy(t *testing.T) {
	tax := Default()
	require.NotEmpty(t, tax.Categories)
	assert.True(t, tax.Contains("finance"))
	assert.True(t, tax.Contains("unknown"))
	assert.NoError(t, tax.Validate())
}

func TestContainsIsCaseInsensitive(t *testing.T) {
	tax := Default()
	assert.True(t, tax.Contains("Finance"))
	assert.True(t, tax.Contains("  TRAVEL "))
	assert.False(t, tax.Contains("cryptozoology"))
}

func TestCanonical(t *testing.T) {
	tax := Default()
	assert.Equal(t, "finance", tax.Canonical("FINANCE"))
	assert.Equal(t, "", tax.Canonical("nope"))
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	tax, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.True(t, tax.Contains("finance"))
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	content := `categories:
  - name: invoices
    description: Supplier invoices
    examples: [invoice, credit note]
  - name: contracts
    description: Signed agreements
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tax, err := Load(path)
	require.NoError(t, err)
	assert.True(t, tax.Contains("invoices"))
	assert.True(t, tax.Contains("contracts"))
	// The unknown fallback is always appended.
	assert.True(t, tax.Contains("unknown"))
}

func TestLoadRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	content := `categories:
  - name: invoices
  - name: Invoices
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [oops"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPromptBlock(t *testing.T) {
	tax := Taxonomy{Categories: []Category{
		{Name: "invoices", Description: "Supplier invoices", Examples: []string{"invoice", "credit note"}},
		{Name: "unknown", Description: "Unclassified"},
	}}

	block := tax.PromptBlock()
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "invoices | Supplier invoices | invoice; credit note", lines[0])
	assert.Equal(t, "unknown | Unclassified", lines[1])
}
