package normalisers

import (
	"testing"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestPlaintextNormaliser(t *testing.T) {
	n := &PlaintextNormaliser{}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple text", "hello world", "hello world"},
		{"windows line endings", "hello\r\nworld", "hello\nworld"},
		{"old mac line endings", "hello\rworld", "hello\nworld"},
		{"mixed line endings", "a\r\nb\rc\n", "a\nb\nc"},
		{"trim whitespace", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := n.Normalise(tt.input, "text/plain"); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}

	if n.Priority() != 1 {
		t.Errorf("expected priority 1, got %d", n.Priority())
	}
}

func TestMarkdownNormaliser(t *testing.T) {
	n := &MarkdownNormaliser{}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple markdown", "# Hello\nWorld", "# Hello\nWorld"},
		{"excessive blank lines", "a\n\n\n\nb", "a\n\nb"},
		{"windows line endings", "# Title\r\nContent", "# Title\nContent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := n.Normalise(tt.input, "text/markdown"); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestHTMLNormaliser(t *testing.T) {
	n := &HTMLNormaliser{}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple html", "<p>Hello</p>", "Hello"},
		{"nested tags", "<div><p>Hello</p></div>", "Hello"},
		{"script removal", "<script>alert('x')</script>Text", "Text"},
		{"style removal", "<style>.a{}</style>Text", "Text"},
		{"entity decode", "&amp; &lt; &gt;", "& < >"},
		{"multiple spaces", "<p>Hello     World</p>", "Hello World"},
		{"block elements break lines", "<h1>Title</h1><p>Body</p>", "Title\nBody"},
		{"head skipped", "<html><head><title>x</title></head><body>Visible</body></html>", "Visible"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := n.Normalise(tt.input, "text/html"); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestPDFNormaliser(t *testing.T) {
	n := &PDFNormaliser{}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"hyphenated line break", "reimburse-\nment is due", "reimbursement is due"},
		{"keeps real hyphens", "per-diem rate", "per-diem rate"},
		{"collapses layout spaces", "Meals    up to   50 EUR", "Meals up to 50 EUR"},
		{"form feed between pages", "page one\f\fpage two", "page one page two"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := n.Normalise(tt.input, "application/pdf"); result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := collapseWhitespace("  a \t b  \n\n\n\n  c  "); got != "a b\n\nc" {
		t.Errorf("unexpected result %q", got)
	}
}

// Verify interface compliance
func TestInterfaceCompliance(t *testing.T) {
	var _ driven.NormaliserRegistry = (*Registry)(nil)
	var _ driven.Normaliser = (*PlaintextNormaliser)(nil)
	var _ driven.Normaliser = (*MarkdownNormaliser)(nil)
	var _ driven.Normaliser = (*HTMLNormaliser)(nil)
	var _ driven.Normaliser = (*PDFNormaliser)(nil)
}
