package normalisers

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	hyphenatedEOL = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)
)

func normaliseLineEndings(content string) string {
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(content)
}

// PlaintextNormaliser handles plain text content.
type PlaintextNormaliser struct{}

func (n *PlaintextNormaliser) Normalise(content string, mimeType string) string {
	return strings.TrimSpace(normaliseLineEndings(content))
}

func (n *PlaintextNormaliser) SupportedTypes() []string {
	return []string{"text/plain", "*/*"} // Fallback for any type
}

func (n *PlaintextNormaliser) Priority() int {
	return 1
}

// MarkdownNormaliser handles Markdown content. Markup is kept; it carries
// headings and list structure that help retrieval.
type MarkdownNormaliser struct{}

func (n *MarkdownNormaliser) Normalise(content string, mimeType string) string {
	content = normaliseLineEndings(content)
	content = blankLineRun.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

func (n *MarkdownNormaliser) SupportedTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (n *MarkdownNormaliser) Priority() int {
	return 50
}

// HTMLNormaliser extracts visible text from HTML documents.
type HTMLNormaliser struct{}

// skipped elements contribute no text
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// block elements end a line of extracted text
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true,
	"article": true, "header": true, "footer": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "table": true,
}

func (n *HTMLNormaliser) Normalise(content string, mimeType string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skippedElements[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode && blockElements[node.Data] {
			b.WriteString("\n")
		}
	}
	walk(doc)

	return collapseWhitespace(b.String())
}

func (n *HTMLNormaliser) SupportedTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (n *HTMLNormaliser) Priority() int {
	return 50
}

// PDFNormaliser cleans text extracted from PDF pages: it rejoins words
// hyphenated across line breaks and collapses layout whitespace.
type PDFNormaliser struct{}

func (n *PDFNormaliser) Normalise(content string, mimeType string) string {
	content = normaliseLineEndings(content)
	content = hyphenatedEOL.ReplaceAllString(content, "$1$2")
	return collapseWhitespace(content)
}

func (n *PDFNormaliser) SupportedTypes() []string {
	return []string{"application/pdf"}
}

func (n *PDFNormaliser) Priority() int {
	return 60
}

// collapseWhitespace collapses runs of spaces on each line, trims lines and
// limits consecutive blank lines to one.
func collapseWhitespace(content string) string {
	content = normaliseLineEndings(content)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
	}
	content = blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(content)
}
