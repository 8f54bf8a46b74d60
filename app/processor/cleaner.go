package processor

import (
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanHTML strips all markup from the input, decodes HTML entities and
// collapses whitespace runs into single spaces. Empty input yields "".
func CleanHTML(content string) string {
	if content == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		// The parser is lenient; if it still fails, fall back to entity
		// decoding so no markup-free text is lost.
		return collapseWhitespace(stdhtml.UnescapeString(content))
	}

	doc.Find("script, style").Remove()

	var b strings.Builder
	for _, node := range doc.Nodes {
		collectText(node, &b)
	}

	return collapseWhitespace(stdhtml.UnescapeString(b.String()))
}

// cleanValue renders an arbitrary Jira field value as plain text. Strings
// are treated as HTML; maps and lists (Atlassian document format) are
// walked for their "text" leaves.
func cleanValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return CleanHTML(v)
	case map[string]any:
		var parts []string
		collectDocText(v, &parts)
		return collapseWhitespace(strings.Join(parts, " "))
	case []any:
		var parts []string
		for _, item := range v {
			if s := cleanValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return collapseWhitespace(fmt.Sprintf("%v", v))
	}
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func collectDocText(node map[string]any, parts *[]string) {
	if text, ok := node["text"].(string); ok && text != "" {
		*parts = append(*parts, text)
	}
	if content, ok := node["content"].([]any); ok {
		for _, child := range content {
			if m, ok := child.(map[string]any); ok {
				collectDocText(m, parts)
			}
		}
	}
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
