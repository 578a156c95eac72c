package serp

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const ellipsis = "…"

// markupTag matches the formatting tags providers put in descriptions.
// Anything else between angle brackets is treated as text.
var markupTag = regexp.MustCompile(`(?i)</?(p|br|div|ul|ol|li|h[1-6]|b|strong|i|em|u|span)(\s+[a-z-]+\s*=\s*("[^"]*"|'[^']*'))*\s*/?>`)

var (
	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v]+`)
	blockTags       = map[string]bool{"p": true, "div": true, "ul": true, "ol": true, "li": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true}
)

// truncateAtSpace keeps at most max characters, cutting back to the last
// whitespace inside the kept part, and marks the cut with an ellipsis.
func truncateAtSpace(value string, max int) string {
	runes := []rune(value)
	if max <= 0 || len(runes) <= max {
		return value
	}
	cut := string(runes[:max])
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx >= 0 {
		cut = cut[:idx]
	}
	return cut + ellipsis
}

// cleanText flattens HTML descriptions some providers return into plain
// text, one line per block or <br>. Text without formatting tags is
// returned unchanged.
func cleanText(value string) string {
	matches := markupTag.FindAllStringIndex(value, -1)
	if len(matches) == 0 {
		return value
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayBrackets(value, matches)))
	if err != nil {
		return value
	}
	var b strings.Builder
	writeText(&b, doc.Find("body"))
	return foldLines(b.String())
}

// escapeStrayBrackets escapes every '<' that does not open one of the
// matched tags so the parser keeps it as text.
func escapeStrayBrackets(value string, tags [][]int) string {
	var b strings.Builder
	last := 0
	for _, tag := range tags {
		b.WriteString(strings.ReplaceAll(value[last:tag[0]], "<", "&lt;"))
		b.WriteString(value[tag[0]:tag[1]])
		last = tag[1]
	}
	b.WriteString(strings.ReplaceAll(value[last:], "<", "&lt;"))
	return b.String()
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		switch name := goquery.NodeName(node); {
		case name == "#text":
			b.WriteString(horizontalSpace.ReplaceAllString(node.Text(), " "))
		case name == "br":
			b.WriteString("\n")
		case blockTags[name]:
			b.WriteString("\n")
			writeText(b, node)
			b.WriteString("\n")
		default:
			writeText(b, node)
		}
	})
}

// foldLines trims every line and drops the blank ones.
func foldLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
