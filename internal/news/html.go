package news

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	spaceRe     = regexp.MustCompile(`[\s\x0B\x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}]+`)
	paragraphRe = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
)

// CleanHTML strips tags, decodes a small set of entities and collapses
// whitespace.
func CleanHTML(s string) string {
	if s == "" {
		return ""
	}
	s = tagRe.ReplaceAllString(s, "")
	s = decodeEntities(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// decodeEntities applies the replacements one after another, so "&amp;lt;"
// ends up as "<".
func decodeEntities(s string) string {
	for _, pair := range [][2]string{
		{"&nbsp;", " "},
		{"&quot;", `"`},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&#39;", "'"},
	} {
		s = strings.ReplaceAll(s, pair[0], pair[1])
	}
	return s
}

// FirstParagraph returns the cleaned text of the first <p> block, or the
// whole input cleaned when there is none.
func FirstParagraph(s string) string {
	if s == "" {
		return ""
	}
	if m := paragraphRe.FindStringSubmatch(s); m != nil && m[1] != "" {
		return CleanHTML(m[1])
	}
	return CleanHTML(s)
}

// FirstImage returns the src of the first <img> in an HTML fragment.
func FirstImage(s string) string {
	if !strings.Contains(strings.ToLower(s), "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}
