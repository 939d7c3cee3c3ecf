package action

import (
	"bytes"
	log "log/slog"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"deskvox/internal/nlu"
)

var (
	htmlTagRe = regexp.MustCompile(`(?i)</?(p|ul|ol|li|b|strong|em|i|br|h[1-6])\b[^>]*>`)
	headingRe = regexp.MustCompile(`(?is)<h[1-6][^>]*>(.*?)</h[1-6]>`)
	ruleRe    = regexp.MustCompile(`(?i)<hr\s*/?>\n?`)
	strongRe  = regexp.MustCompile(`(?is)<strong>(.*?)</strong>`)
)

// FormatHTML tidies a model answer into the HTML fragment the caller
// renders: paragraphs, lists and bold only. Markdown answers are converted
// first; headings become bold paragraphs and rules are dropped. Bare text
// lines are wrapped in <p> while list markup is left alone.
func FormatHTML(raw string) string {
	s := nlu.StripCodeFence(raw)
	if s == "" {
		return ""
	}

	if !htmlTagRe.MatchString(s) {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(s), &buf); err != nil {
			log.Warn("Markdown conversion failed", "err", err)
		} else {
			s = buf.String()
		}
	}

	s = headingRe.ReplaceAllString(s, "<p><b>$1</b></p>")
	s = ruleRe.ReplaceAllString(s, "")
	s = strongRe.ReplaceAllString(s, "<b>$1</b>")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "<"):
			out = append(out, line)
		default:
			out = append(out, "<p>"+line+"</p>")
		}
	}
	return strings.Join(out, "\n")
}

// PlainText strips markup so a message can be spoken or printed. Block
// elements end a line and entities are decoded.
func PlainText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(strings.ReplaceAll(n.Data, "\u00a0", " "))
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockEnd[n.DataAtom] {
			b.WriteByte('\n')
		}
	}
	walk(doc)

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

var blockEnd = map[atom.Atom]bool{
	atom.P: true, atom.Li: true, atom.Br: true, atom.Div: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}
