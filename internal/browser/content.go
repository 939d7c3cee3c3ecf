package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	maxParagraphs = 10
	maxListItems  = 20
	maxLinks      = 10
	minParagraph  = 50
)

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// PageContent is what gets read out of a page for summarizing.
type PageContent struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
	Keywords    string   `json:"keywords,omitempty"`
	OGTitle     string   `json:"ogTitle,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Paragraphs  []string `json:"paragraphs,omitempty"`
	Lists       []string `json:"lists,omitempty"`
	Links       []Link   `json:"links,omitempty"`
}

// extractJS runs inside the page. Limits are applied again on the Go side.
const extractJS = `() => {
	const meta = (sel) => (document.querySelector(sel) || {}).content || '';
	const texts = (sel) => Array.from(document.querySelectorAll(sel))
		.map((el) => (el.textContent || '').trim())
		.filter((t) => t.length > 0);
	return {
		title: document.title,
		url: window.location.href,
		description: meta('meta[name="description"]') || meta('meta[property="og:description"]'),
		keywords: meta('meta[name="keywords"]'),
		ogTitle: meta('meta[property="og:title"]'),
		headings: texts('h1, h2, h3, h4'),
		paragraphs: texts('p').filter((t) => t.length > 50).slice(0, 10),
		lists: texts('ul li, ol li').slice(0, 20),
		links: Array.from(document.querySelectorAll('a'))
			.map((a) => ({ text: (a.textContent || '').trim(), href: a.href }))
			.filter((l) => l.text.length > 0 && l.href)
			.slice(0, 10),
	};
}`

const visibleJS = `() => !document.hidden && document.visibilityState === 'visible'`

func decodeContent(raw []byte) (*PageContent, error) {
	var pc PageContent
	if err := json.Unmarshal(raw, &pc); err != nil {
		return nil, fmt.Errorf("decode page content: %w", err)
	}
	pc.Title = strings.TrimSpace(pc.Title)
	pc.Headings = nonEmpty(pc.Headings, -1)

	paragraphs := pc.Paragraphs[:0]
	for _, p := range pc.Paragraphs {
		if len([]rune(strings.TrimSpace(p))) > minParagraph {
			paragraphs = append(paragraphs, strings.TrimSpace(p))
		}
	}
	pc.Paragraphs = limit(paragraphs, maxParagraphs)
	pc.Lists = nonEmpty(pc.Lists, maxListItems)

	links := pc.Links[:0]
	for _, l := range pc.Links {
		l.Text = strings.TrimSpace(l.Text)
		if l.Text != "" && l.Href != "" {
			links = append(links, l)
		}
	}
	pc.Links = limit(links, maxLinks)
	return &pc, nil
}

func nonEmpty(in []string, n int) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if n >= 0 {
		return limit(out, n)
	}
	return out
}

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
