package action

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"deskvox/internal/browser"
	"deskvox/internal/llm"
	"deskvox/internal/nlu"
)

const (
	analysisTemperature = 0.7
	analysisMaxTokens   = 1200

	promptParagraphs   = 5
	promptParagraphLen = 200
	promptListItems    = 10
	promptLinks        = 5
)

type analysisLabels struct {
	system, intro, instruction string
}

var analysisPrompts = map[string]analysisLabels{
	"ko": {
		system: "당신은 웹페이지 내용을 분석하고 요약하는 전문가입니다. 구조화되고 명확한 분석 결과를 제공해주세요.",
		intro:  "다음 웹페이지를 분석해주세요:",
		instruction: `이 페이지의 주요 내용을 자연스럽고 명확하게 요약해줘.
중요한 포인트는 bullet point(ul/li)로 정리해주고, 그 외의 설명은 단락(p)으로 작성해줘.
Page Type, 구분선, 밑줄, 대문자 강조 등은 사용하지 마.
읽기 쉽고 자연스럽게 분석해줘.`,
	},
	"en": {
		system: "You are an expert in analyzing and summarizing webpage content. Provide structured and clear analysis results.",
		intro:  "Please analyze the following webpage:",
		instruction: `Summarize the main content of this page naturally and clearly, in English.
Put the important points in a bullet list (ul/li) and everything else in paragraphs (p).
Do not use a "Page Type" line, horizontal rules, underlines or all-caps emphasis.
Keep it easy to read.`,
	},
}

// tabPrompt lists what was extracted from the page. Field labels stay in
// Korean for every language; the instruction line sets the answer language.
func tabPrompt(c *browser.PageContent, labels analysisLabels) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n제목: %s\nURL: %s\n", labels.intro, c.Title, c.URL)
	if c.Description != "" {
		fmt.Fprintf(&b, "설명: %s\n", c.Description)
	}
	if c.Keywords != "" {
		fmt.Fprintf(&b, "키워드: %s\n", c.Keywords)
	}
	if c.OGTitle != "" {
		fmt.Fprintf(&b, "OG 제목: %s\n", c.OGTitle)
	}

	numbered := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for i, it := range items {
			fmt.Fprintf(&b, "%d. %s\n", i+1, it)
		}
	}
	numbered("주요 제목들", c.Headings)

	paras := make([]string, 0, promptParagraphs)
	for _, p := range c.Paragraphs {
		if len(paras) == promptParagraphs {
			break
		}
		if r := []rune(p); len(r) > promptParagraphLen {
			p = string(r[:promptParagraphLen]) + "..."
		}
		paras = append(paras, p)
	}
	numbered("주요 내용", paras)

	if len(c.Lists) > promptListItems {
		numbered("목록 항목들", c.Lists[:promptListItems])
	} else {
		numbered("목록 항목들", c.Lists)
	}

	links := make([]string, 0, promptLinks)
	for _, l := range c.Links {
		if len(links) == promptLinks {
			break
		}
		links = append(links, fmt.Sprintf("%s (%s)", l.Text, l.Href))
	}
	numbered("주요 링크들", links)

	b.WriteString("\n\n")
	b.WriteString(labels.instruction)
	return b.String()
}

func (d *Dispatcher) tabReaders(content **browser.PageContent) []Strategy {
	var out []Strategy
	if d.desk != nil && d.desk.Platform() == "darwin" {
		out = append(out, Strategy{Name: "applescript", Run: func(ctx context.Context) (string, error) {
			tab, err := d.desk.ActiveTab(ctx)
			if err != nil {
				return "", err
			}
			*content = &browser.PageContent{Title: tab.Title, URL: tab.URL}
			return tab.URL, nil
		}})
	}
	if d.browser != nil {
		out = append(out, Strategy{Name: "devtools", Run: func(ctx context.Context) (string, error) {
			c, err := d.browser.ActivePageContent(ctx)
			if err != nil {
				return "", err
			}
			*content = c
			return c.URL, nil
		}})
	}
	return out
}

func (d *Dispatcher) tabAnalysis(ctx context.Context, in nlu.Intent, lang string) Result {
	var content *browser.PageContent
	readers := d.tabReaders(&content)
	if len(readers) == 0 {
		return fail(in, msg(lang, msgTabNotFound), errors.New("no way to read the active tab"))
	}
	if _, err := runChain(ctx, readers); err != nil {
		log.Warn("Active tab unreadable", "err", err)
		return fail(in, msg(lang, msgTabNotFound), err)
	}

	if entry, hit := d.mem.CachedAnalysis(content.URL); hit {
		log.Debug("Tab analysis from cache", "url", content.URL)
		r := ok(in, entry.Analysis)
		r.Content = content
		r.Analysis = entry.Analysis
		r.FromCache = true
		return r
	}

	if d.llm == nil {
		return fail(in, msg(lang, msgTabError), llm.ErrNoCredential)
	}
	labels, found := analysisPrompts[lang]
	if !found {
		labels = analysisPrompts[nlu.DefaultLanguage]
	}
	answer, err := d.llm.Complete(ctx, llm.Request{
		System:      labels.system,
		User:        tabPrompt(content, labels),
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty analysis")
	}
	if err != nil {
		log.Error("Tab analysis failed", "url", content.URL, "err", err)
		r := fail(in, msg(lang, msgTabError), err)
		r.Content = content
		return r
	}

	analysis := FormatHTML(answer)
	d.mem.StoreAnalysis(content.URL, analysis, content)

	r := ok(in, analysis)
	r.Content = content
	r.Analysis = analysis
	return r
}
