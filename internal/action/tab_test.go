package action

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskvox/internal/browser"
	"deskvox/internal/llm/llmtest"
	"deskvox/internal/nlu"
	"deskvox/internal/osauto"
)

var tabIntent = nlu.Intent{Action: nlu.ActionTabAnalysis}

func TestTabAnalysis_CachesForTTL(t *testing.T) {
	desk := &fakeDesk{goos: "darwin", tab: osauto.Tab{Title: "Breaking", URL: "https://News.example/a#top"}}
	stub := llmtest.Replying("<p>요약</p>\n<ul><li>포인트</li></ul>", "<p>새 요약</p>")
	d, clk := newDispatcher(t, stub, desk, nil)
	ctx := context.Background()

	first := d.Dispatch(ctx, tabIntent, "ko")
	require.True(t, first.Success, first.Error)
	assert.False(t, first.FromCache)
	assert.Equal(t, "<p>요약</p>\n<ul><li>포인트</li></ul>", first.Message)
	assert.Equal(t, first.Message, first.Analysis)
	assert.Equal(t, 1, stub.CallCount())

	clk.advance(29 * time.Minute)
	desk.tab.URL = "https://news.example/a/"
	cached := d.Dispatch(ctx, tabIntent, "ko")
	require.True(t, cached.Success)
	assert.True(t, cached.FromCache)
	assert.Equal(t, first.Analysis, cached.Message)
	assert.Equal(t, 1, stub.CallCount(), "no model call on a cache hit")

	clk.advance(2 * time.Minute)
	fresh := d.Dispatch(ctx, tabIntent, "ko")
	require.True(t, fresh.Success)
	assert.False(t, fresh.FromCache)
	assert.Equal(t, "<p>새 요약</p>", fresh.Message)
	assert.Equal(t, 2, stub.CallCount())
}

func TestTabAnalysis_FallsBackToDevTools(t *testing.T) {
	long := strings.Repeat("가", 300)
	page := &browser.PageContent{
		Title:       "Docs",
		URL:         "https://docs.example/",
		Description: "reference",
		Headings:    []string{"Intro"},
		Paragraphs:  []string{long, long, long, long, long, long, long},
		Lists:       []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"},
		Links: []browser.Link{
			{Text: "1", Href: "https://docs.example/1"}, {Text: "2", Href: "https://docs.example/2"},
			{Text: "3", Href: "https://docs.example/3"}, {Text: "4", Href: "https://docs.example/4"},
			{Text: "5", Href: "https://docs.example/5"}, {Text: "6", Href: "https://docs.example/6"},
		},
	}
	desk := &fakeDesk{goos: "darwin", errs: map[string]error{"ActiveTab": osauto.ErrNoBrowser}}
	stub := llmtest.Replying("Docs are **fine**.")
	d, _ := newDispatcher(t, stub, desk, &fakeBrowser{content: page})

	res := d.Dispatch(context.Background(), tabIntent, "en")

	require.True(t, res.Success, res.Error)
	assert.Same(t, page, res.Content)
	assert.Equal(t, "<p>Docs are <b>fine</b>.</p>", res.Message)

	require.Len(t, stub.Calls, 1)
	req := stub.Calls[0]
	assert.Equal(t, analysisTemperature, req.Temperature)
	assert.Equal(t, analysisMaxTokens, req.MaxTokens)
	assert.Contains(t, req.System, "analyzing and summarizing")
	assert.Contains(t, req.User, "Please analyze the following webpage:")
	assert.Contains(t, req.User, "설명: reference")
	assert.Contains(t, req.User, strings.Repeat("가", 200)+"...")
	assert.NotContains(t, req.User, strings.Repeat("가", 201))
	assert.Equal(t, 5, strings.Count(req.User, strings.Repeat("가", 200)))
	assert.Contains(t, req.User, "10. j")
	assert.NotContains(t, req.User, "11. k")
	assert.Contains(t, req.User, "https://docs.example/5")
	assert.NotContains(t, req.User, "https://docs.example/6")
}

func TestTabAnalysis_NoReader(t *testing.T) {
	desk := &fakeDesk{goos: "darwin", errs: map[string]error{"ActiveTab": osauto.ErrNoBrowser}}
	stub := llmtest.Replying("unused")
	d, _ := newDispatcher(t, stub, desk, &fakeBrowser{err: browser.ErrNotConnected})

	res := d.Dispatch(context.Background(), tabIntent, "ko")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "--remote-debugging-port=9222")
	assert.Contains(t, res.Error, "applescript")
	assert.Contains(t, res.Error, "devtools")
	assert.Zero(t, stub.CallCount())
}

func TestTabAnalysis_LinuxSkipsAppleScript(t *testing.T) {
	desk := &fakeDesk{goos: "linux"}
	d, _ := newDispatcher(t, llmtest.Replying("<p>ok</p>"), desk, &fakeBrowser{content: &browser.PageContent{URL: "https://x.example"}})

	res := d.Dispatch(context.Background(), tabIntent, "ko")
	require.True(t, res.Success)
	assert.Empty(t, desk.calls)
}

func TestTabAnalysis_ModelFailureIsNotCached(t *testing.T) {
	desk := &fakeDesk{goos: "darwin", tab: osauto.Tab{Title: "t", URL: "https://x.example"}}
	d, _ := newDispatcher(t, llmtest.Failing(), desk, nil)

	res := d.Dispatch(context.Background(), tabIntent, "ko")

	assert.False(t, res.Success)
	assert.Equal(t, msg("ko", msgTabError), res.Message)
	assert.Zero(t, d.Memory().CachedTabs())
}

func TestTabAnalysis_WithoutService(t *testing.T) {
	desk := &fakeDesk{goos: "darwin", tab: osauto.Tab{Title: "t", URL: "https://x.example"}}
	d, _ := newDispatcher(t, nil, desk, nil)

	res := d.Dispatch(context.Background(), tabIntent, "en")
	assert.False(t, res.Success)
	assert.Equal(t, msg("en", msgTabError), res.Message)
}
