package browser

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offline() *Session {
	s := NewSession(nil)
	s.resolve = func(string) (string, error) { return "", errors.New("connection refused") }
	return s
}

func TestConnect_TriesEveryPort(t *testing.T) {
	var tried []string
	s := NewSession([]int{9222, 9223})
	s.resolve = func(addr string) (string, error) {
		tried = append(tried, addr)
		return "", errors.New("connection refused")
	}

	err := s.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"127.0.0.1:9222", "127.0.0.1:9223"}, tried)
	assert.Contains(t, err.Error(), "port 9222")
	assert.Contains(t, err.Error(), "port 9223")
	assert.False(t, s.Connected())
}

func TestActivePageContent_Offline(t *testing.T) {
	_, err := offline().ActivePageContent(context.Background())
	assert.Error(t, err)
}

func TestComposeOutlookEvent_RequiresSession(t *testing.T) {
	err := offline().ComposeOutlookEvent(context.Background(), "x", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestOutlookComposeURL(t *testing.T) {
	start := time.Date(2025, 7, 21, 10, 0, 0, 0, time.Local)
	raw := OutlookComposeURL("팀 미팅", start, start.Add(time.Hour))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "outlook.office.com", u.Host)
	assert.Equal(t, "팀 미팅", u.Query().Get("subject"))
	assert.Equal(t, "2025-07-21T10:00:00", u.Query().Get("startdt"))
	assert.Equal(t, "2025-07-21T11:00:00", u.Query().Get("enddt"))
}

func TestDecodeContent_AppliesLimits(t *testing.T) {
	long := strings.Repeat("가", 60)
	var paragraphs, items []string
	for i := 0; i < 15; i++ {
		paragraphs = append(paragraphs, `"`+long+`"`)
	}
	paragraphs = append(paragraphs, `"short"`)
	for i := 0; i < 25; i++ {
		items = append(items, `"item"`)
	}
	raw := `{"title":"  News ","url":"https://n.example","headings":["A"," ",""],` +
		`"paragraphs":[` + strings.Join(paragraphs, ",") + `],` +
		`"lists":[` + strings.Join(items, ",") + `],` +
		`"links":[{"text":"","href":"x"},{"text":"ok","href":"https://n.example/ok"}]}`

	pc, err := decodeContent([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "News", pc.Title)
	assert.Equal(t, []string{"A"}, pc.Headings)
	assert.Len(t, pc.Paragraphs, maxParagraphs)
	assert.Len(t, pc.Lists, maxListItems)
	assert.Equal(t, []Link{{Text: "ok", Href: "https://n.example/ok"}}, pc.Links)
}

func TestDecodeContent_Garbage(t *testing.T) {
	_, err := decodeContent([]byte("not json"))
	assert.Error(t, err)
}
