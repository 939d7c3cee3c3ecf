package action

import (
	"context"
	"strings"
	"testing"
	"time"

	"deskvox/internal/browser"
	"deskvox/internal/llm"
	"deskvox/internal/memory"
	"deskvox/internal/osauto"
)

var testNow = time.Date(2025, 7, 20, 15, 4, 0, 0, time.Local)

type fakeDesk struct {
	goos    string
	calls   []string
	errs    map[string]error
	out     osauto.Output
	tab     osauto.Tab
	buttons map[string]bool
	panicOn string
}

func (f *fakeDesk) do(method string, args ...string) (osauto.Output, error) {
	if method == f.panicOn {
		panic("boom")
	}
	f.calls = append(f.calls, strings.TrimSpace(method+" "+strings.Join(args, " ")))
	return f.out, f.errs[method]
}

func (f *fakeDesk) Platform() string { return f.goos }

func (f *fakeDesk) LaunchApp(_ context.Context, name string) (osauto.Output, error) {
	return f.do("LaunchApp", name)
}

func (f *fakeDesk) OpenBrowserTab(_ context.Context, app string) (osauto.Output, error) {
	return f.do("OpenBrowserTab", app)
}

func (f *fakeDesk) OpenURI(_ context.Context, uri string) (osauto.Output, error) {
	return f.do("OpenURI", uri)
}

func (f *fakeDesk) OpenFile(_ context.Context, path string) (osauto.Output, error) {
	return f.do("OpenFile", path)
}

func (f *fakeDesk) RunScript(_ context.Context, script string) (osauto.Output, error) {
	return f.do("RunScript", script)
}

func (f *fakeDesk) ClickButton(_ context.Context, app, name string) (osauto.Output, error) {
	out, err := f.do("ClickButton", app, name)
	if err == nil && !f.buttons[name] {
		err = osauto.ErrNoControl
	}
	return out, err
}

func (f *fakeDesk) ClickButtonContaining(_ context.Context, app string, keywords ...string) (osauto.Output, error) {
	out, err := f.do("ClickButtonContaining", append([]string{app}, keywords...)...)
	if err != nil {
		return out, err
	}
	for _, k := range keywords {
		if f.buttons[k] {
			return out, nil
		}
	}
	return out, osauto.ErrNoControl
}

func (f *fakeDesk) ActiveTab(context.Context) (osauto.Tab, error) {
	_, err := f.do("ActiveTab")
	return f.tab, err
}

func (f *fakeDesk) System(_ context.Context, op string) (osauto.Output, error) {
	return f.do("System", op)
}

func (f *fakeDesk) called(prefix string) []string {
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

type fakeBrowser struct {
	connected  bool
	content    *browser.PageContent
	err        error
	composeErr error
	composed   []string
}

func (b *fakeBrowser) Connected() bool { return b.connected }

func (b *fakeBrowser) ActivePageContent(context.Context) (*browser.PageContent, error) {
	return b.content, b.err
}

func (b *fakeBrowser) ComposeOutlookEvent(_ context.Context, subject string, _, _ time.Time) error {
	b.composed = append(b.composed, subject)
	return b.composeErr
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// newDispatcher builds a dispatcher over fakes. Pass a literal nil for svc
// or br to leave that collaborator out.
func newDispatcher(t *testing.T, svc llm.Service, desk Automation, br Browser) (*Dispatcher, *clock) {
	t.Helper()
	c := &clock{t: testNow}
	mem := memory.New(memory.DefaultCapacity, memory.DefaultTabTTL, memory.WithClock(c.now))
	d := NewDispatcher(svc, desk, br, mem, Options{
		CalendarDir: t.TempDir(),
		Now:         c.now,
	})
	return d, c
}
