// Package browser holds the single long-lived DevTools connection to the
// user's Chrome. It is used to read the active tab and to drive Outlook on
// the web.
package browser

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var (
	ErrNotConnected = errors.New("browser session not connected")
	ErrNoPage       = errors.New("browser has no open page")
)

var DefaultPorts = []int{9222, 9223}

const (
	outlookCompose = "https://outlook.office.com/calendar/0/deeplink/compose"
	outlookLayout  = "2006-01-02T15:04:05"
	composeTimeout = 30 * time.Second
)

// Session owns one *rod.Browser. Every method takes the session lock, so
// the browser is never driven from two places at once.
type Session struct {
	mu      sync.Mutex
	ports   []int
	browser *rod.Browser

	// resolve turns a host:port into a DevTools websocket URL.
	resolve func(string) (string, error)
}

func NewSession(ports []int) *Session {
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	return &Session{ports: ports, resolve: launcher.ResolveURL}
}

// Connect attaches to a Chrome started with --remote-debugging-port, trying
// each configured port in order.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Session) connectLocked(ctx context.Context) error {
	if s.browser != nil {
		if _, err := s.browser.Version(); err == nil {
			return nil
		}
		log.Warn("Stale browser connection, reconnecting")
		_ = s.browser.Close()
		s.browser = nil
	}

	var errs []error
	for _, port := range s.ports {
		addr := "127.0.0.1:" + strconv.Itoa(port)
		controlURL, err := s.resolve(addr)
		if err != nil {
			errs = append(errs, fmt.Errorf("port %d: %w", port, err))
			continue
		}
		b := rod.New().ControlURL(controlURL).Context(ctx)
		if err := b.Connect(); err != nil {
			errs = append(errs, fmt.Errorf("port %d: %w", port, err))
			continue
		}
		log.Info("Connected to browser", "port", port)
		s.browser = b
		return nil
	}
	return fmt.Errorf("connect to chrome: %w", errors.Join(errs...))
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browser != nil
}

// ActivePageContent connects if needed and reads the visible tab, or the
// first tab when none reports itself visible.
func (s *Session) ActivePageContent(ctx context.Context) (*PageContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}

	pages, err := s.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, ErrNoPage
	}

	active := pages[0]
	for _, p := range pages {
		res, err := p.Context(ctx).Evaluate(&rod.EvalOptions{JS: visibleJS, ByValue: true})
		if err == nil && res.Value.Bool() {
			active = p
			break
		}
	}

	res, err := active.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           extractJS,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract page content: %w", err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal page content: %w", err)
	}
	return decodeContent(raw)
}

// ComposeOutlookEvent opens the Outlook web compose form prefilled with
// the event and presses Save. It only uses a session that is already
// connected.
func (s *Session) ComposeOutlookEvent(ctx context.Context, subject string, start, end time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil {
		return ErrNotConnected
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: OutlookComposeURL(subject, start, end)})
	if err != nil {
		return fmt.Errorf("open outlook compose: %w", err)
	}
	p := page.Context(ctx).Timeout(composeTimeout)
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("load outlook compose: %w", err)
	}
	btn, err := p.ElementR("button", `^(Save|저장)$`)
	if err != nil {
		return fmt.Errorf("find save button: %w", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click save: %w", err)
	}
	return nil
}

func OutlookComposeURL(subject string, start, end time.Time) string {
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("startdt", start.Format(outlookLayout))
	q.Set("enddt", end.Format(outlookLayout))
	q.Set("path", "/calendar/action/compose")
	return outlookCompose + "?" + q.Encode()
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	return err
}
