// Package osauto is the assistant's reach into the desktop: launching
// applications, opening URIs and files, running automation scripts and
// poking at UI controls. Every operation reports the process exit status.
package osauto

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
)

var (
	ErrUnsupported = errors.New("not supported on this platform")
	ErrNoControl   = errors.New("no matching control")
	ErrNoBrowser   = errors.New("frontmost application is not a browser")
)

// Tab is the active browser tab as the desktop reports it.
type Tab struct {
	Title string
	URL   string
}

// Desktop dispatches operations to the tools of one platform.
type Desktop struct {
	run  Runner
	goos string
}

func New(r Runner) *Desktop {
	return NewFor(runtime.GOOS, r)
}

// NewFor pins the platform, mostly for tests.
func NewFor(goos string, r Runner) *Desktop {
	if r == nil {
		r = ExecRunner{}
	}
	return &Desktop{run: r, goos: goos}
}

func (d *Desktop) Platform() string { return d.goos }

func (d *Desktop) unsupported(op string) error {
	return fmt.Errorf("%s on %s: %w", op, d.goos, ErrUnsupported)
}

func (d *Desktop) LaunchApp(ctx context.Context, name string) (Output, error) {
	switch d.goos {
	case "darwin":
		return d.run.Run(ctx, "open", "-a", name)
	case "linux":
		return d.run.Run(ctx, "gtk-launch", desktopID(name))
	case "windows":
		return d.run.Run(ctx, "cmd", "/c", "start", "", name)
	}
	return Output{}, d.unsupported("launch")
}

// OpenBrowserTab brings the browser forward with a fresh tab instead of
// just focusing the window it already has.
func (d *Desktop) OpenBrowserTab(ctx context.Context, app string) (Output, error) {
	switch d.goos {
	case "darwin":
		return d.RunScript(ctx, `tell application `+Quote(app)+`
	activate
	if not (exists window 1) then
		make new window
	end if
	tell window 1 to make new tab at end of tabs
end tell`)
	case "linux":
		return d.run.Run(ctx, "google-chrome", "--new-tab", "about:blank")
	case "windows":
		return d.run.Run(ctx, "cmd", "/c", "start", "", "chrome", "--new-tab", "about:blank")
	}
	return Output{}, d.unsupported("new tab")
}

// OpenURI hands a URL (http, tel, sms, ...) to the default handler.
func (d *Desktop) OpenURI(ctx context.Context, uri string) (Output, error) {
	switch d.goos {
	case "darwin":
		return d.run.Run(ctx, "open", uri)
	case "linux":
		return d.run.Run(ctx, "xdg-open", uri)
	case "windows":
		return d.run.Run(ctx, "rundll32", "url.dll,FileProtocolHandler", uri)
	}
	return Output{}, d.unsupported("open uri")
}

func (d *Desktop) OpenFile(ctx context.Context, path string) (Output, error) {
	return d.OpenURI(ctx, path)
}

// RunScript runs an AppleScript program. Only macOS has one.
func (d *Desktop) RunScript(ctx context.Context, script string) (Output, error) {
	if d.goos != "darwin" {
		return Output{}, d.unsupported("script")
	}
	return d.run.Run(ctx, "osascript", "-e", script)
}

// ClickButton presses the button called name in app's front window.
func (d *Desktop) ClickButton(ctx context.Context, app, name string) (Output, error) {
	return d.click(ctx, app, `click button `+Quote(name)+` of window 1
				return "clicked"`)
}

// ClickButtonContaining presses the first button in app's front window
// whose name contains any of keywords. An empty app targets the frontmost
// application.
func (d *Desktop) ClickButtonContaining(ctx context.Context, app string, keywords ...string) (Output, error) {
	if len(keywords) == 0 {
		return Output{}, ErrNoControl
	}
	conds := make([]string, len(keywords))
	for i, k := range keywords {
		conds[i] = "btnName contains " + Quote(k)
	}
	return d.click(ctx, app, `repeat with btn in (buttons of window 1)
					set btnName to name of btn as text
					if `+strings.Join(conds, " or ")+` then
						click btn
						return "clicked " & btnName
					end if
				end repeat
				return "no match"`)
}

// click runs body inside app's process. An empty app means whichever
// application is frontmost.
func (d *Desktop) click(ctx context.Context, app, body string) (Output, error) {
	prelude := `tell application ` + Quote(app) + ` to activate
delay 1
`
	proc := "process " + Quote(app)
	if app == "" {
		prelude = `tell application "System Events" to set frontApp to name of first application process whose frontmost is true
`
		proc = "process frontApp"
	}
	out, err := d.RunScript(ctx, prelude+`tell application "System Events"
	tell `+proc+`
		if exists window 1 then
			try
				`+body+`
			on error errMsg
				return "error: " & errMsg
			end try
		else
			return "no window"
		end if
	end tell
end tell`)
	if err != nil {
		return out, err
	}
	if !strings.HasPrefix(strings.TrimSpace(out.Stdout), "clicked") {
		return out, fmt.Errorf("%s: %s: %w", orFront(app), strings.TrimSpace(out.Stdout), ErrNoControl)
	}
	return out, nil
}

func orFront(app string) string {
	if app == "" {
		return "frontmost app"
	}
	return app
}

// ActiveTab reads title and URL of the frontmost Chrome or Safari tab.
func (d *Desktop) ActiveTab(ctx context.Context) (Tab, error) {
	out, err := d.RunScript(ctx, `tell application "System Events"
	set frontApp to name of first application process whose frontmost is true
end tell
if frontApp contains "Google Chrome" then
	tell application "Google Chrome"
		set t to active tab of front window
		return (title of t) & linefeed & (URL of t)
	end tell
else if frontApp contains "Safari" then
	tell application "Safari"
		set t to current tab of front window
		return (name of t) & linefeed & (URL of t)
	end tell
else
	return "no_browser"
end if`)
	if err != nil {
		return Tab{}, err
	}
	return parseTab(out.Stdout)
}

func parseTab(s string) (Tab, error) {
	s = strings.TrimRight(s, "\r\n")
	if strings.TrimSpace(s) == "no_browser" {
		return Tab{}, ErrNoBrowser
	}
	i := strings.LastIndex(s, "\n")
	if i < 0 {
		return Tab{}, fmt.Errorf("unexpected tab output %q", s)
	}
	tab := Tab{Title: strings.TrimSpace(s[:i]), URL: strings.TrimSpace(s[i+1:])}
	if tab.URL == "" {
		return Tab{}, errors.New("tab has no url")
	}
	return tab, nil
}

// SystemOps lists the operations System accepts.
var SystemOps = []string{"sleep", "restart", "shutdown", "lock"}

// System performs a whitelisted power or session operation.
func (d *Desktop) System(ctx context.Context, op string) (Output, error) {
	op = strings.ToLower(strings.TrimSpace(op))
	switch d.goos {
	case "darwin":
		verb := map[string]string{"sleep": "sleep", "restart": "restart", "shutdown": "shut down"}[op]
		if op == "lock" {
			return d.run.Run(ctx, "pmset", "displaysleepnow")
		}
		if verb != "" {
			return d.RunScript(ctx, `tell application "System Events" to `+verb)
		}
	case "linux":
		switch op {
		case "sleep":
			return d.run.Run(ctx, "systemctl", "suspend")
		case "restart":
			return d.run.Run(ctx, "systemctl", "reboot")
		case "shutdown":
			return d.run.Run(ctx, "systemctl", "poweroff")
		case "lock":
			return d.run.Run(ctx, "loginctl", "lock-session")
		}
	case "windows":
		switch op {
		case "sleep":
			return d.run.Run(ctx, "rundll32.exe", "powrprof.dll,SetSuspendState", "0,1,0")
		case "restart":
			return d.run.Run(ctx, "shutdown", "/r", "/t", "0")
		case "shutdown":
			return d.run.Run(ctx, "shutdown", "/s", "/t", "0")
		case "lock":
			return d.run.Run(ctx, "rundll32.exe", "user32.dll,LockWorkStation")
		}
	}
	return Output{}, d.unsupported("system " + op)
}

// Quote renders s as an AppleScript string literal.
func Quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func desktopID(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
}
