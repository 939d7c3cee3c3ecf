package osauto

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls []call
	out   Output
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (Output, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	return f.out, f.err
}

func TestLaunchApp_PerPlatform(t *testing.T) {
	cases := []struct {
		goos string
		want call
	}{
		{"darwin", call{"open", []string{"-a", "Visual Studio Code"}}},
		{"linux", call{"gtk-launch", []string{"visual-studio-code"}}},
		{"windows", call{"cmd", []string{"/c", "start", "", "Visual Studio Code"}}},
	}
	for _, tc := range cases {
		r := &fakeRunner{}
		_, err := NewFor(tc.goos, r).LaunchApp(context.Background(), "Visual Studio Code")
		require.NoError(t, err)
		require.Len(t, r.calls, 1)
		assert.Equal(t, tc.want, r.calls[0], tc.goos)
	}

	_, err := NewFor("plan9", &fakeRunner{}).LaunchApp(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRunScript_OnlyOnDarwin(t *testing.T) {
	r := &fakeRunner{}
	_, err := NewFor("linux", r).RunScript(context.Background(), "beep")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Empty(t, r.calls)

	_, err = NewFor("darwin", r).RunScript(context.Background(), "beep")
	require.NoError(t, err)
	assert.Equal(t, call{"osascript", []string{"-e", "beep"}}, r.calls[0])
}

func TestOpenBrowserTab_QuotesAppName(t *testing.T) {
	r := &fakeRunner{}
	_, err := NewFor("darwin", r).OpenBrowserTab(context.Background(), "Google Chrome")
	require.NoError(t, err)
	assert.Contains(t, r.calls[0].args[1], `tell application "Google Chrome"`)
	assert.Contains(t, r.calls[0].args[1], "make new tab")
}

func TestClickButton(t *testing.T) {
	r := &fakeRunner{out: Output{Stdout: "clicked\n"}}
	_, err := NewFor("darwin", r).ClickButton(context.Background(), "Photo Booth", "Take Photo")
	require.NoError(t, err)
	assert.Contains(t, r.calls[0].args[1], `click button "Take Photo" of window 1`)

	r = &fakeRunner{out: Output{Stdout: "no window\n"}}
	_, err = NewFor("darwin", r).ClickButton(context.Background(), "Photo Booth", "Take Photo")
	assert.ErrorIs(t, err, ErrNoControl)
}

func TestClickButtonContaining(t *testing.T) {
	r := &fakeRunner{out: Output{Stdout: "clicked Take Photo"}}
	_, err := NewFor("darwin", r).ClickButtonContaining(context.Background(), "Photo Booth", "Photo", "Camera")
	require.NoError(t, err)
	assert.Contains(t, r.calls[0].args[1], `btnName contains "Photo" or btnName contains "Camera"`)
}

func TestActiveTab(t *testing.T) {
	r := &fakeRunner{out: Output{Stdout: "Breaking: a, b, c\nhttps://news.example/a\n"}}
	tab, err := NewFor("darwin", r).ActiveTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Tab{Title: "Breaking: a, b, c", URL: "https://news.example/a"}, tab)

	r = &fakeRunner{out: Output{Stdout: "no_browser\n"}}
	_, err = NewFor("darwin", r).ActiveTab(context.Background())
	assert.ErrorIs(t, err, ErrNoBrowser)

	_, err = NewFor("linux", r).ActiveTab(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSystem(t *testing.T) {
	r := &fakeRunner{}
	_, err := NewFor("linux", r).System(context.Background(), "Sleep")
	require.NoError(t, err)
	assert.Equal(t, call{"systemctl", []string{"suspend"}}, r.calls[0])

	_, err = NewFor("darwin", r).System(context.Background(), "shutdown")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(r.calls[1].args[1], "shut down"))

	_, err = NewFor("linux", r).System(context.Background(), "rm -rf /")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRunnerErrorPropagates(t *testing.T) {
	boom := errors.New("exit 1")
	r := &fakeRunner{out: Output{Stderr: "nope", ExitCode: 1}, err: boom}
	out, err := NewFor("darwin", r).OpenURI(context.Background(), "tel:123")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "nope", out.Text())
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\ bye"`, Quote(`say "hi" \ bye`))
}

func TestClickButtonContaining_Frontmost(t *testing.T) {
	r := &fakeRunner{out: Output{Stdout: "no match"}}
	_, err := NewFor("darwin", r).ClickButtonContaining(context.Background(), "", "Save")
	assert.ErrorIs(t, err, ErrNoControl)
	assert.Contains(t, r.calls[0].args[1], "tell process frontApp")
	assert.NotContains(t, r.calls[0].args[1], "to activate")
}
