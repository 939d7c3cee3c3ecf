package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"deskvox/internal/action"
	"deskvox/internal/ipc"
)

// sender delivers one request to the daemon.
type sender func(ctx context.Context, socket string, req ipc.Request) (ipc.Response, error)

type globals struct {
	socket  string
	timeout time.Duration
	json    bool
}

func defaultSocket() string {
	if s := os.Getenv("DESKVOX_SOCKET"); s != "" {
		return s
	}
	return ipc.DefaultSocket
}

func newRootCmd(send sender) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "deskvox-ctl",
		Short:         "Control the deskvox daemon",
		Long:          "deskvox-ctl sends commands to a running deskvox-daemon over its control socket.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.socket, "socket", "s", defaultSocket(), "Daemon control socket")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 2*time.Minute, "Give up waiting for the daemon after this long")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "Print the raw daemon response as JSON")

	root.AddCommand(
		newRunCommand(g, send),
		newResetCommand(g, send),
		newListenCommand(g, send),
		newTranscribeCommand(g, send),
		newHistoryCommand(g, send),
	)
	return root
}

func newRunCommand(g *globals, send sender) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "run [command text]",
		Short: "Carry out a typed command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, g, send, ipc.Request{
				Cmd:      ipc.CmdRun,
				Text:     strings.Join(args, " "),
				Language: lang,
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "L", "", "Reply language: ko, en or auto (default from daemon config)")
	return cmd
}

func newResetCommand(g *globals, send sender) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget recent commands and cached tab analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, g, send, ipc.Request{Cmd: ipc.CmdReset})
		},
	}
}

func newListenCommand(g *globals, send sender) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Record one spoken command from the microphone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, g, send, ipc.Request{Cmd: ipc.CmdListen, Language: lang})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "L", "", "Reply language")
	return cmd
}

func newTranscribeCommand(g *globals, send sender) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "transcribe <audio file>",
		Short: "Carry out the command spoken in a wav, mp3 or ogg file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			return call(cmd, g, send, ipc.Request{Cmd: ipc.CmdTranscribe, Path: path, Language: lang})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "L", "", "Reply language")
	return cmd
}

func newHistoryCommand(g *globals, send sender) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently handled commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, g, send, ipc.Request{Cmd: ipc.CmdHistory, Limit: limit})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")
	return cmd
}

func call(cmd *cobra.Command, g *globals, send sender, req ipc.Request) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	defer cancel()

	resp, err := send(ctx, g.socket, req)
	if err != nil {
		return fmt.Errorf("deskvox-daemon not running? %w", err)
	}

	out := cmd.OutOrStdout()
	if g.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return err
		}
	} else {
		render(out, req.Cmd, resp)
	}

	switch {
	case !resp.OK:
		return errors.New(resp.Error)
	case resp.Result != nil && !resp.Result.Success:
		return fmt.Errorf("%s failed: %s", resp.Result.Action, resp.Result.Error)
	}
	return nil
}

func render(w io.Writer, cmd string, resp ipc.Response) {
	switch {
	case !resp.OK:
		return
	case resp.Result != nil:
		renderResult(w, *resp.Result)
	case cmd == ipc.CmdHistory:
		if len(resp.History) == 0 {
			fmt.Fprintln(w, "No history yet.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tOK\tTRANSCRIPT")
		for _, e := range resp.History {
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", e.Timestamp.Local().Format("01-02 15:04:05"), e.Action, e.Success, e.Transcript)
		}
		tw.Flush()
	case cmd == ipc.CmdReset:
		fmt.Fprintln(w, "Conversation reset.")
	}
}

func renderResult(w io.Writer, res action.Result) {
	fmt.Fprintln(w, action.PlainText(res.Message))
	if res.Content != nil && res.Content.URL != "" {
		fmt.Fprintf(w, "\n[%s] %s\n", res.Content.Title, res.Content.URL)
	}
	if res.Analysis != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, action.PlainText(res.Analysis))
	}
	if res.FromCache {
		fmt.Fprintln(w, "(cached)")
	}
}
