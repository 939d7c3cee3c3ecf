package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/lmittmann/tint"
	log "log/slog"

	"deskvox/internal/action"
	"deskvox/internal/assistant"
	"deskvox/internal/audio"
	"deskvox/internal/browser"
	"deskvox/internal/bus"
	"deskvox/internal/config"
	"deskvox/internal/history"
	"deskvox/internal/ipc"
	"deskvox/internal/llm"
	"deskvox/internal/memory"
	"deskvox/internal/nlu"
	"deskvox/internal/osauto"
	"deskvox/internal/proxy"
	"deskvox/internal/tts"
	"deskvox/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

const busRetry = 5 * time.Second

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	cfgPath := cli.StringP("config", "c", "", "Config file (default ~/.deskvox/config.yaml)")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS5 proxy for model traffic (overrides llm.proxy)")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides log.level)")
	socket := cli.StringP("socket", "s", "", "Control socket (overrides ipc.socket)")
	cue := cli.String("cue", "beep.mp3", "Sound played when listening starts")
	noVoice := cli.Bool("no-voice", false, "Skip microphone and whisper setup")
	cli.Parse()

	// .env first so config and API keys can come from it
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to load env file", "path", *envFile, "err", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *proxyAddr != "" {
		cfg.LLM.Proxy = *proxyAddr
	}
	if *socket != "" {
		cfg.IPC.Socket = *socket
	}

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[cfg.Log.Level],
	})))

	log.Info("Booting up", "config", config.Path(*cfgPath), "provider", cfg.LLM.Provider, "lang", cfg.Language)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newLLM(ctx, cfg)

	session := browser.NewSession(cfg.Browser.DebugPorts)
	defer session.Close()
	if err := session.Connect(ctx); err != nil {
		log.Info("No browser session yet", "err", err)
	}

	desk := osauto.New(osauto.ExecRunner{})
	mem := memory.New(cfg.Memory.Capacity, cfg.Memory.TabCacheTTL)
	dispatcher := action.NewDispatcher(svc, desk, session, mem, action.Options{
		Aliases:     cfg.Aliases,
		CalendarDir: cfg.Calendar.Dir,
	})
	analyzer := nlu.NewAnalyzer(nlu.NewRefiner(svc, cfg.Refiner.Enabled), nlu.NewClassifier(svc))

	opts := []assistant.Option{assistant.WithLanguage(cfg.Language)}
	rt := &router{language: cfg.Language}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			log.Error("Failed to open history", "path", cfg.History.Path, "err", err)
			os.Exit(1)
		}
		defer store.Close()
		opts = append(opts, assistant.WithJournal(store))
		rt.recents = store
		log.Debug("Loaded history", "path", cfg.History.Path)
	}

	a := assistant.New(analyzer, dispatcher, opts...)
	rt.pipeline = a

	if !*noVoice {
		if v, err := newVoice(cfg, *cue); err != nil {
			log.Warn("Voice input disabled", "err", err)
		} else {
			defer v.Close()
			rt.ears = v
		}
	}
	if cfg.TTS.Enabled {
		rt.speak = tts.Speak
	}

	srv, err := ipc.Listen(cfg.IPC.Socket, rt.handle)
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx) })
	if cfg.Bus.URL != "" {
		g.Go(func() error { return runBus(ctx, cfg.Bus, a.Handle) })
	}

	log.Info("Boot up - successful", "socket", cfg.IPC.Socket)
	if err := g.Wait(); err != nil {
		log.Error("Daemon stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Shut down")
}

// newLLM returns nil when no credential is configured; the pipeline then
// runs on its keyword fallbacks.
func newLLM(ctx context.Context, cfg config.Config) llm.Service {
	httpClient := &http.Client{Timeout: cfg.LLM.Timeout}
	if cfg.LLM.Proxy != "" {
		c, err := proxy.NewSocksClient(cfg.LLM.Proxy, cfg.LLM.Timeout)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", cfg.LLM.Proxy, "err", err)
			os.Exit(1)
		}
		httpClient = c
		log.Debug("Loaded proxy", "proxy", cfg.LLM.Proxy)
	}

	svc, err := llm.New(ctx, llm.Options{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKeyEnv:  cfg.LLM.APIKeyEnv,
		HTTPClient: httpClient,
	})
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		log.Warn("Running without a language model", "err", err)
		return nil
	case err != nil:
		log.Error("Failed to create model client", "err", err)
		os.Exit(1)
	}
	log.Debug("Loaded model", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	return svc
}

func newVoice(cfg config.Config, cue string) (*voice, error) {
	tr, err := stt.NewTranscriber(cfg.STT.Model)
	if err != nil {
		return nil, err
	}
	rec := audio.NewRecorder(audio.DefaultOptions())
	if err := rec.Init(); err != nil {
		tr.Close()
		return nil, err
	}

	v := &voice{
		rec: rec,
		tr:  tr,
		cue: cue,
		opt: stt.Options{Language: cfg.STT.Language, Threads: cfg.STT.Threads},
	}
	if runtime.GOOS == "linux" {
		v.ducker = audio.NewDucker(osauto.ExecRunner{}, []string{"deskvox"}, 10)
	}
	log.Debug("Loaded whisper", "model", cfg.STT.Model)
	return v, nil
}

// runBus keeps a connection to the hub, redialing until ctx ends.
func runBus(ctx context.Context, cfg config.Bus, handle bus.Handler) error {
	for {
		c, err := bus.Dial(ctx, cfg.URL, cfg.Name)
		if err == nil {
			err = c.Run(ctx, handle)
			c.Close()
		}
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("Bus connection lost", "url", cfg.URL, "err", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(busRetry):
		}
	}
}
