package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kalambet/deskmate/internal/answer"
	"github.com/kalambet/deskmate/internal/assistant"
	"github.com/kalambet/deskmate/internal/config"
	"github.com/kalambet/deskmate/internal/engine"
	"github.com/kalambet/deskmate/internal/logging"
	"github.com/kalambet/deskmate/internal/session"
	"github.com/kalambet/deskmate/internal/storage"
)

// app is the assembled assistant shared by chat, ask and serve.
type app struct {
	cfg       config.Config
	store     storage.Store
	engine    engine.Engine
	assistant *assistant.Assistant

	logCloser io.Closer
}

// interactions returns the interaction log when the storage driver keeps one.
func (a *app) interactions() storage.InteractionStore {
	if is, ok := a.store.(storage.InteractionStore); ok {
		return is
	}
	return nil
}

func (a *app) Close() error {
	var errs []error
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}

// initLogging installs the process logger. The log file always lives in
// the data directory; console output goes to console when non-nil.
func initLogging(cfg config.Config, console io.Writer) (io.Closer, error) {
	return logging.Init(logging.Options{
		Level:    cfg.Log.Level,
		Console:  console,
		FilePath: filepath.Join(cfg.Storage.DataDir, logging.FileName),
	})
}

// openStore opens the configured store without building a backend.
func openStore(cfg config.Config) (storage.Store, error) {
	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

// newApp wires config → logging → storage → session → engine → fetcher →
// assistant. The backend is prepared (model pulled, key checked) before
// returning.
func newApp(ctx context.Context, cfg config.Config, console io.Writer) (*app, error) {
	closer, err := initLogging(cfg, console)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		closer.Close()
		return nil, err
	}
	a := &app{cfg: cfg, store: store, logCloser: closer}

	eng, err := engine.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("selecting backend: %w", err)
	}
	if err := engine.EnsureReady(ctx, eng, os.Stderr); err != nil {
		a.Close()
		return nil, err
	}
	a.engine = eng

	a.assistant, err = buildAssistant(cfg, store, eng)
	if err != nil {
		a.Close()
		return nil, err
	}

	slog.Info("deskmate ready",
		"version", version,
		"backend", eng.Name(),
		"storage", cfg.Storage.Driver,
		"replay", cfg.Session.Replay,
	)
	return a, nil
}

func buildAssistant(cfg config.Config, store storage.Store, eng engine.Engine) (*assistant.Assistant, error) {
	mode, err := answer.ParseMode(cfg.Answer.Truncation)
	if err != nil {
		return nil, err
	}

	sess := session.New(store, cfg.Session.MemoryCap)
	sess.Load()

	fetcher := answer.New(eng, answer.Options{
		MaxChars:   cfg.Answer.MaxChars,
		Truncation: mode,
	})

	opts := assistant.Options{Replay: cfg.Session.Replay}
	if is, ok := store.(storage.InteractionStore); ok {
		opts.Log = is
	}
	return assistant.New(sess, fetcher, opts), nil
}
