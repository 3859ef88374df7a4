package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/malhajar17/modcast/internal/audio"
	"github.com/malhajar17/modcast/internal/config"
	"github.com/malhajar17/modcast/internal/conversation"
	"github.com/malhajar17/modcast/internal/httpserver"
	"github.com/malhajar17/modcast/internal/metrics"
	"github.com/malhajar17/modcast/internal/realtime"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	personas := make([]conversation.PersonaConfig, len(cfg.Personas))
	for i, p := range cfg.Personas {
		personas[i] = conversation.PersonaConfig{
			Name:              p.Name,
			Voice:             p.Voice,
			Instructions:      p.Instructions,
			Temperature:       p.Temperature,
			MaxResponseTokens: p.MaxResponseTokens,
		}
	}

	backend := realtime.NewClient(cfg.RealtimeURL, cfg.OpenAIKey, cfg.RealtimeModel)
	bus := conversation.NewBus()
	orch := conversation.New(personas, backend, bus, conversation.Options{
		MaxTurns:      cfg.MaxTurns,
		HumanTimeout:  cfg.HumanTimeout,
		FrameDuration: cfg.FrameDuration,
		SampleRate:    cfg.SampleRate,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := httpserver.New()
	handlers := httpserver.NewHandlers(ctx, orch, audio.NewTranscoder(cfg.SampleRate), registry)
	handlers.Register(e)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m.Observe(gctx, bus)
		return nil
	})

	g.Go(func() error {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Printf("shutdown signal received")
		orch.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
			return server.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
