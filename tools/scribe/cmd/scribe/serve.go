package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ErVarunGupta/Streaming-App/pkg/config"
	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/metrics/prometheus"
	"github.com/ErVarunGupta/Streaming-App/runtime/outputs"
	"github.com/ErVarunGupta/Streaming-App/runtime/stt"
	"github.com/ErVarunGupta/Streaming-App/runtime/summarize"
	"github.com/ErVarunGupta/Streaming-App/runtime/telemetry"
	scribeserver "github.com/ErVarunGupta/Streaming-App/server/scribe"
)

const (
	flagAddr       = "addr"
	flagOutputDir  = "output-dir"
	shutdownPeriod = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the transcription backend",
	Long: `Run the HTTP backend that the upload and record commands talk to.

POST /stt transcribes a multipart "file" upload and summarizes the text.
POST /save stores {name, text, summary, type} in the configured sink.
Requires OPENAI_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := *settings
		if cmd.Flags().Changed(flagAddr) {
			cfg.Spec.Server.Address, _ = cmd.Flags().GetString(flagAddr)
		}
		if cmd.Flags().Changed(flagOutputDir) {
			cfg.Spec.Server.OutputDir, _ = cmd.Flags().GetString(flagOutputDir)
		}
		return runServe(cmd.Context(), &cfg)
	},
}

func init() {
	serveCmd.Flags().String(flagAddr, "", "listen address (default :8080)")
	serveCmd.Flags().String(flagOutputDir, "", "directory for saved outputs when the sink is file")
}

func runServe(parent context.Context, cfg *config.ScribeConfig) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Spec.Tracing.Endpoint, cfg.Spec.Tracing.ServiceName)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	sink, health, closeSink, err := openSink(cfg.Spec.Server)
	if err != nil {
		return err
	}
	defer closeSink()

	srv := newBackend(cfg.Spec.Server, sink)

	var exporter *prometheus.Exporter
	if addr := cfg.Spec.Metrics.Address; addr != "" {
		exporter = prometheus.NewExporter(addr, prometheus.WithHealthCheck(health))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting scribe backend", "sink", cfg.Spec.Server.Sink)
		return srv.ListenAndServe()
	})
	if exporter != nil {
		g.Go(func() error {
			logger.Info("metrics exporter listening", "address", cfg.Spec.Metrics.Address)
			if err := exporter.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics exporter: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownPeriod)
		defer cancel()
		logger.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		if exporter != nil {
			err = errors.Join(err, exporter.Shutdown(shutdownCtx))
		}
		return err
	})
	return g.Wait()
}

// newBackend builds the HTTP server around the OpenAI speech and chat
// services.
func newBackend(sc config.ServerConfig, sink outputs.Sink) *scribeserver.Server {
	p := sc.Provider

	sttOpts := []stt.OpenAIOption{stt.WithOpenAIModel(p.TranscribeModel), stt.WithOpenAILanguage(p.Language)}
	sumOpts := []summarize.Option{summarize.WithModel(p.SummaryModel), summarize.WithLength(p.SummaryMinTokens, p.SummaryMaxTokens)}
	if p.BaseURL != "" {
		sttOpts = append(sttOpts, stt.WithOpenAIBaseURL(p.BaseURL))
		sumOpts = append(sumOpts, summarize.WithBaseURL(p.BaseURL))
	}

	opts := []scribeserver.Option{
		scribeserver.WithAddress(sc.Address),
		scribeserver.WithMaxBodySize(sc.MaxBodyBytes),
		scribeserver.WithTranscriptionConfig(stt.TranscriptionConfig{Model: p.TranscribeModel, Language: p.Language}),
	}
	if sc.ReadTimeout > 0 {
		opts = append(opts, scribeserver.WithReadTimeout(sc.ReadTimeout))
	}
	if sc.WriteTimeout > 0 {
		opts = append(opts, scribeserver.WithWriteTimeout(sc.WriteTimeout))
	}

	return scribeserver.NewServer(
		stt.NewOpenAI(p.APIKey, sttOpts...),
		summarize.NewOpenAI(p.APIKey, sumOpts...),
		sink,
		opts...,
	)
}

// openSink returns the configured output sink, a health check for it and a
// function releasing its resources.
func openSink(sc config.ServerConfig) (outputs.Sink, prometheus.HealthCheck, func(), error) {
	switch sc.Sink {
	case config.SinkRedis:
		client := redis.NewClient(&redis.Options{Addr: sc.Redis.Address})
		sink := outputs.NewRedisSink(client,
			outputs.WithPrefix(sc.Redis.KeyPrefix),
			outputs.WithTTL(sc.Redis.TTL))
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing redis client", "error", err)
			}
		}
		return sink, sink.Ping, closeFn, nil
	default:
		sink, err := outputs.NewFileSink(sc.OutputDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return sink, nil, func() {}, nil
	}
}
