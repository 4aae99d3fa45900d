package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nickhayeck/combo-trading/internal/chain"
	"github.com/nickhayeck/combo-trading/internal/crypto"
	"github.com/nickhayeck/combo-trading/internal/domain"
	"github.com/nickhayeck/combo-trading/internal/executor"
	"github.com/nickhayeck/combo-trading/internal/feed"
	"github.com/nickhayeck/combo-trading/internal/pipeline"
	"github.com/nickhayeck/combo-trading/internal/platform/binance"
	"github.com/nickhayeck/combo-trading/internal/platform/ledgerx"
	"github.com/nickhayeck/combo-trading/internal/strategy"
)

// TradeMode runs the full pipeline with live order placement on both venues.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")

	lxKey, err := a.ledgerXKey()
	if err != nil {
		return fmt.Errorf("trade mode: resolve ledgerx key: %w", err)
	}

	spotClient := binance.NewClient(a.cfg.Binance.BaseURL, &crypto.HMACAuth{
		Key:    a.cfg.Binance.ApiKey,
		Secret: a.cfg.Binance.ApiSecret,
	})
	optionsClient := ledgerx.NewClient(a.cfg.LedgerX.BaseURL, lxKey)

	return a.runPipeline(ctx, deps, lxKey,
		executor.NewBinanceSpotPlacer(spotClient),
		executor.NewLedgerXOptionsPlacer(optionsClient),
	)
}

// ObserveMode runs the same pipeline but routes every detected trade through
// a log-only placer. Nothing is ever sent to a venue.
func (a *App) ObserveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting observe mode")

	lxKey, err := a.ledgerXKey()
	if err != nil {
		a.logger.WarnContext(ctx, "ledgerx key unavailable, continuing unauthenticated",
			slog.String("error", err.Error()))
		lxKey = ""
	}

	placer := executor.NewLogOnlyPlacer(a.logger)
	return a.runPipeline(ctx, deps, lxKey, placer, placer)
}

// runPipeline builds the lattice from the venue catalog, wires the two feeds
// and the consumer, and blocks until a goroutine fails or the context is
// cancelled.
func (a *App) runPipeline(
	ctx context.Context,
	deps *Dependencies,
	lxKey string,
	spotPlacer executor.SpotOrderPlacer,
	optionsPlacer executor.OptionsOrderPlacer,
) error {
	catalogClient := ledgerx.NewClient(a.cfg.LedgerX.BaseURL, lxKey)
	catalog, err := catalogClient.FetchCatalog(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("app: fetch contract catalog: %w", err)
	}

	lattice := chain.Build(catalog, a.cfg.Strategy.Underlying)
	a.logger.InfoContext(ctx, "options lattice built",
		slog.Int("contracts", len(catalog)),
		slog.Int("calls", len(lattice.Calls)),
		slog.Int("puts", len(lattice.Puts)))

	engine := strategy.New(lattice, catalog, strategy.Config{
		Symbol:         a.cfg.Strategy.Symbol,
		BorrowRate:     a.cfg.Strategy.BorrowRate,
		OptionsFeeRate: a.cfg.Strategy.OptionsFeeRate,
		SpotFeeRate:    a.cfg.Strategy.SpotFeeRate,
		SizeFactor:     a.cfg.Strategy.SizeFactor,
	}, a.logger)

	dispatcher := executor.NewDispatcher(spotPlacer, optionsPlacer, deps.Notifier, a.logger)

	var recorder *pipeline.Recorder
	if deps.BlobWriter != nil {
		recorder = pipeline.NewRecorder(
			deps.BlobWriter,
			a.cfg.Recorder.Prefix,
			a.cfg.Recorder.FlushInterval.Duration,
			a.cfg.Recorder.MaxBatch,
			a.logger,
		)
	}

	// The consumer takes the recorder through an interface; a typed nil
	// pointer must not reach it.
	var consumerRecorder feed.Recorder
	if recorder != nil {
		consumerRecorder = recorder
	}

	envCh := make(chan domain.Envelope, a.cfg.Feed.QueueSize)
	spotFeed := feed.NewSpotFeed(
		binance.NewWSClient(a.cfg.Binance.WsURL, a.cfg.Strategy.Symbol, a.logger), envCh, a.logger)
	optionsFeed := feed.NewOptionsFeed(
		ledgerx.NewWSClient(a.cfg.LedgerX.WsURL, lxKey, a.logger), envCh, a.logger)
	consumer := feed.NewConsumer(engine, dispatcher, deps.SignalBus, deps.Journal, consumerRecorder, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return spotFeed.Run(ctx) })
	g.Go(func() error { return optionsFeed.Run(ctx) })
	g.Go(func() error { return consumer.Run(ctx, envCh) })
	if recorder != nil {
		g.Go(func() error { return recorder.Run(ctx) })
	}

	return g.Wait()
}

// ledgerXKey resolves the LedgerX API key, preferring the encrypted keyfile
// when one is configured.
func (a *App) ledgerXKey() (string, error) {
	if a.cfg.LedgerX.EncryptedKeyPath != "" {
		return crypto.LoadSecret(crypto.SecretConfig{
			EncryptedPath: a.cfg.LedgerX.EncryptedKeyPath,
			Password:      a.cfg.LedgerX.KeyPassword,
		})
	}
	return a.cfg.LedgerX.ApiKey, nil
}
