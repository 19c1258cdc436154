// Package bootstrap provides dependency initialization for the annotation
// service. All collaborators are constructed here and passed down
// explicitly; nothing reads from a shared registry.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/acoustio/noisedesk/internal/analysis"
	"github.com/acoustio/noisedesk/internal/config"
	"github.com/acoustio/noisedesk/internal/dataset"
	"github.com/acoustio/noisedesk/internal/interchange"
	"github.com/acoustio/noisedesk/internal/session"
	"github.com/acoustio/noisedesk/internal/state"
	"github.com/acoustio/noisedesk/internal/storage"
	"github.com/acoustio/noisedesk/internal/transport"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Session *session.Session
	Codec   *interchange.Codec
	Exports storage.Store
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Load the prepared measurement data
	cache, err := dataset.LoadFile(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	// Initialize export storage
	exports, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize the outbound audio transport
	sender, err := initTransport(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize the store pre-populated with the dataset's positions
	store := state.NewStore(state.WithLogger(logger))
	store.Dispatch(state.Initialize(availablePositions(cache)))

	engine := analysis.NewEngine(cache, logger)

	sess, err := session.New(store, engine, sender,
		session.WithLogger(logger),
		session.WithParameter(cfg.Parameter),
		session.WithPlaybackRates(cfg.PlaybackRates),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &Dependencies{
		Session: sess,
		Codec:   interchange.NewCodec(logger),
		Exports: exports,
	}, nil
}

// availablePositions lists the dataset's positions in sorted id order.
func availablePositions(cache *dataset.Cache) []state.Position {
	ids := cache.Positions()
	positions := make([]state.Position, 0, len(ids))
	for _, id := range ids {
		positions = append(positions, state.Position{ID: id, Title: id})
	}
	return positions
}

// initStorage creates the appropriate export storage backend based on
// configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Store(cfg.ExportDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 export storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStore(cfg.ExportDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local export storage configured",
		slog.String("export_dir", cfg.ExportDir),
	)
	return localStore, nil
}

// initTransport creates the outbound audio command sender. Without a
// configured URL the transport is a no-op and audio state is driven by
// status callbacks alone.
func initTransport(cfg *config.Config, logger *slog.Logger) (transport.Sender, error) {
	if cfg.TransportURL == "" {
		logger.Info("no audio transport configured, commands will be discarded")
		return transport.NopSender{}, nil
	}
	sender, err := transport.NewHTTPSender(cfg.TransportURL)
	if err != nil {
		return nil, fmt.Errorf("create audio transport: %w", err)
	}
	logger.Info("audio transport configured",
		slog.String("url", cfg.TransportURL),
	)
	return sender, nil
}
