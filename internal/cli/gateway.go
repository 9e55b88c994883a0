package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/balazsgrill/actiongate/internal/announce"
	"github.com/balazsgrill/actiongate/internal/config"
	"github.com/balazsgrill/actiongate/internal/dispatch"
	"github.com/balazsgrill/actiongate/internal/server"
	"github.com/balazsgrill/actiongate/internal/token"
	"github.com/balazsgrill/actiongate/services"
	"github.com/balazsgrill/actiongate/services/trello"
)

const connectTimeout = 10 * time.Second

// Gateway is the assembled process: catalog, dispatcher, HTTP server and the
// optional announcer.
type Gateway struct {
	Server    *server.Server
	Announcer *announce.Announcer
	logger    *slog.Logger
}

// NewGateway wires every component from cfg. cfg must be valid.
func NewGateway(cfg config.Config, logger *slog.Logger) (*Gateway, error) {
	catalog, err := services.New(trello.Settings{
		BaseURL: cfg.TrelloBaseURL,
		Retries: cfg.TrelloRetries,
	})
	if err != nil {
		return nil, err
	}

	gw := &Gateway{logger: logger}
	dispatchOpts := []dispatch.Option{dispatch.WithLogger(logger)}
	var serverOpts []server.Option
	if cfg.MQTTBroker != "" {
		gw.Announcer = announce.New(cfg.MQTTBroker, announce.Descriptors(catalog.Registry), logger)
		dispatchOpts = append(dispatchOpts, dispatch.WithNotifier(gw.Announcer))
		serverOpts = append(serverOpts, server.WithHealth(gw.Announcer))
	}

	d := dispatch.New(token.New(cfg.Secret, cfg.APIKey), catalog.Registry, catalog.Resolver, dispatchOpts...)
	gw.Server = server.New(cfg.Addr(), d, logger, serverOpts...)
	return gw, nil
}

// Run serves until ctx is done, then drains requests for at most
// shutdownTimeout. A broker that cannot be reached is logged and the gateway
// keeps serving without announcements.
func (g *Gateway) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if g.Announcer != nil {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := g.Announcer.Connect(connectCtx)
		cancel()
		if err != nil {
			g.logger.Warn("Announcer unavailable", "error", err)
		}
		defer g.Announcer.Close()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- g.Server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := g.Server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
