package observability

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/logger"
	metricspkg "github.com/memobread/memobread/internal/observability/metrics"
)

func getLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// Endpoint serves Prometheus-compatible telemetry on its own listener.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint creates a telemetry Endpoint. It fails when telemetry is disabled.
func NewEndpoint(settings *conf.Settings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Telemetry.Enabled {
		return nil, errors.Newf("telemetry not enabled in settings").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	mux := http.NewServeMux()
	metrics.RegisterHandlers(mux)

	return &Endpoint{
		listenAddress: settings.Telemetry.Listen,
		metrics:       metrics,
		server: &http.Server{
			Addr:              settings.Telemetry.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start listens and serves until ctx is cancelled, then shuts the server down.
// It blocks, which suits an errgroup.
func (e *Endpoint) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryNetwork).
			Context("operation", "listen").
			Context("address", e.listenAddress).
			Build()
	}
	return e.Serve(ctx, ln)
}

// Serve runs the endpoint on an existing listener.
func (e *Endpoint) Serve(ctx context.Context, ln net.Listener) error {
	log := getLogger()
	errCh := make(chan error, 1)
	go func() {
		log.Info("telemetry endpoint starting", logger.String("address", ln.Addr().String()))
		if err := e.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.New(err).
				Component("telemetry").
				Category(errors.CategoryNetwork).
				Context("operation", "serve").
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("stopping telemetry server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry server shutdown error", logger.Error(err))
		return err
	}
	<-errCh
	return nil
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
