// Package serve runs the MemoBread HTTP API together with its telemetry
// endpoint and MQTT publisher.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/memobread/memobread/internal/api"
	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/datastore"
	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/location"
	"github.com/memobread/memobread/internal/logger"
	"github.com/memobread/memobread/internal/mqtt"
	"github.com/memobread/memobread/internal/observability"
	"github.com/memobread/memobread/internal/privacy"
	"github.com/memobread/memobread/internal/recording"
	"github.com/memobread/memobread/internal/transcription"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		host      string
		port      string
		telemetry bool
		listen    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Start the MemoBread HTTP API. Recordings are kept in memory and lost on restart.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("host") {
				settings.WebServer.Host = host
			}
			if flags.Changed("port") {
				settings.WebServer.Port = port
			}
			if flags.Changed("telemetry") {
				settings.Telemetry.Enabled = telemetry
			}
			if flags.Changed("listen") {
				settings.Telemetry.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Run(ctx, settings)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Interface to listen on (default from config)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().BoolVar(&telemetry, "telemetry", false, "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address and port of telemetry endpoint")

	return cmd
}

// Run builds the application and serves until ctx is cancelled.
func Run(ctx context.Context, settings *conf.Settings) error {
	if err := initSentry(settings); err != nil {
		return err
	}
	defer flushSentry(settings)

	app, err := Build(settings)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}

// App is the wired set of components behind the serve command.
type App struct {
	Settings  *conf.Settings
	Metrics   *observability.Metrics
	Store     datastore.Interface
	Service   *recording.Service
	Server    *api.Server
	Telemetry *observability.Endpoint // nil when telemetry is disabled
	MQTT      mqtt.Client             // nil when MQTT is disabled

	log logger.Logger
}

// Build wires storage, transcription, location, events and the HTTP server from settings.
func Build(settings *conf.Settings) (*App, error) {
	log := logger.Global().Module("main")

	m, err := observability.NewMetrics()
	if err != nil {
		return nil, err
	}

	app := &App{
		Settings: settings,
		Metrics:  m,
		log:      log,
	}

	transcriber, err := newTranscriber(settings, m)
	if err != nil {
		return nil, err
	}

	store, err := datastore.New(settings.Storage.Backend, nil)
	if err != nil {
		return nil, err
	}
	app.Store = store

	opts := []recording.Option{
		recording.WithMetrics(m.Recordings),
		recording.WithTranscriptionTimeout(settings.Transcription.Timeout),
	}

	if settings.MQTT.Enabled {
		client, err := mqtt.NewClient(settings, m.MQTT)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.MQTT = client
		opts = append(opts, recording.WithNotifier(mqtt.NewPublisher(client, settings.MQTT.Topic)))
	}

	app.Service = recording.NewService(store, transcriber, newResolver(settings), opts...)

	app.Server, err = api.New(settings, app.Service, api.WithMetrics(m))
	if err != nil {
		app.Close()
		return nil, err
	}

	if settings.Telemetry.Enabled {
		app.Telemetry, err = observability.NewEndpoint(settings, m)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	log.Info("application initialized",
		logger.String("storage", settings.Storage.Backend),
		logger.String("transcription", settings.Transcription.Provider),
		logger.Bool("mqtt", settings.MQTT.Enabled),
		logger.Bool("telemetry", settings.Telemetry.Enabled))

	return app, nil
}

func newTranscriber(settings *conf.Settings, m *observability.Metrics) (transcription.Transcriber, error) {
	switch settings.Transcription.Provider {
	case "", transcription.ProviderStub:
		return transcription.NewStub(
			transcription.WithPrefixLength(settings.Transcription.PrefixLength),
			transcription.WithStrictDecode(settings.Transcription.StrictDecode),
			transcription.WithDefaultLanguage(settings.Transcription.Language),
			transcription.WithObserver(m.Recordings),
		), nil
	default:
		return nil, errors.Newf("unknown transcription provider %q", settings.Transcription.Provider).
			Component("serve").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

func newResolver(settings *conf.Settings) location.CityResolver {
	var resolver location.CityResolver = location.NewTableResolver(
		location.WithThreshold(settings.Location.Threshold),
	)
	if settings.Location.Cache.Enabled {
		resolver = location.NewCachedResolver(resolver, settings.Location.Cache.TTL)
	}
	return resolver
}

// Run serves the HTTP API and, when enabled, the telemetry endpoint until ctx
// is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Start(gctx)
	})

	if a.Telemetry != nil {
		g.Go(func() error {
			return a.Telemetry.Start(gctx)
		})
	}

	if a.MQTT != nil {
		// the broker being down must not keep the API from serving
		g.Go(func() error {
			if err := a.MQTT.Connect(gctx); err != nil {
				a.log.Warn("MQTT connection failed, events will not be published until it recovers",
					logger.String("broker", privacy.SanitizeBrokerURL(a.Settings.MQTT.Broker)),
					logger.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

// Close releases the store and the MQTT connection.
func (a *App) Close() {
	if a.MQTT != nil {
		a.MQTT.Disconnect()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.log.Warn("failed to close store", logger.Error(err))
		}
	}
}
