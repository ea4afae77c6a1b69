package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/b-franke/recyclebot/internal/analytics"
	"github.com/b-franke/recyclebot/internal/index"
	"github.com/b-franke/recyclebot/internal/ingest"
	"github.com/b-franke/recyclebot/internal/logging"
	"github.com/b-franke/recyclebot/internal/server"
)

// NewServeCmd constructs the `recyclebot serve` command, which starts the
// HTTP advice service.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the recyclebot HTTP service",
		Long: `Start the HTTP service on localhost.

Exposed endpoints: POST /api/analyze for disposal advice, GET /api/stats for
usage counters, POST /api/ingest for single-item additions, GET /api/health
and /api/ready for probes, and GET /metrics for Prometheus.

Set RECYCLEBOT_API_KEY to require Bearer authentication on /api/* routes.

Examples:
  recyclebot serve
  recyclebot serve --port 9090
  QDRANT_TRANSPORT=grpc recyclebot serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			eng, err := buildEngine(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer eng.close()

			// The collection must exist before the first query; creating it
			// here also fails fast when Qdrant is unreachable at startup.
			if err := eng.store.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("serve: preparing collection: %w", err)
			}

			pipeline, err := ingest.New(eng.embedder, eng.store, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			srv, err := server.New(eng.advisor, pipeline, analytics.New(), &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: buildPingers(eng, log),
				APIKey:  os.Getenv("RECYCLEBOT_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}

// buildPingers assembles the readiness probes for the configured transports:
// a native HealthCheck probe for the gRPC index, a /healthz probe for the
// REST index, and a tiny embed call for the embedding backend.
func buildPingers(eng *engine, log *slog.Logger) []server.Pinger {
	var pingers []server.Pinger

	switch store := eng.store.(type) {
	case *index.GRPCStore:
		pingers = append(pingers, server.NewQdrantPinger(store.Client()))
	default:
		url := getEnvOrDefault("QDRANT_URL", "http://localhost:6333") + "/healthz"
		pingers = append(pingers, server.NewHTTPPinger("qdrant", url))
	}

	backend := getEnvOrDefault("EMBEDDING_PROVIDER", "openai")
	pingers = append(pingers, server.NewEmbedderPinger(eng.embedder, backend))

	log.Info("readiness probes configured", slog.Int("count", len(pingers)))
	return pingers
}
