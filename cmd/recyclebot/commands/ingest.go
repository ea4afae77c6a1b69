package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/b-franke/recyclebot/internal/ingest"
	"github.com/b-franke/recyclebot/internal/logging"
)

// NewIngestCmd constructs the `recyclebot ingest` command, which expands the
// built-in knowledge base and loads it into the Qdrant vector collection.
func NewIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Load the recycling knowledge base into the vector store",
		Long: `Expand the built-in disposal knowledge tables into enriched documents,
embed them, and store the vectors in the Qdrant collection.

The collection is created on first run, sized to the embedding model's
measured dimensionality. Re-running is safe: point IDs are derived from the
entry identity, so existing points are overwritten in place. Previously
embedded documents are served from the local embedding cache.

Required environment variables:
  OPENAI_API_KEY       API key for the default OpenAI embedding backend
  QDRANT_URL           Qdrant REST URL (default: http://localhost:6333)
  QDRANT_COLLECTION    Collection name (default: recycle_docs)

Examples:
  recyclebot ingest
  QDRANT_TRANSPORT=grpc QDRANT_HOST=qdrant.internal recyclebot ingest
  EMBEDDING_PROVIDER=ollama recyclebot ingest`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			eng, err := buildEngine(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer eng.close()

			pipeline, err := ingest.New(eng.embedder, eng.store, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			stored, err := pipeline.Run(ctx, &ingest.Progress{
				OnBuild: func(n int) {
					fmt.Printf("Built %d knowledge documents\n", n)
				},
				OnEmbed: func(n int) {
					fmt.Printf("Embedded %d documents\n", n)
				},
				OnUpsert: func(n int) {
					fmt.Printf("Stored %d points\n", n)
				},
			})
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete", slog.Int("points", stored))
			return nil
		},
	}
}
