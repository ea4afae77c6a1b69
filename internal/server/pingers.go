package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready when the
// gRPC transport is configured.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// HTTPPinger probes a dependency by issuing a GET request and expecting a
// 2xx response. Used for the Qdrant REST transport (its /healthz endpoint)
// and any other HTTP dependency.
type HTTPPinger struct {
	// name identifies the dependency in readiness responses.
	name string
	// url is the endpoint probed with a GET request.
	url string
	// client performs the probe requests.
	client *http.Client
}

// NewHTTPPinger constructs an HTTPPinger that GETs url and treats any 2xx
// status as healthy.
func NewHTTPPinger(name, url string) *HTTPPinger {
	return &HTTPPinger{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: probeTimeout},
	}
}

// Name returns the dependency label used in readiness responses.
func (p *HTTPPinger) Name() string { return p.name }

// Ping GETs the configured URL and checks for a 2xx response.
func (p *HTTPPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("probe returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// embedderPing is the throwaway text embedded by EmbedderPinger. Embedding
// requests are cheap compared to generation, so probing with a real call is
// acceptable.
const embedderPing = "ping"

// embedderClient is the minimal embedding capability the pinger needs.
type embedderClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderPinger probes the embedding backend with a single tiny request.
type EmbedderPinger struct {
	// emb is the embedding client to probe.
	emb embedderClient
	// name identifies the backend in readiness responses (e.g. "openai").
	name string
}

// NewEmbedderPinger constructs an EmbedderPinger for the given client and
// backend name.
func NewEmbedderPinger(emb embedderClient, name string) *EmbedderPinger {
	return &EmbedderPinger{emb: emb, name: name}
}

// Name returns the backend label used in readiness responses.
func (p *EmbedderPinger) Name() string { return p.name }

// Ping embeds a single short string and checks that a vector comes back.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	vectors, err := p.emb.Embed(ctx, []string{embedderPing})
	if err != nil {
		return fmt.Errorf("embed probe failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return fmt.Errorf("embed probe returned no vector")
	}
	return nil
}
