package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/config"
)

const probeTimeout = 3 * time.Second

// Prober resolves the backend base URL from the configured deployment
// mode. Deterministic modes construct the URL directly; auto_detect walks
// an ordered candidate list and keeps the first one that answers a health
// probe. The result is cached for a short TTL, so a stale URL costs at
// most one failed call before the next re-probe.
type Prober struct {
	cfg        config.BackendConfig
	healthPath string
	httpClient *http.Client

	mu       sync.Mutex
	cached   string
	cachedAt time.Time
}

func NewProber(cfg config.BackendConfig, endpoints *EndpointTable) *Prober {
	healthPath, err := endpoints.Path("health")
	if err != nil {
		healthPath = "/api/health"
	}
	return &Prober{
		cfg:        cfg,
		healthPath: healthPath,
		httpClient: &http.Client{Timeout: probeTimeout},
	}
}

// Probe reports whether the candidate URL is alive: any response to a GET
// of its health endpoint counts, regardless of status code. This is a
// liveness check, not a correctness check.
func (p *Prober) Probe(ctx context.Context, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+p.healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return true
}

// ResolveBaseURL returns the backend base URL for this deployment mode.
// It never fails: when no candidate probes alive, the mode's fallback URL
// is returned and the subsequent call surfaces the transport error.
func (p *Prober) ResolveBaseURL(ctx context.Context) string {
	p.mu.Lock()
	if p.cached != "" && time.Since(p.cachedAt) < p.cfg.ProbeTTL {
		url := p.cached
		p.mu.Unlock()
		return url
	}
	p.mu.Unlock()

	url := p.resolve(ctx)

	p.mu.Lock()
	p.cached = url
	p.cachedAt = time.Now()
	p.mu.Unlock()
	return url
}

func (p *Prober) resolve(ctx context.Context) string {
	host := p.cfg.PublicHost
	scheme := p.cfg.PublicScheme

	switch p.cfg.DeploymentMode {
	case config.ModeSubdirectory:
		return fmt.Sprintf("%s://%s%s", scheme, host, p.cfg.Subdirectory)
	case config.ModePort:
		return fmt.Sprintf("%s://%s:%d", scheme, host, p.cfg.Port)
	case config.ModeSeparateDomain:
		return fmt.Sprintf("%s://%s", scheme, p.cfg.APIDomain)
	}

	// auto_detect: same-host subdirectory, same-host alternate port,
	// then the loopback candidates.
	candidates := []string{
		fmt.Sprintf("%s://%s%s", scheme, host, p.cfg.Subdirectory),
		fmt.Sprintf("%s://%s:%d", scheme, host, p.cfg.Port),
		fmt.Sprintf("http://localhost:%d", p.cfg.Port),
		fmt.Sprintf("http://127.0.0.1:%d", p.cfg.Port),
	}

	for _, candidate := range candidates {
		if p.Probe(ctx, candidate) {
			return candidate
		}
	}

	fallback := fmt.Sprintf("http://localhost:%d", p.cfg.Port)
	logError("resolve", fmt.Errorf("no backend candidate answered, falling back to %s", fallback))
	return fallback
}
