package gateway

import (
	"context"
	"net/url"
	"strconv"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/utils"
)

// SearchFilters narrows a movie search. Zero values are omitted from the
// outbound query string, never sent as empty parameters.
type SearchFilters struct {
	Format string
	Limit  int
	Source string
}

// HealthCheck pings the backend health endpoint.
func (c *Client) HealthCheck(ctx context.Context) Envelope {
	return c.getEndpoint(ctx, "health")
}

// IsBackendAvailable reports whether the backend answers its health check.
func (c *Client) IsBackendAvailable(ctx context.Context) bool {
	return c.HealthCheck(ctx).Success
}

// SearchMovies queries the catalog. The query is URL-encoded; only
// non-zero filters appear in the query string.
func (c *Client) SearchMovies(ctx context.Context, query string, filters SearchFilters) Envelope {
	path, err := c.endpoints.Path("search")
	if err != nil {
		return Envelope{Success: false, Error: err.Error()}
	}

	params := url.Values{}
	params.Set("q", query)
	if filters.Format != "" {
		params.Set("format", filters.Format)
	}
	if filters.Limit > 0 {
		params.Set("limit", strconv.Itoa(filters.Limit))
	}
	if filters.Source != "" {
		params.Set("source", filters.Source)
	}

	return c.Get(ctx, path+"?"+params.Encode(), nil)
}

// GetMovieDetails fetches a single film record by ID. The ID is escaped
// so it always lands in one path segment.
func (c *Client) GetMovieDetails(ctx context.Context, movieID string) Envelope {
	path, err := c.endpoints.Expand("movie_details", map[string]string{"id": url.PathEscape(movieID)})
	if err != nil {
		return Envelope{Success: false, Error: err.Error()}
	}
	return c.Get(ctx, path, nil)
}

// GetUserWatchlist fetches the caller's watchlist from the backend.
func (c *Client) GetUserWatchlist(ctx context.Context, session utils.SessionData) Envelope {
	path, err := c.endpoints.Path("watchlist")
	if err != nil {
		return Envelope{Success: false, Error: err.Error()}
	}
	return c.Get(ctx, path, bearerHeader(session))
}

// AddToWatchlist puts a film on the caller's watchlist, optionally with a
// target price for alerting.
func (c *Client) AddToWatchlist(ctx context.Context, session utils.SessionData, movieID string, targetPrice *float64) Envelope {
	path, err := c.endpoints.Path("watchlist")
	if err != nil {
		return Envelope{Success: false, Error: err.Error()}
	}
	body := map[string]any{
		"film_id":      movieID,
		"target_price": targetPrice,
	}
	return c.Post(ctx, path, body, bearerHeader(session))
}

// GetSystemStatus fetches the admin status summary.
func (c *Client) GetSystemStatus(ctx context.Context) Envelope {
	return c.getEndpoint(ctx, "admin_status")
}

// UpdateAPIKeys pushes new upstream API keys to the backend.
func (c *Client) UpdateAPIKeys(ctx context.Context, keys map[string]string) Envelope {
	path, err := c.endpoints.Path("admin_api_keys")
	if err != nil {
		return Envelope{Success: false, Error: err.Error()}
	}
	return c.Post(ctx, path, keys, nil)
}

func (c *Client) getEndpoint(ctx context.Context, name string) Envelope {
	path, err := c.endpoints.Path(name)
	if err != nil {
		return Envelope{Success: false, Error: err.Error()}
	}
	return c.Get(ctx, path, nil)
}

// bearerHeader builds the Authorization header for backend calls made on
// behalf of a logged-in user. Without a backend-issued token it falls back
// to a synthetic per-session token. The backend treats that token as an
// opaque session tag, not as verified identity: this is a degraded-auth
// mode, kept for compatibility with the legacy bridge.
func bearerHeader(session utils.SessionData) map[string]string {
	token := session.BackendToken
	if token == "" {
		token = "php-session-" + session.SessionID
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
