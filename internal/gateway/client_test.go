package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/gateway"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*gateway.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	endpoints, err := gateway.LoadEndpoints("")
	require.NoError(t, err)

	client := gateway.NewClient(gateway.StaticResolver(server.URL), endpoints, 5*time.Second)
	return client, server
}

func TestRequest_SuccessParsesJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	env := client.Request(context.Background(), "/api/health", http.MethodGet, nil, nil)

	assert.True(t, env.Success)
	assert.Equal(t, http.StatusOK, env.HTTPCode)
	require.IsType(t, map[string]any{}, env.Data)
	assert.Equal(t, "ok", env.Data.(map[string]any)["status"])
}

func TestRequest_UpstreamErrorKeepsBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})

	env := client.Request(context.Background(), "/api/search", http.MethodGet, nil, nil)

	assert.False(t, env.Success)
	assert.Equal(t, http.StatusInternalServerError, env.HTTPCode)
	require.NotNil(t, env.Data, "error bodies must stay observable")
	assert.Equal(t, "boom", env.Data.(map[string]any)["error"])
}

func TestRequest_MalformedBodyLeavesDataNil(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	env := client.Request(context.Background(), "/api/health", http.MethodGet, nil, nil)

	assert.True(t, env.Success, "success is decided by status alone")
	assert.Nil(t, env.Data)
	assert.Equal(t, "<html>not json</html>", env.Raw)
}

func TestRequest_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // unreachable from here on

	endpoints, err := gateway.LoadEndpoints("")
	require.NoError(t, err)
	client := gateway.NewClient(gateway.StaticResolver(server.URL), endpoints, 2*time.Second)

	start := time.Now()
	env := client.Request(context.Background(), "/api/health", http.MethodGet, nil, nil)

	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.NotEmpty(t, env.Error)
	assert.Zero(t, env.HTTPCode)
	assert.Less(t, time.Since(start), 3*time.Second, "must not hang past the timeout")
}

func TestRequest_EmptyPathRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	env := client.Request(context.Background(), "", http.MethodGet, nil, nil)

	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestRequest_DefaultAndCallerHeaders(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	})

	client.Request(context.Background(), "/api/health", http.MethodGet, nil,
		map[string]string{"X-Custom": "yes", "Accept": "text/plain"})

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "FPG-Gateway/1.0", got.Get("User-Agent"))
	assert.Equal(t, "yes", got.Get("X-Custom"))
	// Caller-supplied headers override defaults by name.
	assert.Equal(t, "text/plain", got.Get("Accept"))
}

func TestRequest_BodyOnlyForPostAndPut(t *testing.T) {
	bodies := map[string]string{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && len(payload) > 0 {
			bodies[r.Method] = "present"
		} else {
			bodies[r.Method] = "absent"
		}
		w.Write([]byte(`{}`))
	})

	payload := map[string]string{"k": "v"}
	ctx := context.Background()
	client.Request(ctx, "/x", http.MethodGet, payload, nil)
	client.Request(ctx, "/x", http.MethodPost, payload, nil)
	client.Request(ctx, "/x", http.MethodPut, payload, nil)
	client.Request(ctx, "/x", http.MethodDelete, payload, nil)

	assert.Equal(t, "absent", bodies[http.MethodGet])
	assert.Equal(t, "present", bodies[http.MethodPost])
	assert.Equal(t, "present", bodies[http.MethodPut])
	assert.Equal(t, "absent", bodies[http.MethodDelete])
}

func TestSearchMovies_FilterEncoding(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"results":[]}`))
	})

	env := client.SearchMovies(context.Background(), "alien", gateway.SearchFilters{Limit: 10})

	require.True(t, env.Success)
	assert.Equal(t, "alien", gotQuery.Get("q"))
	assert.Equal(t, "10", gotQuery.Get("limit"))
	_, hasFormat := gotQuery["format"]
	_, hasSource := gotQuery["source"]
	assert.False(t, hasFormat, "absent filters must be omitted, not sent empty")
	assert.False(t, hasSource, "absent filters must be omitted, not sent empty")
}

func TestSearchMovies_QueryIsEscaped(t *testing.T) {
	var gotRawQuery string
	var gotQuery url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotRawQuery = r.URL.RawQuery
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	})

	client.SearchMovies(context.Background(), "alien & aliens 2", gateway.SearchFilters{})

	assert.Equal(t, "alien & aliens 2", gotQuery.Get("q"))
	assert.NotContains(t, gotRawQuery, " ")
}

func TestGetMovieDetails_ExpandsID(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	})

	client.GetMovieDetails(context.Background(), "123")

	assert.Equal(t, "/api/search/films/123", gotPath)
}

func TestGetMovieDetails_IDStaysOneSegment(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{}`))
	})

	client.GetMovieDetails(context.Background(), "77/../admin")
	assert.Equal(t, "/api/search/films/77%2F..%2Fadmin", gotPath,
		"separators in the ID must not rewrite the backend path")

	client.GetMovieDetails(context.Background(), "9?source=ebay#frag")
	assert.Equal(t, "/api/search/films/9%3Fsource=ebay%23frag", gotPath)
}

func TestWatchlist_BearerTokenFallback(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})

	session := utils.SessionData{SessionID: "abc-123", UserID: 1}
	client.GetUserWatchlist(context.Background(), session)
	assert.Equal(t, "Bearer php-session-abc-123", gotAuth,
		"without a backend token the synthetic session token is used")

	session.BackendToken = "real-token"
	client.GetUserWatchlist(context.Background(), session)
	assert.Equal(t, "Bearer real-token", gotAuth)
}

func TestAddToWatchlist_Payload(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{}`))
	})

	price := 19.99
	client.AddToWatchlist(context.Background(), utils.SessionData{SessionID: "s"}, "42", &price)

	assert.Equal(t, "42", gotBody["film_id"])
	assert.Equal(t, 19.99, gotBody["target_price"])
}
