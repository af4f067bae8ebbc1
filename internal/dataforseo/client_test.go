package dataforseo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostaks/kwr-dashboard-server/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(Config{
		Login:    "test",
		Password: "secret",
		BaseURL:  server.URL,
	}, logger.NewNop().Logger)
	client.http = server.Client()
	return client
}

const singleResultBody = `{
	"status_code": 20000,
	"tasks": [{
		"status_code": 20000,
		"result": [{
			"keyword": "seo tools",
			"search_volume": 500,
			"competition": "HIGH",
			"monthly_searches": [{"year": 2024, "month": 1, "search_volume": 500}]
		}]
	}]
}`

func TestFetchVolumes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		w.Write([]byte(singleResultBody))
	})

	results, err := client.FetchVolumes(context.Background(), []string{"seo tools"}, "Australia", true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "seo tools", results[0].Keyword)
	require.NotNil(t, results[0].SearchVolume)
	assert.Equal(t, 500, *results[0].SearchVolume)
	require.Len(t, results[0].MonthlySearches, 1)
	assert.Equal(t, 2024, results[0].MonthlySearches[0].Year)
}

func TestFetchVolumes_SkipsWhenFresh(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	results, err := client.FetchVolumes(context.Background(), []string{"seo"}, "", false)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.False(t, called, "no network call when shouldFetch is false")
}

func TestFetchVolumes_PartialBatchFailure(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(singleResultBody))
	})
	client.batchSize = 1 // force two batches

	results, err := client.FetchVolumes(context.Background(), []string{"bad batch", "seo tools"}, "", true)
	require.NoError(t, err, "a failed batch must not fail the fetch")
	require.Len(t, results, 1)
	assert.Equal(t, "seo tools", results[0].Keyword)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchVolumes_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status_code": 40000, "status_message": "billing"}`))
	})

	results, err := client.FetchVolumes(context.Background(), []string{"seo"}, "", true)
	require.NoError(t, err)
	assert.Nil(t, results, "missing tasks degrades to no fresh data")
}

func TestFetchVolumes_NonJSONResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway timeout</html>"))
	})

	results, err := client.FetchVolumes(context.Background(), []string{"seo"}, "", true)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestFetchVolumes_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(singleResultBody))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchVolumes(ctx, []string{"seo"}, "", true)
	assert.ErrorIs(t, err, context.Canceled)
}
