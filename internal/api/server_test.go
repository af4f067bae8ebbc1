package api

import (
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostaks/kwr-dashboard-server/internal/domain"
	"github.com/mostaks/kwr-dashboard-server/internal/service"
	"github.com/mostaks/kwr-dashboard-server/internal/store"
)

type stubFetcher struct{ volumes []domain.SearchVolume }

func (f *stubFetcher) FetchVolumes(_ context.Context, _ []string, _ string, shouldFetch bool) ([]domain.SearchVolume, error) {
	if !shouldFetch {
		return nil, nil
	}
	return f.volumes, nil
}

func intp(v int) *int { return &v }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fetcher := &stubFetcher{
		volumes: []domain.SearchVolume{
			{
				Keyword:      "seo tools",
				SearchVolume: intp(800),
				MonthlySearches: []domain.MonthlySearch{
					{Year: 2024, Month: 1, SearchVolume: 500},
				},
			},
		},
	}

	srv := NewServer(
		service.NewDashboardService(st, fetcher, logger),
		service.NewClientService(st, logger),
		service.NewAuthService("admin@example.com", "s3cret", logger),
		logger,
		30*time.Second,
		"*",
	)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var envelope map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.UnmarshalRead(resp.Body, &envelope))
	}
	return resp, envelope
}

func createClient(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/clients",
		`{"name":"Acme Corp","suffix":"acme","password":"letmein"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.NotContains(t, data, "passwordHash")
	return data["id"].(string)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestDashboardLifecycle(t *testing.T) {
	ts := newTestServer(t)
	clientID := createClient(t, ts)

	payload := `{
		"clientId":"` + clientID + `",
		"name":"Acme SEO",
		"suffix":"acme-seo",
		"tagCategories":["Industry"],
		"visibleTagCategories":["Industry"],
		"keywords":[{"Keyword":"seo tools","Industry":"tech"}]
	}`

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/dashboards", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dash := body["data"].(map[string]any)
	dashID := dash["id"].(string)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/dashboards/"+dashID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := body["data"].(map[string]any)
	keywords := view["keywords"].([]any)
	require.Len(t, keywords, 1)
	keyRow := keywords[0].(map[string]any)["keyRow"].(map[string]any)
	assert.Equal(t, "500", keyRow["Jan-24"])
	assert.Equal(t, "tech", keyRow["Industry"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/v1/dashboards/client/acme/acme-seo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dashID, body["data"].(map[string]any)["id"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/dashboards/"+dashID+"/cleanup", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/dashboards/"+dashID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/dashboards/"+dashID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateDashboard_Validation(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/dashboards", `{"name":"No Client"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/dashboards", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyClientAccess(t *testing.T) {
	ts := newTestServer(t)
	clientID := createClient(t, ts)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/clients/"+clientID+"/verify-access",
		`{"password":"letmein"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/clients/"+clientID+"/verify-access",
		`{"password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateClient_DuplicateSuffix(t *testing.T) {
	ts := newTestServer(t)
	createClient(t, ts)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/clients",
		`{"name":"Other","suffix":"acme"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignIn(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/sign-in",
		`{"email":"admin@example.com","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/sign-in",
		`{"email":"admin@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSession(t *testing.T) {
	ts := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/sign-in",
		`{"email":"admin@example.com","password":"s3cret"}`)
	token := body["data"].(map[string]any)["token"].(string)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/auth/session", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope map[string]any
	require.NoError(t, json.UnmarshalRead(resp.Body, &envelope))
	assert.Equal(t, "admin@example.com", envelope["data"].(map[string]any)["email"])

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/v1/auth/session", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
