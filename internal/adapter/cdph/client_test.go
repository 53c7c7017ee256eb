package cdph

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(casesURL, hospitalsURL string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		casesURL:     casesURL,
		hospitalsURL: hospitalsURL,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_FetchCases_Success(t *testing.T) {
	payload := casesHeader + "2020-03-01,Santa Clara,County,1927852,23,1\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cases.csv", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/cases.csv", srv.URL+"/hospitals.csv")
	got, err := c.FetchCases(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []byte(payload), got)
}

func TestClient_FetchHospitals_Success(t *testing.T) {
	payload := hospitalsHeader + "Santa Clara,2020-04-01,120,30,40,5,22\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hospitals.csv", r.URL.Path)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/cases.csv", srv.URL+"/hospitals.csv")
	got, err := c.FetchHospitals(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []byte(payload), got)
}

func TestClient_FetchCases_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/cases.csv", srv.URL+"/hospitals.csv")
	_, err := c.FetchCases(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestClient_FetchCases_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(casesHeader))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(srv.URL+"/cases.csv", srv.URL+"/hospitals.csv")
	_, err := c.FetchCases(ctx)

	require.Error(t, err)
}

func TestClient_FetchCases_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := testClient(srv.URL+"/cases.csv", srv.URL+"/hospitals.csv")
	_, err := c.FetchCases(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cases download")
}

func TestNewClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c := NewClient("http://example.test/cases.csv", "http://example.test/hospitals.csv", 10*time.Second, logger)

	assert.Equal(t, "http://example.test/cases.csv", c.casesURL)
	assert.Equal(t, "http://example.test/hospitals.csv", c.hospitalsURL)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
}
