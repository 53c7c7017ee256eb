package cdph

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/almadenlabs/covidlag/internal/domain"
)

// Client downloads the CHHS case and hospital CSV files.
type Client struct {
	httpClient   *http.Client
	casesURL     string
	hospitalsURL string
	logger       *slog.Logger
}

// NewClient creates a CHHS download client.
func NewClient(casesURL, hospitalsURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		casesURL:     casesURL,
		hospitalsURL: hospitalsURL,
		logger:       logger,
	}
}

// FetchCases downloads the raw case file. The payload is returned as bytes so
// callers can persist it before parsing.
func (c *Client) FetchCases(ctx context.Context) ([]byte, error) {
	return c.download(ctx, c.casesURL, "cases")
}

// FetchHospitals downloads the raw hospital census file.
func (c *Client) FetchHospitals(ctx context.Context) ([]byte, error) {
	return c.download(ctx, c.hospitalsURL, "hospitals")
}

func (c *Client) download(ctx context.Context, url, dataset string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s download: %w", dataset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s download: status %d: %s", dataset, resp.StatusCode, body)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s download: read body: %w", dataset, err)
	}

	c.logger.Debug("dataset downloaded",
		"dataset", dataset,
		"bytes", len(payload),
		"duration", time.Since(start))
	return payload, nil
}

// LoadCases parses a raw case payload, fetched or restored from a snapshot.
func LoadCases(payload []byte) (domain.CaseDataset, error) {
	return ParseCases(bytes.NewReader(payload))
}

// LoadHospitals parses a raw hospital payload.
func LoadHospitals(payload []byte) (domain.HospitalDataset, error) {
	return ParseHospitals(bytes.NewReader(payload))
}
