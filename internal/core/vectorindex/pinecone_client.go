package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PineconeClient is a minimal Pinecone REST client covering the control
// and data plane calls the index needs.
type PineconeClient struct {
	apiKey     string
	apiVersion string
	baseURL    string
	http       *http.Client
}

type PineconeConfig struct {
	APIKey     string
	APIVersion string
	BaseURL    string
	Timeout    time.Duration
}

func NewPineconeClient(cfg PineconeConfig) (*PineconeClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Pinecone API key")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2025-01"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &PineconeClient{
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// -------------------- Control plane --------------------

type IndexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

func (c *PineconeClient) DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error) {
	u := c.baseURL + "/indexes/" + url.PathEscape(indexName)
	var out IndexDescription
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type createIndexRequest struct {
	Name      string         `json:"name"`
	Dimension int            `json:"dimension"`
	Metric    string         `json:"metric"`
	Spec      map[string]any `json:"spec"`
}

// CreateServerlessIndex creates a serverless index. Pinecone returns the
// description including the data-plane host.
func (c *PineconeClient) CreateServerlessIndex(ctx context.Context, indexName string, dimension int, metric string) (*IndexDescription, error) {
	req := createIndexRequest{
		Name:      indexName,
		Dimension: dimension,
		Metric:    metric,
		Spec: map[string]any{
			"serverless": map[string]any{"cloud": "aws", "region": "us-east-1"},
		},
	}
	var out IndexDescription
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/indexes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// -------------------- Data plane --------------------

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

func (c *PineconeClient) Upsert(ctx context.Context, host, namespace string, vectors []pineconeVector) (int64, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	var out upsertResponse
	err := c.doJSON(ctx, http.MethodPost, hostURL(host)+"/vectors/upsert", upsertRequest{
		Vectors:   vectors,
		Namespace: namespace,
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.UpsertedCount, nil
}

type fetchResponse struct {
	Vectors   map[string]pineconeVector `json:"vectors"`
	Namespace string                    `json:"namespace"`
}

func (c *PineconeClient) Fetch(ctx context.Context, host, namespace string, ids []string) (map[string]pineconeVector, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("ids", id)
	}
	if namespace != "" {
		q.Set("namespace", namespace)
	}
	var out fetchResponse
	if err := c.doJSON(ctx, http.MethodGet, hostURL(host)+"/vectors/fetch?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Vectors, nil
}

type deleteRequest struct {
	DeleteAll bool   `json:"deleteAll,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// DeleteAll removes every vector in a namespace.
func (c *PineconeClient) DeleteAll(ctx context.Context, host, namespace string) error {
	return c.doJSON(ctx, http.MethodPost, hostURL(host)+"/vectors/delete", deleteRequest{
		DeleteAll: true,
		Namespace: namespace,
	}, nil)
}

// -------------------- plumbing --------------------

func hostURL(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + strings.TrimRight(host, "/")
}

func (c *PineconeClient) doJSON(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("pinecone encode: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-Api-Version", c.apiVersion)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pinecone %s %s: http %d: %s", method, url, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("pinecone decode: %w", err)
	}
	return nil
}
