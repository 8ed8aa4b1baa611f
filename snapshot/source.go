package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Source produces snapshots for a URL. Implementations talk to the external
// analysis collaborator and may be slow; callers bound them with ctx.
type Source interface {
	Snapshot(ctx context.Context, pageURL string) (*AnalysisSnapshot, error)
}

// HTTPSource fetches snapshots as JSON from an analysis service endpoint.
type HTTPSource struct {
	endpoint string
	client   *http.Client
}

// maxSnapshotBytes caps the collaborator response we are willing to buffer.
const maxSnapshotBytes = 8 << 20

// NewHTTPSource creates a source that calls GET {endpoint}?url={pageURL}.
func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &HTTPSource{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (h *HTTPSource) Snapshot(ctx context.Context, pageURL string) (*AnalysisSnapshot, error) {
	u, err := url.Parse(h.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot endpoint: %w", err)
	}
	q := u.Query()
	q.Set("url", pageURL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "SEOReportEngine/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("snapshot service returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(body)
}
