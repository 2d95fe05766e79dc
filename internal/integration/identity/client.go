package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"teacha/internal/common"
	"teacha/internal/domain/principal"
)

// Client looks up principal records (display name, email) from the
// identity provider. The engine trusts the ids it is given; this client
// only resolves display data for denormalization and email delivery.
type Client struct {
	baseURL     string
	internalKey string
	httpClient  *http.Client
}

func NewClient(baseURL, internalKey string, httpClient *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     trimmed,
		internalKey: strings.TrimSpace(internalKey),
		httpClient:  httpClient,
	}
}

type principalResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (c *Client) GetPrincipal(ctx context.Context, id common.UUID) (*principal.Principal, error) {
	if c == nil || c.baseURL == "" {
		return nil, common.NewError(common.CodeNotFound, "identity provider not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/principals/"+id.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create principal request: %w", err)
	}
	if c.internalKey != "" {
		req.Header.Set("X-Internal-Key", c.internalKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send principal request: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read principal response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, common.NewError(common.CodeNotFound, "principal not found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity api error: %s", strings.TrimSpace(string(payload)))
	}
	var parsed principalResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("decode principal response: %w", err)
	}
	return &principal.Principal{
		ID:    common.UUID(parsed.ID),
		Email: parsed.Email,
		Name:  parsed.Name,
		Role:  principal.Role(parsed.Role),
	}, nil
}
