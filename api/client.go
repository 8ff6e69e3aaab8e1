package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the wallet auth service
type Client struct {
	HostURI    string
	HTTPClient HTTPClient
}

// NewClient creates a new auth API client
func NewClient(hostURI string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		HostURI:    strings.TrimRight(hostURI, "/"),
		HTTPClient: httpClient,
	}
}

// Health checks that the service is up
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, HealthPath, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestChallenge asks the service for a challenge hash to sign
func (c *Client) RequestChallenge(ctx context.Context, req *ChallengeRequest) (*ChallengeResponse, error) {
	var resp ChallengeResponse
	if err := c.do(ctx, http.MethodPost, ChallengePath, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Connect submits a signed connection payload and returns the session
func (c *Client) Connect(ctx context.Context, req *ConnectRequest) (*ConnectResponse, error) {
	var resp ConnectResponse
	if err := c.do(ctx, http.MethodPost, ConnectPath, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Session validates a session token
func (c *Client) Session(ctx context.Context, token string) (*SessionResponse, error) {
	if token == "" {
		return nil, errors.New("session token is required")
	}

	var resp SessionResponse
	if err := c.do(ctx, http.MethodGet, SessionPath, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reqJSON, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqJSON)
	}

	url := fmt.Sprintf("%s%s", c.HostURI, path)
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		message := strings.TrimSpace(string(bodyBytes))
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
