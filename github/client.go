// Package github implements a paged query client for the GitHub GraphQL API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"starhistory/logger"
)

const defaultEndpoint = "https://api.github.com/graphql"

// Client represents a GitHub GraphQL API client
type Client struct {
	token      string
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a client against the public GitHub GraphQL endpoint
func NewClient(token string) *Client {
	return NewClientWithEndpoint(token, defaultEndpoint)
}

// NewClientWithEndpoint creates a client against a custom endpoint
func NewClientWithEndpoint(token, endpoint string) *Client {
	logger.Info("Initializing GitHub client", zap.String("endpoint", endpoint))
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint: endpoint,
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// post executes one GraphQL query and decodes the data payload into out.
func (c *Client) post(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "starhistory")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("GraphQL request failed", zap.Error(err))
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("GraphQL request failed", zap.Int("status_code", resp.StatusCode))
		return fmt.Errorf("failed to execute query: status code %d", resp.StatusCode)
	}

	var envelope graphQLEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return fmt.Errorf("query failed: %s", envelope.Errors[0].Message)
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return ErrNoData
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}
