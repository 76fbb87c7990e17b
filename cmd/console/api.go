package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/cyber-siege/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type scenarioSummary struct {
	Name string `json:"name"`
	File string `json:"file"`
}

type createMissionRequest struct {
	Scenario string `json:"scenario"`
	Mode     string `json:"gameMode,omitempty"`
	Team     string `json:"teamType,omitempty"`
}

type commandResponse struct {
	Result    string         `json:"result"`
	Session   *state.Session `json:"session"`
	Objective string         `json:"objective,omitempty"`
	Ended     bool           `json:"ended,omitempty"`
}

// apiClient talks to the mission API as one player.
type apiClient struct {
	http     *http.Client
	baseURL  string
	playerID string
	username string
}

func (c *apiClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Player-ID", c.playerID)
	if c.username != "" {
		req.Header.Set("X-Player-Name", c.username)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends the request and decodes a JSON body into out when the status
// matches want.
func (c *apiClient) do(ctx context.Context, method, path string, body any, want int, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *apiClient) testConnection(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/health", nil, http.StatusOK, nil) == nil
}

func (c *apiClient) listScenarios(ctx context.Context) ([]scenarioSummary, error) {
	var list []scenarioSummary
	if err := c.do(ctx, http.MethodGet, "/v1/scenarios", nil, http.StatusOK, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *apiClient) createMission(ctx context.Context, scenarioName, mode, team string) (*state.Session, error) {
	var sess state.Session
	req := createMissionRequest{Scenario: scenarioName, Mode: mode, Team: team}
	if err := c.do(ctx, http.MethodPost, "/v1/missions", req, http.StatusCreated, &sess); err != nil {
		return nil, fmt.Errorf("failed to create mission: %w", err)
	}
	return &sess, nil
}

func (c *apiClient) getMission(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	var sess state.Session
	if err := c.do(ctx, http.MethodGet, "/v1/missions/"+id.String(), nil, http.StatusOK, &sess); err != nil {
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}
	return &sess, nil
}

func (c *apiClient) sendCommand(ctx context.Context, id uuid.UUID, command string) (*commandResponse, error) {
	var resp commandResponse
	path := "/v1/missions/" + id.String() + "/command"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"command": command}, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) abandonMission(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	var sess state.Session
	if err := c.do(ctx, http.MethodPost, "/v1/missions/"+id.String()+"/abandon", nil, http.StatusOK, &sess); err != nil {
		return nil, fmt.Errorf("failed to abandon mission: %w", err)
	}
	return &sess, nil
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// listenToSSE streams mission events to eventChan until ctx ends or the
// server closes the stream.
func (c *apiClient) listenToSSE(ctx context.Context, id uuid.UUID, eventChan chan<- SSEEvent) error {
	path := "/v1/events/missions/" + id.String() + "?playerId=" + url.QueryEscape(c.playerID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// The shared client has a timeout; a stream needs none.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var current SSEEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Type != "" {
				select {
				case eventChan <- current:
				case <-ctx.Done():
					return ctx.Err()
				}
				current = SSEEvent{}
			}
		case strings.HasPrefix(line, "event: "):
			current.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var data map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &data); err == nil {
				current.Data = data
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}
