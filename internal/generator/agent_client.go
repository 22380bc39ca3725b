package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// agent status values reported by GET /status
const (
	agentStatusRunning = "running"
	agentStatusStable  = "stable"
)

// agentClient talks to the agentapi HTTP API.
type agentClient struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

type agentStatus struct {
	Status string `json:"status"`
}

type agentMessage struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type conversationMessage struct {
	ID      int    `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Time    string `json:"time,omitempty"`
}

type messagesResponse struct {
	Messages []conversationMessage `json:"messages"`
}

func newAgentClient(baseURL string) *agentClient {
	return &agentClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pollInterval: time.Second,
	}
}

func (c *agentClient) status(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status request failed: %s", string(body))
	}

	var s agentStatus
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return "", fmt.Errorf("failed to decode status: %w", err)
	}
	return s.Status, nil
}

func (c *agentClient) send(ctx context.Context, content string) error {
	body, err := json.Marshal(agentMessage{Content: content, Type: "user"})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("message request failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *agentClient) messages(ctx context.Context) ([]conversationMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("messages request failed: %s", string(body))
	}

	var m messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return m.Messages, nil
}

// lastAgentMessage returns the newest message authored by the agent.
func (c *agentClient) lastAgentMessage(ctx context.Context) (string, error) {
	msgs, err := c.messages(ctx)
	if err != nil {
		return "", err
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "agent" {
			return msgs[i].Content, nil
		}
	}
	return "", ErrEmptyOutput
}

// waitForStable polls until the agent reports stable. Status errors are
// tolerated while the server comes up.
func (c *agentClient) waitForStable(ctx context.Context) error {
	for {
		if s, err := c.status(ctx); err == nil && s == agentStatusStable {
			return nil
		}
		if err := c.sleep(ctx); err != nil {
			return err
		}
	}
}

// waitForCompletion polls until the agent went running and back to stable.
func (c *agentClient) waitForCompletion(ctx context.Context) error {
	wasRunning := false
	consecutiveErrors := 0
	const maxConsecutiveErrors = 30

	for {
		s, err := c.status(ctx)
		if err != nil {
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveErrors {
				return fmt.Errorf("agent API unreachable after %d consecutive failures: %w", consecutiveErrors, err)
			}
		} else {
			consecutiveErrors = 0
			if s == agentStatusRunning {
				wasRunning = true
			}
			if wasRunning && s == agentStatusStable {
				return nil
			}
		}

		if err := c.sleep(ctx); err != nil {
			return err
		}
	}
}

func (c *agentClient) sleep(ctx context.Context) error {
	t := time.NewTimer(c.pollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
