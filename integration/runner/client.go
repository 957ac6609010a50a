package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/pkg/session"
	"github.com/sbstnppl/worldkeeper/pkg/tools"
)

// CreateSession starts a fresh playthrough of the named world.
func CreateSession(ctx context.Context, client *http.Client, baseURL, worldName string) (*session.Session, error) {
	reqBody, err := json.Marshal(map[string]string{"world": worldName})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/v1/sessions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create session returned %d: %s", resp.StatusCode, string(body))
	}

	var sess session.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode created session: %w", err)
	}
	return &sess, nil
}

// GetSession retrieves current session state.
func GetSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (*session.Session, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID.String())
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create get request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get session returned %d: %s", resp.StatusCode, string(body))
	}

	var sess session.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes a session and everything hanging off it.
func DeleteSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) error {
	url := fmt.Sprintf("%s/v1/sessions/%s", baseURL, sessionID.String())
	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete session returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// InvokeTool posts one tool invocation and returns the result envelope.
// Refusals and faults come back inside the envelope with a 200 status;
// only transport problems and non-200 statuses are errors here.
func InvokeTool(ctx context.Context, client *http.Client, baseURL string, inv tools.Invocation) (tools.Result, error) {
	reqBody, err := json.Marshal(inv)
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to marshal invocation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/v1/tools", bytes.NewBuffer(reqBody))
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to create tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return tools.Result{}, fmt.Errorf("failed to invoke tool: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return tools.Result{}, fmt.Errorf("tool endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var result tools.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return tools.Result{}, fmt.Errorf("failed to decode tool result: %w", err)
	}
	return result, nil
}
