// Package api is the HTTP/JSON client for a competition host.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verte-zerg/typerace/internal/model"
)

// ErrRejected is returned when the host answers with success=false.
var ErrRejected = errors.New("request rejected by host")

const maxErrorBody = 4096

// Config identifies the host, the competition and the caller.
type Config struct {
	BaseURL         string
	CompetitionID   string
	ParticipantID   string
	ParticipantName string
	OrganizerToken  string
	Timeout         time.Duration
}

// Client calls the competition endpoints.
type Client struct {
	base    string
	cfg     Config
	httpCli *http.Client
}

// New returns a client for cfg.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("host URL is required")
	}
	if strings.TrimSpace(cfg.CompetitionID) == "" {
		return nil, fmt.Errorf("competition id is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid host URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/") + "/competitions/" + url.PathEscape(cfg.CompetitionID)
	return &Client{
		base:    base,
		cfg:     cfg,
		httpCli: &http.Client{Timeout: timeout},
	}, nil
}

// Load fetches the competition descriptor.
func (c *Client) Load(ctx context.Context) (model.Descriptor, error) {
	var payload CompetitionResponse
	if err := c.do(ctx, http.MethodGet, "", nil, &payload); err != nil {
		return model.Descriptor{}, fmt.Errorf("failed to load competition: %w", err)
	}
	desc, err := payload.Descriptor()
	if err != nil {
		return model.Descriptor{}, fmt.Errorf("failed to decode competition: %w", err)
	}
	return desc, nil
}

// SubmitResults reports a participant's metrics.
func (c *Client) SubmitResults(ctx context.Context, s model.Submission) error {
	var payload ActionResponse
	if err := c.do(ctx, http.MethodPost, "/submit-results", NewSubmitRequest(s), &payload); err != nil {
		return fmt.Errorf("failed to submit results: %w", err)
	}
	return checkAction("submit results", payload)
}

// FetchResults returns the standings in arrival order.
func (c *Client) FetchResults(ctx context.Context) ([]model.Standing, error) {
	var payload ResultsResponse
	if err := c.do(ctx, http.MethodGet, "/fetch-results", nil, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("failed to fetch results: %w: %s", ErrRejected, payload.Error)
	}
	return payload.Standings(), nil
}

// CompetitionStatus returns the authoritative status.
func (c *Client) CompetitionStatus(ctx context.Context) (model.Status, error) {
	var payload StatusResponse
	if err := c.do(ctx, http.MethodGet, "/competition-status", nil, &payload); err != nil {
		return "", fmt.Errorf("failed to fetch status: %w", err)
	}
	status, err := model.ParseStatus(payload.Status)
	if err != nil {
		return "", fmt.Errorf("failed to fetch status: %w", err)
	}
	return status, nil
}

// StartNow asks the host to start a waiting competition immediately.
func (c *Client) StartNow(ctx context.Context) error {
	return c.action(ctx, "/start-now", "start competition")
}

// StopCompetition asks the host to end the competition.
func (c *Client) StopCompetition(ctx context.Context) error {
	return c.action(ctx, "/stop-competition", "stop competition")
}

// RestartCompetition asks the host to clear results and schedule a new start.
func (c *Client) RestartCompetition(ctx context.Context) error {
	return c.action(ctx, "/restart-competition", "restart competition")
}

func (c *Client) action(ctx context.Context, path, what string) error {
	var payload ActionResponse
	if err := c.do(ctx, http.MethodPost, path, nil, &payload); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return checkAction(what, payload)
}

func checkAction(what string, payload ActionResponse) error {
	if payload.Success {
		return nil
	}
	msg := payload.Error
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Errorf("failed to %s: %w: %s", what, ErrRejected, msg)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.ParticipantID != "" {
		req.Header.Set(HeaderParticipantID, c.cfg.ParticipantID)
	}
	if c.cfg.ParticipantName != "" {
		req.Header.Set(HeaderParticipantName, c.cfg.ParticipantName)
	}
	if c.cfg.OrganizerToken != "" {
		req.Header.Set(HeaderOrganizerToken, c.cfg.OrganizerToken)
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var action ActionResponse
		if json.Unmarshal(data, &action) == nil && action.Error != "" {
			return fmt.Errorf("host returned %s: %w: %s", resp.Status, ErrRejected, action.Error)
		}
		return fmt.Errorf("host returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
