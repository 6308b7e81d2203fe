// Package agent drives one full conversational turn against the remote
// agent-hosting platform: ensure a thread, append the user message, start
// a run, poll it to a terminal status, then list the thread history.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"agent-chat-relay/backend/internal/identity"
	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/errors"
	"agent-chat-relay/backend/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxErrorBodyBytes caps how much of an upstream error body is embedded
// in error detail.
const maxErrorBodyBytes = 8 << 10

// Client orchestrates the thread/message/run/poll/list sequence. It keeps
// no state between invocations other than configuration.
type Client struct {
	cfg    config.AgentConfig
	tokens identity.TokenProvider
	client *http.Client
	log    *logger.Logger
	tracer trace.Tracer
}

// NewClient creates a client for the configured agent platform.
func NewClient(cfg config.AgentConfig, tokens identity.TokenProvider, log *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: 60 * time.Second},
		log:    log,
		tracer: otel.Tracer("agent-chat-relay/agent"),
	}
}

// SendMessage runs one conversational turn. A supplied thread ID is reused
// verbatim; otherwise a thread is created first. On success the result
// carries the full thread history in ascending order, the thread ID and
// the final observed run status.
func (c *Client) SendMessage(ctx context.Context, content, threadID string) (*TurnResult, error) {
	ctx, span := c.tracer.Start(ctx, "agent.send_message")
	defer span.End()

	threadID, err := c.ensureThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("agent.thread_id", threadID))

	if err := c.appendUserMessage(ctx, threadID, content); err != nil {
		return nil, err
	}

	run, err := c.startRun(ctx, threadID)
	if err != nil {
		return nil, err
	}

	run, err = c.pollRun(ctx, threadID, run.ID)
	if err != nil {
		return nil, err
	}

	messages, err := c.listMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		ThreadID: threadID,
		Messages: messages,
		Run:      run,
	}, nil
}

// ensureThread reuses a supplied thread ID verbatim or creates a new one.
func (c *Client) ensureThread(ctx context.Context, threadID string) (string, error) {
	if strings.TrimSpace(threadID) != "" {
		return threadID, nil
	}

	var thread Thread
	if err := c.do(ctx, "create thread", http.MethodPost, "/threads", map[string]any{}, &thread); err != nil {
		return "", err
	}
	if thread.ID == "" {
		return "", errors.NewError(http.StatusBadGateway, "REMOTE_API_ERROR", "create thread response missing id")
	}

	c.log.Info("Created thread", "thread_id", thread.ID)
	return thread.ID, nil
}

// appendUserMessage posts the user's message to the thread.
func (c *Client) appendUserMessage(ctx context.Context, threadID, content string) error {
	body := map[string]any{
		"role":    "user",
		"content": content,
	}
	return c.do(ctx, "append message", http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", body, nil)
}

// startRun triggers agent processing against the configured agent.
func (c *Client) startRun(ctx context.Context, threadID string) (Run, error) {
	var run Run
	body := map[string]any{"assistant_id": c.cfg.AgentID}
	if err := c.do(ctx, "start run", http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", body, &run); err != nil {
		return Run{}, err
	}
	if run.ID == "" {
		return Run{}, errors.NewError(http.StatusBadGateway, "REMOTE_API_ERROR", "start run response missing id")
	}
	return run, nil
}

// pollRun fetches run status at a fixed interval until the run leaves the
// in-progress set or the configured timeout elapses.
func (c *Client) pollRun(ctx context.Context, threadID, runID string) (Run, error) {
	start := time.Now()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		run, err := c.fetchRun(ctx, threadID, runID)
		if err != nil {
			return Run{}, err
		}

		if !run.InProgress() {
			runPollDuration.Observe(time.Since(start).Seconds())
			runOutcomes.WithLabelValues(run.Status).Inc()
			if !run.Succeeded() {
				c.log.Warn("Run reached a non-success terminal status",
					"run_id", run.ID,
					"thread_id", threadID,
					"status", run.Status,
				)
			}
			return run, nil
		}

		if time.Since(start) >= c.cfg.PollTimeout {
			return Run{}, errors.NewTimeoutError(fmt.Sprintf(
				"run %s still %s after %s", runID, run.Status, c.cfg.PollTimeout))
		}

		select {
		case <-ctx.Done():
			return Run{}, errors.NewTimeoutError(fmt.Sprintf("run %s polling interrupted: %v", runID, ctx.Err()))
		case <-ticker.C:
		}
	}
}

func (c *Client) fetchRun(ctx context.Context, threadID, runID string) (Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, "fetch run", http.MethodGet, path, nil, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

// listMessages fetches the thread history in ascending chronological order.
// A missing or non-array message list upstream is treated as empty.
func (c *Client) listMessages(ctx context.Context, threadID string) ([]Message, error) {
	var list messageList
	path := "/threads/" + url.PathEscape(threadID) + "/messages?order=asc"
	if err := c.do(ctx, "list messages", http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	entries := list.entries()
	messages := make([]Message, 0, len(entries))
	for _, m := range entries {
		messages = append(messages, m.toMessage())
	}
	return messages, nil
}

// do performs one authorized JSON call against the project-scoped base
// URL, appending the API version to every request. A fresh bearer token
// is acquired per call.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "agent."+strings.ReplaceAll(operation, " ", "_"))
	defer span.End()

	u, err := url.Parse(c.cfg.Endpoint + "/" + url.PathEscape(c.cfg.Project) + path)
	if err != nil {
		return errors.NewError(http.StatusBadGateway, "REMOTE_API_ERROR",
			fmt.Sprintf("%s: building request URL: %v", operation, err))
	}
	q := u.Query()
	q.Set("api-version", c.cfg.APIVersion)
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.NewError(http.StatusBadGateway, "REMOTE_API_ERROR",
				fmt.Sprintf("%s: encoding request body: %v", operation, err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return errors.NewError(http.StatusBadGateway, "REMOTE_API_ERROR",
			fmt.Sprintf("%s: building request: %v", operation, err))
	}

	token, err := c.tokens.AcquireToken(ctx, c.cfg.TokenScope)
	if err != nil {
		outboundRequests.WithLabelValues(operation, "auth_error").Inc()
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		outboundRequests.WithLabelValues(operation, "network_error").Inc()
		span.RecordError(err)
		return errors.NewError(http.StatusBadGateway, "REMOTE_API_ERROR",
			fmt.Sprintf("%s request failed: %v", operation, err))
	}
	defer resp.Body.Close()

	outboundRequests.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return errors.NewRemoteAPIError(operation, resp.StatusCode, string(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewError(http.StatusBadGateway, "REMOTE_API_ERROR",
			fmt.Sprintf("%s: decoding response: %v", operation, err))
	}
	return nil
}
