// driver.go — HTTP-backed implementation of executor.PageDriver, talking
// to the external page-control host (spec.md §6 "the request/response
// tool dispatcher surface" is an external collaborator; this is the
// localhost transport to it, not the dispatcher itself) over the same
// DoHTTP/IsConnectionError machinery conn.go already provides for the
// teacher's daemon health checks.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brennhill/gasoline-scenarios/internal/executor"
	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// pageCommand is the wire shape of one request to the page-control host.
type pageCommand struct {
	Command  string           `json:"command"`
	Action   *scenario.Action `json:"action,omitempty"`
	Selector string           `json:"selector,omitempty"`
	Text     string           `json:"text,omitempty"`
	WindowMs int64            `json:"window_ms,omitempty"`
}

// pageCommandResult is the wire shape of the host's reply.
type pageCommandResult struct {
	Value       string               `json:"value,omitempty"`
	Bool        bool                 `json:"bool,omitempty"`
	Candidates  []string             `json:"candidates,omitempty"`
	Diagnostics executor.Diagnostics `json:"diagnostics,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// PageDriver implements executor.PageDriver by forwarding each call as a
// JSON command over HTTP to endpoint (the page-control host's command
// URL, e.g. "http://127.0.0.1:9876/command").
type PageDriver struct {
	client   *http.Client
	endpoint string
}

var _ executor.PageDriver = (*PageDriver)(nil)

// NewPageDriver constructs a PageDriver posting to endpoint with the
// given per-call timeout budget as the client's ceiling; individual
// calls still pass their own context deadline through DoHTTP.
func NewPageDriver(endpoint string, timeout time.Duration) *PageDriver {
	return &PageDriver{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

func (d *PageDriver) call(ctx context.Context, timeout time.Duration, cmd pageCommand) (pageCommandResult, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return pageCommandResult{}, fmt.Errorf("page_command_encode_failed: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := DoHTTP(callCtx, d.client, d.endpoint, body)
	if err != nil {
		if IsConnectionError(err) {
			return pageCommandResult{}, fmt.Errorf("page_control_host_unreachable: %w", err)
		}
		return pageCommandResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return pageCommandResult{}, fmt.Errorf("page_command_response_read_failed: %w", err)
	}

	var result pageCommandResult
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		return pageCommandResult{}, fmt.Errorf("page_command_response_decode_failed: %w", err)
	}
	if result.Error != "" {
		return result, fmt.Errorf("page_command_failed: %s", result.Error)
	}
	return result, nil
}

func (d *PageDriver) Dispatch(ctx context.Context, a scenario.Action) (string, error) {
	result, err := d.call(ctx, SlowTimeout, pageCommand{Command: "dispatch", Action: &a})
	if err != nil {
		return "", err
	}
	return result.Value, nil
}

func (d *PageDriver) ElementExists(ctx context.Context, selector string) (bool, error) {
	result, err := d.call(ctx, FastTimeout, pageCommand{Command: "element_exists", Selector: selector})
	if err != nil {
		return false, err
	}
	return result.Bool, nil
}

func (d *PageDriver) SmartFind(ctx context.Context, text string) ([]string, error) {
	result, err := d.call(ctx, SlowTimeout, pageCommand{Command: "smart_find", Text: text})
	if err != nil {
		return nil, err
	}
	return result.Candidates, nil
}

func (d *PageDriver) Diagnose(ctx context.Context, selector string) (executor.Diagnostics, error) {
	result, err := d.call(ctx, FastTimeout, pageCommand{Command: "diagnose", Selector: selector})
	if err != nil {
		return executor.Diagnostics{}, err
	}
	return result.Diagnostics, nil
}

func (d *PageDriver) CurrentURL(ctx context.Context) (string, error) {
	result, err := d.call(ctx, FastTimeout, pageCommand{Command: "current_url"})
	if err != nil {
		return "", err
	}
	return result.Value, nil
}

func (d *PageDriver) CurrentTitle(ctx context.Context) (string, error) {
	result, err := d.call(ctx, FastTimeout, pageCommand{Command: "current_title"})
	if err != nil {
		return "", err
	}
	return result.Value, nil
}

func (d *PageDriver) IsAuthenticated(ctx context.Context) (bool, error) {
	result, err := d.call(ctx, FastTimeout, pageCommand{Command: "is_authenticated"})
	if err != nil {
		return false, err
	}
	return result.Bool, nil
}

func (d *PageDriver) NoAnimationsPending(ctx context.Context) (bool, error) {
	result, err := d.call(ctx, FastTimeout, pageCommand{Command: "no_animations_pending"})
	if err != nil {
		return false, err
	}
	return result.Bool, nil
}

func (d *PageDriver) NetworkIdleFor(ctx context.Context, window time.Duration) (bool, error) {
	result, err := d.call(ctx, FastTimeout, pageCommand{Command: "network_idle_for", WindowMs: window.Milliseconds()})
	if err != nil {
		return false, err
	}
	return result.Bool, nil
}

func (d *PageDriver) DOMStableFor(ctx context.Context, window time.Duration) (bool, error) {
	result, err := d.call(ctx, FastTimeout, pageCommand{Command: "dom_stable_for", WindowMs: window.Milliseconds()})
	if err != nil {
		return false, err
	}
	return result.Bool, nil
}
