// handlers_scenario.go — the eight named scenario operations of spec.md
// §6's tool surface (enable-recorder, execute-scenario, list-scenarios,
// search-scenarios, get-scenario-info, delete-scenario, import-scenario,
// export-scenario). Wired through this package's existing
// StructuredErrorResponse/TextResponse/JSONErrorResponse helpers and the
// DiagnosticProvider Deps interface (deps.go), following the teacher's
// composable-Deps convention (embed the sub-interfaces you need, add the
// domain-specific ones locally) rather than a monolithic dependency struct.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/brennhill/gasoline-scenarios/internal/executor"
	"github.com/brennhill/gasoline-scenarios/internal/recorder"
	"github.com/brennhill/gasoline-scenarios/internal/redaction"
	"github.com/brennhill/gasoline-scenarios/internal/storage"
	"github.com/brennhill/gasoline-scenarios/internal/util"
)

// ScenarioDeps is the composable Deps interface this package's tool
// handlers close over: deps.go's shared DiagnosticProvider plus
// storage, the external page-control boundary, and the
// one-recorder-per-page registry.
type ScenarioDeps interface {
	DiagnosticProvider
	ScenarioStore() *storage.Store
	PageDriver() executor.PageDriver
	Recorders() *recorder.InstanceRegistry
	ScenarioLookup() executor.ScenarioLookup
}

// ScenarioToolHandler implements the scenario tool surface. Tool-call rate
// limiting uses golang.org/x/time/rate rather than a hand-rolled token
// bucket; every response is passed through RedactionEngine.RedactJSON
// before being returned, catching a parameter-substitution bug that
// leaks a secret literal into an error message at the response boundary.
type ScenarioToolHandler struct {
	Deps     ScenarioDeps
	limiter  *rate.Limiter
	redactor *redaction.RedactionEngine
}

// NewScenarioToolHandler constructs a handler allowing toolCallsPerSecond
// sustained calls with a burst of burst, loading any custom redaction
// patterns from redactionConfigPath (empty string: built-ins only).
func NewScenarioToolHandler(deps ScenarioDeps, toolCallsPerSecond float64, burst int, redactionConfigPath string) *ScenarioToolHandler {
	return &ScenarioToolHandler{
		Deps:     deps,
		limiter:  rate.NewLimiter(rate.Limit(toolCallsPerSecond), burst),
		redactor: redaction.NewRedactionEngine(redactionConfigPath),
	}
}

func (h *ScenarioToolHandler) finish(resp json.RawMessage) json.RawMessage {
	return h.redactor.RedactJSON(resp)
}

func (h *ScenarioToolHandler) rateLimited() (json.RawMessage, bool) {
	if h.limiter.Allow() {
		return nil, false
	}
	return h.finish(StructuredErrorResponse(
		ErrRateLimited,
		"too many tool calls in a short window",
		"wait briefly and retry",
		WithHint(h.Deps.DiagnosticHintString()),
	)), true
}

type enableRecorderArgs struct {
	PageURL string `json:"page_url,omitempty"`
}

// EnableRecorder starts (or resumes, via idempotent reinjection) the
// in-page recorder for the calling page. Reinjection is keyed by the
// page's origin rather than its full URL, so navigating within the same
// site reuses the same recorder instance instead of dropping progress.
func (h *ScenarioToolHandler) EnableRecorder(ctx context.Context, req JSONRPCRequest) json.RawMessage {
	if resp, limited := h.rateLimited(); limited {
		return resp
	}
	var args enableRecorderArgs
	LenientUnmarshal(req.Params, &args)

	pageKey := util.ExtractOrigin(args.PageURL)
	if pageKey == "" {
		pageKey = "current"
	}

	r := h.Deps.Recorders().Reinject(pageKey, true)
	if r.State() != recorder.StateRecording {
		if err := r.Start(args.PageURL); err != nil {
			return h.finish(StructuredErrorResponse(ErrInternal, err.Error(), "call enable-recorder again"))
		}
	}
	return h.finish(JSONResponse("recorder enabled", map[string]any{"success": true, "state": r.State(), "page_key": pageKey}))
}

type executeScenarioArgs struct {
	Name                string            `json:"name"`
	Parameters          map[string]string `json:"parameters"`
	ExecuteDependencies bool              `json:"execute_dependencies"`
}

// ExecuteScenario resolves name's dependency graph and executes it,
// returning the structured diagnostic of spec.md §7 on failure.
func (h *ScenarioToolHandler) ExecuteScenario(ctx context.Context, req JSONRPCRequest) json.RawMessage {
	if resp, limited := h.rateLimited(); limited {
		return resp
	}
	var args executeScenarioArgs
	warnings, err := UnmarshalWithWarnings(req.Params, &args)
	if err != nil {
		return h.finish(StructuredErrorResponse(ErrInvalidJSON, err.Error(), "fix the JSON arguments and retry"))
	}
	if args.Name == "" {
		return h.finish(StructuredErrorResponse(ErrMissingParam, "name is required", "add the 'name' parameter and call again", WithParam("name")))
	}

	result := executor.Run(ctx, h.Deps.ScenarioLookup(), h.Deps.PageDriver(), args.Name, executor.RunOptions{
		Parameters:          args.Parameters,
		ExecuteDependencies: args.ExecuteDependencies,
		MaxRetries:          0,
	})

	resp := executionResultResponse(result)
	return h.finish(AppendWarningsToResponse(wrapResult(req, resp), warnings).Result)
}

// executionResultResponse renders an *executor.ExecutionResult into an
// MCP tool response, embedding the full ActionFailure diagnostic verbatim
// when the run failed (spec.md §7 "user-visible behaviour").
func executionResultResponse(result *executor.ExecutionResult) json.RawMessage {
	if result.Success {
		return JSONResponse("execution succeeded", map[string]any{
			"success":            true,
			"run_id":             result.RunID,
			"executed_scenarios": result.ExecutedScenarios,
			"outputs":            result.Outputs,
			"duration_ms":        result.Duration.Milliseconds(),
		})
	}

	payload := map[string]any{
		"success":            false,
		"run_id":             result.RunID,
		"executed_scenarios": result.ExecutedScenarios,
		"error":              result.Err.Error(),
	}
	if failure, ok := result.Err.(*executor.ActionFailure); ok {
		payload["failed_scenario"] = failure.ScenarioName
		payload["action_index"] = failure.ActionIndex
		payload["action_kind"] = failure.Kind
		payload["selector"] = failure.Selector
		payload["attempts"] = failure.Attempts
		payload["diagnostics"] = failure.Diagnostics
		payload["suggestions"] = failure.Suggestions
	}
	return JSONErrorResponse("execution failed", payload)
}

// ListScenarios returns every index summary as a markdown table (columns
// stay uniform across rows, unlike execute-scenario's irregular output).
func (h *ScenarioToolHandler) ListScenarios(ctx context.Context, req JSONRPCRequest) json.RawMessage {
	if resp, limited := h.rateLimited(); limited {
		return resp
	}
	summaries, err := h.Deps.ScenarioStore().List()
	if err != nil {
		return h.finish(StructuredErrorResponse(ErrInternal, err.Error(), "retry; if this persists the index may need repair"))
	}
	return h.finish(summaryTableResponse(fmt.Sprintf("%d scenario(s)", len(summaries)), summaries))
}

// summaryTableResponse renders a slice of storage.Summary as a markdown
// table, description text truncated so a long free-form field can't blow
// out a single row.
func summaryTableResponse(caption string, summaries []storage.Summary) json.RawMessage {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		secrets := "no"
		if s.HasSecrets {
			secrets = "yes"
		}
		rows[i] = []string{s.Name, Truncate(s.Description, 60), strings.Join(s.Tags, ", "), secrets}
	}
	table := MarkdownTable([]string{"name", "description", "tags", "has secrets"}, rows)
	if table == "" {
		table = "_no scenarios found_"
	}
	return MarkdownResponse(caption, table)
}

type searchScenariosArgs struct {
	Text string   `json:"text,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

// SearchScenarios filters the index by tag intersection or text substring.
func (h *ScenarioToolHandler) SearchScenarios(ctx context.Context, req JSONRPCRequest) json.RawMessage {
	if resp, limited := h.rateLimited(); limited {
		return resp
	}
	var args searchScenariosArgs
	LenientUnmarshal(req.Params, &args)

	summaries, err := h.Deps.ScenarioStore().Search(storage.SearchQuery{Text: args.Text, Tags: args.Tags})
	if err != nil {
		return h.finish(StructuredErrorResponse(ErrInternal, err.Error(), "retry the search"))
	}
	return h.finish(summaryTableResponse(fmt.Sprintf("%d matching scenario(s)", len(summaries)), summaries))
}

type getScenarioInfoArgs struct {
	Name           string `json:"name"`
	IncludeSecrets bool   `json:"include_secrets,omitempty"`
}

// GetScenarioInfo returns the full scenario document, optionally with secrets.
func (h *ScenarioToolHandler) GetScenarioInfo(ctx context.Context, req JSONRPCRequest) json.RawMessage {
	if resp, limited := h.rateLimited(); limited {
		return resp
	}
	var args getScenarioInfoArgs
	if err := json.Unmarshal(req.Params, &args); err != nil {
		return h.finish(StructuredErrorResponse(ErrInvalidJSON, err.Error(), "fix the JSON arguments and retry"))
	}
	if args.Name == "" {
		return h.finish(StructuredErrorResponse(ErrMissingParam, "name is required", "add the 'name' parameter and call again", WithParam("name")))
	}

	sc, secrets, err := h.Deps.ScenarioStore().Load(args.Name, args.IncludeSecrets)
	if err != nil {
		return h.finish(StructuredErrorResponse(ErrNoData, err.Error(), "call list-scenarios to see available names"))
	}

	payload := map[string]any{"scenario": sc}
	if args.IncludeSecrets {
		payload["secrets"] = secrets
	}
	return h.finish(JSONResponse("scenario "+args.Name, payload))
}

type deleteScenarioArgs struct {
	Name string `json:"name"`
}

// DeleteScenario removes a scenario's file, secrets file, and index entry.
func (h *ScenarioToolHandler) DeleteScenario(ctx context.Context, req JSONRPCRequest) json.RawMessage {
	if resp, limited := h.rateLimited(); limited {
		return resp
	}
	var args deleteScenarioArgs
	if err := json.Unmarshal(req.Params, &args); err != nil {
		return h.finish(StructuredErrorResponse(ErrInvalidJSON, err.Error(), "fix the JSON arguments and retry"))
	}
	if args.Name == "" {
		return h.finish(StructuredErrorResponse(ErrMissingParam, "name is required", "add the 'name' parameter and call again", WithParam("name")))
	}
	if err := h.Deps.ScenarioStore().Delete(args.Name); err != nil {
		return h.finish(StructuredErrorResponse(ErrInternal, err.Error(), "retry the deletion"))
	}
	return h.finish(JSONResponse("deleted", map[string]any{"success": true}))
}

type importScenarioArgs struct {
	Text      string `json:"text"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

// ImportScenario parses a previously exported document and saves it.
func (h *ScenarioToolHandler) ImportScenario(ctx context.Context, req JSONRPCRequest) json.RawMessage {
	if resp, limited := h.rateLimited(); limited {
		return resp
	}
	var args importScenarioArgs
	if err := json.Unmarshal(req.Params, &args); err != nil {
		return h.finish(StructuredErrorResponse(ErrInvalidJSON, err.Error(), "fix the JSON arguments and retry"))
	}
	if args.Text == "" {
		return h.finish(StructuredErrorResponse(ErrMissingParam, "text is required", "add the 'text' parameter and call again", WithParam("text")))
	}

	sc, err := h.Deps.ScenarioStore().Import(args.Text, args.Overwrite)
	if err != nil {
		return h.finish(StructuredErrorResponse(ErrInvalidParam, err.Error(), "pass overwrite=true to replace an existing scenario"))
	}
	return h.finish(JSONResponse("imported", map[string]any{"name": sc.Name, "success": true}))
}

type exportScenarioArgs struct {
	Name           string `json:"name"`
	IncludeSecrets bool   `json:"include_secrets,omitempty"`
}

// ExportScenario serialises a scenario to its portable textual form.
func (h *ScenarioToolHandler) ExportScenario(ctx context.Context, req JSONRPCRequest) json.RawMessage {
	if resp, limited := h.rateLimited(); limited {
		return resp
	}
	var args exportScenarioArgs
	if err := json.Unmarshal(req.Params, &args); err != nil {
		return h.finish(StructuredErrorResponse(ErrInvalidJSON, err.Error(), "fix the JSON arguments and retry"))
	}
	if args.Name == "" {
		return h.finish(StructuredErrorResponse(ErrMissingParam, "name is required", "add the 'name' parameter and call again", WithParam("name")))
	}

	text, err := h.Deps.ScenarioStore().Export(args.Name, args.IncludeSecrets)
	if err != nil {
		return h.finish(StructuredErrorResponse(ErrNoData, err.Error(), "call list-scenarios to see available names"))
	}
	return h.finish(TextResponse(text))
}

func wrapResult(req JSONRPCRequest, result json.RawMessage) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
}
