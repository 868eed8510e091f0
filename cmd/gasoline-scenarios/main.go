// Command gasoline-scenarios runs the scenario recorder/replay MCP tool
// surface over stdio JSON-RPC. It replaces the teacher's much larger
// cmd/dev-console entrypoint: no HTTP daemon, no CLI subcommand tree, no
// background-server fork — just storage, the executor, the recorder
// registry, and the mcp handlers wired together and driven line-by-line
// from stdin, matching the teacher's stdout-silence discipline (only
// JSON-RPC responses go to stdout; everything else goes to stderr).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/brennhill/gasoline-scenarios/internal/bridge"
	"github.com/brennhill/gasoline-scenarios/internal/executor"
	"github.com/brennhill/gasoline-scenarios/internal/logging"
	"github.com/brennhill/gasoline-scenarios/internal/mcp"
	"github.com/brennhill/gasoline-scenarios/internal/recorder"
	"github.com/brennhill/gasoline-scenarios/internal/state"
	"github.com/brennhill/gasoline-scenarios/internal/storage"
)

const version = "0.1.0"

// requestTimeout is a backstop context deadline for one dispatched tool
// call. In practice the page driver's own per-command timeouts
// (bridge.FastTimeout/SlowTimeout) bind tighter; this only guards against
// a handler that never returns.
const requestTimeout = 90 * time.Second

func main() {
	stateDir := flag.String("state-dir", "", "override the runtime state root (also settable via "+state.StateDirEnv+")")
	pageControlEndpoint := flag.String("page-control-endpoint", "http://127.0.0.1:9876/command", "URL of the external page-control host's command endpoint")
	pageControlPort := flag.Int("page-control-port", 9876, "port of the external page-control host, probed via /health before the driver is used")
	pageControlWait := flag.Duration("page-control-wait", 5*time.Second, "how long to wait for the page-control host to come up before proceeding anyway")
	redactionConfig := flag.String("redaction-config", "", "path to a custom redaction pattern file (optional, built-ins always apply)")
	rateLimit := flag.Float64("rate-limit", 10, "sustained tool calls per second before rate_limited responses")
	burst := flag.Int("burst", 20, "tool-call burst allowance above -rate-limit")
	logLevel := flag.String("log-level", "info", "diagnostic log verbosity written to stderr (debug|info|warn|error)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gasoline-scenarios v%s\n", version)
		os.Exit(0)
	}

	log := logging.New("gasoline-scenarios", logging.ParseLevel(*logLevel))

	if *stateDir != "" {
		if err := os.Setenv(state.StateDirEnv, *stateDir); err != nil {
			log.Errorf("cannot set state dir: %v", err)
			os.Exit(1)
		}
	}

	store, err := storage.Open()
	if err != nil {
		log.Errorf("cannot open storage: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	watcher, err := store.Watch(func(r storage.Report) {
		if len(r.OrphanScenarioFiles) > 0 || len(r.BrokenDependencies) > 0 {
			log.Warnf("reconciliation found %d orphan file(s), %d broken dependency(ies)",
				len(r.OrphanScenarioFiles), len(r.BrokenDependencies))
		} else {
			log.Debugf("reconciliation pass clean")
		}
	})
	if err != nil {
		log.Errorf("cannot start storage watcher: %v", err)
		os.Exit(1)
	}
	defer func() { _ = watcher.Close() }()

	if bridge.WaitForServer(*pageControlPort, *pageControlWait) {
		log.Debugf("page-control host ready on port %d", *pageControlPort)
	} else {
		log.Warnf("page-control host not ready on port %d after %s, proceeding anyway", *pageControlPort, *pageControlWait)
	}

	driver := bridge.NewPageDriver(*pageControlEndpoint, bridge.SlowTimeout)
	registry := recorder.NewInstanceRegistry()

	deps := &appDeps{
		store:    store,
		driver:   driver,
		registry: registry,
		logLevel: *logLevel,
	}
	handler := mcp.NewScenarioToolHandler(deps, *rateLimit, *burst, *redactionConfig)

	log.Infof("v%s ready, page-control endpoint %s", version, *pageControlEndpoint)
	runStdioLoop(handler, log)
}

// appDeps satisfies mcp.ScenarioDeps by closing over the process-wide
// storage store, page driver, and recorder registry.
type appDeps struct {
	store    *storage.Store
	driver   executor.PageDriver
	registry *recorder.InstanceRegistry
	logLevel string
}

func (d *appDeps) ScenarioStore() *storage.Store           { return d.store }
func (d *appDeps) PageDriver() executor.PageDriver         { return d.driver }
func (d *appDeps) Recorders() *recorder.InstanceRegistry   { return d.registry }
func (d *appDeps) ScenarioLookup() executor.ScenarioLookup { return d.store }

func (d *appDeps) DiagnosticHintString() string {
	summaries, err := d.store.List()
	if err != nil {
		return fmt.Sprintf("log_level=%s scenarios=unavailable(%v)", d.logLevel, err)
	}
	return fmt.Sprintf("log_level=%s scenarios=%d", d.logLevel, len(summaries))
}

// toolFunc is one named operation's handler, already bound to its deps.
type toolFunc func(ctx context.Context, req mcp.JSONRPCRequest) json.RawMessage

// toolDispatch maps each of spec.md's eight named operations onto its handler.
func toolDispatch(h *mcp.ScenarioToolHandler) map[string]toolFunc {
	return map[string]toolFunc{
		"enable-recorder":   h.EnableRecorder,
		"execute-scenario":  h.ExecuteScenario,
		"list-scenarios":    h.ListScenarios,
		"search-scenarios":  h.SearchScenarios,
		"get-scenario-info": h.GetScenarioInfo,
		"delete-scenario":   h.DeleteScenario,
		"import-scenario":   h.ImportScenario,
		"export-scenario":   h.ExportScenario,
	}
}

// maxStdioBodySize caps a Content-Length framed message body, per
// bridge.ReadStdioMessage.
const maxStdioBodySize = 10 * 1024 * 1024

// runStdioLoop reads one JSON-RPC request per message from stdin via
// bridge.ReadStdioMessage, which accepts both line-delimited JSON and
// Content-Length framed MCP messages. Each request's params carry a
// tool-call envelope ({"name": ..., "arguments": ...}); the operation
// name selects the handler, which sees only the unwrapped arguments as
// its own Params. Exactly one JSON-RPC response line is written to
// stdout per request — no other stdout writes are permitted anywhere in
// this program.
func runStdioLoop(h *mcp.ScenarioToolHandler, log *logging.Logger) {
	dispatch := toolDispatch(h)

	reader := bufio.NewReader(os.Stdin)

	for {
		line, readErr := bridge.ReadStdioMessage(reader, maxStdioBodySize)
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			log.Errorf("stdio read failed: %v", readErr)
			break
		}
		if len(line) == 0 {
			continue
		}

		var req mcp.JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warnf("malformed request: %v", err)
			writeResponse(mcp.JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &mcp.JSONRPCError{Code: -32700, Message: "Parse error: " + err.Error()},
			}, log)
			continue
		}

		var toolCall struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		_ = json.Unmarshal(req.Params, &toolCall)

		fn, ok := dispatch[toolCall.Name]
		if !ok {
			log.Warnf("unknown tool call: %q", toolCall.Name)
			writeResponse(mcp.JSONRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &mcp.JSONRPCError{Code: -32601, Message: "Method not found: " + toolCall.Name},
			}, log)
			continue
		}

		log.Debugf("dispatching %s", toolCall.Name)
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		result := fn(ctx, mcp.JSONRPCRequest{JSONRPC: req.JSONRPC, ID: req.ID, Method: req.Method, Params: toolCall.Arguments})
		cancel()

		writeResponse(mcp.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}, log)
	}

	log.Infof("stdin closed, shutting down")
}

func writeResponse(r mcp.JSONRPCResponse, log *logging.Logger) {
	data, err := json.Marshal(r)
	if err != nil {
		log.Errorf("response marshal failed: %v", err)
		return
	}
	fmt.Println(string(data))
}
