// deps.go — Composable dependency interfaces for MCP tool packages.
// Each tool package defines its own Deps interface by embedding these sub-interfaces.
// *ToolHandler satisfies all of them with zero code changes.
package mcp

// DiagnosticProvider supplies system state snapshots for error messages.
// Used by all tools to attach "Current state: extension=connected, pilot=enabled, ..."
// hints to structured errors.
type DiagnosticProvider interface {
	DiagnosticHintString() string
}
