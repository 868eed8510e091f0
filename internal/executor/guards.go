package executor

import (
	"context"
	"regexp"
	"strings"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
	"github.com/brennhill/gasoline-scenarios/internal/util"
)

// ExecutionContext carries the state guard evaluation and parameter
// substitution read from and write to as the chain executes.
type ExecutionContext struct {
	Variables map[string]string
	// AvailableParameters holds the actual runtime values used for
	// {{name}} substitution, keyed by parameter name.
	AvailableParameters map[string]string
}

func newExecutionContext(seed map[string]string) *ExecutionContext {
	vars := make(map[string]string, len(seed))
	params := make(map[string]string, len(seed))
	for k, v := range seed {
		vars[k] = v
		params[k] = v
	}
	return &ExecutionContext{Variables: vars, AvailableParameters: params}
}

// evaluateGuard evaluates g against driver and ctx, returning the
// post-skip_if boolean spec.md §4.6 "Conditional execution" describes. A
// nil guard always evaluates true (no condition).
func evaluateGuard(ctx context.Context, driver PageDriver, g *scenario.Guard, execCtx *ExecutionContext) (bool, error) {
	if g == nil {
		return true, nil
	}

	var result bool
	var err error
	switch g.Kind {
	case scenario.GuardIsAuthenticated:
		result, err = driver.IsAuthenticated(ctx)
	case scenario.GuardHasData:
		_, result = execCtx.Variables[g.Arg]
	case scenario.GuardVariableExists:
		_, result = execCtx.Variables[g.Arg]
	case scenario.GuardURLMatches:
		result, err = urlMatches(ctx, driver, g.Arg)
	case scenario.GuardElementExists:
		result, err = driver.ElementExists(ctx, g.Arg)
	case scenario.GuardCustom:
		result = evaluateCustomExpression(g.Arg, execCtx)
	default:
		result = false
	}
	if err != nil {
		// spec.md §4.6: "a failed evaluation yields false".
		return applySkipIf(false, g.SkipIf), nil
	}
	return applySkipIf(result, g.SkipIf), nil
}

func applySkipIf(result, skipIf bool) bool {
	if skipIf && result {
		return false
	}
	return true
}

// urlMatches checks pattern against both the full current URL and, since
// recorded patterns are frequently path-only (e.g. "/checkout"), its
// extracted path — falling back to treating pattern as a regex against
// the full URL.
func urlMatches(ctx context.Context, driver PageDriver, pattern string) (bool, error) {
	current, err := driver.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	if strings.Contains(current, pattern) {
		return true, nil
	}
	if path := util.ExtractURLPath(current); strings.Contains(path, pattern) {
		return true, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, nil
	}
	return re.MatchString(current), nil
}

// customComparison matches the tiny whitelisted comparison grammar this
// repo scopes custom(expr) down to (DESIGN.md decision 3): `field op
// "literal"` or `field contains "literal"`, field one of url, title, or
// variables.NAME.
var customComparison = regexp.MustCompile(`^\s*(url|title|variables\.[A-Za-z_][A-Za-z0-9_]*)\s*(==|!=|contains)\s*"([^"]*)"\s*$`)

// evaluateCustomExpression implements the custom(expr) guard as a tiny
// whitelisted comparison grammar rather than an embedded interpreter
// (DESIGN.md decision 3). A malformed or disallowed expression evaluates
// to false.
func evaluateCustomExpression(expr string, execCtx *ExecutionContext) bool {
	m := customComparison.FindStringSubmatch(expr)
	if m == nil {
		return false
	}
	field, op, literal := m[1], m[2], m[3]

	var actual string
	switch {
	case field == "url":
		actual = execCtx.Variables["__url"]
	case field == "title":
		actual = execCtx.Variables["__title"]
	case strings.HasPrefix(field, "variables."):
		actual = execCtx.Variables[strings.TrimPrefix(field, "variables.")]
	}

	switch op {
	case "==":
		return actual == literal
	case "!=":
		return actual != literal
	case "contains":
		return strings.Contains(actual, literal)
	}
	return false
}
