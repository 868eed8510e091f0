// timeout.go — timeout budgets for calls to the external page-control host.
package bridge

import "time"

// Timeout constants for different page-command categories.
const (
	FastTimeout  = 10 * time.Second
	SlowTimeout  = 35 * time.Second
	BlockingPoll = 65 * time.Second
)
