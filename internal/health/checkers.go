// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"

	"github.com/ManuGH/pushedge/internal/sharedstate"
)

// RunningFunc reports whether a component loop is active.
type RunningFunc func() bool

// RunningChecker is unhealthy while its component is not running.
type RunningChecker struct {
	name    string
	running RunningFunc
}

// NewRunningChecker creates a checker named name backed by running.
func NewRunningChecker(name string, running RunningFunc) *RunningChecker {
	return &RunningChecker{name: name, running: running}
}

func (c *RunningChecker) Name() string { return c.name }

func (c *RunningChecker) Check(context.Context) CheckResult {
	if c.running == nil || !c.running() {
		return CheckResult{Status: StatusUnhealthy, Message: "not running"}
	}
	return CheckResult{Status: StatusHealthy, Message: "running"}
}

// StateReader is the part of the shared state store a StateChecker needs.
type StateReader interface {
	Latest(owner string) sharedstate.Snapshot
}

// StateChecker reports whether an owner's newest shared state is resolved.
type StateChecker struct {
	name  string
	owner string
	store StateReader
}

// NewStateChecker creates a checker for owner's shared state.
func NewStateChecker(name, owner string, store StateReader) *StateChecker {
	return &StateChecker{name: name, owner: owner, store: store}
}

func (c *StateChecker) Name() string { return c.name }

func (c *StateChecker) Check(context.Context) CheckResult {
	snap := c.store.Latest(c.owner)
	switch snap.Status {
	case sharedstate.StatusSet:
		return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("version %d", snap.Version)}
	case sharedstate.StatusPending:
		return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("pending at version %d", snap.Version)}
	default:
		return CheckResult{Status: StatusUnhealthy, Message: "not published"}
	}
}

// FileChecker checks if a file exists and is readable
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for file existence
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string { return c.name }

func (c *FileChecker) Check(context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	switch {
	case os.IsNotExist(err):
		return CheckResult{Status: StatusUnhealthy, Error: "file not found", Message: c.path}
	case err != nil:
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	case info.IsDir():
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	case info.Size() == 0:
		return CheckResult{Status: StatusDegraded, Message: "file is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}
