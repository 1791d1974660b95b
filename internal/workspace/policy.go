// Package workspace scopes a session to a filesystem root and exposes the
// security policy predicate that gates which tools may run without
// elevated approval.
package workspace

import (
	"path/filepath"

	"github.com/viziclaw/agentcore/internal/config"
)

// Workspace is the filesystem root a session's memory, skills, and tools
// are scoped to.
type Workspace struct {
	Root string
}

// New resolves root to an absolute path.
func New(root string) (Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, err
	}
	return Workspace{Root: abs}, nil
}

// Policy is a pure predicate over tool invocations: given a tool name, it
// reports whether the call may proceed without an out-of-band approval
// step. The agent loop does not consult a Policy: dispatch runs any tool
// found in the registry, and no approval flow is implemented.
type Policy interface {
	Allow(toolName string) bool
}

// AutonomyPolicy admits every tool except those named in Elevated, unless
// Level is "full".
type AutonomyPolicy struct {
	Level    string
	Elevated map[string]struct{}
}

// NewAutonomyPolicy builds a Policy from autonomy config.
func NewAutonomyPolicy(cfg config.AutonomyConfig) AutonomyPolicy {
	elevated := make(map[string]struct{}, len(cfg.ElevatedTools))
	for _, name := range cfg.ElevatedTools {
		elevated[name] = struct{}{}
	}
	return AutonomyPolicy{Level: cfg.Level, Elevated: elevated}
}

func (p AutonomyPolicy) Allow(toolName string) bool {
	if p.Level == "full" {
		return true
	}
	_, elevated := p.Elevated[toolName]
	return !elevated
}
