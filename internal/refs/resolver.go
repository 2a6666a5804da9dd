// Package refs turns requested branch specs into resolved containment targets.
package refs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrResolverFailure means a token could not be translated by the resolver.
// Callers fall back to treating the token as a literal ref.
var ErrResolverFailure = errors.New("ref resolver failed")

// Resolution is what a Resolver maps a token to.
type Resolution struct {
	Label string
	Ref   string
}

// Resolver maps an opaque branch token such as "pipe:1234567" to a ref.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Resolution, error)
}

// PassThroughResolver returns every token unchanged.
type PassThroughResolver struct{}

// Resolve implements Resolver.
func (PassThroughResolver) Resolve(_ context.Context, token string) (Resolution, error) {
	return Resolution{Label: token, Ref: token}, nil
}

// ScriptResolver runs an external program as "<script> <token>".
//
// The program prints one line (the ref) or two or more lines (a display
// label, then the ref). Anything else is a resolver failure.
type ScriptResolver struct {
	Script string
}

// NewScriptResolver creates a ScriptResolver. "${HOME}" in script is expanded.
func NewScriptResolver(script string) *ScriptResolver {
	return &ScriptResolver{Script: script}
}

// Path returns the script path with "${HOME}" expanded.
func (r *ScriptResolver) Path() string {
	home := os.Getenv("HOME")
	if home == "" {
		return r.Script
	}
	return strings.ReplaceAll(r.Script, "${HOME}", home)
}

// Resolve implements Resolver.
func (r *ScriptResolver) Resolve(ctx context.Context, token string) (Resolution, error) {
	if r.Script == "" {
		return Resolution{}, fmt.Errorf("%w: no resolver script configured for %q", ErrResolverFailure, token)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Path(), token)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Resolution{}, fmt.Errorf("%w: %s %s: %v: %s", ErrResolverFailure, r.Path(), token, err, msg)
		}
		return Resolution{}, fmt.Errorf("%w: %s %s: %v", ErrResolverFailure, r.Path(), token, err)
	}

	res, ok := parseResolution(token, string(out))
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s %s: no output", ErrResolverFailure, r.Path(), token)
	}
	return res, nil
}

func parseResolution(token, out string) (Resolution, bool) {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	switch len(lines) {
	case 0:
		return Resolution{}, false
	case 1:
		return Resolution{Label: token, Ref: lines[0]}, true
	default:
		return Resolution{Label: lines[0], Ref: lines[1]}, true
	}
}
