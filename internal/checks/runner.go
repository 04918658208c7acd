/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package checks implements the four completion-check kinds evaluated by a
// Mission attempt: fileExists, command, coverage, and natsResponse. Each
// check is evaluated against a workspace directory and an optional message
// bus, and never panics — all failures surface as a CheckResult.
package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"github.com/expr-lang/expr"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
	"github.com/kais-io/kais/internal/bus"
)

// Result is the outcome of evaluating one check.
type Result struct {
	Status corev1alpha1.CheckStatus
	Output string
}

// Runner evaluates completion checks against a workspace directory, optionally
// backed by a message bus for natsResponse checks.
type Runner struct {
	Bus bus.Bus
}

// Run evaluates a single check. It never returns an error: a check that
// runs but is not met is reported with status Failed, and a check that
// cannot be evaluated (unknown kind, bad configuration, execution error) is
// reported with status Error.
func (r *Runner) Run(ctx context.Context, workspace string, check corev1alpha1.CompletionCheck) Result {
	switch check.Kind {
	case corev1alpha1.CheckFileExists:
		return r.fileExists(workspace, check)
	case corev1alpha1.CheckCommand:
		return r.command(ctx, workspace, check)
	case corev1alpha1.CheckCoverage:
		return r.coverage(ctx, workspace, check)
	case corev1alpha1.CheckNatsResponse:
		return r.natsResponse(ctx, check)
	default:
		return Result{Status: corev1alpha1.CheckStatusError, Output: fmt.Sprintf("unknown check kind %q", check.Kind)}
	}
}

func (r *Runner) fileExists(workspace string, check corev1alpha1.CompletionCheck) Result {
	for _, p := range check.Paths {
		full := filepath.Join(workspace, p)
		info, err := os.Stat(full)
		if err != nil {
			return Result{Status: corev1alpha1.CheckStatusFailed, Output: fmt.Sprintf("%s: %v", p, err)}
		}
		if !info.Mode().IsRegular() {
			return Result{Status: corev1alpha1.CheckStatusFailed, Output: fmt.Sprintf("%s: not a regular file", p)}
		}
	}
	return Result{Status: corev1alpha1.CheckStatusPassed}
}

// runCommand executes check.Command with check.Args via argv, never through a
// shell string, per the argv-over-shell-string design note.
func runCommand(ctx context.Context, workspace string, check corev1alpha1.CompletionCheck) (stdout, stderr string, exitCode int, runErr error) {
	cmd := exec.CommandContext(ctx, check.Command, check.Args...)
	cmd.Dir = workspace
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			runErr = err
		}
	}
	return outBuf.String(), errBuf.String(), exitCode, runErr
}

func (r *Runner) command(ctx context.Context, workspace string, check corev1alpha1.CompletionCheck) Result {
	stdout, stderr, exitCode, err := runCommand(ctx, workspace, check)
	if err != nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: err.Error()}
	}
	combined := stdout + stderr

	if check.FailPattern != "" {
		re, err := regexp.Compile(check.FailPattern)
		if err != nil {
			return Result{Status: corev1alpha1.CheckStatusError, Output: "invalid failPattern: " + err.Error()}
		}
		if re.MatchString(combined) {
			return Result{Status: corev1alpha1.CheckStatusFailed, Output: combined}
		}
	}

	if check.SuccessPattern != "" {
		re, err := regexp.Compile(check.SuccessPattern)
		if err != nil {
			return Result{Status: corev1alpha1.CheckStatusError, Output: "invalid successPattern: " + err.Error()}
		}
		if re.MatchString(combined) {
			return Result{Status: corev1alpha1.CheckStatusPassed, Output: combined}
		}
		return Result{Status: corev1alpha1.CheckStatusFailed, Output: combined}
	}

	if exitCode == 0 {
		return Result{Status: corev1alpha1.CheckStatusPassed, Output: combined}
	}
	return Result{Status: corev1alpha1.CheckStatusFailed, Output: combined}
}

func (r *Runner) coverage(ctx context.Context, workspace string, check corev1alpha1.CompletionCheck) Result {
	stdout, _, _, err := runCommand(ctx, workspace, check)
	if err != nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: err.Error()}
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(stdout), &parsed); err != nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: "parse failure: " + err.Error()}
	}

	value, err := extractJSONPath(parsed, check.JSONPath)
	if err != nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: err.Error()}
	}

	if check.Value == nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: "coverage check missing comparison value"}
	}

	program, err := expr.Compile(fmt.Sprintf("value %s target", check.Operator),
		expr.Env(map[string]interface{}{"value": 0.0, "target": 0.0}))
	if err != nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: "invalid operator: " + err.Error()}
	}
	out, err := expr.Run(program, map[string]interface{}{"value": value, "target": *check.Value})
	if err != nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: err.Error()}
	}
	passed, ok := out.(bool)
	if !ok {
		return Result{Status: corev1alpha1.CheckStatusError, Output: "comparison did not yield a boolean"}
	}
	if passed {
		return Result{Status: corev1alpha1.CheckStatusPassed, Output: fmt.Sprintf("%v %s %v", value, check.Operator, *check.Value)}
	}
	return Result{Status: corev1alpha1.CheckStatusFailed, Output: fmt.Sprintf("%v %s %v", value, check.Operator, *check.Value)}
}

// extractJSONPath supports a minimal dotted/indexed path grammar, e.g.
// "totals.coverage" or "results[0].percent".
func extractJSONPath(root interface{}, path string) (float64, error) {
	cur := root
	for _, seg := range splitJSONPath(path) {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[seg.key]
			if !ok {
				return 0, fmt.Errorf("jsonPath %q: key %q not found", path, seg.key)
			}
			cur = v
		default:
			return 0, fmt.Errorf("jsonPath %q: cannot index into %T", path, cur)
		}
		if seg.index >= 0 {
			arr, ok := cur.([]interface{})
			if !ok || seg.index >= len(arr) {
				return 0, fmt.Errorf("jsonPath %q: index %d out of range", path, seg.index)
			}
			cur = arr[seg.index]
		}
	}
	num, ok := cur.(float64)
	if !ok {
		return 0, fmt.Errorf("jsonPath %q: value is not numeric", path)
	}
	return num, nil
}

type pathSegment struct {
	key   string
	index int
}

func splitJSONPath(path string) []pathSegment {
	var segs []pathSegment
	var key string
	var idx string
	inIndex := false
	flush := func() {
		index := -1
		if idx != "" {
			fmt.Sscanf(idx, "%d", &index)
		}
		if key != "" || index >= 0 {
			segs = append(segs, pathSegment{key: key, index: index})
		}
		key, idx = "", ""
	}
	for _, r := range path {
		switch r {
		case '.':
			flush()
		case '[':
			inIndex = true
		case ']':
			inIndex = false
		default:
			if inIndex {
				idx += string(r)
			} else {
				key += string(r)
			}
		}
	}
	flush()
	return segs
}

func (r *Runner) natsResponse(ctx context.Context, check corev1alpha1.CompletionCheck) Result {
	if r.Bus == nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: "no message bus client available"}
	}
	timeout := time.Duration(check.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	subCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sub, err := r.Bus.Subscribe(subCtx, check.Subject)
	if err != nil {
		return Result{Status: corev1alpha1.CheckStatusError, Output: err.Error()}
	}
	defer sub.Close()

	var successRe, failRe *regexp.Regexp
	if check.SuccessPattern != "" {
		successRe, err = regexp.Compile(check.SuccessPattern)
		if err != nil {
			return Result{Status: corev1alpha1.CheckStatusError, Output: "invalid successPattern: " + err.Error()}
		}
	}
	if check.FailPattern != "" {
		failRe, err = regexp.Compile(check.FailPattern)
		if err != nil {
			return Result{Status: corev1alpha1.CheckStatusError, Output: "invalid failPattern: " + err.Error()}
		}
	}

	for {
		select {
		case <-subCtx.Done():
			return Result{Status: corev1alpha1.CheckStatusFailed, Output: "timed out waiting for response"}
		case msg, ok := <-sub.Channel():
			if !ok {
				return Result{Status: corev1alpha1.CheckStatusError, Output: "subscription closed"}
			}
			body := string(msg.Body)
			if failRe != nil && failRe.MatchString(body) {
				return Result{Status: corev1alpha1.CheckStatusFailed, Output: body}
			}
			if successRe == nil || successRe.MatchString(body) {
				return Result{Status: corev1alpha1.CheckStatusPassed, Output: body}
			}
		}
	}
}
