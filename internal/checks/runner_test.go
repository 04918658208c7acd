/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package checks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
	"github.com/kais-io/kais/internal/bus"
)

func floatPtr(f float64) *float64 { return &f }

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "out.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &Runner{}

	res := r.Run(context.Background(), dir, corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckFileExists, Paths: []string{"out.txt"},
	})
	if res.Status != corev1alpha1.CheckStatusPassed {
		t.Fatalf("got %v, want Passed: %s", res.Status, res.Output)
	}

	res = r.Run(context.Background(), dir, corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckFileExists, Paths: []string{"missing.txt"},
	})
	if res.Status != corev1alpha1.CheckStatusFailed {
		t.Fatalf("got %v, want Failed", res.Status)
	}
}

func TestCommandExitCode(t *testing.T) {
	r := &Runner{}
	res := r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckCommand, Command: "true",
	})
	if res.Status != corev1alpha1.CheckStatusPassed {
		t.Fatalf("got %v, want Passed", res.Status)
	}

	res = r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckCommand, Command: "false",
	})
	if res.Status != corev1alpha1.CheckStatusFailed {
		t.Fatalf("got %v, want Failed", res.Status)
	}
}

func TestCommandSuccessPattern(t *testing.T) {
	r := &Runner{}
	res := r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckCommand, Command: "echo", Args: []string{"all tests passed"},
		SuccessPattern: "passed",
	})
	if res.Status != corev1alpha1.CheckStatusPassed {
		t.Fatalf("got %v, want Passed: %s", res.Status, res.Output)
	}
}

func TestCommandFailPatternOverridesExitZero(t *testing.T) {
	r := &Runner{}
	res := r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckCommand, Command: "echo", Args: []string{"ERROR: boom"},
		FailPattern: "ERROR",
	})
	if res.Status != corev1alpha1.CheckStatusFailed {
		t.Fatalf("got %v, want Failed", res.Status)
	}
}

func TestCoverage(t *testing.T) {
	r := &Runner{}
	res := r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind:     corev1alpha1.CheckCoverage,
		Command:  "echo",
		Args:     []string{`{"totals":{"coverage":87.5}}`},
		JSONPath: "totals.coverage",
		Operator: ">=",
		Value:    floatPtr(80),
	})
	if res.Status != corev1alpha1.CheckStatusPassed {
		t.Fatalf("got %v, want Passed: %s", res.Status, res.Output)
	}

	res = r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind:     corev1alpha1.CheckCoverage,
		Command:  "echo",
		Args:     []string{`{"totals":{"coverage":50}}`},
		JSONPath: "totals.coverage",
		Operator: ">=",
		Value:    floatPtr(80),
	})
	if res.Status != corev1alpha1.CheckStatusFailed {
		t.Fatalf("got %v, want Failed", res.Status)
	}
}

func TestCoverageParseFailureIsError(t *testing.T) {
	r := &Runner{}
	res := r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckCoverage, Command: "echo", Args: []string{"not json"},
		JSONPath: "x", Operator: ">=", Value: floatPtr(1),
	})
	if res.Status != corev1alpha1.CheckStatusError {
		t.Fatalf("got %v, want Error", res.Status)
	}
}

type fakeBus struct {
	sub *fakeSub
}

type fakeSub struct {
	ch chan bus.Message
}

func (f *fakeSub) Channel() <-chan bus.Message { return f.ch }
func (f *fakeSub) Close() error                { return nil }

func (f *fakeBus) Publish(ctx context.Context, subject string, body []byte) error { return nil }
func (f *fakeBus) Subscribe(ctx context.Context, subject string) (bus.Subscription, error) {
	return f.sub, nil
}

func TestNatsResponsePassed(t *testing.T) {
	sub := &fakeSub{ch: make(chan bus.Message, 1)}
	sub.ch <- bus.Message{Subject: "x", Body: []byte("tests passed")}
	r := &Runner{Bus: &fakeBus{sub: sub}}

	res := r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckNatsResponse, Subject: "cell.default.worker.inbox",
		SuccessPattern: "passed", TimeoutSeconds: 2,
	})
	if res.Status != corev1alpha1.CheckStatusPassed {
		t.Fatalf("got %v, want Passed: %s", res.Status, res.Output)
	}
}

func TestNatsResponseTimeout(t *testing.T) {
	sub := &fakeSub{ch: make(chan bus.Message)}
	r := &Runner{Bus: &fakeBus{sub: sub}}

	start := time.Now()
	res := r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckNatsResponse, Subject: "cell.default.worker.inbox",
		TimeoutSeconds: 1,
	})
	if res.Status != corev1alpha1.CheckStatusFailed {
		t.Fatalf("got %v, want Failed", res.Status)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("timeout took too long")
	}
}

func TestNatsResponseNoBusIsError(t *testing.T) {
	r := &Runner{}
	res := r.Run(context.Background(), t.TempDir(), corev1alpha1.CompletionCheck{
		Kind: corev1alpha1.CheckNatsResponse, Subject: "x",
	})
	if res.Status != corev1alpha1.CheckStatusError {
		t.Fatalf("got %v, want Error", res.Status)
	}
}
