/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package checks

import (
	"context"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
)

// RunAll evaluates every check in order and returns one CheckResult per check.
func (r *Runner) RunAll(ctx context.Context, workspace string, checkSpecs []corev1alpha1.CompletionCheck) []corev1alpha1.CheckResult {
	results := make([]corev1alpha1.CheckResult, len(checkSpecs))
	for i, c := range checkSpecs {
		res := r.Run(ctx, workspace, c)
		results[i] = corev1alpha1.CheckResult{Name: c.Name, Status: res.Status, Output: res.Output}
	}
	return results
}

// AllPassed reports whether every result in results has status Passed.
func AllPassed(results []corev1alpha1.CheckResult) bool {
	for _, r := range results {
		if r.Status != corev1alpha1.CheckStatusPassed {
			return false
		}
	}
	return true
}

// AnyFailedOrErrored reports whether any result is Failed or Error.
func AnyFailedOrErrored(results []corev1alpha1.CheckResult) bool {
	for _, r := range results {
		if r.Status == corev1alpha1.CheckStatusFailed || r.Status == corev1alpha1.CheckStatusError {
			return true
		}
	}
	return false
}
