/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package ctlerr classifies errors surfaced by the cluster gateway into the
// kinds reconcilers base their requeue/retry decisions on.
package ctlerr

import (
	"errors"
	"net"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Kind is one of the error kinds named in the control plane's error-handling design.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindConflict          Kind = "Conflict"
	KindForbidden         Kind = "Forbidden"
	KindTransient         Kind = "Transient"
	KindValidation        Kind = "Validation"
	KindBudgetExhausted   Kind = "BudgetExhausted"
	KindProtocolViolation Kind = "ProtocolViolation"
	KindFatal             Kind = "Fatal"
)

// Error wraps an underlying error with a classification and a retry hint.
type Error struct {
	Kind      Kind
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given kind. Retryable defaults by kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err, Retryable: defaultRetryable(kind)}
}

func defaultRetryable(kind Kind) bool {
	switch kind {
	case KindConflict, KindTransient:
		return true
	default:
		return false
	}
}

// Classify inspects a raw error returned by the cluster gateway (client-go /
// controller-runtime) and produces a classified Error. nil in, nil out.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	switch {
	case apierrors.IsNotFound(err):
		return New(KindNotFound, err)
	case apierrors.IsConflict(err):
		return New(KindConflict, err)
	case apierrors.IsForbidden(err) || apierrors.IsUnauthorized(err):
		return New(KindForbidden, err)
	case apierrors.IsInvalid(err) || apierrors.IsBadRequest(err):
		return New(KindValidation, err)
	case apierrors.IsTimeout(err), apierrors.IsServerTimeout(err),
		apierrors.IsServiceUnavailable(err), apierrors.IsTooManyRequests(err):
		return New(KindTransient, err)
	case isNetworkError(err):
		return New(KindTransient, err)
	default:
		return New(KindFatal, err)
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "eof")
}

// IsNotFound reports whether err (or anything it wraps) classifies as NotFound.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsConflict reports whether err classifies as Conflict.
func IsConflict(err error) bool { return hasKind(err, KindConflict) }

// IsRetryable reports whether the reconciler should requeue with backoff.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

func hasKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// BudgetExhausted constructs a BudgetExhausted error with the given reason.
func BudgetExhausted(reason string) *Error {
	return &Error{Kind: KindBudgetExhausted, Err: errors.New(reason), Retryable: false}
}

// Validation constructs a Validation error with the given reason.
func Validation(reason string) *Error {
	return &Error{Kind: KindValidation, Err: errors.New(reason), Retryable: false}
}

// ProtocolViolation constructs a ProtocolViolation error with the given reason.
func ProtocolViolation(reason string) *Error {
	return &Error{Kind: KindProtocolViolation, Err: errors.New(reason), Retryable: false}
}
