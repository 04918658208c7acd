/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
	"github.com/kais-io/kais/internal/bus"
	"github.com/kais-io/kais/internal/checks"
	"github.com/kais-io/kais/internal/durparse"
)

// TerminalNotifier is the slice of spawnapi.SlackNotifier the reconciler
// depends on, kept as an interface here so this package doesn't need to
// import the HTTP-facing spawnapi package.
type TerminalNotifier interface {
	NotifyMissionTerminal(namespace, name, phase, message string) error
}

// StreamPublisher is the slice of spawnapi.Hub the reconciler depends on, for
// pushing phase transitions to connected /watch clients.
type StreamPublisher interface {
	Publish(kind, namespace, name, eventType, phase string)
}

// MissionReconciler drives a Mission through its attempt state machine:
// publish the entrypoint message, evaluate completion checks, and retry or
// terminate according to the attempt and budget ceilings.
type MissionReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Bus      bus.Bus
	Checks   *checks.Runner

	// WorkspaceRoot is the local mount point under which per-formation and
	// per-cell workspace volumes are available to the check runner.
	WorkspaceRoot string

	// Notifier, if set, is told about Succeeded/Failed transitions so an
	// operator can be paged without polling Mission status.
	Notifier TerminalNotifier

	// Stream, if set, receives every phase transition for the /watch console.
	Stream StreamPublisher
}

// +kubebuilder:rbac:groups=kais.io,resources=missions,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=kais.io,resources=missions/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=kais.io,resources=formations,verbs=get;list;watch
// +kubebuilder:rbac:groups=kais.io,resources=cells,verbs=get;list;watch

func (r *MissionReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	mission := &corev1alpha1.Mission{}
	if err := r.Get(ctx, req.NamespacedName, mission); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	// Terminal phases are no-ops; an explicit abort lands here directly since
	// it's just an external write of phase=Failed.
	if mission.Status.Phase == corev1alpha1.MissionPhaseSucceeded || mission.Status.Phase == corev1alpha1.MissionPhaseFailed {
		return ctrl.Result{}, nil
	}

	cost, err := r.computeCost(ctx, mission)
	if err == nil {
		prev, _ := strconv.ParseFloat(mission.Status.Cost, 64)
		if cost > prev {
			mission.Status.Cost = strconv.FormatFloat(cost, 'f', -1, 64)
		}
	}

	if mission.Status.Phase == "" || mission.Status.Phase == corev1alpha1.MissionPhasePending {
		return r.startOrRetry(ctx, mission)
	}

	return r.advanceRunning(ctx, mission, logger)
}

// startOrRetry handles both the initial Pending → Running transition and an
// explicit external retry (phase reset to Pending with Attempt preserved).
func (r *MissionReconciler) startOrRetry(ctx context.Context, mission *corev1alpha1.Mission) (ctrl.Result, error) {
	now := metav1.Now()
	mission.Status.StartedAt = &now
	mission.Status.Phase = corev1alpha1.MissionPhaseRunning
	mission.Status.Message = ""
	mission.Status.Results = nil
	if mission.Status.Attempt == 0 {
		mission.Status.Attempt = 1
	}
	if mission.Spec.Completion.Review != nil && mission.Spec.Completion.Review.Enabled {
		mission.Status.Review = corev1alpha1.ReviewPending
	}

	if err := r.publishEntrypoint(ctx, mission, mission.Spec.Entrypoint.Message); err != nil {
		return ctrl.Result{}, fmt.Errorf("publishing entrypoint message: %w", err)
	}
	r.Recorder.Event(mission, corev1.EventTypeNormal, "MissionStarted", "published entrypoint message to "+mission.Spec.Entrypoint.Cell)
	r.publish(mission, "updated")

	return ctrl.Result{}, r.Status().Update(ctx, mission)
}

func (r *MissionReconciler) advanceRunning(ctx context.Context, mission *corev1alpha1.Mission, logger interface {
	Info(string, ...interface{})
}) (ctrl.Result, error) {
	timeout, err := durparse.Parse(mission.Spec.Completion.Timeout)
	if err != nil {
		mission.Status.Phase = corev1alpha1.MissionPhaseFailed
		mission.Status.Message = "invalid completion timeout: " + err.Error()
		r.notifyTerminal(mission, string(corev1alpha1.MissionPhaseFailed), mission.Status.Message)
		r.publish(mission, "updated")
		return ctrl.Result{}, r.Status().Update(ctx, mission)
	}

	var remaining time.Duration
	if mission.Status.StartedAt != nil {
		elapsed := time.Since(mission.Status.StartedAt.Time)
		if elapsed > timeout {
			return r.failAttempt(ctx, mission, nil, "Timeout")
		}
		remaining = timeout - elapsed
	}

	workspace := r.resolveWorkspace(mission)
	results := r.Checks.RunAll(ctx, workspace, mission.Spec.Completion.Checks)
	mission.Status.Results = results

	switch {
	case checks.AllPassed(results):
		return r.handleAllPassed(ctx, mission, results, remaining)
	case checks.AnyFailedOrErrored(results):
		return r.failAttempt(ctx, mission, results, "CheckFailed")
	default:
		// All Pending with nothing Failed/Errored: still settling, requeue
		// before the mission's completion.timeout can elapse unobserved.
		logger.Info("mission checks pending", "name", mission.Name)
		if err := r.Status().Update(ctx, mission); err != nil {
			return ctrl.Result{}, err
		}
		return ctrl.Result{RequeueAfter: pollInterval(remaining)}, nil
	}
}

func (r *MissionReconciler) handleAllPassed(ctx context.Context, mission *corev1alpha1.Mission, results []corev1alpha1.CheckResult, remaining time.Duration) (ctrl.Result, error) {
	if mission.Spec.Completion.Review == nil || !mission.Spec.Completion.Review.Enabled {
		return r.succeed(ctx, mission)
	}

	switch mission.Status.Review {
	case corev1alpha1.ReviewApproved:
		return r.succeed(ctx, mission)
	case corev1alpha1.ReviewRejected:
		return r.failAttempt(ctx, mission, results, "Rejected")
	default:
		mission.Status.Review = corev1alpha1.ReviewPending
		r.Recorder.Event(mission, corev1.EventTypeNormal, "AwaitingReview", "checks passed, awaiting review decision")
		if err := r.Status().Update(ctx, mission); err != nil {
			return ctrl.Result{}, err
		}
		// A review decision may never land; poll so a pending review past
		// completion.timeout is still caught as an attempt failure.
		return ctrl.Result{RequeueAfter: pollInterval(remaining)}, nil
	}
}

// pollInterval caps in-flight polling at 5s, matching the teacher's steady-
// state poll cadence, but never polls past the mission's own deadline.
func pollInterval(remaining time.Duration) time.Duration {
	const maxPoll = 5 * time.Second
	if remaining <= 0 {
		return maxPoll
	}
	if remaining < maxPoll {
		return remaining
	}
	return maxPoll
}

func (r *MissionReconciler) succeed(ctx context.Context, mission *corev1alpha1.Mission) (ctrl.Result, error) {
	mission.Status.Phase = corev1alpha1.MissionPhaseSucceeded
	mission.Status.Message = ""
	r.Recorder.Event(mission, corev1.EventTypeNormal, "MissionSucceeded", "all completion checks passed")
	missionAttemptsTotal.WithLabelValues(mission.Namespace, "succeeded").Inc()
	r.recordTerminalMetrics(mission)
	r.notifyTerminal(mission, string(corev1alpha1.MissionPhaseSucceeded), "")
	r.publish(mission, "updated")
	return ctrl.Result{}, r.Status().Update(ctx, mission)
}

// failAttempt records the current attempt in history and either retries
// (re-publishing the entrypoint with a synthesized failure summary) or
// terminates the mission as Failed once the attempt or budget ceiling is hit.
func (r *MissionReconciler) failAttempt(ctx context.Context, mission *corev1alpha1.Mission, results []corev1alpha1.CheckResult, reason string) (ctrl.Result, error) {
	mission.Status.History = append(mission.Status.History, corev1alpha1.AttemptRecord{
		Attempt: mission.Status.Attempt,
		Results: results,
		Reason:  reason,
		EndedAt: metav1.Now(),
	})
	mission.Status.Attempt++

	budgetExceeded := r.budgetExceeded(mission)
	if mission.Status.Attempt > mission.Spec.Completion.MaxAttempts || budgetExceeded {
		mission.Status.Phase = corev1alpha1.MissionPhaseFailed
		if budgetExceeded {
			mission.Status.Message = "budget exceeded"
		} else {
			mission.Status.Message = reason
		}
		r.Recorder.Event(mission, corev1.EventTypeWarning, "MissionFailed", mission.Status.Message)
		missionAttemptsTotal.WithLabelValues(mission.Namespace, "failed").Inc()
		r.recordTerminalMetrics(mission)
		r.notifyTerminal(mission, string(corev1alpha1.MissionPhaseFailed), mission.Status.Message)
		r.publish(mission, "updated")
		return ctrl.Result{}, r.Status().Update(ctx, mission)
	}

	now := metav1.Now()
	mission.Status.StartedAt = &now
	mission.Status.Review = ""
	retryMsg := synthesizeRetryMessage(mission.Spec.Entrypoint.Message, reason, results)
	if err := r.publishEntrypoint(ctx, mission, retryMsg); err != nil {
		return ctrl.Result{}, fmt.Errorf("publishing retry message: %w", err)
	}
	r.Recorder.Event(mission, corev1.EventTypeNormal, "MissionRetrying", fmt.Sprintf("attempt %d after %s", mission.Status.Attempt, reason))
	missionAttemptsTotal.WithLabelValues(mission.Namespace, "retried").Inc()
	return ctrl.Result{}, r.Status().Update(ctx, mission)
}

func (r *MissionReconciler) budgetExceeded(mission *corev1alpha1.Mission) bool {
	if mission.Spec.Budget == nil || mission.Spec.Budget.MaxCost == "" {
		return false
	}
	budgetCap, err := strconv.ParseFloat(mission.Spec.Budget.MaxCost, 64)
	if err != nil {
		return false
	}
	cost, err := strconv.ParseFloat(mission.Status.Cost, 64)
	if err != nil {
		return false
	}
	return cost >= budgetCap
}

func (r *MissionReconciler) recordTerminalMetrics(mission *corev1alpha1.Mission) {
	if mission.Status.StartedAt != nil {
		missionDuration.Observe(time.Since(mission.Status.StartedAt.Time).Seconds())
	}
	if cost, err := strconv.ParseFloat(mission.Status.Cost, 64); err == nil {
		missionCostUsd.Observe(cost)
	}
}

// publish forwards the Mission's current phase to the configured Stream; it
// does nothing when Stream is nil.
func (r *MissionReconciler) publish(mission *corev1alpha1.Mission, eventType string) {
	if r.Stream == nil {
		return
	}
	r.Stream.Publish("Mission", mission.Namespace, mission.Name, eventType, string(mission.Status.Phase))
}

// notifyTerminal reports a Mission's terminal transition to the configured
// Notifier, swallowing errors: a failed Slack post must never block status
// reconciliation.
func (r *MissionReconciler) notifyTerminal(mission *corev1alpha1.Mission, phase, message string) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.NotifyMissionTerminal(mission.Namespace, mission.Name, phase, message); err != nil {
		log.Log.WithName("mission-controller").Error(err, "posting terminal-phase notification")
	}
}

func synthesizeRetryMessage(original, reason string, results []corev1alpha1.CheckResult) string {
	var b strings.Builder
	b.WriteString(original)
	b.WriteString("\n\nPrevious attempt failed (")
	b.WriteString(reason)
	b.WriteString("):\n")
	for _, res := range results {
		fmt.Fprintf(&b, "- %s: %s\n", res.Name, res.Status)
	}
	return b.String()
}

func (r *MissionReconciler) publishEntrypoint(ctx context.Context, mission *corev1alpha1.Mission, message string) error {
	if r.Bus == nil {
		return nil
	}
	subject := corev1alpha1.InboxSubject(mission.Namespace, mission.Spec.Entrypoint.Cell)
	return r.Bus.Publish(ctx, subject, []byte(message))
}

func (r *MissionReconciler) resolveWorkspace(mission *corev1alpha1.Mission) string {
	root := r.WorkspaceRoot
	if root == "" {
		root = "/workspaces"
	}
	if mission.Spec.FormationRef != nil {
		return root + "/" + mission.Spec.FormationRef.Name
	}
	if mission.Spec.CellRef != nil {
		return root + "/cell-" + mission.Spec.CellRef.Name
	}
	return root
}

func (r *MissionReconciler) computeCost(ctx context.Context, mission *corev1alpha1.Mission) (float64, error) {
	if mission.Spec.FormationRef != nil {
		formation := &corev1alpha1.Formation{}
		if err := r.Get(ctx, types.NamespacedName{Namespace: mission.Namespace, Name: mission.Spec.FormationRef.Name}, formation); err != nil {
			return 0, err
		}
		return strconv.ParseFloat(formation.Status.TotalCost, 64)
	}
	if mission.Spec.CellRef != nil {
		cell := &corev1alpha1.Cell{}
		if err := r.Get(ctx, types.NamespacedName{Namespace: mission.Namespace, Name: mission.Spec.CellRef.Name}, cell); err != nil {
			return 0, err
		}
		return strconv.ParseFloat(cell.Status.TotalCost, 64)
	}
	return 0, fmt.Errorf("mission has neither formationRef nor cellRef")
}

// SetupWithManager wires the reconciler into the manager.
func (r *MissionReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1alpha1.Mission{}).
		Complete(r)
}
