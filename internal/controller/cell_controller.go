/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	"go.opentelemetry.io/otel/attribute"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/handler"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
	"github.com/kais-io/kais/internal/config"
)

const cellReconcileDeadline = 30 * time.Second

// CellReconciler reconciles a Cell object, driving its backing pod.
type CellReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Defaults *config.Store

	// DefaultImage, when set, takes precedence over the defaults ConfigMap's
	// image; when empty, the ConfigMap's image is used.
	DefaultImage string
	// StuckStaleAfterMinutes is the number of minutes since lastActive after
	// which a Running cell is considered stuck; 0 disables the check.
	StuckStaleAfterMinutes int
}

// +kubebuilder:rbac:groups=kais.io,resources=cells,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=kais.io,resources=cells/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=kais.io,resources=cells/finalizers,verbs=update
// +kubebuilder:rbac:groups="",resources=pods,verbs=get;list;watch;create;update;patch;delete

func (r *CellReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, cellReconcileDeadline)
	defer cancel()

	cell := &corev1alpha1.Cell{}
	if err := r.Get(ctx, req.NamespacedName, cell); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	defaults := r.Defaults.GetDefaults(ctx)
	image := r.DefaultImage
	if image == "" {
		image = defaults.DefaultImage
	}

	pod := &corev1.Pod{}
	err := r.Get(ctx, types.NamespacedName{Namespace: cell.Namespace, Name: podName(cell)}, pod)
	switch {
	case errors.IsNotFound(err):
		return r.createPod(ctx, cell, image)
	case err != nil:
		return ctrl.Result{}, err
	}

	if pod.Status.Phase == corev1.PodFailed || pod.Status.Phase == corev1.PodUnknown {
		if delErr := r.Delete(ctx, pod); delErr != nil && !errors.IsNotFound(delErr) {
			return ctrl.Result{}, delErr
		}
		cell.Status.Phase = corev1alpha1.CellPhaseFailed
		cell.Status.Message = fmt.Sprintf("pod entered phase %s", pod.Status.Phase)
		r.Recorder.Event(cell, corev1.EventTypeWarning, "CellFailed", cell.Status.Message)
		return ctrl.Result{}, r.Status().Update(ctx, cell)
	}

	specJSON, err := json.Marshal(cell.Spec)
	if err != nil {
		return ctrl.Result{}, err
	}
	embedded := embeddedSpecJSON(pod)
	if embedded != "" && embedded != string(specJSON) {
		if delErr := r.Delete(ctx, pod); delErr != nil && !errors.IsNotFound(delErr) {
			return ctrl.Result{}, delErr
		}
		r.Recorder.Event(cell, corev1.EventTypeNormal, "SpecChanged", "pod spec drift detected, recreating")
		return ctrl.Result{}, nil
	}

	return r.syncStatus(ctx, cell, pod, defaults)
}

func (r *CellReconciler) createPod(ctx context.Context, cell *corev1alpha1.Cell, image string) (ctrl.Result, error) {
	pod, err := buildPod(cell, image)
	if err != nil {
		return ctrl.Result{}, err
	}
	if err := controllerutil.SetControllerReference(cell, pod, r.Scheme); err != nil {
		return ctrl.Result{}, err
	}
	if err := r.Create(ctx, pod); err != nil {
		if errors.IsAlreadyExists(err) {
			return ctrl.Result{Requeue: true}, nil
		}
		return ctrl.Result{}, err
	}

	cell.Status.Phase = corev1alpha1.CellPhasePending
	cell.Status.PodName = pod.Name
	if cell.Status.TotalCost == "" {
		cell.Status.TotalCost = "0"
	}
	cellsTotal.WithLabelValues(cell.Namespace).Inc()
	emitEvent(ctx, "CellCreated", attribute.String("cell.name", cell.Name), attribute.String("pod.name", pod.Name))
	r.Recorder.Event(cell, corev1.EventTypeNormal, "CellCreated", "created backing pod "+pod.Name)
	r.Recorder.Event(cell, corev1.EventTypeNormal, "PodCreated", pod.Name)
	return ctrl.Result{}, r.Status().Update(ctx, cell)
}

func (r *CellReconciler) syncStatus(ctx context.Context, cell *corev1alpha1.Cell, pod *corev1.Pod, defaults config.ClusterDefaults) (ctrl.Result, error) {
	phase := mapPodPhase(pod.Status.Phase)

	if phase == corev1alpha1.CellPhaseRunning && r.isStuck(cell, defaults) {
		phase = corev1alpha1.CellPhaseFailed
		cell.Status.Message = fmt.Sprintf("stuck: no activity for %dm", r.staleMinutes(defaults))
		r.Recorder.Event(cell, corev1.EventTypeWarning, "CellStuck", cell.Status.Message)
	} else if cell.Status.Phase != phase {
		cell.Status.Message = ""
	}

	cell.Status.Phase = phase
	cell.Status.PodName = pod.Name
	if cell.Status.TotalCost == "" {
		cell.Status.TotalCost = "0"
	}
	return ctrl.Result{}, r.Status().Update(ctx, cell)
}

// isStuck implements the stuck-cell detection fold-in to C3's status step:
// a Running cell whose lastActive is older than the configured threshold is
// treated as failed rather than silently running forever.
func (r *CellReconciler) isStuck(cell *corev1alpha1.Cell, defaults config.ClusterDefaults) bool {
	minutes := r.staleMinutes(defaults)
	if minutes <= 0 || cell.Status.LastActive == nil {
		return false
	}
	return time.Since(cell.Status.LastActive.Time) > time.Duration(minutes)*time.Minute
}

func (r *CellReconciler) staleMinutes(defaults config.ClusterDefaults) int {
	if r.StuckStaleAfterMinutes > 0 {
		return r.StuckStaleAfterMinutes
	}
	return defaults.StuckStaleAfterMinutes
}

func mapPodPhase(phase corev1.PodPhase) corev1alpha1.CellPhase {
	switch phase {
	case corev1.PodPending:
		return corev1alpha1.CellPhasePending
	case corev1.PodRunning:
		return corev1alpha1.CellPhaseRunning
	case corev1.PodSucceeded:
		return corev1alpha1.CellPhaseCompleted
	case corev1.PodFailed:
		return corev1alpha1.CellPhaseFailed
	default:
		return corev1alpha1.CellPhasePending
	}
}

func embeddedSpecJSON(pod *corev1.Pod) string {
	for _, c := range pod.Spec.Containers {
		for _, e := range c.Env {
			if e.Name == corev1alpha1.CellSpecEnvVar {
				return e.Value
			}
		}
	}
	return ""
}

// SetupWithManager wires the reconciler into the manager, triggering on both
// Cell changes and pod-watch events for any pod carrying the cell label.
func (r *CellReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1alpha1.Cell{}).
		Owns(&corev1.Pod{}).
		Watches(
			&corev1.Pod{},
			handler.EnqueueRequestsFromMapFunc(r.podToCell),
		).
		Complete(r)
}

func (r *CellReconciler) podToCell(ctx context.Context, obj client.Object) []ctrl.Request {
	pod, ok := obj.(*corev1.Pod)
	if !ok {
		return nil
	}
	name, ok := pod.Labels[corev1alpha1.CellLabelName]
	if !ok {
		return nil
	}
	return []ctrl.Request{{NamespacedName: types.NamespacedName{Namespace: pod.Namespace, Name: name}}}
}
