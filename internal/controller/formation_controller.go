/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
	"github.com/kais-io/kais/internal/config"
	"github.com/kais-io/kais/internal/topology"
)

const formationReconcileDeadline = 30 * time.Second

// FormationReconciler reconciles a Formation object: expands templates into
// child Cells, publishes the topology route table, and enforces the
// aggregate budget.
type FormationReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Defaults *config.Store
}

// +kubebuilder:rbac:groups=kais.io,resources=formations,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=kais.io,resources=formations/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=kais.io,resources=cells,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;create;update;patch
// +kubebuilder:rbac:groups="",resources=persistentvolumeclaims,verbs=get;list;watch;create

func (r *FormationReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, formationReconcileDeadline)
	defer cancel()
	logger := log.FromContext(ctx)

	formation := &corev1alpha1.Formation{}
	if err := r.Get(ctx, req.NamespacedName, formation); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if err := r.ensureWorkspacePVC(ctx, formation); err != nil {
		return ctrl.Result{}, fmt.Errorf("ensuring workspace PVC: %w", err)
	}

	desired := topology.ExpandTemplates(formation.Spec.Cells)
	specByTemplate := make(map[string]corev1alpha1.CellSpec, len(formation.Spec.Cells))
	for _, tpl := range formation.Spec.Cells {
		specByTemplate[tpl.TemplateName] = tpl.CellSpec
	}

	existing := &corev1alpha1.CellList{}
	if err := r.List(ctx, existing, client.InNamespace(formation.Namespace),
		client.MatchingLabels{corev1alpha1.FormationLabelName: formation.Name}); err != nil {
		return ctrl.Result{}, err
	}
	byName := make(map[string]*corev1alpha1.Cell, len(existing.Items))
	for i := range existing.Items {
		byName[existing.Items[i].Name] = &existing.Items[i]
	}

	maxTotalCells := r.Defaults.GetDefaults(ctx).MaxTotalCells
	var platformCellCount int
	if maxTotalCells > 0 {
		all := &corev1alpha1.CellList{}
		if err := r.List(ctx, all); err != nil {
			return ctrl.Result{}, err
		}
		platformCellCount = len(all.Items)
	}

	desiredNames := make(map[string]bool, len(desired))
	for _, d := range desired {
		desiredNames[d.Name] = true
		templateSpec := specByTemplate[d.Template]
		cell, present := byName[d.Name]
		switch {
		case !present:
			if maxTotalCells > 0 && platformCellCount >= maxTotalCells {
				r.Recorder.Event(formation, corev1.EventTypeWarning, "CellCapReached",
					fmt.Sprintf("platform-wide cell cap of %d reached, deferring creation of %s", maxTotalCells, d.Name))
				continue
			}
			if err := r.createMemberCell(ctx, formation, d, templateSpec); err != nil {
				return ctrl.Result{}, err
			}
			platformCellCount++
		case cell.Status.Phase == corev1alpha1.CellPhaseFailed:
			if err := r.Delete(ctx, cell); err != nil && !errors.IsNotFound(err) {
				return ctrl.Result{}, err
			}
			r.Recorder.Event(formation, corev1.EventTypeWarning, "CellFailed", "recreating failed member "+d.Name)
		default:
			if specDrifted(cell, templateSpec) {
				cell.Spec = templateSpec
				cell.Spec.FormationRef = &corev1alpha1.LocalObjectReference{Name: formation.Name}
				if err := r.Update(ctx, cell); err != nil {
					return ctrl.Result{}, err
				}
			}
		}
	}

	// Scale down: delete any member not in the desired set. Highest-indexed
	// replicas are deleted first within a template: names are ordered by
	// descending length, then descending name, so "worker-10" precedes
	// "worker-9".
	var toDelete []string
	for name := range byName {
		if !desiredNames[name] {
			toDelete = append(toDelete, name)
		}
	}
	sort.Slice(toDelete, func(i, j int) bool {
		if len(toDelete[i]) != len(toDelete[j]) {
			return len(toDelete[i]) > len(toDelete[j])
		}
		return toDelete[i] > toDelete[j]
	})
	for _, name := range toDelete {
		if err := r.Delete(ctx, byName[name]); err != nil && !errors.IsNotFound(err) {
			return ctrl.Result{}, err
		}
		r.Recorder.Event(formation, corev1.EventTypeNormal, "ScaleDown", "removed "+name)
	}

	routes, err := topology.Generate(formation.Spec.Topology, formation.Spec.Cells)
	if err != nil {
		return ctrl.Result{}, fmt.Errorf("generating topology: %w", err)
	}
	if err := r.publishRoutes(ctx, formation, routes); err != nil {
		return ctrl.Result{}, fmt.Errorf("publishing topology configmap: %w", err)
	}

	// Re-read member cells post-mutation to aggregate status.
	members := &corev1alpha1.CellList{}
	if err := r.List(ctx, members, client.InNamespace(formation.Namespace),
		client.MatchingLabels{corev1alpha1.FormationLabelName: formation.Name}); err != nil {
		return ctrl.Result{}, err
	}

	logger.Info("reconciled formation", "name", formation.Name, "members", len(members.Items))
	return ctrl.Result{}, r.syncStatus(ctx, formation, members.Items, len(desired))
}

func (r *FormationReconciler) ensureWorkspacePVC(ctx context.Context, formation *corev1alpha1.Formation) error {
	name := formation.WorkspacePVCName()
	existing := &corev1.PersistentVolumeClaim{}
	err := r.Get(ctx, types.NamespacedName{Namespace: formation.Namespace, Name: name}, existing)
	if err == nil {
		return nil
	}
	if !errors.IsNotFound(err) {
		return err
	}

	qty, err := resource.ParseQuantity("1Gi")
	if err != nil {
		return err
	}
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: formation.Namespace},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteMany},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: qty},
			},
		},
	}
	if err := controllerutil.SetControllerReference(formation, pvc, r.Scheme); err != nil {
		return err
	}
	return r.Create(ctx, pvc)
}

func (r *FormationReconciler) createMemberCell(ctx context.Context, formation *corev1alpha1.Formation, d topology.ExpandedCell, spec corev1alpha1.CellSpec) error {
	cell := &corev1alpha1.Cell{
		ObjectMeta: metav1.ObjectMeta{
			Name:      d.Name,
			Namespace: formation.Namespace,
			Labels:    map[string]string{corev1alpha1.FormationLabelName: formation.Name},
		},
		Spec: spec,
	}
	cell.Spec.FormationRef = &corev1alpha1.LocalObjectReference{Name: formation.Name}
	if err := controllerutil.SetControllerReference(formation, cell, r.Scheme); err != nil {
		return err
	}
	if err := r.Create(ctx, cell); err != nil {
		if errors.IsAlreadyExists(err) {
			return nil
		}
		return err
	}
	r.Recorder.Event(formation, corev1.EventTypeNormal, "CellCreated", "created member "+d.Name)
	return nil
}

func specDrifted(cell *corev1alpha1.Cell, desired corev1alpha1.CellSpec) bool {
	currentJSON, err := json.Marshal(cell.Spec)
	if err != nil {
		return false
	}
	desiredSpec := desired
	desiredSpec.FormationRef = cell.Spec.FormationRef
	desiredJSON, err := json.Marshal(desiredSpec)
	if err != nil {
		return false
	}
	return string(currentJSON) != string(desiredJSON)
}

func (r *FormationReconciler) publishRoutes(ctx context.Context, formation *corev1alpha1.Formation, routes topology.RouteTable) error {
	data, err := json.Marshal(routes)
	if err != nil {
		return err
	}
	cm := &corev1.ConfigMap{}
	name := formation.TopologyConfigMapName()
	err = r.Get(ctx, types.NamespacedName{Namespace: formation.Namespace, Name: name}, cm)
	if errors.IsNotFound(err) {
		cm = &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: formation.Namespace},
			Data:       map[string]string{"routes.json": string(data)},
		}
		if err := controllerutil.SetControllerReference(formation, cm, r.Scheme); err != nil {
			return err
		}
		return r.Create(ctx, cm)
	}
	if err != nil {
		return err
	}
	if cm.Data["routes.json"] == string(data) {
		return nil
	}
	cm.Data = map[string]string{"routes.json": string(data)}
	return r.Update(ctx, cm)
}

func (r *FormationReconciler) syncStatus(ctx context.Context, formation *corev1alpha1.Formation, members []corev1alpha1.Cell, totalDesired int) error {
	var totalCost float64
	members2 := make([]corev1alpha1.MemberStatus, 0, len(members))
	ready, completed, failed, running := 0, 0, 0, 0
	for _, m := range members {
		cost, _ := strconv.ParseFloat(m.Status.TotalCost, 64)
		totalCost += cost
		members2 = append(members2, corev1alpha1.MemberStatus{Name: m.Name, Phase: m.Status.Phase, Cost: m.Status.TotalCost})
		switch m.Status.Phase {
		case corev1alpha1.CellPhaseRunning:
			ready++
			running++
		case corev1alpha1.CellPhaseCompleted:
			completed++
		case corev1alpha1.CellPhaseFailed:
			failed++
		}
	}
	sort.Slice(members2, func(i, j int) bool { return members2[i].Name < members2[j].Name })

	budgetTripped := false
	if formation.Spec.Budget != nil && formation.Spec.Budget.MaxTotalCost != "" {
		budgetCap, err := strconv.ParseFloat(formation.Spec.Budget.MaxTotalCost, 64)
		if err == nil && totalCost >= budgetCap {
			budgetTripped = true
		}
	}

	if budgetTripped {
		for i := range members {
			if members[i].Status.Phase == corev1alpha1.CellPhaseRunning {
				members[i].Status.Phase = corev1alpha1.CellPhasePaused
				members[i].Status.Message = "Budget exceeded"
				if err := r.Status().Update(ctx, &members[i]); err != nil {
					return err
				}
			}
		}
		formationBudgetExceededTotal.WithLabelValues(formation.Namespace, formation.Name).Inc()
		r.Recorder.Event(formation, corev1.EventTypeWarning, "BudgetExceeded", "formation exceeded its total cost budget")
	}

	formation.Status.TotalCells = totalDesired
	formation.Status.ReadyCells = ready
	formation.Status.TotalCost = strconv.FormatFloat(totalCost, 'f', -1, 64)
	formation.Status.Cells = members2

	switch {
	case budgetTripped:
		formation.Status.Phase = corev1alpha1.FormationPhasePaused
	case len(members) > 0 && completed == len(members):
		formation.Status.Phase = corev1alpha1.FormationPhaseCompleted
	case failed > 0:
		formation.Status.Phase = corev1alpha1.FormationPhaseFailed
	case running > 0:
		formation.Status.Phase = corev1alpha1.FormationPhaseRunning
	default:
		formation.Status.Phase = corev1alpha1.FormationPhasePending
	}

	return r.Status().Update(ctx, formation)
}

// SetupWithManager wires the reconciler into the manager.
func (r *FormationReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1alpha1.Formation{}).
		Owns(&corev1alpha1.Cell{}).
		Owns(&corev1.ConfigMap{}).
		Owns(&corev1.PersistentVolumeClaim{}).
		Complete(r)
}
