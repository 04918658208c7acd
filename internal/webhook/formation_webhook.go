/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package webhook

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
)

var formationlog = logf.Log.WithName("formation-webhook")

// FormationValidator validates Formation resources.
type FormationValidator struct{}

// ValidateFormation performs cross-field validation on a Formation spec,
// chiefly the topology kind's required companion fields (§4.2).
func ValidateFormation(formation *corev1alpha1.Formation) field.ErrorList {
	var allErrs field.ErrorList
	specPath := field.NewPath("spec")

	templateNames := make(map[string]bool, len(formation.Spec.Cells))
	for i, tpl := range formation.Spec.Cells {
		path := specPath.Child("cells").Index(i).Child("templateName")
		if tpl.TemplateName == "" {
			allErrs = append(allErrs, field.Required(path, "templateName is required"))
			continue
		}
		if templateNames[tpl.TemplateName] {
			allErrs = append(allErrs, field.Duplicate(path, tpl.TemplateName))
		}
		templateNames[tpl.TemplateName] = true
		if tpl.Replicas < 0 {
			allErrs = append(allErrs, field.Invalid(specPath.Child("cells").Index(i).Child("replicas"), tpl.Replicas, "must be >= 0"))
		}
	}

	topoPath := specPath.Child("topology")
	switch formation.Spec.Topology.Kind {
	case corev1alpha1.TopologyHierarchy:
		if formation.Spec.Topology.Root == "" {
			allErrs = append(allErrs, field.Required(topoPath.Child("root"), "root is required for hierarchy topology"))
		} else if !templateNames[formation.Spec.Topology.Root] {
			allErrs = append(allErrs, field.Invalid(topoPath.Child("root"), formation.Spec.Topology.Root, "must name a declared cell template"))
		}
	case corev1alpha1.TopologyStar:
		if formation.Spec.Topology.Hub == "" {
			allErrs = append(allErrs, field.Required(topoPath.Child("hub"), "hub is required for star topology"))
		} else if !templateNames[formation.Spec.Topology.Hub] {
			allErrs = append(allErrs, field.Invalid(topoPath.Child("hub"), formation.Spec.Topology.Hub, "must name a declared cell template"))
		}
	case corev1alpha1.TopologyStigmergy:
		if formation.Spec.Topology.Blackboard == nil {
			allErrs = append(allErrs, field.Required(topoPath.Child("blackboard"), "blackboard is required for stigmergy topology"))
		}
	case corev1alpha1.TopologyCustom:
		if len(formation.Spec.Topology.Routes) == 0 {
			allErrs = append(allErrs, field.Required(topoPath.Child("routes"), "routes is required (non-empty) for custom topology"))
		}
	}

	if b := formation.Spec.Budget; b != nil {
		allErrs = append(allErrs, validateDecimalField(specPath.Child("budget", "maxTotalCost"), b.MaxTotalCost)...)
		allErrs = append(allErrs, validateDecimalField(specPath.Child("budget", "maxCostPerHour"), b.MaxCostPerHour)...)
		allErrs = append(allErrs, validateDecimalField(specPath.Child("budget", "allocation"), b.Allocation)...)
	}

	return allErrs
}

// +kubebuilder:webhook:path=/validate-kais-io-v1-formation,mutating=false,failurePolicy=fail,sideEffects=None,groups=kais.io,resources=formations,verbs=create;update,versions=v1,name=vformation.kb.io,admissionReviewVersions=v1

// ValidateCreate implements webhook.CustomValidator.
func (v *FormationValidator) ValidateCreate(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	formation, ok := obj.(*corev1alpha1.Formation)
	if !ok {
		return nil, fmt.Errorf("expected Formation, got %T", obj)
	}
	formationlog.Info("validate create", "name", formation.Name)
	return nil, errListToErr(ValidateFormation(formation))
}

// ValidateUpdate implements webhook.CustomValidator.
func (v *FormationValidator) ValidateUpdate(ctx context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	formation, ok := newObj.(*corev1alpha1.Formation)
	if !ok {
		return nil, fmt.Errorf("expected Formation, got %T", newObj)
	}
	formationlog.Info("validate update", "name", formation.Name)
	return nil, errListToErr(ValidateFormation(formation))
}

// ValidateDelete implements webhook.CustomValidator.
func (v *FormationValidator) ValidateDelete(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

// SetupWebhookWithManager registers the validating webhook with the manager.
func (v *FormationValidator) SetupWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(&corev1alpha1.Formation{}).
		WithValidator(v).
		Complete()
}
