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
	"github.com/kais-io/kais/internal/durparse"
)

var missionlog = logf.Log.WithName("mission-webhook")

// MissionValidator validates Mission resources.
type MissionValidator struct{}

// ValidateMission performs cross-field validation on a Mission spec.
func ValidateMission(mission *corev1alpha1.Mission) field.ErrorList {
	var allErrs field.ErrorList
	specPath := field.NewPath("spec")

	if mission.Spec.FormationRef == nil && mission.Spec.CellRef == nil {
		allErrs = append(allErrs, field.Required(specPath, "at least one of formationRef or cellRef must be set"))
	}

	if mission.Spec.Entrypoint.Cell == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("entrypoint", "cell"), "cell is required"))
	}

	completionPath := specPath.Child("completion")
	if len(mission.Spec.Completion.Checks) == 0 {
		allErrs = append(allErrs, field.Required(completionPath.Child("checks"), "at least one check is required"))
	}
	for i, check := range mission.Spec.Completion.Checks {
		allErrs = append(allErrs, validateCheck(completionPath.Child("checks").Index(i), check)...)
	}
	if mission.Spec.Completion.MaxAttempts < 1 {
		allErrs = append(allErrs, field.Invalid(completionPath.Child("maxAttempts"), mission.Spec.Completion.MaxAttempts, "must be >= 1"))
	}
	if _, err := durparse.Parse(mission.Spec.Completion.Timeout); err != nil {
		allErrs = append(allErrs, field.Invalid(completionPath.Child("timeout"), mission.Spec.Completion.Timeout, err.Error()))
	}

	if b := mission.Spec.Budget; b != nil {
		allErrs = append(allErrs, validateDecimalField(specPath.Child("budget", "maxCost"), b.MaxCost)...)
	}

	return allErrs
}

func validateCheck(path *field.Path, check corev1alpha1.CompletionCheck) field.ErrorList {
	var allErrs field.ErrorList
	if check.Name == "" {
		allErrs = append(allErrs, field.Required(path.Child("name"), "name is required"))
	}
	switch check.Kind {
	case corev1alpha1.CheckFileExists:
		if len(check.Paths) == 0 {
			allErrs = append(allErrs, field.Required(path.Child("paths"), "fileExists requires at least one path"))
		}
	case corev1alpha1.CheckCommand:
		if check.Command == "" {
			allErrs = append(allErrs, field.Required(path.Child("command"), "command is required"))
		}
	case corev1alpha1.CheckCoverage:
		if check.Command == "" {
			allErrs = append(allErrs, field.Required(path.Child("command"), "command is required"))
		}
		if check.JSONPath == "" {
			allErrs = append(allErrs, field.Required(path.Child("jsonPath"), "jsonPath is required"))
		}
		if check.Value == nil {
			allErrs = append(allErrs, field.Required(path.Child("value"), "value is required"))
		}
	case corev1alpha1.CheckNatsResponse:
		if check.Subject == "" {
			allErrs = append(allErrs, field.Required(path.Child("subject"), "subject is required"))
		}
	default:
		allErrs = append(allErrs, field.NotSupported(path.Child("kind"), check.Kind, []string{
			string(corev1alpha1.CheckFileExists), string(corev1alpha1.CheckCommand),
			string(corev1alpha1.CheckCoverage), string(corev1alpha1.CheckNatsResponse),
		}))
	}
	return allErrs
}

// +kubebuilder:webhook:path=/validate-kais-io-v1-mission,mutating=false,failurePolicy=fail,sideEffects=None,groups=kais.io,resources=missions,verbs=create;update,versions=v1,name=vmission.kb.io,admissionReviewVersions=v1

// ValidateCreate implements webhook.CustomValidator.
func (v *MissionValidator) ValidateCreate(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	mission, ok := obj.(*corev1alpha1.Mission)
	if !ok {
		return nil, fmt.Errorf("expected Mission, got %T", obj)
	}
	missionlog.Info("validate create", "name", mission.Name)
	return nil, errListToErr(ValidateMission(mission))
}

// ValidateUpdate implements webhook.CustomValidator.
func (v *MissionValidator) ValidateUpdate(ctx context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	mission, ok := newObj.(*corev1alpha1.Mission)
	if !ok {
		return nil, fmt.Errorf("expected Mission, got %T", newObj)
	}
	missionlog.Info("validate update", "name", mission.Name)
	return nil, errListToErr(ValidateMission(mission))
}

// ValidateDelete implements webhook.CustomValidator.
func (v *MissionValidator) ValidateDelete(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

// SetupWebhookWithManager registers the validating webhook with the manager.
func (v *MissionValidator) SetupWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(&corev1alpha1.Mission{}).
		WithValidator(v).
		Complete()
}
