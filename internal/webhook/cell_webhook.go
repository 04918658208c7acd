/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package webhook implements cross-field validating admission webhooks for
// Cell, Formation, and Mission: checks that span multiple fields, which CRD
// schema validation alone cannot express.
package webhook

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
)

var celllog = logf.Log.WithName("cell-webhook")

// CellValidator validates Cell resources.
type CellValidator struct{}

// ValidateCell performs cross-field validation on a Cell spec. Exported for
// unit testing without needing a webhook server.
func ValidateCell(cell *corev1alpha1.Cell) field.ErrorList {
	var allErrs field.ErrorList
	specPath := field.NewPath("spec")

	if cell.Spec.Mind.Provider == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("mind", "provider"), "provider is required"))
	}
	if cell.Spec.Mind.Model == "" {
		allErrs = append(allErrs, field.Required(specPath.Child("mind", "model"), "model is required"))
	}
	if cell.Spec.Mind.Temperature != nil && (*cell.Spec.Mind.Temperature < 0 || *cell.Spec.Mind.Temperature > 2) {
		allErrs = append(allErrs, field.Invalid(specPath.Child("mind", "temperature"), *cell.Spec.Mind.Temperature, "must be between 0 and 2"))
	}

	if res := cell.Spec.Resources; res != nil {
		allErrs = append(allErrs, validateDecimalField(specPath.Child("resources", "maxCostPerHour"), res.MaxCostPerHour)...)
		allErrs = append(allErrs, validateDecimalField(specPath.Child("resources", "maxTotalCost"), res.MaxTotalCost)...)
	}

	return allErrs
}

// validateDecimalField rejects a non-empty dollar-string field that doesn't
// parse as a positive decimal.
func validateDecimalField(path *field.Path, value string) field.ErrorList {
	if value == "" {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return field.ErrorList{field.Invalid(path, value, "must be a valid decimal number")}
	}
	if v <= 0 {
		return field.ErrorList{field.Invalid(path, value, "must be > 0")}
	}
	return nil
}

func errListToErr(errs field.ErrorList) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

// +kubebuilder:webhook:path=/validate-kais-io-v1-cell,mutating=false,failurePolicy=fail,sideEffects=None,groups=kais.io,resources=cells,verbs=create;update,versions=v1,name=vcell.kb.io,admissionReviewVersions=v1

// ValidateCreate implements webhook.CustomValidator.
func (v *CellValidator) ValidateCreate(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	cell, ok := obj.(*corev1alpha1.Cell)
	if !ok {
		return nil, fmt.Errorf("expected Cell, got %T", obj)
	}
	celllog.Info("validate create", "name", cell.Name)
	return nil, errListToErr(ValidateCell(cell))
}

// ValidateUpdate implements webhook.CustomValidator.
func (v *CellValidator) ValidateUpdate(ctx context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	cell, ok := newObj.(*corev1alpha1.Cell)
	if !ok {
		return nil, fmt.Errorf("expected Cell, got %T", newObj)
	}
	celllog.Info("validate update", "name", cell.Name)
	return nil, errListToErr(ValidateCell(cell))
}

// ValidateDelete implements webhook.CustomValidator.
func (v *CellValidator) ValidateDelete(ctx context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

// SetupWebhookWithManager registers the validating webhook with the manager.
func (v *CellValidator) SetupWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(&corev1alpha1.Cell{}).
		WithValidator(v).
		Complete()
}
