/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
)

func parseQuantity(value, label string) (resource.Quantity, error) {
	qty, err := resource.ParseQuantity(value)
	if err != nil {
		return resource.Quantity{}, fmt.Errorf("invalid %s %q: %w", label, value, err)
	}
	return qty, nil
}

// buildResources constructs pod resource requirements from the cell's
// resource budget (CPU/memory limits only; token and dollar budgets are
// enforced by the ledger, not the scheduler).
func buildResources(res *corev1alpha1.CellResources) (corev1.ResourceRequirements, error) {
	out := corev1.ResourceRequirements{}
	if res == nil {
		return out, nil
	}
	if res.CPULimit != "" || res.MemoryLimit != "" {
		out.Limits = corev1.ResourceList{}
	}
	if res.CPULimit != "" {
		qty, err := parseQuantity(res.CPULimit, "CPU limit")
		if err != nil {
			return out, err
		}
		out.Limits[corev1.ResourceCPU] = qty
	}
	if res.MemoryLimit != "" {
		qty, err := parseQuantity(res.MemoryLimit, "memory limit")
		if err != nil {
			return out, err
		}
		out.Limits[corev1.ResourceMemory] = qty
	}
	return out, nil
}

// buildPod constructs the pod spec that hosts a cell's agent runtime. The
// full CellSpec is marshaled into the CELL_SPEC env var rather than mounted
// via a shell-interpolated command, matching how the runtime is handed its
// configuration without risking argument-injection through untrusted prompt
// text.
func buildPod(cell *corev1alpha1.Cell, image string) (*corev1.Pod, error) {
	specJSON, err := json.Marshal(cell.Spec)
	if err != nil {
		return nil, fmt.Errorf("marshaling cell spec: %w", err)
	}

	resources, err := buildResources(cell.Spec.Resources)
	if err != nil {
		return nil, fmt.Errorf("invalid resource spec: %w", err)
	}

	env := []corev1.EnvVar{
		{Name: corev1alpha1.CellSpecEnvVar, Value: string(specJSON)},
		{Name: "CELL_NAME", Value: cell.Name},
		{Name: "CELL_NAMESPACE", Value: cell.Namespace},
		{Name: "CELL_MIND_PROVIDER", Value: cell.Spec.Mind.Provider},
		{Name: "CELL_MIND_MODEL", Value: cell.Spec.Mind.Model},
	}

	if cell.Spec.Mind.APIKeyRef != nil {
		env = append(env, corev1.EnvVar{
			Name: "CELL_MIND_API_KEY",
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: cell.Spec.Mind.APIKeyRef.SecretName},
					Key:                  cell.Spec.Mind.APIKeyRef.Key,
				},
			},
		})
	}

	labels := map[string]string{
		"app.kubernetes.io/name":       "kais-cell",
		"app.kubernetes.io/managed-by": "kais-operator",
		corev1alpha1.CellLabelName:     cell.Name,
		corev1alpha1.CellLabelRole:     "cell",
	}
	if cell.Spec.FormationRef != nil {
		labels[corev1alpha1.FormationLabelName] = cell.Spec.FormationRef.Name
	}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      podName(cell),
			Namespace: cell.Namespace,
			Labels:    labels,
		},
		Spec: corev1.PodSpec{
			RestartPolicy:      corev1.RestartPolicyNever,
			ServiceAccountName: "kais-cell-runtime",
			Containers: []corev1.Container{
				{
					Name:      "mind",
					Image:     image,
					Env:       env,
					Resources: resources,
				},
			},
		},
	}
	return pod, nil
}

func podName(cell *corev1alpha1.Cell) string {
	return "cell-" + cell.Name
}
