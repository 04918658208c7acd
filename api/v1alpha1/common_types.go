/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

// SecretKeyRef references a key in a Kubernetes Secret.
type SecretKeyRef struct {
	// SecretName is the name of the secret.
	// +kubebuilder:validation:Required
	SecretName string `json:"secretName"`

	// Key is the key within the secret.
	// +kubebuilder:validation:Required
	Key string `json:"key"`
}

// LocalObjectReference references another object in the same namespace by name.
type LocalObjectReference struct {
	// Name of the referent.
	// +kubebuilder:validation:Required
	Name string `json:"name"`
}

// MindSpec defines the LLM configuration driving a cell.
type MindSpec struct {
	// Provider identifies the model provider (e.g. anthropic, openai, ollama).
	// +kubebuilder:validation:Required
	Provider string `json:"provider"`

	// Model is the model name (e.g. claude-sonnet-4-20250514).
	// +kubebuilder:validation:Required
	Model string `json:"model"`

	// SystemPrompt seeds the cell's behavior.
	// +kubebuilder:validation:Required
	SystemPrompt string `json:"systemPrompt"`

	// Temperature overrides the provider default sampling temperature.
	// +optional
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens caps output tokens per turn.
	// +optional
	MaxTokens *int `json:"maxTokens,omitempty"`

	// APIKeyRef references the provider credential secret. Not part of the
	// original mind spec fields; supplements them the way a real deployment
	// must source provider credentials from somewhere.
	// +optional
	APIKeyRef *SecretKeyRef `json:"apiKeyRef,omitempty"`
}

// CellResources bounds a cell's per-turn and lifetime spend, and its pod footprint.
type CellResources struct {
	// MaxTokensPerTurn caps tokens consumed in a single turn.
	// +optional
	MaxTokensPerTurn *int64 `json:"maxTokensPerTurn,omitempty"`

	// MaxCostPerHour is a dollar-denominated rate cap, as a decimal string (e.g. "2.50").
	// +optional
	MaxCostPerHour string `json:"maxCostPerHour,omitempty"`

	// MaxTotalCost is the lifetime dollar cap for this cell, as a decimal string.
	// +optional
	MaxTotalCost string `json:"maxTotalCost,omitempty"`

	// CPULimit is a Kubernetes CPU quantity (e.g. "500m").
	// +optional
	CPULimit string `json:"cpuLimit,omitempty"`

	// MemoryLimit is a Kubernetes memory quantity (e.g. "512Mi").
	// +optional
	MemoryLimit string `json:"memoryLimit,omitempty"`
}

// BudgetSpec defines a dollar-denominated budget, as a decimal string (e.g. "100.00").
type BudgetSpec struct {
	// MaxTotalCost is the lifetime dollar cap, as a decimal string.
	// +optional
	MaxTotalCost string `json:"maxTotalCost,omitempty"`

	// MaxCostPerHour is a rate cap, as a decimal string.
	// +optional
	MaxCostPerHour string `json:"maxCostPerHour,omitempty"`

	// MaxCost is a single-mission dollar cap, as a decimal string.
	// +optional
	MaxCost string `json:"maxCost,omitempty"`

	// Allocation is a per-member budget amount, as a decimal string. The
	// Formation webhook checks that it parses as a positive decimal; no
	// controller reads it or delegates it into a member cell's ledger.
	// +optional
	Allocation string `json:"allocation,omitempty"`
}
