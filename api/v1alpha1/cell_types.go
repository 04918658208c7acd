/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CellPhase represents the observed lifecycle phase of a Cell.
type CellPhase string

const (
	CellPhasePending   CellPhase = "Pending"
	CellPhaseRunning   CellPhase = "Running"
	CellPhaseCompleted CellPhase = "Completed"
	CellPhaseFailed    CellPhase = "Failed"
	CellPhasePaused    CellPhase = "Paused"
)

// CellSpec defines the desired state of a single agent.
type CellSpec struct {
	// Mind is the LLM configuration driving this cell.
	// +kubebuilder:validation:Required
	Mind MindSpec `json:"mind"`

	// Tools lists the tool names available to this cell.
	// +optional
	Tools []string `json:"tools,omitempty"`

	// Resources bounds this cell's spend and pod footprint.
	// +optional
	Resources *CellResources `json:"resources,omitempty"`

	// ParentRef is the Cell that spawned this one, if any.
	// +optional
	ParentRef *LocalObjectReference `json:"parentRef,omitempty"`

	// FormationRef is the Formation that owns this cell as a member, if any.
	// +optional
	FormationRef *LocalObjectReference `json:"formationRef,omitempty"`
}

// CellStatus defines the observed state of a Cell.
type CellStatus struct {
	// Phase is the cell's current observed lifecycle phase.
	// +optional
	Phase CellPhase `json:"phase,omitempty"`

	// PodName is the name of the backing pod, once created.
	// +optional
	PodName string `json:"podName,omitempty"`

	// TotalCost is a monotonically increasing dollar accumulator, as a decimal string.
	// +kubebuilder:default="0"
	// +optional
	TotalCost string `json:"totalCost,omitempty"`

	// TotalTokens is a monotonically increasing token accumulator.
	// +optional
	TotalTokens int64 `json:"totalTokens,omitempty"`

	// LastActive is the last time the backing pod reported activity.
	// +optional
	LastActive *metav1.Time `json:"lastActive,omitempty"`

	// Message is a human-readable explanation, set on non-nominal phases.
	// +optional
	Message string `json:"message,omitempty"`

	// ObservedGeneration is the generation last reconciled.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=cell
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Pod",type=string,JSONPath=`.status.podName`
// +kubebuilder:printcolumn:name="Cost",type=string,JSONPath=`.status.totalCost`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// Cell is the Schema for the cells API. A Cell is a single agent, one-to-one
// with a backing pod while its phase is Pending or Running.
type Cell struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CellSpec   `json:"spec,omitempty"`
	Status CellStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// CellList contains a list of Cell.
type CellList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Cell `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Cell{}, &CellList{})
}

// CellLabelName is the label naming a pod's owning Cell.
const CellLabelName = "kais.io/cell"

// CellLabelRole marks a pod as backing a Cell (value "cell").
const CellLabelRole = "kais.io/role"

// FormationLabelName is the label naming a Cell's owning Formation.
const FormationLabelName = "kais.io/formation"

// CellSpecEnvVar is the environment variable carrying the canonical JSON
// serialization of the Cell's current spec, embedded in the mind container.
const CellSpecEnvVar = "CELL_SPEC"
