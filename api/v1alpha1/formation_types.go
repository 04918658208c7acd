/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// FormationPhase represents the observed lifecycle phase of a Formation.
type FormationPhase string

const (
	FormationPhasePending   FormationPhase = "Pending"
	FormationPhaseRunning   FormationPhase = "Running"
	FormationPhasePaused    FormationPhase = "Paused"
	FormationPhaseCompleted FormationPhase = "Completed"
	FormationPhaseFailed    FormationPhase = "Failed"
)

// TopologyKind names one of the six supported route-table generation strategies.
type TopologyKind string

const (
	TopologyFullMesh  TopologyKind = "full_mesh"
	TopologyHierarchy TopologyKind = "hierarchy"
	TopologyStar      TopologyKind = "star"
	TopologyRing      TopologyKind = "ring"
	TopologyStigmergy TopologyKind = "stigmergy"
	TopologyCustom    TopologyKind = "custom"
)

// BlackboardSpec parameterizes the stigmergy topology.
type BlackboardSpec struct {
	// DecayMinutes is how long a blackboard entry remains live.
	// +kubebuilder:validation:Required
	DecayMinutes int `json:"decayMinutes"`
}

// CustomRoute declares one custom topology edge: a source template/cell name
// fanning out to one or more destination template/cell names.
type CustomRoute struct {
	// From is a template name or literal cell name.
	// +kubebuilder:validation:Required
	From string `json:"from"`

	// To is an ordered list of template names or literal cell names.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinItems=1
	To []string `json:"to"`
}

// TopologySpec describes how member cells of a Formation are wired to one another.
type TopologySpec struct {
	// Kind selects the route-generation strategy.
	// +kubebuilder:validation:Enum=full_mesh;hierarchy;star;ring;stigmergy;custom
	// +kubebuilder:validation:Required
	Kind TopologyKind `json:"kind"`

	// Root names the hierarchy topology's root template. Required when kind=hierarchy.
	// +optional
	Root string `json:"root,omitempty"`

	// Hub names the star topology's hub template. Required when kind=star.
	// +optional
	Hub string `json:"hub,omitempty"`

	// Blackboard parameterizes the stigmergy topology. Required when kind=stigmergy.
	// +optional
	Blackboard *BlackboardSpec `json:"blackboard,omitempty"`

	// Routes declares the custom topology's edges. Required (non-empty) when kind=custom.
	// +optional
	Routes []CustomRoute `json:"routes,omitempty"`
}

// CellTemplate describes one group of identically-specced replica cells.
type CellTemplate struct {
	// TemplateName identifies this template; expanded cell names are
	// "{templateName}-{index}" for index in [0, replicas).
	// +kubebuilder:validation:Required
	TemplateName string `json:"templateName"`

	// Replicas is the desired replica count. Zero is permitted (scale-to-zero).
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:default=1
	Replicas int `json:"replicas"`

	// CellSpec is the spec applied to every replica of this template.
	// +kubebuilder:validation:Required
	CellSpec CellSpec `json:"cellSpec"`
}

// FormationSpec defines the desired state of a Formation.
type FormationSpec struct {
	// Cells is the ordered list of cell templates to expand.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinItems=1
	Cells []CellTemplate `json:"cells"`

	// Topology describes how member cells are wired.
	// +kubebuilder:validation:Required
	Topology TopologySpec `json:"topology"`

	// Budget caps the formation's aggregate spend.
	// +optional
	Budget *BudgetSpec `json:"budget,omitempty"`
}

// MemberStatus mirrors one child Cell's observed state.
type MemberStatus struct {
	Name  string    `json:"name"`
	Phase CellPhase `json:"phase"`
	Cost  string    `json:"cost"`
}

// FormationStatus defines the observed state of a Formation.
type FormationStatus struct {
	// Phase is the formation's current observed lifecycle phase.
	// +optional
	Phase FormationPhase `json:"phase,omitempty"`

	// ReadyCells is the count of member cells in phase Running.
	// +optional
	ReadyCells int `json:"readyCells,omitempty"`

	// TotalCells is the count of desired member cells.
	// +optional
	TotalCells int `json:"totalCells,omitempty"`

	// TotalCost is the sum of every member cell's TotalCost, as a decimal string.
	// +kubebuilder:default="0"
	// +optional
	TotalCost string `json:"totalCost,omitempty"`

	// Cells mirrors per-member (name, phase, cost).
	// +optional
	Cells []MemberStatus `json:"cells,omitempty"`

	// ObservedGeneration is the generation last reconciled.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=fm
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Ready",type=string,JSONPath=`.status.readyCells`
// +kubebuilder:printcolumn:name="Total",type=string,JSONPath=`.status.totalCells`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// Formation is the Schema for the formations API. A Formation expands cell
// templates into child Cells arranged in a named communication topology.
type Formation struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   FormationSpec   `json:"spec,omitempty"`
	Status FormationStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// FormationList contains a list of Formation.
type FormationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Formation `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Formation{}, &FormationList{})
}

// WorkspacePVCName returns the name of the formation's shared workspace PVC.
func (f *Formation) WorkspacePVCName() string {
	return "workspace-" + f.Name
}

// TopologyConfigMapName returns the name of the formation's published route table.
func (f *Formation) TopologyConfigMapName() string {
	return "topology-" + f.Name
}
