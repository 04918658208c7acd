/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// MissionPhase represents the observed lifecycle phase of a Mission.
type MissionPhase string

const (
	MissionPhasePending   MissionPhase = "Pending"
	MissionPhaseRunning   MissionPhase = "Running"
	MissionPhaseSucceeded MissionPhase = "Succeeded"
	MissionPhaseFailed    MissionPhase = "Failed"
)

// CheckKind names one of the four supported completion check kinds.
type CheckKind string

const (
	CheckFileExists   CheckKind = "fileExists"
	CheckCommand      CheckKind = "command"
	CheckCoverage     CheckKind = "coverage"
	CheckNatsResponse CheckKind = "natsResponse"
)

// CheckStatus is the outcome of evaluating one check.
type CheckStatus string

const (
	CheckStatusPending CheckStatus = "Pending"
	CheckStatusPassed  CheckStatus = "Passed"
	CheckStatusFailed  CheckStatus = "Failed"
	CheckStatusError   CheckStatus = "Error"
)

// CompletionCheck describes one completion-check invocation.
type CompletionCheck struct {
	// Name identifies this check within the mission.
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// Kind selects the check evaluator.
	// +kubebuilder:validation:Enum=fileExists;command;coverage;natsResponse
	// +kubebuilder:validation:Required
	Kind CheckKind `json:"kind"`

	// Paths lists files that must exist (fileExists only).
	// +optional
	Paths []string `json:"paths,omitempty"`

	// Command is executed in the workspace (command and coverage kinds).
	// +optional
	Command string `json:"command,omitempty"`

	// Args are passed to Command via argv, never shell-interpolated.
	// +optional
	Args []string `json:"args,omitempty"`

	// SuccessPattern is a regex; when set on a command check, Passed requires a
	// match against stdout/stderr instead of exit-code-zero.
	// +optional
	SuccessPattern string `json:"successPattern,omitempty"`

	// FailPattern is a regex that forces Failed when matched, regardless of exit code.
	// +optional
	FailPattern string `json:"failPattern,omitempty"`

	// JSONPath extracts a numeric value from the command's stdout (coverage only).
	// +optional
	JSONPath string `json:"jsonPath,omitempty"`

	// Operator compares the extracted value against Value (coverage only).
	// +kubebuilder:validation:Enum=">=,>,<=,<,==,!="
	// +optional
	Operator string `json:"operator,omitempty"`

	// Value is the comparison operand (coverage only).
	// +optional
	Value *float64 `json:"value,omitempty"`

	// Subject is the message-bus subject to subscribe to (natsResponse only).
	// +optional
	Subject string `json:"subject,omitempty"`

	// TimeoutSeconds bounds how long natsResponse waits for a matching message.
	// +kubebuilder:default=30
	// +optional
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
}

// ReviewSpec gates mission success behind an external approval.
type ReviewSpec struct {
	// Enabled turns on the review gate.
	// +optional
	Enabled bool `json:"enabled,omitempty"`
}

// ReviewOutcomeStatus records a review decision.
type ReviewOutcomeStatus string

const (
	ReviewPending  ReviewOutcomeStatus = "Pending"
	ReviewApproved ReviewOutcomeStatus = "Approved"
	ReviewRejected ReviewOutcomeStatus = "Rejected"
)

// CompletionSpec defines a mission's success criteria and retry budget.
type CompletionSpec struct {
	// Checks is the non-empty ordered list of completion checks.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinItems=1
	Checks []CompletionCheck `json:"checks"`

	// Review optionally gates success behind external approval.
	// +optional
	Review *ReviewSpec `json:"review,omitempty"`

	// MaxAttempts bounds the number of attempts.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=1
	MaxAttempts int `json:"maxAttempts"`

	// Timeout is a duration literal: (NUM'h')?(NUM'm')?(NUM's')?, at least one
	// component present, total nonzero.
	// +kubebuilder:validation:Required
	Timeout string `json:"timeout"`
}

// EntrypointSpec names the cell a mission's opening message is delivered to.
type EntrypointSpec struct {
	// Cell is the target cell name.
	// +kubebuilder:validation:Required
	Cell string `json:"cell"`

	// Message is the opening message body.
	// +kubebuilder:validation:Required
	Message string `json:"message"`
}

// MissionSpec defines the desired state of a Mission.
type MissionSpec struct {
	// Objective is a human-readable description of the mission's goal.
	// +kubebuilder:validation:Required
	Objective string `json:"objective"`

	// FormationRef targets a Formation's entrypoint cell. At least one of
	// FormationRef or CellRef must be set; both may be set together.
	// +optional
	FormationRef *LocalObjectReference `json:"formationRef,omitempty"`

	// CellRef targets a standalone Cell directly.
	// +optional
	CellRef *LocalObjectReference `json:"cellRef,omitempty"`

	// Entrypoint names the opening message and its target cell.
	// +kubebuilder:validation:Required
	Entrypoint EntrypointSpec `json:"entrypoint"`

	// Completion defines success criteria, review gate, and retry budget.
	// +kubebuilder:validation:Required
	Completion CompletionSpec `json:"completion"`

	// Budget caps the mission's aggregate spend.
	// +optional
	Budget *BudgetSpec `json:"budget,omitempty"`
}

// CheckResult records one check's outcome within an attempt.
type CheckResult struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	// +optional
	Output string `json:"output,omitempty"`
}

// AttemptRecord captures one completed attempt's outcome.
type AttemptRecord struct {
	Attempt int           `json:"attempt"`
	Results []CheckResult `json:"results,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	EndedAt metav1.Time   `json:"endedAt"`
}

// MissionStatus defines the observed state of a Mission.
type MissionStatus struct {
	// Phase is the mission's current observed lifecycle phase.
	// +optional
	Phase MissionPhase `json:"phase,omitempty"`

	// Attempt is the 1-indexed count of attempts started so far.
	// +optional
	Attempt int `json:"attempt,omitempty"`

	// StartedAt records when the mission transitioned Pending to Running.
	// +optional
	StartedAt *metav1.Time `json:"startedAt,omitempty"`

	// Cost is a monotonically increasing dollar accumulator, as a decimal string.
	// +kubebuilder:default="0"
	// +optional
	Cost string `json:"cost,omitempty"`

	// Results holds the current (in-flight or most recent) attempt's per-check results.
	// +optional
	Results []CheckResult `json:"results,omitempty"`

	// Review records the review outcome, when Completion.Review is enabled.
	// +optional
	Review ReviewOutcomeStatus `json:"review,omitempty"`

	// History records every completed attempt prior to the current one.
	// +optional
	History []AttemptRecord `json:"history,omitempty"`

	// Message is a human-readable explanation, set on non-nominal phases.
	// +optional
	Message string `json:"message,omitempty"`

	// ObservedGeneration is the generation last reconciled.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=msn
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Attempt",type=string,JSONPath=`.status.attempt`
// +kubebuilder:printcolumn:name="Cost",type=string,JSONPath=`.status.cost`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// Mission is the Schema for the missions API. A Mission drives a bounded
// sequence of attempts against a Formation or Cell until completion checks
// pass (and any review is approved) or the attempt/budget ceiling is hit.
type Mission struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   MissionSpec   `json:"spec,omitempty"`
	Status MissionStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// MissionList contains a list of Mission.
type MissionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Mission `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Mission{}, &MissionList{})
}

// UserAbortedMessage is written to Status.Message on an explicit external abort.
const UserAbortedMessage = "UserAborted"

// InboxSubject returns the message-bus subject for a cell's inbox.
func InboxSubject(namespace, cellName string) string {
	return "cell." + namespace + "." + cellName + ".inbox"
}
