/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package webhook

import (
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
)

func validMission() *corev1alpha1.Mission {
	return &corev1alpha1.Mission{
		ObjectMeta: metav1.ObjectMeta{Name: "ship-it", Namespace: "default"},
		Spec: corev1alpha1.MissionSpec{
			Objective:  "ship the feature",
			CellRef:    &corev1alpha1.LocalObjectReference{Name: "worker"},
			Entrypoint: corev1alpha1.EntrypointSpec{Cell: "worker", Message: "start"},
			Completion: corev1alpha1.CompletionSpec{
				Checks:      []corev1alpha1.CompletionCheck{{Name: "exists", Kind: corev1alpha1.CheckFileExists, Paths: []string{"DONE"}}},
				MaxAttempts: 3,
				Timeout:     "1h",
			},
		},
	}
}

func TestValidateMission_RequiresAtLeastOneRef(t *testing.T) {
	mission := validMission()
	mission.Spec.CellRef = nil
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error when neither formationRef nor cellRef is set")
	}
}

func TestValidateMission_BothRefsAllowed(t *testing.T) {
	mission := validMission()
	mission.Spec.FormationRef = &corev1alpha1.LocalObjectReference{Name: "fleet"}
	if errs := ValidateMission(mission); len(errs) != 0 {
		t.Errorf("expected setting both formationRef and cellRef to be allowed, got %v", errs)
	}
}

func TestValidateMission_EntrypointCellRequired(t *testing.T) {
	mission := validMission()
	mission.Spec.Entrypoint.Cell = ""
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for missing entrypoint cell")
	}
}

func TestValidateMission_ChecksRequired(t *testing.T) {
	mission := validMission()
	mission.Spec.Completion.Checks = nil
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for no completion checks")
	}
}

func TestValidateMission_FileExistsRequiresPaths(t *testing.T) {
	mission := validMission()
	mission.Spec.Completion.Checks = []corev1alpha1.CompletionCheck{{Name: "exists", Kind: corev1alpha1.CheckFileExists}}
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for fileExists check with no paths")
	}
}

func TestValidateMission_CommandRequiresCommand(t *testing.T) {
	mission := validMission()
	mission.Spec.Completion.Checks = []corev1alpha1.CompletionCheck{{Name: "run", Kind: corev1alpha1.CheckCommand}}
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for command check with no command")
	}
}

func TestValidateMission_CoverageRequiresJSONPathAndValue(t *testing.T) {
	mission := validMission()
	mission.Spec.Completion.Checks = []corev1alpha1.CompletionCheck{{Name: "cov", Kind: corev1alpha1.CheckCoverage, Command: "go test ./..."}}
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for coverage check with no jsonPath/value")
	}
}

func TestValidateMission_NatsResponseRequiresSubject(t *testing.T) {
	mission := validMission()
	mission.Spec.Completion.Checks = []corev1alpha1.CompletionCheck{{Name: "ping", Kind: corev1alpha1.CheckNatsResponse}}
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for natsResponse check with no subject")
	}
}

func TestValidateMission_InvalidTimeout(t *testing.T) {
	mission := validMission()
	mission.Spec.Completion.Timeout = "not-a-duration"
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for unparseable completion timeout")
	}
}

func TestValidateMission_MaxAttemptsMustBePositive(t *testing.T) {
	mission := validMission()
	mission.Spec.Completion.MaxAttempts = 0
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for maxAttempts < 1")
	}
}

func TestValidateMission_BudgetDecimalField(t *testing.T) {
	mission := validMission()
	mission.Spec.Budget = &corev1alpha1.BudgetSpec{MaxCost: "not-a-number"}
	if errs := ValidateMission(mission); len(errs) == 0 {
		t.Error("expected error for unparseable budget maxCost")
	}
}

func TestValidateMission_Valid(t *testing.T) {
	if errs := ValidateMission(validMission()); len(errs) != 0 {
		t.Errorf("expected no errors for a valid mission, got %v", errs)
	}
}
