/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package topology

import (
	"reflect"
	"sort"
	"testing"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
)

func tpl(name string, replicas int) corev1alpha1.CellTemplate {
	return corev1alpha1.CellTemplate{TemplateName: name, Replicas: replicas}
}

func TestFullMesh(t *testing.T) {
	templates := []corev1alpha1.CellTemplate{tpl("a", 2), tpl("b", 1)}
	table, err := Generate(corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyFullMesh}, templates)
	if err != nil {
		t.Fatal(err)
	}
	for cell, targets := range table {
		for _, target := range targets {
			if target == cell {
				t.Fatalf("cell %s targets itself", cell)
			}
		}
	}
	if len(table["a-0"]) != 2 {
		t.Fatalf("expected 2 targets for a-0, got %v", table["a-0"])
	}
}

func TestHierarchy(t *testing.T) {
	// Scenario from spec: lead x2, worker x1.
	templates := []corev1alpha1.CellTemplate{tpl("lead", 2), tpl("worker", 1)}
	table, err := Generate(corev1alpha1.TopologySpec{
		Kind: corev1alpha1.TopologyHierarchy, Root: "lead",
	}, templates)
	if err != nil {
		t.Fatal(err)
	}
	want := RouteTable{
		"lead-0":   {"worker-0"},
		"lead-1":   {"worker-0"},
		"worker-0": {"lead-0", "lead-1"},
	}
	if !reflect.DeepEqual(table, want) {
		t.Fatalf("got %#v, want %#v", table, want)
	}
}

func TestHierarchyMissingRoot(t *testing.T) {
	_, err := Generate(corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyHierarchy}, nil)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestStar(t *testing.T) {
	templates := []corev1alpha1.CellTemplate{tpl("hub", 1), tpl("spoke", 3)}
	table, err := Generate(corev1alpha1.TopologySpec{
		Kind: corev1alpha1.TopologyStar, Hub: "hub",
	}, templates)
	if err != nil {
		t.Fatal(err)
	}
	if len(table["hub-0"]) != 3 {
		t.Fatalf("hub should target all spokes, got %v", table["hub-0"])
	}
	for _, spoke := range []string{"spoke-0", "spoke-1", "spoke-2"} {
		if !reflect.DeepEqual(table[spoke], []string{"hub-0"}) {
			t.Fatalf("%s should target only hub-0, got %v", spoke, table[spoke])
		}
	}
}

func TestRingSizes(t *testing.T) {
	cases := []struct {
		replicas int
		want     map[string][]string
	}{
		{1, map[string][]string{"a-0": nil}},
		{2, map[string][]string{"a-0": {"a-1"}, "a-1": {"a-0"}}},
		{3, map[string][]string{
			"a-0": {"a-1", "a-2"},
			"a-1": {"a-2", "a-0"},
			"a-2": {"a-0", "a-1"},
		}},
	}
	for _, tc := range cases {
		table, err := Generate(corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyRing},
			[]corev1alpha1.CellTemplate{tpl("a", tc.replicas)})
		if err != nil {
			t.Fatal(err)
		}
		for cell, want := range tc.want {
			if !reflect.DeepEqual(table[cell], want) {
				t.Fatalf("replicas=%d: %s got %v want %v", tc.replicas, cell, table[cell], want)
			}
		}
	}
}

func TestRingSymmetry(t *testing.T) {
	table, err := Generate(corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyRing},
		[]corev1alpha1.CellTemplate{tpl("a", 5)})
	if err != nil {
		t.Fatal(err)
	}
	for cell, targets := range table {
		for _, target := range targets {
			if !contains(table[target], cell) {
				t.Fatalf("ring not symmetric: %s -> %s but not back", cell, target)
			}
		}
	}
}

func TestFullMeshSymmetry(t *testing.T) {
	table, err := Generate(corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyFullMesh},
		[]corev1alpha1.CellTemplate{tpl("a", 4)})
	if err != nil {
		t.Fatal(err)
	}
	for cell, targets := range table {
		for _, target := range targets {
			if !contains(table[target], cell) {
				t.Fatalf("full_mesh not symmetric: %s -> %s but not back", cell, target)
			}
		}
	}
}

func TestStigmergy(t *testing.T) {
	table, err := Generate(corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyStigmergy,
		Blackboard: &corev1alpha1.BlackboardSpec{DecayMinutes: 5}},
		[]corev1alpha1.CellTemplate{tpl("a", 3)})
	if err != nil {
		t.Fatal(err)
	}
	for _, targets := range table {
		if len(targets) != 0 {
			t.Fatalf("stigmergy must produce empty target lists, got %v", targets)
		}
	}
}

func TestCustom(t *testing.T) {
	templates := []corev1alpha1.CellTemplate{tpl("a", 2), tpl("b", 1)}
	routes := []corev1alpha1.CustomRoute{
		{From: "a", To: []string{"b", "literal-cell"}},
	}
	table, err := Generate(corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyCustom, Routes: routes}, templates)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b-0", "literal-cell"}
	if !reflect.DeepEqual(table["a-0"], want) {
		t.Fatalf("got %v want %v", table["a-0"], want)
	}
	if !reflect.DeepEqual(table["a-1"], want) {
		t.Fatalf("got %v want %v", table["a-1"], want)
	}
}

func TestCustomRequiresRoutes(t *testing.T) {
	_, err := Generate(corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyCustom}, nil)
	if err == nil {
		t.Fatal("expected error for empty routes")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	templates := []corev1alpha1.CellTemplate{tpl("a", 3), tpl("b", 2)}
	top := corev1alpha1.TopologySpec{Kind: corev1alpha1.TopologyFullMesh}
	first, err := Generate(top, templates)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Generate(top, templates)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("generate is not deterministic")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(table RouteTable) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
