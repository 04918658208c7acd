/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package topology implements the pure route-table generator: given a
// formation's topology spec and its ordered cell templates, it produces a
// deterministic mapping from expanded cell name to ordered, duplicate-free
// target cell names.
package topology

import (
	"fmt"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
)

// RouteTable maps an expanded cell name to its ordered list of allowed targets.
type RouteTable map[string][]string

// ExpandedCell names one replica of one template.
type ExpandedCell struct {
	Template string
	Index    int
	Name     string
}

// ExpandTemplates produces the ordered list of expanded cell names for a set
// of templates, in template order then replica order.
func ExpandTemplates(templates []corev1alpha1.CellTemplate) []ExpandedCell {
	var out []ExpandedCell
	for _, tpl := range templates {
		for i := 0; i < tpl.Replicas; i++ {
			out = append(out, ExpandedCell{
				Template: tpl.TemplateName,
				Index:    i,
				Name:     fmt.Sprintf("%s-%d", tpl.TemplateName, i),
			})
		}
	}
	return out
}

// Generate computes the route table for the given topology over the given
// templates. It is deterministic and idempotent: identical inputs always
// produce an identical table, and no cell ever appears in its own target list.
func Generate(top corev1alpha1.TopologySpec, templates []corev1alpha1.CellTemplate) (RouteTable, error) {
	cells := ExpandTemplates(templates)
	switch top.Kind {
	case corev1alpha1.TopologyFullMesh:
		return fullMesh(cells), nil
	case corev1alpha1.TopologyHierarchy:
		return hierarchy(cells, top.Root)
	case corev1alpha1.TopologyStar:
		return star(cells, top.Hub)
	case corev1alpha1.TopologyRing:
		return ring(cells), nil
	case corev1alpha1.TopologyStigmergy:
		return stigmergy(cells), nil
	case corev1alpha1.TopologyCustom:
		return custom(templates, top.Routes)
	default:
		return nil, fmt.Errorf("unknown topology kind %q", top.Kind)
	}
}

func names(cells []ExpandedCell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Name
	}
	return out
}

func fullMesh(cells []ExpandedCell) RouteTable {
	all := names(cells)
	table := make(RouteTable, len(cells))
	for _, c := range cells {
		table[c.Name] = exclude(all, c.Name)
	}
	return table
}

func exclude(all []string, self string) []string {
	out := make([]string, 0, len(all))
	for _, n := range all {
		if n != self {
			out = append(out, n)
		}
	}
	return out
}

func hierarchy(cells []ExpandedCell, root string) (RouteTable, error) {
	if root == "" {
		return nil, fmt.Errorf("hierarchy topology requires root template")
	}
	var rootNames, nonRootNames []string
	for _, c := range cells {
		if c.Template == root {
			rootNames = append(rootNames, c.Name)
		} else {
			nonRootNames = append(nonRootNames, c.Name)
		}
	}
	table := make(RouteTable, len(cells))
	for _, n := range rootNames {
		table[n] = append([]string(nil), nonRootNames...)
	}
	for _, n := range nonRootNames {
		table[n] = append([]string(nil), rootNames...)
	}
	return table, nil
}

func star(cells []ExpandedCell, hub string) (RouteTable, error) {
	if hub == "" {
		return nil, fmt.Errorf("star topology requires hub template")
	}
	var hubNames, spokeNames []string
	for _, c := range cells {
		if c.Template == hub {
			hubNames = append(hubNames, c.Name)
		} else {
			spokeNames = append(spokeNames, c.Name)
		}
	}
	table := make(RouteTable, len(cells))
	for _, n := range hubNames {
		table[n] = append([]string(nil), spokeNames...)
	}
	for _, n := range spokeNames {
		table[n] = append([]string(nil), hubNames...)
	}
	return table, nil
}

func ring(cells []ExpandedCell) RouteTable {
	n := len(cells)
	table := make(RouteTable, n)
	for i, c := range cells {
		switch n {
		case 1:
			table[c.Name] = nil
		case 2:
			// successor and predecessor coincide: emit once.
			other := cells[(i+1)%n].Name
			table[c.Name] = []string{other}
		default:
			succ := cells[(i+1)%n].Name
			pred := cells[(i-1+n)%n].Name
			table[c.Name] = []string{succ, pred}
		}
	}
	return table
}

func stigmergy(cells []ExpandedCell) RouteTable {
	table := make(RouteTable, len(cells))
	for _, c := range cells {
		table[c.Name] = nil
	}
	return table
}

func custom(templates []corev1alpha1.CellTemplate, routes []corev1alpha1.CustomRoute) (RouteTable, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("custom topology requires non-empty routes")
	}
	byTemplate := make(map[string][]string, len(templates))
	for _, tpl := range templates {
		for _, c := range ExpandTemplates([]corev1alpha1.CellTemplate{tpl}) {
			byTemplate[tpl.TemplateName] = append(byTemplate[tpl.TemplateName], c.Name)
		}
	}
	expand := func(nameOrTemplate string) []string {
		if cells, ok := byTemplate[nameOrTemplate]; ok {
			return cells
		}
		return []string{nameOrTemplate}
	}

	table := make(RouteTable)
	for _, route := range routes {
		froms := expand(route.From)
		var targets []string
		seen := make(map[string]bool)
		for _, to := range route.To {
			for _, t := range expand(to) {
				if !seen[t] {
					seen[t] = true
					targets = append(targets, t)
				}
			}
		}
		for _, from := range froms {
			existing := table[from]
			existingSeen := make(map[string]bool, len(existing))
			for _, e := range existing {
				existingSeen[e] = true
			}
			for _, t := range targets {
				if t == from || existingSeen[t] {
					continue
				}
				existingSeen[t] = true
				existing = append(existing, t)
			}
			table[from] = existing
		}
	}
	return table, nil
}
