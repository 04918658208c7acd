/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime"
)

// Hand-written deepcopy implementations. The repository has no code-generation
// step wired up, so these satisfy runtime.Object by hand rather than via
// controller-gen's zz_generated.deepcopy.go.

func (in *SecretKeyRef) DeepCopy() *SecretKeyRef {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func (in *LocalObjectReference) DeepCopy() *LocalObjectReference {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func (in *MindSpec) DeepCopy() *MindSpec {
	if in == nil {
		return nil
	}
	out := *in
	if in.Temperature != nil {
		t := *in.Temperature
		out.Temperature = &t
	}
	if in.MaxTokens != nil {
		m := *in.MaxTokens
		out.MaxTokens = &m
	}
	if in.APIKeyRef != nil {
		out.APIKeyRef = in.APIKeyRef.DeepCopy()
	}
	return &out
}

func (in *CellResources) DeepCopy() *CellResources {
	if in == nil {
		return nil
	}
	out := *in
	if in.MaxTokensPerTurn != nil {
		v := *in.MaxTokensPerTurn
		out.MaxTokensPerTurn = &v
	}
	return &out
}

func (in *BudgetSpec) DeepCopy() *BudgetSpec {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func (in *CellSpec) DeepCopyInto(out *CellSpec) {
	*out = *in
	out.Mind = *in.Mind.DeepCopy()
	if in.Tools != nil {
		out.Tools = append([]string(nil), in.Tools...)
	}
	out.Resources = in.Resources.DeepCopy()
	out.ParentRef = in.ParentRef.DeepCopy()
	out.FormationRef = in.FormationRef.DeepCopy()
}

func (in *CellSpec) DeepCopy() *CellSpec {
	if in == nil {
		return nil
	}
	out := new(CellSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *CellStatus) DeepCopyInto(out *CellStatus) {
	*out = *in
	if in.LastActive != nil {
		t := in.LastActive.DeepCopy()
		out.LastActive = &t
	}
}

func (in *CellStatus) DeepCopy() *CellStatus {
	if in == nil {
		return nil
	}
	out := new(CellStatus)
	in.DeepCopyInto(out)
	return out
}

func (in *Cell) DeepCopyInto(out *Cell) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

func (in *Cell) DeepCopy() *Cell {
	if in == nil {
		return nil
	}
	out := new(Cell)
	in.DeepCopyInto(out)
	return out
}

func (in *Cell) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *CellList) DeepCopyInto(out *CellList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]Cell, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

func (in *CellList) DeepCopy() *CellList {
	if in == nil {
		return nil
	}
	out := new(CellList)
	in.DeepCopyInto(out)
	return out
}

func (in *CellList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// --- Formation ---

func (in *BlackboardSpec) DeepCopy() *BlackboardSpec {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func (in *CustomRoute) DeepCopyInto(out *CustomRoute) {
	*out = *in
	if in.To != nil {
		out.To = append([]string(nil), in.To...)
	}
}

func (in *TopologySpec) DeepCopyInto(out *TopologySpec) {
	*out = *in
	out.Blackboard = in.Blackboard.DeepCopy()
	if in.Routes != nil {
		out.Routes = make([]CustomRoute, len(in.Routes))
		for i := range in.Routes {
			in.Routes[i].DeepCopyInto(&out.Routes[i])
		}
	}
}

func (in *CellTemplate) DeepCopyInto(out *CellTemplate) {
	*out = *in
	in.CellSpec.DeepCopyInto(&out.CellSpec)
}

func (in *FormationSpec) DeepCopyInto(out *FormationSpec) {
	*out = *in
	if in.Cells != nil {
		out.Cells = make([]CellTemplate, len(in.Cells))
		for i := range in.Cells {
			in.Cells[i].DeepCopyInto(&out.Cells[i])
		}
	}
	in.Topology.DeepCopyInto(&out.Topology)
	out.Budget = in.Budget.DeepCopy()
}

func (in *FormationSpec) DeepCopy() *FormationSpec {
	if in == nil {
		return nil
	}
	out := new(FormationSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *FormationStatus) DeepCopyInto(out *FormationStatus) {
	*out = *in
	if in.Cells != nil {
		out.Cells = append([]MemberStatus(nil), in.Cells...)
	}
}

func (in *Formation) DeepCopyInto(out *Formation) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

func (in *Formation) DeepCopy() *Formation {
	if in == nil {
		return nil
	}
	out := new(Formation)
	in.DeepCopyInto(out)
	return out
}

func (in *Formation) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *FormationList) DeepCopyInto(out *FormationList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]Formation, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

func (in *FormationList) DeepCopy() *FormationList {
	if in == nil {
		return nil
	}
	out := new(FormationList)
	in.DeepCopyInto(out)
	return out
}

func (in *FormationList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// --- Mission ---

func (in *CompletionCheck) DeepCopyInto(out *CompletionCheck) {
	*out = *in
	if in.Paths != nil {
		out.Paths = append([]string(nil), in.Paths...)
	}
	if in.Args != nil {
		out.Args = append([]string(nil), in.Args...)
	}
	if in.Value != nil {
		v := *in.Value
		out.Value = &v
	}
}

func (in *ReviewSpec) DeepCopy() *ReviewSpec {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func (in *CompletionSpec) DeepCopyInto(out *CompletionSpec) {
	*out = *in
	if in.Checks != nil {
		out.Checks = make([]CompletionCheck, len(in.Checks))
		for i := range in.Checks {
			in.Checks[i].DeepCopyInto(&out.Checks[i])
		}
	}
	out.Review = in.Review.DeepCopy()
}

func (in *MissionSpec) DeepCopyInto(out *MissionSpec) {
	*out = *in
	out.FormationRef = in.FormationRef.DeepCopy()
	out.CellRef = in.CellRef.DeepCopy()
	in.Completion.DeepCopyInto(&out.Completion)
	out.Budget = in.Budget.DeepCopy()
}

func (in *MissionSpec) DeepCopy() *MissionSpec {
	if in == nil {
		return nil
	}
	out := new(MissionSpec)
	in.DeepCopyInto(out)
	return out
}

func (in *CheckResult) DeepCopyInto(out *CheckResult) {
	*out = *in
}

func (in *AttemptRecord) DeepCopyInto(out *AttemptRecord) {
	*out = *in
	if in.Results != nil {
		out.Results = append([]CheckResult(nil), in.Results...)
	}
	out.EndedAt = *in.EndedAt.DeepCopy()
}

func (in *MissionStatus) DeepCopyInto(out *MissionStatus) {
	*out = *in
	if in.StartedAt != nil {
		t := in.StartedAt.DeepCopy()
		out.StartedAt = &t
	}
	if in.Results != nil {
		out.Results = append([]CheckResult(nil), in.Results...)
	}
	if in.History != nil {
		out.History = make([]AttemptRecord, len(in.History))
		for i := range in.History {
			in.History[i].DeepCopyInto(&out.History[i])
		}
	}
}

func (in *Mission) DeepCopyInto(out *Mission) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

func (in *Mission) DeepCopy() *Mission {
	if in == nil {
		return nil
	}
	out := new(Mission)
	in.DeepCopyInto(out)
	return out
}

func (in *Mission) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

func (in *MissionList) DeepCopyInto(out *MissionList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]Mission, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

func (in *MissionList) DeepCopy() *MissionList {
	if in == nil {
		return nil
	}
	out := new(MissionList)
	in.DeepCopyInto(out)
	return out
}

func (in *MissionList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
