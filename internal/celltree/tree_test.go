/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package celltree

import "testing"

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path string
		want []string
	}{
		{"root", []string{"root"}},
		{"root/child", []string{"root", "child"}},
		{"root/child/grandchild", []string{"root", "child", "grandchild"}},
	}
	for _, c := range cases {
		got := splitPath(c.path)
		if len(got) != len(c.want) {
			t.Fatalf("splitPath(%q) = %v, want %v", c.path, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("splitPath(%q) = %v, want %v", c.path, got, c.want)
			}
		}
	}
}

func TestNodePathPrefixMatchesSubtreeConvention(t *testing.T) {
	root := Node{CellID: "root", RootID: "root", Depth: 0, Path: "root"}
	child := Node{CellID: "child", ParentID: "root", RootID: "root", Depth: 1, Path: root.Path + "/child"}
	grandchild := Node{CellID: "gc", ParentID: "child", RootID: "root", Depth: 2, Path: child.Path + "/gc"}

	if grandchild.Path != "root/child/gc" {
		t.Fatalf("unexpected path %q", grandchild.Path)
	}
	ancestors := splitPath(grandchild.Path)
	if len(ancestors) != 3 || ancestors[0] != "root" || ancestors[1] != "child" || ancestors[2] != "gc" {
		t.Fatalf("unexpected ancestor chain %v", ancestors)
	}
}
