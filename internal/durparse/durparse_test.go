/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package durparse

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30m", 30 * time.Minute, false},
		{"2h30m", 2*time.Hour + 30*time.Minute, false},
		{"0h0m0s", 0, true},
		{"", 0, true},
		{"10s", 10 * time.Second, false},
		{"1h", time.Hour, false},
		{"not-a-duration", 0, true},
		{"1h2m3s", time.Hour + 2*time.Minute + 3*time.Second, false},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSpecExamples(t *testing.T) {
	got, err := Parse("30m")
	if err != nil {
		t.Fatal(err)
	}
	if got.Milliseconds() != 30*60*1000 {
		t.Fatalf("got %dms want %dms", got.Milliseconds(), 30*60*1000)
	}
	got, err = Parse("2h30m")
	if err != nil {
		t.Fatal(err)
	}
	if got.Milliseconds() != 9_000_000 {
		t.Fatalf("got %dms want 9000000ms", got.Milliseconds())
	}
	if _, err := Parse("0h0m0s"); err == nil {
		t.Fatal("expected 0h0m0s to be rejected")
	}
}
