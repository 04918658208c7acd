/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package durparse parses the duration-literal grammar used by Mission's
// completion.timeout field: (NUM'h')?(NUM'm')?(NUM's')?, at least one
// component present, total duration nonzero.
package durparse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var grammar = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// Parse parses a duration literal, rejecting the empty match and the
// all-zero match.
func Parse(literal string) (time.Duration, error) {
	if literal == "" {
		return 0, fmt.Errorf("empty duration literal")
	}
	m := grammar.FindStringSubmatch(literal)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0, fmt.Errorf("invalid duration literal %q", literal)
	}
	var total time.Duration
	if m[1] != "" {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, err
		}
		total += time.Duration(h) * time.Hour
	}
	if m[2] != "" {
		mins, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, err
		}
		total += time.Duration(mins) * time.Minute
	}
	if m[3] != "" {
		s, err := strconv.Atoi(m[3])
		if err != nil {
			return 0, err
		}
		total += time.Duration(s) * time.Second
	}
	if total <= 0 {
		return 0, fmt.Errorf("duration literal %q must be nonzero", literal)
	}
	return total, nil
}
