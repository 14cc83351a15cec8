// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-shaped values out of query strings and settings.
package query

import (
	"strconv"
	"strings"
)

// IntSlice parses a single comma-separated string into integers.
// Invalid entries are ignored safely.
func IntSlice(val string) []int {
	var res []int
	for _, v := range StringSlice(val) {
		if i, err := strconv.Atoi(v); err == nil {
			res = append(res, i)
		}
	}
	return res
}

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
