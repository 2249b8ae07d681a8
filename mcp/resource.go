// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"strings"
)

// matchURITemplate reports whether uri matches template, a minimal RFC 6570
// "simple string expansion" subset: only {name} placeholders, each matching
// exactly one path segment between slashes. This is the same restricted
// subset the reference SDKs implement; full RFC 6570 (reserved expansion,
// query parameters, modifiers) is out of scope.
func matchURITemplate(template, uri string) bool {
	tParts := strings.Split(template, "/")
	uParts := strings.Split(uri, "/")
	if len(tParts) != len(uParts) {
		return false
	}
	for i, t := range tParts {
		if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
			if uParts[i] == "" || containsTraversal(uParts[i]) {
				return false
			}
			continue
		}
		if t != uParts[i] {
			return false
		}
	}
	return true
}

// extractURITemplateVars returns the {name}: value bindings uri matched
// against template. Call only after matchURITemplate has confirmed a match.
func extractURITemplateVars(template, uri string) map[string]string {
	tParts := strings.Split(template, "/")
	uParts := strings.Split(uri, "/")
	vars := make(map[string]string)
	for i, t := range tParts {
		if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
			vars[strings.TrimSuffix(strings.TrimPrefix(t, "{"), "}")] = uParts[i]
		}
	}
	return vars
}

// containsTraversal rejects path segments that could let a templated
// resource handler escape whatever root directory it's scoped to. A
// segment-wise match already prevents "../" from crossing a "/" boundary
// undetected, but "." and ".." alone, and any segment containing a null
// byte, are rejected outright so handlers never see them.
func containsTraversal(segment string) bool {
	if segment == "." || segment == ".." {
		return true
	}
	return strings.ContainsRune(segment, 0)
}
