// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"encoding/base64"
	"fmt"
)

// Cursors are opaque to clients (§4.4): encode the last-returned unique ID
// so a List call can resume with featureSet.above, and reject anything that
// doesn't look like one of ours rather than silently restarting the list.
func encodeCursor(lastID string) string {
	if lastID == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(lastID))
}

func decodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("mcp: invalid cursor: %w", err)
	}
	return string(b), nil
}

// pageSize bounds how many features a single List response returns. The
// spec leaves page size implementation-defined; this runtime uses a fixed
// size rather than a client-supplied limit.
const pageSize = 50
