// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mcp implements the server and client sides of the Model Context
// Protocol: a bidirectional JSON-RPC 2.0 runtime that hosts a catalog of
// tools, prompts, and resources and exposes them to clients over stdio,
// HTTP+SSE, or Streamable-HTTP transports.
//
// A [Server] owns a [ToolCollection], [PromptCollection], and
// [ResourceCollection]; [Server.Start] or [Server.Run] accept connections
// over a [Transport] and produce one [ServerSession] per peer. A [Client]
// is the mirror image: [Client.Connect] dials a [Transport] and returns a
// [ClientSession] that can call tools, list prompts, and read resources.
package mcp

const latestProtocolVersion = "2025-06-18"

// supportedProtocolVersions is checked in descending preference order
// during initialize negotiation (§4.5): the server responds with the
// highest version it supports that is <= the version the client asked for.
var supportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}

// negotiateVersion picks the highest version in supportedProtocolVersions
// that is no newer than requested: the list is kept in descending order, and
// these date-stamped strings sort lexically the same as chronologically, so
// the first entry <= requested is the answer. No supported version that old
// means the client is asking for something older than we can speak at all.
func negotiateVersion(requested string) (string, bool) {
	if requested == "" {
		return latestProtocolVersion, true
	}
	for _, v := range supportedProtocolVersions {
		if v <= requested {
			return v, true
		}
	}
	return "", false
}
