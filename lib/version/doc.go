// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the textrelay binary.
//
// Release builds inject the commit and build time with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/textrelay/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Without them, [Current] reads the VCS stamp that go build embeds, and
// reports "unknown" for anything still missing.
package version
