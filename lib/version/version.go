// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// Build metadata, overridden with -ldflags "-X <pkg>.Name=value", e.g.
//
//	-X github.com/bureau-foundation/cyphal-bridge/lib/version.GitCommit=$(git rev-parse --short HEAD)
var (
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// Info renders the build as "<version> (<commit>[-dirty], <build time>)".
func Info() string {
	commit := GitCommit
	if GitDirty == "true" {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, BuildTime)
}

// Print writes the --version line for binary to stdout.
func Print(binary string) {
	Fprint(os.Stdout, binary)
}

// Fprint writes "<binary> <Info> <go version> <os>/<arch>" to w.
func Fprint(w io.Writer, binary string) {
	fmt.Fprintf(w, "%s %s %s %s/%s\n", binary, Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
