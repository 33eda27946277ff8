// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which build of a bridge binary is running.
//
// [GitCommit], [GitDirty], [BuildTime] and [Version] are set with
// -ldflags -X by release builds. Development builds and tests see the
// defaults "unknown" and "0.1.0-dev". Every binary's --version flag
// calls [Print].
package version
