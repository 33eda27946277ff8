// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the bridge.
//
// Configuration is loaded from a single file specified by either the
// CYPHAL_BRIDGE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks and no automatic file
// search: what the file says is what runs.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${CYPHAL_BRIDGE_STATE}, and ${VAR:-default} patterns are
// expanded. No environment variable overrides a config value.
//
// Key exports:
//
//   - [Config] -- master struct with Node, Subscribers, Params,
//     Recorder, Tap, and Metrics sections
//   - [Default] -- returns a Config with defaults for every section
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other packages of this module.
package config
