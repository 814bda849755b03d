// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds scullctl's command tree on top of the
// control client.
package commands
