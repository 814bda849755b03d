// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfoMarksDirtyBuilds(t *testing.T) {
	saved := GitDirty
	defer func() { GitDirty = saved }()

	GitDirty = "false"
	if strings.Contains(Info(), "-dirty") {
		t.Errorf("clean build reported dirty: %q", Info())
	}

	GitDirty = "true"
	if !strings.Contains(Info(), GitCommit+"-dirty") {
		t.Errorf("dirty build not marked: %q", Info())
	}
	if !Current().Dirty {
		t.Error("Current().Dirty = false for dirty build")
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Info()) {
		t.Errorf("Full() %q does not start with Info()", full)
	}
	if !strings.Contains(full, Current().Platform) {
		t.Errorf("Full() %q lacks platform", full)
	}
}
