// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version, GitCommit = "v1.2.3", ""
	if got := String(); got != "v1.2.3" {
		t.Errorf("String() = %q, want %q", got, "v1.2.3")
	}

	GitCommit = "abc1234"
	if got := String(); got != "v1.2.3 (abc1234)" {
		t.Errorf("String() = %q, want %q", got, "v1.2.3 (abc1234)")
	}
}
