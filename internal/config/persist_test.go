// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"strings"
	"testing"
)

func TestSetTOMLKeyUpdatesCommentedKeyInPlace(t *testing.T) {
	content := `# config.toml - Auto-generated on first run

# Token
#appToken = ""

# Log level
logLevel = "INFO"

[extra]
#appToken = "nested"
`
	updated := setTOMLKey(content, "appToken", `"abc"`)

	extraIndex := strings.Index(updated, "[extra]")
	if extraIndex == -1 {
		t.Fatalf("missing extra section:\n%s", updated)
	}

	first := strings.Index(updated, `appToken = "abc"`)
	if first == -1 || first > extraIndex {
		t.Fatalf("appToken not updated in place:\n%s", updated)
	}
	if !strings.Contains(updated, `#appToken = "nested"`) {
		t.Fatalf("table entry must be left alone:\n%s", updated)
	}
	if strings.Count(updated, `appToken = "abc"`) != 1 {
		t.Fatalf("appToken written more than once:\n%s", updated)
	}
}

func TestSetTOMLKeyReplacesExistingValue(t *testing.T) {
	updated := setTOMLKey("mode = \"radarr\"\nappToken = \"old\"\n", "appToken", `"new"`)

	if strings.Contains(updated, `"old"`) {
		t.Fatalf("old value still present:\n%s", updated)
	}
	if !strings.Contains(updated, `appToken = "new"`) {
		t.Fatalf("new value missing:\n%s", updated)
	}
}

func TestSetTOMLKeyInsertsBeforeFirstTable(t *testing.T) {
	updated := setTOMLKey("mode = \"radarr\"\n\n[extra]\nkey = 1\n", "appToken", `"tok"`)

	tokenIndex := strings.Index(updated, `appToken = "tok"`)
	tableIndex := strings.Index(updated, "[extra]")
	if tokenIndex == -1 || tokenIndex > tableIndex {
		t.Fatalf("appToken must precede the first table:\n%s", updated)
	}
}

func TestSetTOMLKeyAppendsWithoutTables(t *testing.T) {
	updated := setTOMLKey(`mode = "radarr"`, "appToken", `"tok"`)

	if updated != "mode = \"radarr\"\nappToken = \"tok\"\n" {
		t.Fatalf("unexpected content:\n%q", updated)
	}
}
