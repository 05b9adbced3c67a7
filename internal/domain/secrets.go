// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// RedactedStr replaces secret values in logs and API output.
const RedactedStr = "<redacted>"

// RedactString hides a non-empty secret behind RedactedStr.
func RedactString(s string) string {
	if s == "" {
		return ""
	}
	return RedactedStr
}

// Redacted returns a copy safe to print, with every credential replaced.
// Unset credentials stay empty so the output still shows what is missing.
func (c Config) Redacted() Config {
	c.AppToken = RedactString(c.AppToken)
	c.RadarrAPIKey = RedactString(c.RadarrAPIKey)
	c.JackettAPIKey = RedactString(c.JackettAPIKey)
	c.QbitPassword = RedactString(c.QbitPassword)
	c.QbitBasicPassword = RedactString(c.QbitBasicPassword)
	c.MetricsBasicAuthUsers = RedactString(c.MetricsBasicAuthUsers)
	return c
}
