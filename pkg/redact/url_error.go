// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package redact strips credentials from URLs before they reach logs or API responses.
package redact

import (
	"errors"
	"net/url"
	"strings"
)

const placeholder = "REDACTED"

var sensitiveParams = map[string]struct{}{
	"apikey":         {},
	"api_key":        {},
	"jackett_apikey": {},
	"passkey":        {},
	"password":       {},
	"token":          {},
}

// URL replaces sensitive query values and userinfo passwords in raw.
// Unparseable input is returned unchanged.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), placeholder)
		}
	}

	query := u.Query()
	changed := false
	for key := range query {
		if _, ok := sensitiveParams[strings.ToLower(key)]; ok {
			query.Set(key, placeholder)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

// URLError returns err with the URL of any wrapped *url.Error redacted.
// Errors without a *url.Error are returned as is.
func URLError(err error) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}

	clean := &url.Error{
		Op:  urlErr.Op,
		URL: URL(urlErr.URL),
		Err: urlErr.Err,
	}

	if err == error(urlErr) {
		return clean
	}

	return &redactedError{
		msg: strings.ReplaceAll(err.Error(), urlErr.URL, clean.URL),
		err: clean,
	}
}
