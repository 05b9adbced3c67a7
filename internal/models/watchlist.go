// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import "time"

type WatchlistStatus string

const (
	WatchlistStatusPending   WatchlistStatus = "pending"
	WatchlistStatusAvailable WatchlistStatus = "available"
	WatchlistStatusWatched   WatchlistStatus = "watched"
)

type WatchlistPriority string

const (
	WatchlistPriorityLow    WatchlistPriority = "low"
	WatchlistPriorityNormal WatchlistPriority = "normal"
	WatchlistPriorityHigh   WatchlistPriority = "high"
)

// Valid reports whether p is a known priority. Empty is accepted and normalised by the service.
func (p WatchlistPriority) Valid() bool {
	switch p {
	case "", WatchlistPriorityLow, WatchlistPriorityNormal, WatchlistPriorityHigh:
		return true
	default:
		return false
	}
}

type WatchlistItem struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Year       *int              `json:"year"`
	Priority   WatchlistPriority `json:"priority"`
	Notes      string            `json:"notes,omitempty"`
	Status     WatchlistStatus   `json:"status"`
	AddedAt    time.Time         `json:"addedDate"`
	Attempts   int               `json:"attempts"`
	LastError  string            `json:"lastError,omitempty"`
	AcquiredAt *time.Time        `json:"acquiredAt,omitempty"`
}

type WatchlistStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Available int `json:"available"`
	Watched   int `json:"watched"`
}
