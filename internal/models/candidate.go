// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"strconv"
	"strings"
	"time"
)

const bytesPerGiB = 1 << 30

// Candidate is a single downloadable release returned by an indexer for a query.
type Candidate struct {
	Title                string    `json:"title"`
	Link                 string    `json:"link,omitempty"`
	GUID                 string    `json:"guid,omitempty"`
	PublishDate          string    `json:"publishDate,omitempty"`
	PublishedAt          time.Time `json:"publishedAt,omitzero"`
	Description          string    `json:"description,omitempty"`
	Size                 int64     `json:"size"`
	Seeders              int       `json:"seeders"`
	Peers                int       `json:"peers"`
	Grabs                int       `json:"grabs"`
	DownloadVolumeFactor float64   `json:"downloadVolumeFactor"`
	UploadVolumeFactor   float64   `json:"uploadVolumeFactor"`
	DownloadURL          string    `json:"downloadUrl,omitempty"`
	Indexer              string    `json:"indexer,omitempty"`
}

// SizeGiB returns the size in binary gigabytes.
func (c Candidate) SizeGiB() float64 {
	return float64(c.Size) / bytesPerGiB
}

// IsFreeleech reports whether the indexer marks the release as not counting against ratio.
func (c Candidate) IsFreeleech() bool {
	return c.DownloadVolumeFactor == 0.0
}

// ScoredCandidate is a Candidate that survived filtering, with its computed score.
type ScoredCandidate struct {
	Candidate
	Score float64 `json:"score"`
}

// MediaRequest names the movie a caller wants. Year zero means unspecified.
type MediaRequest struct {
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
}

// Query builds the free-text indexer query, "title year" or just the title.
func (r MediaRequest) Query() string {
	title := strings.TrimSpace(r.Title)
	if r.Year > 0 {
		return title + " " + strconv.Itoa(r.Year)
	}
	return title
}

// YearPtr returns nil for an unspecified year, for JSON responses that expect null.
func (r MediaRequest) YearPtr() *int {
	if r.Year <= 0 {
		return nil
	}
	year := r.Year
	return &year
}
