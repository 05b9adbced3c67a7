// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package releases

import (
	"strings"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/moistari/rls"
)

const defaultParserTTL = 5 * time.Minute

// Parser caches rls parses of release names. Indexers return the same titles
// for repeated searches, and rls parsing is comparatively expensive.
type Parser struct {
	cache *ttlcache.Cache[string, *rls.Release]
}

func NewParser(ttl time.Duration) *Parser {
	if ttl <= 0 {
		ttl = defaultParserTTL
	}
	return &Parser{
		cache: ttlcache.New(ttlcache.Options[string, *rls.Release]{}.SetDefaultTTL(ttl)),
	}
}

func NewDefaultParser() *Parser {
	return NewParser(defaultParserTTL)
}

// Parse returns the parsed release for name. A nil parser parses without caching.
func (p *Parser) Parse(name string) *rls.Release {
	name = strings.TrimSpace(name)
	if p == nil || p.cache == nil {
		release := rls.ParseString(name)
		return &release
	}
	if name == "" {
		return &rls.Release{}
	}

	if cached, ok := p.cache.Get(name); ok {
		return cached
	}

	release := rls.ParseString(name)
	p.cache.Set(name, &release, ttlcache.DefaultTTL)
	return &release
}

// Clear drops the cached parse for name.
func (p *Parser) Clear(name string) {
	if p == nil || p.cache == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	p.cache.Delete(name)
}

// Info is the subset of parsed metadata shown when previewing search results.
type Info struct {
	Title       string   `json:"title"`
	Year        int      `json:"year,omitempty"`
	ContentType string   `json:"content_type"`
	Resolution  string   `json:"resolution,omitempty"`
	Source      string   `json:"source,omitempty"`
	Codec       string   `json:"codec,omitempty"`
	HDR         []string `json:"hdr,omitempty"`
	Audio       []string `json:"audio,omitempty"`
	Edition     []string `json:"edition,omitempty"`
	Group       string   `json:"group,omitempty"`
}

// Describe parses name and returns its normalised metadata.
func (p *Parser) Describe(name string) Info {
	release := p.Parse(name)
	return Info{
		Title:       release.Title,
		Year:        release.Year,
		ContentType: ContentType(release),
		Resolution:  release.Resolution,
		Source:      SourceLabel(release.Source),
		Codec:       CodecLabels(release.Codec),
		HDR:         release.HDR,
		Audio:       release.Audio,
		Edition:     release.Edition,
		Group:       release.Group,
	}
}
