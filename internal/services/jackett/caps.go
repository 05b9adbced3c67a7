// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jackett

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Caps captures the parsed capability and category data from a Torznab caps response.
type Caps struct {
	Capabilities []string
	Categories   []Category
}

type Category struct {
	ID     int
	Name   string
	Parent *int
}

// Supports reports whether the indexer advertises the named search mode, e.g. "movie-search".
func (c *Caps) Supports(capability string) bool {
	return slices.Contains(c.Capabilities, capability)
}

// HasCategory reports whether id is among the advertised categories or subcategories.
func (c *Caps) HasCategory(id int) bool {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}

type torznabCapsResponse struct {
	XMLName    xml.Name              `xml:"caps"`
	Searching  torznabSearchingCaps  `xml:"searching"`
	Categories []torznabCategoryNode `xml:"categories>category"`
}

type torznabSearchingCaps struct {
	Search      torznabSearchNode `xml:"search"`
	MovieSearch torznabSearchNode `xml:"movie-search"`
}

type torznabSearchNode struct {
	Available       string `xml:"available,attr"`
	SupportedParams string `xml:"supportedParams,attr"`
}

type torznabCategoryNode struct {
	ID      string              `xml:"id,attr"`
	Name    string              `xml:"name,attr"`
	Subcats []torznabSubcatNode `xml:"subcat"`
}

type torznabSubcatNode struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

func parseTorznabCaps(r io.Reader) (*Caps, error) {
	var resp torznabCapsResponse
	if err := xml.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode caps response: %w", err)
	}

	caps := &Caps{}
	if isCapsAvailable(resp.Searching.Search.Available) {
		caps.Capabilities = append(caps.Capabilities, "search")
	}
	if isCapsAvailable(resp.Searching.MovieSearch.Available) {
		caps.Capabilities = append(caps.Capabilities, "movie-search")
	}

	for _, cat := range resp.Categories {
		parentID, err := strconv.Atoi(strings.TrimSpace(cat.ID))
		if err != nil {
			continue
		}
		caps.Categories = append(caps.Categories, Category{
			ID:   parentID,
			Name: strings.TrimSpace(cat.Name),
		})
		for _, sub := range cat.Subcats {
			subID, err := strconv.Atoi(strings.TrimSpace(sub.ID))
			if err != nil {
				continue
			}
			parent := parentID
			caps.Categories = append(caps.Categories, Category{
				ID:     subID,
				Name:   strings.TrimSpace(sub.Name),
				Parent: &parent,
			})
		}
	}

	return caps, nil
}

func isCapsAvailable(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}
