// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/autobrr/seederbot/internal/models"
)

// Namespace is the XML namespace torznab:attr elements are declared in.
const Namespace = "http://torznab.com/schemas/2015/feed"

// ParseError reports a feed document that is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed torznab feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type feedItem struct {
	Title       string         `xml:"title"`
	Link        string         `xml:"link"`
	GUID        string         `xml:"guid"`
	PubDate     string         `xml:"pubDate"`
	Description string         `xml:"description"`
	Size        string         `xml:"size"`
	Indexer     feedIndexer    `xml:"jackettindexer"`
	Enclosure   *feedEnclosure `xml:"enclosure"`
	Attrs       []feedAttr     `xml:"attr"`
}

type feedIndexer struct {
	ID   string `xml:"id,attr"`
	Name string `xml:",chardata"`
}

type feedEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type feedAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Parse converts a Torznab RSS payload into candidates, in document order.
//
// Items are read wherever they appear in the document. An item without a title is
// dropped. A document that is not well-formed yields a *ParseError.
func Parse(payload []byte) ([]models.Candidate, error) {
	candidates, _, err := parse(payload)
	return candidates, err
}

// ParseWithStats behaves like Parse and also reports how many items were dropped.
func ParseWithStats(payload []byte) ([]models.Candidate, int, error) {
	return parse(payload)
}

func parse(payload []byte) ([]models.Candidate, int, error) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		candidates []models.Candidate
		dropped    int
		sawRoot    bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, &ParseError{Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		if start.Name.Local != "item" {
			continue
		}

		var it feedItem
		if err := decoder.DecodeElement(&it, &start); err != nil {
			return nil, 0, &ParseError{Err: err}
		}

		candidate, ok := it.toCandidate()
		if !ok {
			dropped++
			continue
		}
		candidates = append(candidates, candidate)
	}

	if !sawRoot {
		return nil, 0, &ParseError{Err: errors.New("document has no root element")}
	}

	return candidates, dropped, nil
}

func (it feedItem) toCandidate() (models.Candidate, bool) {
	title := strings.TrimSpace(it.Title)
	if title == "" {
		return models.Candidate{}, false
	}

	c := models.Candidate{
		Title:                title,
		Link:                 strings.TrimSpace(it.Link),
		GUID:                 strings.TrimSpace(it.GUID),
		PublishDate:          strings.TrimSpace(it.PubDate),
		Description:          it.Description,
		Indexer:              strings.TrimSpace(it.Indexer.Name),
		DownloadVolumeFactor: 1.0,
		UploadVolumeFactor:   1.0,
	}

	if c.PublishDate != "" {
		if t, err := time.Parse(time.RFC1123Z, c.PublishDate); err == nil {
			c.PublishedAt = t
		} else if t, err := time.Parse(time.RFC1123, c.PublishDate); err == nil {
			c.PublishedAt = t
		}
	}

	sizeFromAttr := false
	for _, attr := range it.Attrs {
		value := strings.TrimSpace(attr.Value)
		switch strings.ToLower(strings.TrimSpace(attr.Name)) {
		case "size":
			c.Size = parseCount(value)
			sizeFromAttr = true
		case "seeders":
			c.Seeders = int(parseCount(value))
		case "peers":
			c.Peers = int(parseCount(value))
		case "grabs":
			c.Grabs = int(parseCount(value))
		case "downloadvolumefactor":
			c.DownloadVolumeFactor = parseFactor(value)
		case "uploadvolumefactor":
			c.UploadVolumeFactor = parseFactor(value)
		}
	}

	// Jackett also emits a plain <size> element; the attribute wins when both exist.
	if !sizeFromAttr {
		c.Size = parseCount(strings.TrimSpace(it.Size))
	}

	switch {
	case it.Enclosure != nil && strings.TrimSpace(it.Enclosure.URL) != "":
		c.DownloadURL = strings.TrimSpace(it.Enclosure.URL)
	case c.Link != "":
		c.DownloadURL = c.Link
	}

	return c, true
}

// parseCount returns 0 for empty, non-numeric or negative text.
func parseCount(value string) int64 {
	if value == "" {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// some indexers render counts as floats ("12.0")
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		n = int64(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

// parseFactor returns 1.0 for empty or non-numeric text.
func parseFactor(value string) float64 {
	if value == "" {
		return 1.0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1.0
	}
	return f
}
