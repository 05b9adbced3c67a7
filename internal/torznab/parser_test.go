// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedWithItems(items ...string) []byte {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:torznab="http://torznab.com/schemas/2015/feed">
<channel>
<title>AggregateSearch</title>`
	for _, item := range items {
		body += item
	}
	body += `</channel></rss>`
	return []byte(body)
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := feedWithItems(`
<item>
  <title>Movie.2023.1080p.WEB-DL.x264</title>
  <guid>https://tracker.example/details/1</guid>
  <jackettindexer id="example">Example</jackettindexer>
  <link>https://jackett.example/dl/example/?jackett_apikey=abc&amp;path=1</link>
  <pubDate>Mon, 02 Jan 2023 15:04:05 +0000</pubDate>
  <description>a movie</description>
  <enclosure url="https://jackett.example/dl/example/1.torrent" length="4294967296" type="application/x-bittorrent" />
  <torznab:attr name="size" value="4294967296" />
  <torznab:attr name="seeders" value="50" />
  <torznab:attr name="peers" value="61" />
  <torznab:attr name="grabs" value="7" />
  <torznab:attr name="downloadvolumefactor" value="0" />
  <torznab:attr name="uploadvolumefactor" value="2" />
  <torznab:attr name="imdbid" value="tt1234567" />
</item>`)

	candidates, err := Parse(payload)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Movie.2023.1080p.WEB-DL.x264", c.Title)
	assert.Equal(t, int64(4294967296), c.Size)
	assert.Equal(t, 50, c.Seeders)
	assert.Equal(t, 61, c.Peers)
	assert.Equal(t, 7, c.Grabs)
	assert.Equal(t, 0.0, c.DownloadVolumeFactor)
	assert.Equal(t, 2.0, c.UploadVolumeFactor)
	assert.Equal(t, "https://jackett.example/dl/example/1.torrent", c.DownloadURL)
	assert.Equal(t, "https://tracker.example/details/1", c.GUID)
	assert.Equal(t, "Example", c.Indexer)
	assert.Equal(t, "a movie", c.Description)
	assert.Equal(t, 2023, c.PublishedAt.Year())
	assert.True(t, c.IsFreeleech())
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	payload := feedWithItems(`
<item>
  <title>Bare.Item.2020.1080p.BluRay</title>
  <torznab:attr name="seeders" value="" />
  <torznab:attr name="peers" value="many" />
  <torznab:attr name="downloadvolumefactor" value="free" />
</item>`)

	candidates, err := Parse(payload)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Zero(t, c.Size)
	assert.Zero(t, c.Seeders)
	assert.Zero(t, c.Peers)
	assert.Zero(t, c.Grabs)
	assert.Equal(t, 1.0, c.DownloadVolumeFactor)
	assert.Equal(t, 1.0, c.UploadVolumeFactor)
	assert.Empty(t, c.DownloadURL)
	assert.True(t, c.PublishedAt.IsZero())
}

func TestParse_DownloadURLResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item string
		want string
	}{
		{
			name: "enclosure wins over link",
			item: `<item><title>A</title><link>https://link</link><enclosure url="https://enclosure" /></item>`,
			want: "https://enclosure",
		},
		{
			name: "falls back to link",
			item: `<item><title>A</title><link>https://link</link></item>`,
			want: "https://link",
		},
		{
			name: "empty enclosure url falls back to link",
			item: `<item><title>A</title><link>https://link</link><enclosure url="" /></item>`,
			want: "https://link",
		},
		{
			name: "neither present",
			item: `<item><title>A</title></item>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			candidates, err := Parse(feedWithItems(tt.item))
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.Equal(t, tt.want, candidates[0].DownloadURL)
		})
	}
}

func TestParse_SizeElementFallback(t *testing.T) {
	t.Parallel()

	candidates, err := Parse(feedWithItems(`<item><title>A</title><size>1234</size></item>`))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(1234), candidates[0].Size)

	candidates, err = Parse(feedWithItems(`<item><title>A</title><size>1234</size><torznab:attr name="size" value="99" /></item>`))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int64(99), candidates[0].Size)
}

func TestParse_DropsItemsWithoutTitle(t *testing.T) {
	t.Parallel()

	payload := feedWithItems(
		`<item><title>First</title></item>`,
		`<item><title>   </title><link>https://x</link></item>`,
		`<item><link>https://y</link></item>`,
		`<item><title>Second</title></item>`,
	)

	candidates, dropped, err := ParseWithStats(payload)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	require.Len(t, candidates, 2)
	assert.Equal(t, "First", candidates[0].Title)
	assert.Equal(t, "Second", candidates[1].Title)
}

func TestParse_PreservesDocumentOrder(t *testing.T) {
	t.Parallel()

	var items []string
	for i := range 10 {
		items = append(items, fmt.Sprintf(`<item><title>Item %d</title></item>`, i))
	}

	candidates, err := Parse(feedWithItems(items...))
	require.NoError(t, err)
	require.Len(t, candidates, 10)
	for i, c := range candidates {
		assert.Equal(t, fmt.Sprintf("Item %d", i), c.Title)
	}
}

func TestParse_EmptyChannel(t *testing.T) {
	t.Parallel()

	candidates, err := Parse(feedWithItems())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestParse_MalformedDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ""},
		{name: "plain text", payload: "not xml at all"},
		{name: "truncated", payload: `<rss><channel><item><title>A</title>`},
		{name: "mismatched tags", payload: `<rss><channel></item></channel></rss>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			candidates, err := Parse([]byte(tt.payload))
			require.Error(t, err)
			assert.Nil(t, candidates)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestCheckError(t *testing.T) {
	t.Parallel()

	err := CheckError([]byte(`<?xml version="1.0" encoding="UTF-8"?><error code="100" description="Invalid API Key" />`))
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 100, apiErr.Code)
	assert.Equal(t, "Invalid API Key", apiErr.Description)

	assert.NoError(t, CheckError(feedWithItems()))
	assert.NoError(t, CheckError([]byte("garbage")))
}
