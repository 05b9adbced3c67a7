// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/seederbot/internal/buildinfo"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:torznab="http://torznab.com/schemas/2015/feed">
<channel><title>AggregateSearch</title>
<item><title>Dune.2021.1080p.WEB-DL.DDP5.1.H.264-GRP</title><link>http://example/dl/1</link>
<torznab:attr name="seeders" value="120"/><torznab:attr name="size" value="4294967296"/>
<torznab:attr name="downloadvolumefactor" value="0"/></item>
<item><title>Dune.2021.1080p.BluRay.x264-OTHER</title><link>http://example/dl/2</link>
<torznab:attr name="seeders" value="40"/><torznab:attr name="size" value="5368709120"/></item>
<item><title>Dune.2021.CAM.x264</title><link>http://example/dl/3</link>
<torznab:attr name="seeders" value="900"/><torznab:attr name="size" value="3221225472"/></item>
</channel></rss>`

const testCaps = `<?xml version="1.0" encoding="UTF-8"?>
<caps>
	<searching>
		<search available="yes" supportedParams="q"/>
		<movie-search available="yes" supportedParams="q,imdbid"/>
	</searching>
	<categories>
		<category id="2000" name="Movies">
			<subcat id="2040" name="Movies/HD"/>
		</category>
	</categories>
</caps>`

func runUserCommand(cmd *cobra.Command, args ...string) (string, error) {
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func newFakeJackett(t *testing.T, feed string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))

		if r.URL.Query().Get("t") == "caps" {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = w.Write([]byte(testCaps))
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, jackettURL string) string {
	t.Helper()

	dir := t.TempDir()
	content := fmt.Sprintf(`mode = "blackhole"
appToken = "%s"
jackettUrl = "%s"
jackettApiKey = "secret"
categories = "2000,2010"
watchDir = "%s"
`, strings.Repeat("t", 40), jackettURL, filepath.Join(dir, "watch"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
	return dir
}

func TestSearchCommand(t *testing.T) {
	srv := newFakeJackett(t, testFeed)
	dir := writeConfig(t, srv.URL)

	out, err := runUserCommand(RunSearchCommand(), "--config-dir", dir, "--year", "2021", "Dune")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	assert.Contains(t, lines[0], "SEEDERS")
	assert.Contains(t, lines[1], "Dune.2021.1080p.WEB-DL.DDP5.1.H.264-GRP")
	assert.Contains(t, lines[1], "yes")
	assert.Contains(t, lines[1], "1080p")
	assert.Contains(t, lines[2], "Dune.2021.1080p.BluRay.x264-OTHER")
	assert.NotContains(t, out, "CAM")
}

func TestSearchCommandLimit(t *testing.T) {
	srv := newFakeJackett(t, testFeed)
	dir := writeConfig(t, srv.URL)

	out, err := runUserCommand(RunSearchCommand(), "--config-dir", dir, "--limit", "1", "Dune")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2, out)
}

func TestSearchCommandNotFound(t *testing.T) {
	srv := newFakeJackett(t, `<rss><channel></channel></rss>`)
	dir := writeConfig(t, srv.URL)

	out, err := runUserCommand(RunSearchCommand(), "--config-dir", dir, "Nothing")
	require.NoError(t, err)
	assert.Contains(t, out, `No suitable candidates found for "Nothing"`)
}

func TestSearchCommandRequiresJackett(t *testing.T) {
	dir := writeConfig(t, "")

	_, err := runUserCommand(RunSearchCommand(), "--config-dir", dir, "Dune")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jackettUrl")
}

func TestSearchCommandRequiresTitle(t *testing.T) {
	_, err := runUserCommand(RunSearchCommand(), "--config-dir", t.TempDir())
	assert.Error(t, err)
}

func TestCapsCommand(t *testing.T) {
	srv := newFakeJackett(t, testFeed)
	dir := writeConfig(t, srv.URL)

	out, err := runUserCommand(RunCapsCommand(), "--config-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Search modes: search, movie-search")
	assert.Contains(t, out, "  2000 Movies")
	assert.Contains(t, out, "    2040 Movies/HD")
	assert.Contains(t, out, "configured category 2010 is not advertised")
}

func TestGenerateTokenCommand(t *testing.T) {
	out, err := runUserCommand(RunGenerateTokenCommand())
	require.NoError(t, err)

	token := strings.TrimSpace(out)
	assert.Len(t, token, 43)
}

func TestGenerateTokenCommandSave(t *testing.T) {
	dir := writeConfig(t, "http://jackett:9117")

	out, err := runUserCommand(RunGenerateTokenCommand(), "--config-dir", dir, "--save")
	require.NoError(t, err)

	token := strings.TrimSpace(strings.Split(out, "\n")[0])
	require.Len(t, token, 43)

	content, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(content), fmt.Sprintf("appToken = %q", token))
	assert.NotContains(t, string(content), strings.Repeat("t", 40))
}

func TestVersionCommand(t *testing.T) {
	out, err := runUserCommand(RunVersionCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "Version: "+buildinfo.Version)

	out, err = runUserCommand(RunVersionCommand(), "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version":"`+buildinfo.Version+`"`)
}
