// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		value string
		want  Location
	}{
		{"", Location{Kind: LocationAuto}},
		{"   ", Location{Kind: LocationAuto}},
		{"work", Location{Kind: LocationNamed, Value: "work"}},
		{"default", Location{Kind: LocationNamed, Value: "default"}},
		{"work.toml", Location{Kind: LocationPath, Value: "work.toml"}},
		{"/etc/ata/ata.toml", Location{Kind: LocationPath, Value: "/etc/ata/ata.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLocation(tt.value))
		})
	}
}

func TestLocation_Resolve(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	t.Setenv("AppData", home)
	dir, err := ConfigDir()
	require.NoError(t, err)

	path, err := ParseLocation("work").Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "work.toml"), path)

	path, err = ParseLocation("some/file.toml").Resolve()
	require.NoError(t, err)
	assert.Equal(t, "some/file.toml", path)
}

func TestLocation_AutoPrefersWorkingDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	t.Setenv("AppData", home)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path, err := ParseLocation("").Resolve()
	require.NoError(t, err)
	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), path)

	require.NoError(t, os.WriteFile(DefaultFileName, []byte(validTOML), 0600))
	for _, value := range []string{"", "default"} {
		path, err = ParseLocation(value).Resolve()
		require.NoError(t, err)
		assert.Equal(t, DefaultFileName, path)
	}
}

func TestHistoryPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	t.Setenv("AppData", home)

	path, err := HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, "history", filepath.Base(path))
	assert.Equal(t, AppName, filepath.Base(filepath.Dir(path)))
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "auto", ParseLocation("").String())
	assert.Equal(t, "profile work", ParseLocation("work").String())
	assert.Equal(t, "x.toml", ParseLocation("x.toml").String())
}
