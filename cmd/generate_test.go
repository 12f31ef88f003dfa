package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mapscene/internal/scene"
)

func TestReadCenters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "centers.txt")
	require.NoError(t, os.WriteFile(path, []byte(
		"# comment line\n"+
			"52.52, 13.405\n"+
			"\n"+
			"48.8566,2.3522\n",
	), 0o644))

	centers, err := readCenters(path)
	require.NoError(t, err)
	require.Len(t, centers, 2)
	assert.Equal(t, 52.52, centers[0].lat)
	assert.Equal(t, 13.405, centers[0].lon)
	assert.Equal(t, 48.8566, centers[1].lat)
}

func TestReadCenters_BadLines(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{
		"missing_field": "52.52\n",
		"bad_lat":       "abc,13.4\n",
		"bad_lon":       "52.52,xyz\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".txt")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := readCenters(path)
			require.Error(t, err)
		})
	}
}

func TestReadCenters_MissingFile(t *testing.T) {
	_, err := readCenters(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}

func TestWriteScene(t *testing.T) {
	s := &scene.Scene{RunID: "run-1", OriginLat: 52.52, OriginLon: 13.405, Seed: 7}
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, writeScene(s, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got scene.Scene
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, uint64(7), got.Seed)
}
