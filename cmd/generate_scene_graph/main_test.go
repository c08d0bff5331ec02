package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInputFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	for _, name := range []string{"a.txt", "b.md", "nested/c.html", "d.json", "e.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("A lamp is near the sofa."), 0644))
	}

	files, err := readInputFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.md"),
		filepath.Join(dir, "nested", "c.html"),
	}, files)
}

func TestExtractText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.md")
	require.NoError(t, os.WriteFile(path, []byte("# Kitchen\n\nA red cup is on the table."), 0644))

	text, err := extractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen A red cup is on the table.", text)
}

func TestSceneID(t *testing.T) {
	a := sceneID("/docs/living room.txt")
	b := sceneID("/other/living room.txt")

	assert.Regexp(t, `^living_room-[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}
