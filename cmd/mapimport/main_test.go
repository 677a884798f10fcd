package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSaver struct {
	docs map[string]string
	err  error
}

func (m *memSaver) Save(_ context.Context, mapID string, doc []byte) error {
	if m.err != nil {
		return m.err
	}
	m.docs[mapID] = string(doc)
	return nil
}

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImportFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "hall-a.json", `{"canvasObjects":[],"tierData":[]}`)
	bad := writeDoc(t, dir, "broken.json", `{"canvasObjects":`)

	tests := []struct {
		name    string
		id      string
		files   []string
		saveErr error
		failed  int
		stored  []string
	}{
		{name: "id from file name", files: []string{good}, stored: []string{"hall-a"}},
		{name: "explicit id", id: "m1", files: []string{good}, stored: []string{"m1"}},
		{name: "undecodable skipped", files: []string{good, bad}, failed: 1, stored: []string{"hall-a"}},
		{name: "missing file", files: []string{filepath.Join(dir, "nope.json")}, failed: 1},
		{name: "save fails", files: []string{good}, saveErr: errors.New("db down"), failed: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := &memSaver{docs: map[string]string{}, err: tt.saveErr}
			assert.Equal(t, tt.failed, importFiles(context.Background(), dst, tt.id, tt.files))
			var stored []string
			for id := range dst.docs {
				stored = append(stored, id)
			}
			assert.ElementsMatch(t, tt.stored, stored)
		})
	}
}

func TestRunValidatesArgs(t *testing.T) {
	assert.EqualError(t, run(nil), "no documents given")
	assert.EqualError(t, run([]string{"--id", "m1", "a.json", "b.json"}), "--id needs exactly one document")
	assert.NoError(t, run([]string{"--help"}))
}
