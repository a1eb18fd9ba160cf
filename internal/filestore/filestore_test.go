package filestore

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
    t.Helper()

    store, err := New(t.TempDir())
    require.NoError(t, err)

    return store
}

func TestNewRequiresDirectory(t *testing.T) {
    _, err := New("")
    assert.Error(t, err)
}

func TestSaveAndOpen(t *testing.T) {
    store := newTestStore(t)

    name, err := store.Save(strings.NewReader("%PDF-1.4 fake"), "Blood Test Results.PDF")
    require.NoError(t, err)

    // The stored name is uuid-derived and never echoes the original.
    assert.NotContains(t, name, "Blood")
    assert.True(t, strings.HasSuffix(name, ".pdf"))

    f, err := store.Open(name)
    require.NoError(t, err)
    defer f.Close()

    content, err := io.ReadAll(f)
    require.NoError(t, err)
    assert.Equal(t, "%PDF-1.4 fake", string(content))
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
    store := newTestStore(t)

    _, err := store.Save(strings.NewReader("#!/bin/sh"), "script.sh")
    assert.ErrorIs(t, err, ErrUnsupportedExt)

    _, err = store.Save(strings.NewReader("x"), "noextension")
    assert.ErrorIs(t, err, ErrUnsupportedExt)
}

func TestSavedNamesAreUnique(t *testing.T) {
    store := newTestStore(t)

    a, err := store.Save(strings.NewReader("one"), "scan.pdf")
    require.NoError(t, err)
    b, err := store.Save(strings.NewReader("two"), "scan.pdf")
    require.NoError(t, err)

    assert.NotEqual(t, a, b)
}

func TestRemove(t *testing.T) {
    store := newTestStore(t)

    name, err := store.Save(strings.NewReader("data"), "scan.pdf")
    require.NoError(t, err)

    require.NoError(t, store.Remove(name))
    _, err = os.Stat(filepath.Join(store.Dir(), name))
    assert.True(t, os.IsNotExist(err))

    // Removing an already-removed file is fine.
    assert.NoError(t, store.Remove(name))
}

func TestPathTraversalRejected(t *testing.T) {
    store := newTestStore(t)

    for _, name := range []string{"", "../outside.pdf", "a/b.pdf", "..\\evil.pdf"} {
        _, err := store.Open(name)
        assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)

        err = store.Remove(name)
        assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
    }
}

func TestOpenMissingFile(t *testing.T) {
    store := newTestStore(t)

    _, err := store.Open("0b54ab37-missing.pdf")
    assert.ErrorIs(t, err, ErrFileNotFound)
}
