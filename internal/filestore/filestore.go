package filestore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
    ErrFileNotFound   = errors.New("stored file not found")
    ErrInvalidName    = errors.New("invalid stored file name")
    ErrUnsupportedExt = errors.New("unsupported file extension")
)

// permittedExtensions lists the upload types the tracker accepts. Reports and
// documents are PDF scans; common image scans are accepted too.
var permittedExtensions = map[string]bool{
    ".pdf":  true,
    ".png":  true,
    ".jpg":  true,
    ".jpeg": true,
}

// Store persists uploaded files on disk under a single directory. Stored names
// are uuid-derived so a hostile original filename can never influence the path;
// the original name only ever lives in the database row.
type Store struct {
    dir string
}

// New creates the storage directory if necessary and returns a Store for it.
func New(dir string) (*Store, error) {
    if dir == "" {
        return nil, errors.New("filestore: directory must be provided")
    }

    err := os.MkdirAll(dir, 0o755)
    if err != nil {
        return nil, fmt.Errorf("filestore: creating %s: %w", dir, err)
    }

    return &Store{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
    return s.dir
}

// Save writes the contents of src to a new uuid-named file, keeping the
// (lowercased) extension of originalName, and returns the stored name. The
// extension must be one of the permitted upload types.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
    ext := strings.ToLower(filepath.Ext(originalName))
    if !permittedExtensions[ext] {
        return "", ErrUnsupportedExt
    }

    name := uuid.NewString() + ext

    f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
    if err != nil {
        return "", err
    }

    _, err = io.Copy(f, src)
    if err != nil {
        f.Close()
        os.Remove(f.Name())
        return "", err
    }

    err = f.Close()
    if err != nil {
        os.Remove(f.Name())
        return "", err
    }

    return name, nil
}

// Open opens a stored file for reading.
func (s *Store) Open(name string) (*os.File, error) {
    path, err := s.path(name)
    if err != nil {
        return nil, err
    }

    f, err := os.Open(path)
    if err != nil {
        if errors.Is(err, os.ErrNotExist) {
            return nil, ErrFileNotFound
        }
        return nil, err
    }

    return f, nil
}

// Remove deletes a stored file. Removing a file that is already gone is not an
// error: deletion only needs the file to not exist afterwards.
func (s *Store) Remove(name string) error {
    path, err := s.path(name)
    if err != nil {
        return err
    }

    err = os.Remove(path)
    if err != nil && !errors.Is(err, os.ErrNotExist) {
        return err
    }

    return nil
}

// path resolves a stored name inside the storage directory, rejecting anything
// that isn't a bare file name.
func (s *Store) path(name string) (string, error) {
    if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, "/\\") {
        return "", ErrInvalidName
    }

    return filepath.Join(s.dir, name), nil
}
