package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File name suffixes inside a DiskStore directory.
const (
	partSuffix    = ".part"
	metaSuffix    = ".json"
	claimedSuffix = ".claimed"
)

// DiskStore keeps photos in a local directory. Each photo is a content file
// named by its temp ID next to a JSON sidecar. The directory is the only
// state, so a restarted process can claim photos saved before it started.
type DiskStore struct {
	dir     string
	maxSize int64
}

type photoMeta struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	SavedAt     time.Time `json:"saved_at"`
}

// NewDiskStore creates a DiskStore in dir. maxSize of 0 means no limit.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, maxSize: maxSize}, nil
}

// Save writes the photo and returns its temp ID. The content becomes
// claimable only once it is complete.
func (s *DiskStore) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.tooLarge(size) {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := generateTempID()
	part := s.path(id) + partSuffix
	written, err := s.writePart(part, r)
	if err != nil {
		os.Remove(part)
		return "", err
	}

	meta := photoMeta{
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
		SavedAt:     time.Now(),
	}
	data, err := json.Marshal(meta)
	if err == nil {
		err = os.WriteFile(s.path(id)+metaSuffix, data, 0o644)
	}
	if err == nil {
		err = os.Rename(part, s.path(id))
	}
	if err != nil {
		os.Remove(part)
		os.Remove(s.path(id) + metaSuffix)
		return "", err
	}
	return id, nil
}

func (s *DiskStore) writePart(name string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.tooLarge(written) {
		err = ErrTooLarge
	}
	return written, err
}

func (s *DiskStore) tooLarge(n int64) bool {
	return s.maxSize > 0 && n > s.maxSize
}

// Claim hands the photo to exactly one caller. Closing the returned file
// removes it from the directory.
func (s *DiskStore) Claim(ctx context.Context, tempID string) (*File, error) {
	if !validTempID(tempID) {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claimed := s.path(tempID) + claimedSuffix
	if err := os.Rename(s.path(tempID), claimed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	metaPath := s.path(tempID) + metaSuffix
	release := func() {
		os.Remove(claimed)
		os.Remove(metaPath)
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		release()
		return nil, ErrNotFound
	}
	var meta photoMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		release()
		return nil, err
	}
	f, err := os.Open(claimed)
	if err != nil {
		release()
		return nil, err
	}

	return &File{
		ID:          tempID,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Reader:      &claimedFile{File: f, release: release},
	}, nil
}

// Cleanup removes every file in the directory last modified before maxAge
// ago, including partial writes and claims that were never closed.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !validTempID(tempIDOf(entry.Name())) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func (s *DiskStore) path(tempID string) string {
	return filepath.Join(s.dir, tempID)
}

// tempIDOf strips the store's suffixes from a directory entry name.
func tempIDOf(name string) string {
	for _, suffix := range []string{partSuffix, metaSuffix, claimedSuffix} {
		if id, ok := strings.CutSuffix(name, suffix); ok {
			return id
		}
	}
	return name
}

// claimedFile removes the claimed photo and its sidecar on Close.
type claimedFile struct {
	*os.File
	release func()
}

func (c *claimedFile) Close() error {
	err := c.File.Close()
	c.release()
	return err
}
