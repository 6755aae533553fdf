package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidHandle = errors.New("invalid media handle")
	ErrTooLarge      = errors.New("media exceeds size limit")
)

const (
	RecordingExt = ".webm"
	ClipExt      = ".mp4"
)

// Store keeps recordings in one flat directory and round clips in one
// directory per session.
type Store struct {
	uploadsDir string
	clipsDir   string
	now        func() time.Time
}

func New(uploadsDir, clipsDir string) (*Store, error) {
	for _, dir := range []string{uploadsDir, clipsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create media dir %s: %w", dir, err)
		}
	}
	return &Store{uploadsDir: uploadsDir, clipsDir: clipsDir, now: time.Now}, nil
}

func (s *Store) UploadsDir() string {
	return s.uploadsDir
}

func (s *Store) ClipsDir() string {
	return s.clipsDir
}

// SaveRecording writes an uploaded recording and returns its handle. At most
// limit bytes are accepted when limit is positive.
func (s *Store) SaveRecording(src io.Reader, limit int64) (string, error) {
	handle := s.newName(RecordingExt)
	if err := writeFile(filepath.Join(s.uploadsDir, handle), src, limit); err != nil {
		return "", err
	}
	return handle, nil
}

// RecordingPath resolves a handle to its file.
func (s *Store) RecordingPath(handle string) (string, error) {
	if !safeElement(handle) {
		return "", ErrInvalidHandle
	}
	return filepath.Join(s.uploadsDir, handle), nil
}

// DeleteRecording removes a recording. Missing files are not an error.
func (s *Store) DeleteRecording(handle string) error {
	path, err := s.RecordingPath(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveClip stores one round clip under session and returns its name.
func (s *Store) SaveClip(session string, src io.Reader, limit int64) (string, error) {
	if !safeElement(session) {
		return "", ErrInvalidHandle
	}
	dir := filepath.Join(s.clipsDir, session)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := s.newName(ClipExt)
	if err := writeFile(filepath.Join(dir, name), src, limit); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Store) ClipPath(session, name string) (string, error) {
	if !safeElement(session) || !safeElement(name) {
		return "", ErrInvalidHandle
	}
	return filepath.Join(s.clipsDir, session, name), nil
}

// ListClips returns the session's clips in upload order. A session without
// uploads has no clips.
func (s *Store) ListClips(session string) ([]string, error) {
	if !safeElement(session) {
		return nil, ErrInvalidHandle
	}
	entries, err := os.ReadDir(filepath.Join(s.clipsDir, session))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	clips := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), ClipExt) {
			clips = append(clips, entry.Name())
		}
	}
	slices.Sort(clips)
	return clips, nil
}

// RemoveSessionMedia deletes the session's clip directory.
func (s *Store) RemoveSessionMedia(session string) error {
	if !safeElement(session) {
		return ErrInvalidHandle
	}
	return os.RemoveAll(filepath.Join(s.clipsDir, session))
}

func (s *Store) newName(ext string) string {
	ms := strconv.FormatInt(s.now().UnixMilli(), 10)
	return ms + "-" + uuid.NewString() + ext
}

func writeFile(path string, src io.Reader, limit int64) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	reader := src
	if limit > 0 {
		reader = io.LimitReader(src, limit+1)
	}
	written, copyErr := io.Copy(file, reader)
	closeErr := file.Close()
	if copyErr == nil && limit > 0 && written > limit {
		copyErr = ErrTooLarge
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(path)
		return copyErr
	}
	return nil
}

// safeElement accepts a single, non-hidden path element.
func safeElement(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
