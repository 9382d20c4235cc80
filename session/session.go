// Package session stores a scan result as an editable YAML file that the
// export step reads back.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bucketcrop/bucket"
	"bucketcrop/crop"
	"bucketcrop/types"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSession is returned by Load when the file content is unusable
var ErrInvalidSession = errors.New("invalid session file")

// Session is one scan's images and buckets plus the crop decisions made on them
type Session struct {
	Folder    string              `yaml:"folder"`
	CreatedAt time.Time           `yaml:"created_at"`
	Buckets   []types.Bucket      `yaml:"buckets"`
	Images    []types.ImageRecord `yaml:"images"`
}

// New creates a session from a scan result
func New(folder string, images []types.ImageRecord, buckets types.BucketSet) *Session {
	return &Session{
		Folder:    folder,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Buckets:   buckets[:],
		Images:    images,
	}
}

// Save writes the session to path through a temporary file in the same directory
func Save(path string, s *Session) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save session %s: %w", path, err)
	}
	return nil
}

// Load reads and checks a session file
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", path, err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSession, path, err)
	}
	if _, err := s.BucketSet(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// BucketSet returns the session buckets in A, B, C order.
// Exactly one bucket per orientation is required.
func (s *Session) BucketSet() (types.BucketSet, error) {
	var set types.BucketSet
	if len(s.Buckets) != len(set) {
		return set, fmt.Errorf("%w: expected %d buckets, got %d", ErrInvalidSession, len(set), len(s.Buckets))
	}

	seen := make(map[types.Orientation]bool)
	for _, b := range s.Buckets {
		if !b.Orientation.Valid() || seen[b.Orientation] {
			return set, fmt.Errorf("%w: bucket %q has bad or duplicate orientation %q", ErrInvalidSession, b.ID, b.Orientation)
		}
		if b.Width <= 0 || b.Height <= 0 {
			return set, fmt.Errorf("%w: bucket %q has size %dx%d", ErrInvalidSession, b.ID, b.Width, b.Height)
		}
		seen[b.Orientation] = true
	}

	for i, o := range types.Orientations {
		set[i], _ = s.findBucket(o)
	}
	return set, nil
}

func (s *Session) findBucket(o types.Orientation) (types.Bucket, bool) {
	for _, b := range s.Buckets {
		if b.Orientation == o {
			return b, true
		}
	}
	return types.Bucket{}, false
}

// Dimensions returns the bucket id -> output size table
func (s *Session) Dimensions() map[types.BucketID]types.Dimensions {
	dims := make(map[types.BucketID]types.Dimensions, len(s.Buckets))
	for _, b := range s.Buckets {
		dims[b.ID] = b.Dimensions()
	}
	return dims
}

// SnapBuckets moves hand-edited bucket sizes back onto the quantum grid.
// It returns one message per changed bucket.
func (s *Session) SnapBuckets(quantum int) []string {
	var changes []string
	for i, b := range s.Buckets {
		w, h, modified := bucket.ValidateSize(b.Width, b.Height, quantum)
		if !modified {
			continue
		}
		changes = append(changes, fmt.Sprintf("bucket %s: %dx%d snapped to %dx%d", b.ID, b.Width, b.Height, w, h))
		s.Buckets[i].Width, s.Buckets[i].Height = w, h
		s.Buckets[i].AspectRatio = bucket.ReportedRatio(b.Orientation, w, h)
	}
	return changes
}

// AcceptDefaults commits the suggested crop of every image that has no
// committed crop yet, and returns how many were committed
func (s *Session) AcceptDefaults() int {
	before := s.CroppedCount()
	s.Images = crop.Accept(s.Images)
	return s.CroppedCount() - before
}

// CroppedCount returns the number of images with a committed crop
func (s *Session) CroppedCount() int {
	n := 0
	for _, img := range s.Images {
		if img.Cropped && img.CropParams != nil {
			n++
		}
	}
	return n
}
