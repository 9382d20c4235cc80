package scanner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bucketcrop/config"
	"bucketcrop/types"
)

// fakeProber returns fixed sizes by base name and fails for everything else
type fakeProber struct {
	mu    sync.Mutex
	sizes map[string][2]int
	calls int
}

func (f *fakeProber) Probe(path string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	size, ok := f.sizes[filepath.Base(path)]
	if !ok {
		return 0, 0, errors.New("corrupt header")
	}
	return size[0], size[1], nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "wide.png"))
	touch(t, filepath.Join(dir, "nested", "deeper", "TALL.JPG"))
	touch(t, filepath.Join(dir, "nested", "square.webp"))
	touch(t, filepath.Join(dir, "broken.gif"))
	touch(t, filepath.Join(dir, "wide.txt"))
	touch(t, filepath.Join(dir, "raw.cr2"))

	prober := &fakeProber{sizes: map[string][2]int{
		"wide.png":    {2000, 1000},
		"TALL.JPG":    {600, 900},
		"square.webp": {800, 820},
	}}

	var progress bytes.Buffer
	s := NewScanner(config.Default(), prober)
	result, err := s.Scan(context.Background(), ScanOptions{FolderPath: dir, MaxWorkers: 2, Progress: &progress})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if prober.calls != 4 {
		t.Errorf("Expected 4 probes (allowlisted files only), got %d", prober.calls)
	}

	if len(result.Images) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(result.Images))
	}
	if len(result.Skipped) != 1 || !strings.Contains(result.Skipped[0], "broken.gif") {
		t.Errorf("Expected broken.gif skipped, got %v", result.Skipped)
	}

	for i := 1; i < len(result.Images); i++ {
		if result.Images[i-1].Path >= result.Images[i].Path {
			t.Errorf("Images not sorted by path: %s >= %s", result.Images[i-1].Path, result.Images[i].Path)
		}
	}

	byName := make(map[string]types.ImageRecord)
	for _, img := range result.Images {
		byName[img.Filename] = img
		if img.DefaultCrop == nil {
			t.Errorf("%s: expected a default crop", img.Filename)
		}
		if img.Cropped {
			t.Errorf("%s: scan must not commit crops", img.Filename)
		}
	}

	expected := map[string]struct {
		orientation types.Orientation
		bucket      types.BucketID
		format      string
	}{
		"wide.png":    {types.Landscape, types.BucketLandscape, "png"},
		"TALL.JPG":    {types.Portrait, types.BucketPortrait, "jpg"},
		"square.webp": {types.Square, types.BucketSquare, "webp"},
	}
	for name, want := range expected {
		img, ok := byName[name]
		if !ok {
			t.Errorf("Missing %s", name)
			continue
		}
		if img.Orientation != want.orientation || img.AssignedBucket != want.bucket || img.Format != want.format {
			t.Errorf("%s: expected %s/%s/%s, got %s/%s/%s", name,
				want.orientation, want.bucket, want.format, img.Orientation, img.AssignedBucket, img.Format)
		}
	}

	if a := result.Buckets[0]; a.Width != 1984 || a.Height != 1024 || a.ImageCount != 1 {
		t.Errorf("Expected bucket A 1984x1024 with 1 image, got %+v", a)
	}
	// (800+820)/2 = 810 -> 832
	if b := result.Buckets[1]; b.Width != 832 || b.Height != 832 {
		t.Errorf("Expected bucket B 832x832, got %+v", b)
	}

	if !strings.Contains(progress.String(), "Probing: 4/4") {
		t.Errorf("Expected final progress line, got %q", progress.String())
	}
}

func TestScanInputErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.png")
	touch(t, file)

	emptyDir := filepath.Join(dir, "empty")
	if err := os.Mkdir(emptyDir, 0755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(emptyDir, "notes.txt"))

	unreadable := filepath.Join(dir, "unreadable")
	touch(t, filepath.Join(unreadable, "bad.png"))

	tests := []struct {
		name     string
		folder   string
		expected error
	}{
		{"empty path", "", ErrBadInput},
		{"missing folder", filepath.Join(dir, "missing"), ErrFolderNotFound},
		{"file instead of folder", file, ErrNotDirectory},
		{"no supported files", emptyDir, ErrNoImages},
		{"every file unreadable", unreadable, ErrNoImages},
	}

	s := NewScanner(config.Default(), &fakeProber{sizes: map[string][2]int{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Scan(context.Background(), ScanOptions{FolderPath: tt.folder})
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
			if !errors.Is(err, ErrBadInput) {
				t.Errorf("Expected error to classify as bad input, got %v", err)
			}
		})
	}
}

func TestScanCancelled(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.png"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScanner(config.Default(), &fakeProber{sizes: map[string][2]int{"a.png": {10, 10}}})
	_, err := s.Scan(ctx, ScanOptions{FolderPath: dir})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestScanCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.png"))
	touch(t, filepath.Join(dir, "b.jpg"))

	cfg := config.Default()
	cfg.Extensions = []string{".jpg"}

	s := NewScanner(cfg, &fakeProber{sizes: map[string][2]int{"a.png": {10, 10}, "b.jpg": {10, 10}}})
	result, err := s.Scan(context.Background(), ScanOptions{FolderPath: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Images) != 1 || result.Images[0].Filename != "b.jpg" {
		t.Errorf("Expected only b.jpg, got %+v", result.Images)
	}
}

func TestProbePanicIsSkipped(t *testing.T) {
	s := NewScanner(config.Default(), panicProber{})
	result := s.probeOne("x.png")
	if result.Error == nil || !strings.Contains(result.Error.Error(), "panic") {
		t.Errorf("Expected panic converted to error, got %v", result.Error)
	}
}

type panicProber struct{}

func (panicProber) Probe(string) (int, int, error) { panic("bad decoder") }
