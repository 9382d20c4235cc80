package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bucketcrop/bucket"
	"bucketcrop/config"
	"bucketcrop/crop"
	"bucketcrop/types"
)

func scanned() ([]types.ImageRecord, types.BucketSet) {
	cfg := config.Default()
	classifier := bucket.NewClassifier(cfg)
	images := []types.ImageRecord{
		{Path: "/in/wide.png", Filename: "wide.png", Width: 2000, Height: 1000},
		{Path: "/in/tall.jpg", Filename: "tall.jpg", Width: 600, Height: 900},
	}
	for i := range images {
		images[i].Orientation = classifier.Classify(images[i].Width, images[i].Height)
	}
	buckets := bucket.NewSynthesizer(cfg).Synthesize(images)
	images, buckets = bucket.Assign(images, buckets)
	return crop.Suggest(images, buckets), buckets
}

func TestSaveLoadKeepsCropEdits(t *testing.T) {
	images, buckets := scanned()
	s := New("/in", images, buckets)

	edit := types.CropRectangle{X: 10, Y: 20, Width: 300, Height: 450}
	s.Images[1].Cropped = true
	s.Images[1].CropParams = &edit

	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Folder != "/in" || !loaded.CreatedAt.Equal(s.CreatedAt) {
		t.Errorf("Expected folder and timestamp kept, got %q %v", loaded.Folder, loaded.CreatedAt)
	}
	if len(loaded.Images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(loaded.Images))
	}
	if got := loaded.Images[1]; !got.Cropped || got.CropParams == nil || *got.CropParams != edit {
		t.Errorf("Expected crop edit kept, got %+v", got.CropParams)
	}
	if got := loaded.Images[0]; got.Cropped || got.DefaultCrop == nil || *got.DefaultCrop != *s.Images[0].DefaultCrop {
		t.Errorf("Expected default crop kept and not committed, got %+v", got)
	}

	set, err := loaded.BucketSet()
	if err != nil {
		t.Fatal(err)
	}
	if set != buckets {
		t.Errorf("Expected buckets %+v, got %+v", buckets, set)
	}

	dims := loaded.Dimensions()
	if dims[types.BucketLandscape] != (types.Dimensions{Width: 1984, Height: 1024}) {
		t.Errorf("Unexpected landscape dimensions %+v", dims[types.BucketLandscape])
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected only the session file, found %d entries", len(entries))
	}
}

func TestAcceptDefaults(t *testing.T) {
	images, buckets := scanned()
	s := New("/in", images, buckets)

	edit := types.CropRectangle{Width: 100, Height: 100}
	s.Images[0].Cropped = true
	s.Images[0].CropParams = &edit

	if n := s.AcceptDefaults(); n != 1 {
		t.Errorf("Expected 1 newly committed crop, got %d", n)
	}
	if s.CroppedCount() != 2 {
		t.Errorf("Expected every image cropped, got %d", s.CroppedCount())
	}
	if *s.Images[0].CropParams != edit {
		t.Errorf("Expected user crop kept, got %+v", s.Images[0].CropParams)
	}
	if *s.Images[1].CropParams != *s.Images[1].DefaultCrop {
		t.Errorf("Expected default crop committed, got %+v", s.Images[1].CropParams)
	}
}

func TestSnapBuckets(t *testing.T) {
	_, buckets := scanned()
	s := New("/in", nil, buckets)
	s.Buckets[0].Width = 1000
	s.Buckets[1].Width, s.Buckets[1].Height = 900, 900

	changes := s.SnapBuckets(64)
	if len(changes) != 2 {
		t.Fatalf("Expected 2 changes, got %v", changes)
	}
	if s.Buckets[0].Width != 1024 || s.Buckets[0].AspectRatio != 1.0 {
		t.Errorf("Expected landscape 1024 wide with ratio 1.0, got %+v", s.Buckets[0])
	}
	if s.Buckets[1].Width != 896 || s.Buckets[1].Height != 896 || s.Buckets[1].AspectRatio != 1.0 {
		t.Errorf("Expected square 896x896, got %+v", s.Buckets[1])
	}
	if len(s.SnapBuckets(64)) != 0 {
		t.Errorf("Expected no changes on the second pass")
	}
}

func TestLoadRejectsBadSessions(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "folder: [unclosed"},
		{"missing buckets", "folder: /in\nbuckets: []\n"},
		{"duplicate orientation", `folder: /in
buckets:
  - {id: A, orientation: landscape, width: 64, height: 64}
  - {id: B, orientation: landscape, width: 64, height: 64}
  - {id: C, orientation: portrait, width: 64, height: 64}
`},
		{"empty size", `folder: /in
buckets:
  - {id: A, orientation: landscape, width: 64, height: 64}
  - {id: B, orientation: square, width: 0, height: 64}
  - {id: C, orientation: portrait, width: 64, height: 64}
`},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Expected ErrInvalidSession, got %v", err)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
