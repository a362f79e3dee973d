package cache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lumipallolabs/nestmap/internal/model"
)

func buildNodes(t *testing.T) *model.Nodes {
	t.Helper()
	top := model.NewNodes(nil)
	dir := model.MustNode("docs", 300, 2)
	dir.SetTag("/data/docs")
	dir.SetToolTip("/data/docs")
	file := model.MustNode("notes.txt", 300, 1)
	file.SetTag("/data/docs/notes.txt")
	if err := dir.Nodes().Add(file); err != nil {
		t.Fatal(err)
	}
	if err := top.Add(dir); err != nil {
		t.Fatal(err)
	}
	if err := top.EmptySpace().SetSizeMetric(50); err != nil {
		t.Fatal(err)
	}
	return top
}

func TestSaveAndLoad(t *testing.T) {
	tmp := t.TempDir()
	c := New(tmp)

	path, err := c.Save("data", buildNodes(t))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(tmp, "data_*.gob.gz"))
	if len(files) != 1 || files[0] != path {
		t.Fatalf("expected one snapshot at %s, got %v", path, files)
	}

	loaded, empty, err := c.LoadLatest("data")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if empty != 50 {
		t.Errorf("expected empty space 50, got %v", empty)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 node, got %d", len(loaded))
	}

	docs := loaded[0]
	if docs.Text() != "docs" || docs.SizeMetric() != 300 || docs.ToolTip() != "/data/docs" {
		t.Errorf("unexpected node %q size=%v tooltip=%q", docs.Text(), docs.SizeMetric(), docs.ToolTip())
	}
	if docs.Nodes().Len() != 1 {
		t.Fatalf("expected 1 child, got %d", docs.Nodes().Len())
	}
	child := docs.Nodes().At(0)
	if child.Parent() != docs {
		t.Error("child parent link not rebuilt")
	}
	if child.Tag() != "/data/docs/notes.txt" {
		t.Errorf("unexpected tag %v", child.Tag())
	}
}

func TestLoadLatestPicksNewest(t *testing.T) {
	tmp := t.TempDir()
	c := New(tmp)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)

	c.now = func() time.Time { return base }
	if _, err := c.Save("data", buildNodes(t)); err != nil {
		t.Fatal(err)
	}

	newer := model.NewNodes(nil)
	newer.AddNew("only", 1, 0)
	c.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := c.Save("data", newer); err != nil {
		t.Fatal(err)
	}

	loaded, _, err := c.LoadLatest("data")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0].Text() != "only" {
		t.Errorf("expected the newer snapshot, got %v", loaded)
	}

	ts, err := c.Timestamp("data")
	if err != nil {
		t.Fatal(err)
	}
	if !ts.Equal(base.Add(time.Hour)) {
		t.Errorf("expected timestamp %v, got %v", base.Add(time.Hour), ts)
	}
}

func TestLoadLatestNoCache(t *testing.T) {
	c := New(t.TempDir())

	_, _, err := c.LoadLatest("X")
	if !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
	if _, err := c.Timestamp("X"); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot from Timestamp, got %v", err)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "root"},
		{"/home/me/my_dir", "home-me-my-dir"},
		{"C:\\Users", "C--Users"},
		{"relative/path/", "relative-path"},
	}
	for _, tt := range tests {
		if got := Key(tt.path); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
