package cache

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lumipallolabs/nestmap/internal/model"
)

const timeLayout = "2006-01-02_150405"

// ErrNoSnapshot is returned when no snapshot exists for a key
var ErrNoSnapshot = errors.New("no snapshot")

// Cache handles saving and loading node tree snapshots
type Cache struct {
	dir string
	now func() time.Time
}

// New creates a new cache in the given directory
func New(dir string) *Cache {
	return &Cache{dir: dir, now: time.Now}
}

// DefaultDir returns the default cache directory
func DefaultDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "nestmap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nestmap"
	}
	return filepath.Join(home, ".nestmap", "cache")
}

// Dir returns the directory snapshots are written to
func (c *Cache) Dir() string { return c.dir }

// Key turns a scanned root path into a snapshot file prefix
func Key(path string) string {
	key := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '_', ' ':
			return '-'
		}
		return r
	}, filepath.Clean(path))
	key = strings.Trim(key, "-")
	if key == "" || key == "." {
		return "root"
	}
	return key
}

// snapshotNode is the gob form of a node. Parent links are rebuilt on load.
type snapshotNode struct {
	Text        string
	SizeMetric  float32
	ColorMetric float32
	Path        string
	ToolTip     string
	Children    []snapshotNode
}

// snapshot is one saved top level
type snapshot struct {
	EmptySpace float32
	Nodes      []snapshotNode
}

// Save writes the nodes and everything below them under key and returns the
// file path
func (c *Cache) Save(key string, nodes *model.Nodes) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.gob.gz", key, c.now().Format(timeLayout))
	path := filepath.Join(c.dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)

	snap := snapshot{EmptySpace: nodes.EmptySpace().SizeMetric()}
	for n := range nodes.All() {
		snap.Nodes = append(snap.Nodes, toSnapshot(n))
	}

	if err := gob.NewEncoder(gzWriter).Encode(snap); err != nil {
		gzWriter.Close()
		return "", fmt.Errorf("encode: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return "", fmt.Errorf("flush: %w", err)
	}
	return path, nil
}

// LoadLatest loads the most recent snapshot for key into fresh unowned nodes
func (c *Cache) LoadLatest(key string) ([]*model.Node, float32, error) {
	latest, err := c.latest(key)
	if err != nil {
		return nil, 0, err
	}

	file, err := os.Open(latest)
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer gzReader.Close()

	var snap snapshot
	if err := gob.NewDecoder(gzReader).Decode(&snap); err != nil {
		return nil, 0, fmt.Errorf("decode: %w", err)
	}

	nodes := make([]*model.Node, 0, len(snap.Nodes))
	for i := range snap.Nodes {
		n, err := fromSnapshot(&snap.Nodes[i])
		if err != nil {
			return nil, 0, fmt.Errorf("snapshot %s: %w", filepath.Base(latest), err)
		}
		nodes = append(nodes, n)
	}
	return nodes, snap.EmptySpace, nil
}

// Timestamp returns the timestamp of the latest snapshot for key
func (c *Cache) Timestamp(key string) (time.Time, error) {
	latest, err := c.latest(key)
	if err != nil {
		return time.Time{}, err
	}

	base := strings.TrimSuffix(filepath.Base(latest), ".gob.gz")
	if len(base) < len(timeLayout) {
		return time.Time{}, fmt.Errorf("invalid filename %q", base)
	}
	return time.ParseInLocation(timeLayout, base[len(base)-len(timeLayout):], time.Local)
}

func (c *Cache) latest(key string) (string, error) {
	pattern := filepath.Join(c.dir, fmt.Sprintf("%s_*.gob.gz", key))
	files, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%s: %w", key, ErrNoSnapshot)
	}

	// Filenames sort by timestamp
	sort.Strings(files)
	return files[len(files)-1], nil
}

func toSnapshot(n *model.Node) snapshotNode {
	path, _ := n.Tag().(string)
	s := snapshotNode{
		Text:        n.Text(),
		SizeMetric:  n.SizeMetric(),
		ColorMetric: n.ColorMetric(),
		Path:        path,
		ToolTip:     n.ToolTip(),
	}
	for child := range n.Nodes().All() {
		s.Children = append(s.Children, toSnapshot(child))
	}
	return s
}

func fromSnapshot(s *snapshotNode) (*model.Node, error) {
	n, err := model.NewNode(s.Text, s.SizeMetric, s.ColorMetric)
	if err != nil {
		return nil, err
	}
	if s.Path != "" {
		n.SetTag(s.Path)
	}
	n.SetToolTip(s.ToolTip)
	for i := range s.Children {
		child, err := fromSnapshot(&s.Children[i])
		if err != nil {
			return nil, err
		}
		if err := n.Nodes().Add(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}
