package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumipallolabs/nestmap/internal/model"
)

// run executes the root command with an isolated config file and snapshot
// directory, returning stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	root := newRootCmd("1.2.3")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	t.Logf("stderr:\n%s", stderr.String())
	return stdout.String(), err
}

func isolate(t *testing.T) (configPath, snapshotDir string) {
	t.Helper()
	dir := t.TempDir()
	snapshotDir = filepath.Join(dir, "snapshots")
	t.Setenv("NESTMAP_SNAPSHOT_DIR", snapshotDir)
	return filepath.Join(dir, "nestmap.yml"), snapshotDir
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "alpha", "inner"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "beta"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alpha", "inner", "big.bin"), make([]byte, 64*1024), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "beta", "small.bin"), make([]byte, 16*1024), 0o644))
	return root
}

func TestConfigInitAndShow(t *testing.T) {
	cfgPath, _ := isolate(t)

	_, err := run(t, "config", "init", "--config", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, cfgPath)

	_, err = run(t, "config", "init", "--config", cfgPath)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "config", "init", "--force", "--config", cfgPath)
	assert.NoError(t, err)

	out, err := run(t, "config", "show", "--config", cfgPath, "--depth", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "layout: bottom_weighted")
	assert.Contains(t, out, "depth: 3")
}

func TestInvalidConfigIsRejected(t *testing.T) {
	cfgPath, _ := isolate(t)
	require.NoError(t, os.WriteFile(cfgPath, []byte("padding_px: 500\n"), 0o644))

	_, err := run(t, "config", "show", "--config", cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestLayoutPrintsRectangles(t *testing.T) {
	cfgPath, _ := isolate(t)
	tree := writeTree(t)

	out, err := run(t, "layout", tree, "--config", cfgPath, "--width", "400", "--height", "300", "--levels", "0")
	require.NoError(t, err)

	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
	assert.Contains(t, out, "big.bin")

	out, err = run(t, "layout", tree, "--config", cfgPath, "--levels", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "big.bin")
}

func TestLayoutRejectsBadInput(t *testing.T) {
	cfgPath, _ := isolate(t)

	_, err := run(t, "layout", filepath.Join(t.TempDir(), "missing"), "--config", cfgPath)
	assert.Error(t, err)

	_, err = run(t, "layout", t.TempDir(), "--config", cfgPath, "--width", "0")
	assert.ErrorContains(t, err, "invalid size")
}

func TestSnapshotThenLayoutFromSnapshot(t *testing.T) {
	cfgPath, snapshotDir := isolate(t)
	tree := writeTree(t)

	_, err := run(t, "snapshot", tree, "--config", cfgPath)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(snapshotDir, "*.gob.gz"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	out, err := run(t, "layout", tree, "--config", cfgPath, "--from-snapshot")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")

	_, err = run(t, "layout", t.TempDir(), "--config", cfgPath, "--from-snapshot")
	assert.ErrorContains(t, err, "load snapshot")
}

func TestSnapshotDiffListsChanges(t *testing.T) {
	cfgPath, _ := isolate(t)
	tree := writeTree(t)

	_, err := run(t, "snapshot", tree, "--config", cfgPath)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tree, "beta", "more.bin"), make([]byte, 256*1024), 0o644))

	out, err := run(t, "snapshot", tree, "--config", cfgPath, "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "beta")
	assert.NotContains(t, out, "alpha", "unchanged entries are not listed")
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
}

func TestCmpAbs(t *testing.T) {
	assert.Equal(t, 1, cmpAbs(-50, 10))
	assert.Equal(t, -1, cmpAbs(5, -10))
	assert.Equal(t, 0, cmpAbs(-7, 7))
}
