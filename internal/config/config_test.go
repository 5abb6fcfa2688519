package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := config.Load(fs.NewOSFS(), t.TempDir())
	gt.NoError(t, err)
	gt.Equal(t, cfg, config.Default())
	gt.Equal(t, cfg.IgnoreFiles, []string{".gitignore", ".ckptignore"})
	gt.True(t, cfg.Render.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	root := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(root, ".ckpt"), 0o755))
	yml := `ignore_files: [.ckptignore]
workers: 2
gitignore: false
render:
  enabled: false
  command: bun x mmdc
`
	gt.NoError(t, os.WriteFile(filepath.Join(root, ".ckpt", "config.yaml"), []byte(yml), 0o644))

	cfg, err := config.Load(fs.NewOSFS(), root)
	gt.NoError(t, err)
	gt.Equal(t, cfg.IgnoreFiles, []string{".ckptignore"})
	gt.Equal(t, cfg.Workers, 2)
	gt.False(t, cfg.Gitignore)
	gt.False(t, cfg.Render.Enabled)
	gt.Equal(t, cfg.Render.Command, "bun x mmdc")
	gt.Equal(t, cfg.Render.Theme, "dark")
	gt.Equal(t, cfg.Render.Background, "black")
}

func TestLoadInvalid(t *testing.T) {
	root := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(root, ".ckpt"), 0o755))
	path := filepath.Join(root, ".ckpt", "config.yaml")

	gt.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0o644))
	_, err := config.Load(fs.NewOSFS(), root)
	gt.Error(t, err)

	gt.NoError(t, os.WriteFile(path, []byte("workers: -1\n"), 0o644))
	_, err = config.Load(fs.NewOSFS(), root)
	gt.Error(t, err)
}

func TestLayout(t *testing.T) {
	l := config.Layout{Root: "/ws"}
	gt.Equal(t, l.StorePath(), filepath.Join("/ws", ".ckpt", "db.json"))
	gt.Equal(t, l.GraphPath(), filepath.Join("/ws", ".ckpt", "graph.mmd"))
	gt.Equal(t, l.ImagePath(), filepath.Join("/ws", ".ckpt", "graph.svg"))
}

func TestResolveWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	gt.NoError(t, os.MkdirAll(deep, 0o755))

	_, err := config.ResolveWorkspaceRoot(fs.NewOSFS(), deep)
	gt.True(t, errors.Is(err, core.ErrNotInitialized))

	gt.NoError(t, os.MkdirAll(filepath.Join(root, ".ckpt"), 0o755))
	got, err := config.ResolveWorkspaceRoot(fs.NewOSFS(), deep)
	gt.NoError(t, err)

	want, err := filepath.Abs(root)
	gt.NoError(t, err)
	gt.Equal(t, got, want)
}
