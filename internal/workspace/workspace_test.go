package workspace_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/workspace"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		gt.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		gt.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func capturePaths(t *testing.T, root string) []string {
	t.Helper()
	files, err := workspace.New(fs.NewOSFS(), root).Capture(context.Background())
	gt.NoError(t, err)
	return files.Paths()
}

func TestCaptureSortedAndSkipsMetadata(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.txt":         "b",
		"a.txt":         "x",
		"dir/c.txt":     "c",
		".ckpt/db.json": "{}",
	})

	files, err := workspace.New(fs.NewOSFS(), root).Capture(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, files.Paths(), []string{"a.txt", "b.txt", "dir/c.txt"})
	gt.Equal(t, string(files[0].Content), "x")
}

func TestCaptureIgnoreRules(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
		want  []string
	}{
		{
			name: "root patterns",
			files: map[string]string{
				".gitignore":    "*.log\nbuild/\n",
				"app.go":        "package app",
				"debug.log":     "x",
				"build/out.bin": "x",
				"src/trace.log": "x",
				"src/main.go":   "package main",
			},
			want: []string{".gitignore", "app.go", "src/main.go"},
		},
		{
			name: "nested patterns do not leak to siblings",
			files: map[string]string{
				"sub/.gitignore": "*.log\n",
				"sub/a.log":      "x",
				"sub/keep.txt":   "x",
				"other/b.log":    "x",
			},
			want: []string{"other/b.log", "sub/.gitignore", "sub/keep.txt"},
		},
		{
			name: "negation and comments",
			files: map[string]string{
				".gitignore": "# logs\n*.log\n\n!keep.log\n",
				"a.log":      "x",
				"keep.log":   "x",
			},
			want: []string{".gitignore", "keep.log"},
		},
		{
			name: "anchored pattern",
			files: map[string]string{
				".gitignore": "/tmp\n",
				"tmp/a":      "x",
				"sub/tmp/b":  "x",
			},
			want: []string{".gitignore", "sub/tmp/b"},
		},
		{
			name: "ckptignore composes with gitignore",
			files: map[string]string{
				".gitignore":  "*.log\n",
				".ckptignore": "secret.txt\n",
				"a.log":       "x",
				"secret.txt":  "x",
				"public.txt":  "x",
			},
			want: []string{".ckptignore", ".gitignore", "public.txt"},
		},
		{
			name: "significant whitespace",
			files: map[string]string{
				".gitignore": "foo\\ \n  lead\n*.log   \n   \r\n",
				"foo ":       "x",
				"foo":        "x",
				"  lead":     "x",
				"lead":       "x",
				"x.log":      "x",
			},
			want: []string{".gitignore", "foo", "lead"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tc.files)
			gt.Equal(t, capturePaths(t, root), tc.want)
		})
	}
}

func TestResolveIgnoreRuleFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":        "vendor/\n",
		"a/.gitignore":      "*.tmp\n",
		"vendor/.gitignore": "*\n",
		".ckpt/.gitignore":  "*\n",
	})

	m, err := workspace.ResolveIgnore(context.Background(), fs.NewOSFS(), root, []string{".gitignore"})
	gt.NoError(t, err)
	gt.Equal(t, m.RuleFiles(), []string{".gitignore", "a/.gitignore"})
	gt.True(t, m.Match("a/x.tmp", false))
	gt.False(t, m.Match("x.tmp", false))
	gt.True(t, m.Match("vendor", true))
}

func TestCaptureIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "x", "d/e/f.txt": "deep"})

	ws := workspace.New(fs.NewOSFS(), root, workspace.WithWorkers(2))
	first, err := ws.Capture(context.Background())
	gt.NoError(t, err)
	second, err := ws.Capture(context.Background())
	gt.NoError(t, err)

	gt.True(t, first.Equal(second))
	gt.Equal(t, first.Digest(), second.Digest())
}

func TestCaptureBinaryContent(t *testing.T) {
	root := t.TempDir()
	raw := []byte{0x00, 0xff, 0xfe, 0x10}
	gt.NoError(t, os.WriteFile(filepath.Join(root, "blob.bin"), raw, 0o644))

	files, err := workspace.New(fs.NewOSFS(), root).Capture(context.Background())
	gt.NoError(t, err)
	gt.A(t, files).Length(1)
	gt.Equal(t, files[0].Content, raw)
}

func TestCaptureSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"real.txt": "x", "dir/in.txt": "y"})
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "dirlink")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	gt.Equal(t, capturePaths(t, root), []string{"dir/in.txt", "real.txt"})
}

func TestCaptureReadFailure(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "x", "b.txt": "y"})

	osfs := fs.NewOSFS()
	read := osfs.Ops.ReadFile
	osfs.Ops.ReadFile = func(p string) ([]byte, error) {
		if strings.HasSuffix(p, "b.txt") {
			return nil, os.ErrPermission
		}
		return read(p)
	}

	files, err := workspace.New(osfs, root).Capture(context.Background())
	gt.Error(t, err)
	gt.True(t, errors.Is(err, core.ErrIO))
	gt.True(t, files == nil)
}

func TestCaptureCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := workspace.New(fs.NewOSFS(), root).Capture(ctx)
	gt.True(t, errors.Is(err, context.Canceled))
}

func TestCaptureMemoryFS(t *testing.T) {
	m := fs.NewMemoryFS()
	gt.NoError(t, m.MkdirAll("/ws/src", 0o755))
	gt.NoError(t, m.MkdirAll("/ws/.ckpt", 0o755))
	gt.NoError(t, m.WriteFile("/ws/src/main.go", []byte("package main"), 0o644))
	gt.NoError(t, m.WriteFile("/ws/.gitignore", []byte("*.out\n"), 0o644))
	gt.NoError(t, m.WriteFile("/ws/a.out", []byte("bin"), 0o644))
	gt.NoError(t, m.WriteFile("/ws/.ckpt/db.json", []byte("{}"), 0o644))

	files, err := workspace.New(m, "/ws").Capture(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, files.Paths(), []string{".gitignore", "src/main.go"})
}

func TestBackslashFileNameRoundTrip(t *testing.T) {
	if filepath.Separator == '\\' {
		t.Skip("backslash is the path separator on this platform")
	}
	root := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(root, `a\b`), []byte("name"), 0o644))
	gt.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	gt.NoError(t, os.WriteFile(filepath.Join(root, "a", "b"), []byte("nested"), 0o644))

	ws := workspace.New(fs.NewOSFS(), root)
	files, err := ws.Capture(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, files.Paths(), []string{"a/b", `a\b`})

	gt.NoError(t, ws.Replace(context.Background(), files))

	data, err := os.ReadFile(filepath.Join(root, `a\b`))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "name")
	data, err = os.ReadFile(filepath.Join(root, "a", "b"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "nested")

	again, err := ws.Capture(context.Background())
	gt.NoError(t, err)
	gt.True(t, again.Equal(files))
}

func TestReplace(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".gitignore":    "*.log\n",
		"old.txt":       "old",
		"trace.log":     "ignored but removed",
		"dir/x.txt":     "x",
		".ckpt/db.json": "{}",
	})

	target := core.Fileset{
		{Path: "a.txt", Content: []byte("x")},
		{Path: "nested/deep/b.txt", Content: []byte("b")},
	}
	ws := workspace.New(fs.NewOSFS(), root)
	gt.NoError(t, ws.Replace(context.Background(), target))

	files, err := ws.Capture(context.Background())
	gt.NoError(t, err)
	gt.True(t, files.Equal(target))

	_, err = os.Stat(filepath.Join(root, "trace.log"))
	gt.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "dir"))
	gt.True(t, os.IsNotExist(err))

	meta, err := os.ReadFile(filepath.Join(root, ".ckpt", "db.json"))
	gt.NoError(t, err)
	gt.Equal(t, string(meta), "{}")
}

func TestReplaceWriteFailure(t *testing.T) {
	root := t.TempDir()
	osfs := fs.NewOSFS()
	osfs.Ops.WriteFile = func(string, []byte, os.FileMode) error { return os.ErrPermission }

	err := workspace.New(osfs, root).Replace(context.Background(), core.Fileset{{Path: "a.txt", Content: []byte("x")}})
	gt.True(t, errors.Is(err, core.ErrIO))
}
