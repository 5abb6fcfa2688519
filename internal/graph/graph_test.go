package graph_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/graph"
)

var ts = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func history() []*core.Snapshot {
	return []*core.Snapshot{
		{ID: core.RootID, Timestamp: ts, Tag: core.RootTag},
		{ID: "abc-def-123456", Timestamp: ts, Parent: core.RootID, Tag: "v1"},
		{ID: "zzz999", Timestamp: ts, Parent: "abc-def-123456", Tag: core.SafetyTag(core.RootID)},
	}
}

func TestNodeID(t *testing.T) {
	gt.Equal(t, graph.NodeID("$"), "_")
	gt.Equal(t, graph.NodeID("abc-def_1"), "abc_def_1")
}

func TestDescribe(t *testing.T) {
	local := ts.Local().Format(graph.LabelTimeFormat)
	want := strings.Join([]string{
		"graph TD",
		`_["$<br/>` + local + `<br/>root"]`,
		`abc_def_123456["abc-de<br/>` + local + `<br/>v1"]`,
		`zzz999["zzz999<br/>` + local + `<br/>REV:$"]`,
		"_ --> abc_def_123456",
		"abc_def_123456 --> zzz999",
	}, "\n")
	gt.Equal(t, graph.Describe(history()), want)
}

func TestDescribeEdgeCount(t *testing.T) {
	desc := graph.Describe(history())
	gt.Equal(t, strings.Count(desc, "-->"), 2)
}

func TestLabelDropsEmptyPartsAndEscapes(t *testing.T) {
	gt.Equal(t, graph.Label(&core.Snapshot{ID: "abcdefgh"}), "abcdef")
	gt.Equal(t, graph.Label(&core.Snapshot{ID: "abcdefgh", Tag: `say "hi"`}), "abcdef<br/>say #quot;hi#quot;")
}

func TestCLIRendererArgs(t *testing.T) {
	r := &graph.CLIRenderer{Argv: []string{"bun", "x", "mmdc"}}
	gt.Equal(t, r.Args("in.mmd", "out.svg", "p.json"), []string{
		"bun", "x", "mmdc",
		"-i", "in.mmd",
		"-o", "out.svg",
		"-t", "dark",
		"--backgroundColor", "black",
		"-p", "p.json",
		"--quiet",
	})
	gt.Equal(t, r.Name(), "bun x mmdc")
}

func TestCLIRendererRender(t *testing.T) {
	var seen []string
	r := &graph.CLIRenderer{
		Argv:  []string{"mmdc"},
		Theme: "forest",
		Run: func(_ context.Context, argv []string) ([]byte, error) {
			seen = argv
			var in, out string
			for i := 0; i < len(argv)-1; i++ {
				switch argv[i] {
				case "-i":
					in = argv[i+1]
				case "-o":
					out = argv[i+1]
				}
			}
			desc, err := os.ReadFile(in)
			if err != nil {
				return nil, err
			}
			return nil, os.WriteFile(out, []byte("<svg>"+string(desc)+"</svg>"), 0o644)
		},
	}

	img, err := r.Render(context.Background(), []byte("graph TD"))
	gt.NoError(t, err)
	gt.Equal(t, string(img), "<svg>graph TD</svg>")
	gt.A(t, seen).Longer(5)
	gt.Equal(t, seen[0], "mmdc")
}

func TestCLIRendererFailure(t *testing.T) {
	r := &graph.CLIRenderer{
		Argv: []string{"mmdc"},
		Run: func(context.Context, []string) ([]byte, error) {
			return []byte("chrome crashed"), errors.New("exit status 1")
		},
	}
	_, err := r.Render(context.Background(), []byte("graph TD"))
	gt.True(t, errors.Is(err, core.ErrRender))
}

func TestCLIRendererScratchOnFS(t *testing.T) {
	mem := fs.NewMemoryFS()
	gt.NoError(t, mem.MkdirAll("/ws/.ckpt", 0o755))

	var scratch, puppeteer string
	r := &graph.CLIRenderer{
		Argv:    []string{"mmdc"},
		FS:      mem,
		TempDir: "/ws/.ckpt",
		Run: func(_ context.Context, argv []string) ([]byte, error) {
			var in, out string
			for i := 0; i < len(argv)-1; i++ {
				switch argv[i] {
				case "-i":
					in = argv[i+1]
				case "-o":
					out = argv[i+1]
				case "-p":
					puppeteer = argv[i+1]
				}
			}
			scratch = filepath.Dir(in)
			gt.True(t, mem.Exists(puppeteer))
			desc, err := mem.ReadFile(in)
			if err != nil {
				return nil, err
			}
			return nil, mem.WriteFile(out, []byte("<svg>"+string(desc)+"</svg>"), 0o644)
		},
	}

	img, err := r.Render(context.Background(), []byte("graph TD"))
	gt.NoError(t, err)
	gt.Equal(t, string(img), "<svg>graph TD</svg>")
	gt.True(t, strings.HasPrefix(scratch, filepath.Join("/ws/.ckpt", "ckpt-render-")))
	gt.Equal(t, filepath.Dir(puppeteer), scratch)
	gt.False(t, mem.Exists(scratch))
	gt.True(t, mem.IsDir("/ws/.ckpt"))
}

func TestDiscoverOrder(t *testing.T) {
	onPath := map[string]bool{}
	local := false
	env := graph.Env{
		Root: "/ws",
		LookPath: func(name string) (string, error) {
			if onPath[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
		Exists: func(p string) bool {
			return local && strings.Contains(p, filepath.Join("node_modules", ".bin"))
		},
	}

	_, _, err := graph.Discover(env, graph.DefaultStrategies())
	gt.True(t, errors.Is(err, core.ErrRender))

	onPath["npx"] = true
	name, argv, err := graph.Discover(env, graph.DefaultStrategies())
	gt.NoError(t, err)
	gt.Equal(t, name, "npx")
	gt.Equal(t, argv, []string{"/usr/bin/npx", "-y", "@mermaid-js/mermaid-cli", "mmdc"})

	onPath["bun"] = true
	name, _, err = graph.Discover(env, graph.DefaultStrategies())
	gt.NoError(t, err)
	gt.Equal(t, name, "bun")

	onPath["mmdc"] = true
	name, argv, err = graph.Discover(env, graph.DefaultStrategies())
	gt.NoError(t, err)
	gt.Equal(t, name, "path")
	gt.Equal(t, argv, []string{"/usr/bin/mmdc"})

	local = true
	name, _, err = graph.Discover(env, graph.DefaultStrategies())
	gt.NoError(t, err)
	gt.Equal(t, name, "local")

	env.Command = "bun x mmdc"
	name, argv, err = graph.Discover(env, graph.DefaultStrategies())
	gt.NoError(t, err)
	gt.Equal(t, name, "config")
	gt.Equal(t, argv, []string{"bun", "x", "mmdc"})
}

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) Name() string { return "fake" }

func (f *fakeRenderer) Render(_ context.Context, desc []byte) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("<svg>" + string(desc) + "</svg>"), nil
}

func newLayout(t *testing.T) config.Layout {
	t.Helper()
	root := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(root, config.MetaDir), 0o755))
	return config.Layout{Root: root}
}

func TestPublish(t *testing.T) {
	layout := newLayout(t)
	r := &fakeRenderer{}
	p := graph.NewPublisher(layout, config.Default().Render, &graph.PublisherOptions{Renderer: r})

	gt.NoError(t, p.Publish(context.Background(), history()))
	gt.Equal(t, r.calls, 1)

	mmd, err := os.ReadFile(layout.GraphPath())
	gt.NoError(t, err)
	gt.S(t, string(mmd)).Contains("graph TD")

	svg, err := os.ReadFile(layout.ImagePath())
	gt.NoError(t, err)
	gt.Equal(t, string(svg), "<svg>"+string(mmd)+"</svg>")

	_, err = os.Stat(layout.PuppeteerPath())
	gt.NoError(t, err)
}

func TestPublishRenderFailureKeepsDescription(t *testing.T) {
	layout := newLayout(t)
	r := &fakeRenderer{err: errors.New("no chrome")}
	p := graph.NewPublisher(layout, config.Default().Render, &graph.PublisherOptions{Renderer: r})

	err := p.Publish(context.Background(), history())
	gt.True(t, errors.Is(err, core.ErrRender))

	_, err = os.Stat(layout.GraphPath())
	gt.NoError(t, err)
	_, err = os.Stat(layout.ImagePath())
	gt.True(t, os.IsNotExist(err))
}

func TestPublishDisabledSkipsRenderer(t *testing.T) {
	layout := newLayout(t)
	r := &fakeRenderer{}
	cfg := config.Default().Render
	cfg.Enabled = false
	p := graph.NewPublisher(layout, cfg, &graph.PublisherOptions{Renderer: r})

	gt.NoError(t, p.Publish(context.Background(), history()))
	gt.Equal(t, r.calls, 0)

	gt.NoError(t, p.RenderImage(context.Background(), history()))
	gt.Equal(t, r.calls, 1)
}

func TestPublishNoRendererAvailable(t *testing.T) {
	layout := newLayout(t)
	env := graph.Env{
		Root:     layout.Root,
		LookPath: func(string) (string, error) { return "", errors.New("not found") },
		Exists:   func(string) bool { return false },
	}
	p := graph.NewPublisher(layout, config.Default().Render, &graph.PublisherOptions{Env: &env})

	err := p.Publish(context.Background(), history())
	gt.True(t, errors.Is(err, core.ErrRender))
	gt.S(t, err.Error()).Contains("mmdc")
}

func TestOpenCommand(t *testing.T) {
	argv := graph.OpenCommand("/tmp/graph.svg")
	gt.Equal(t, argv[len(argv)-1], "/tmp/graph.svg")
}
