package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
)

// Renderer turns a text graph description into an image.
type Renderer interface {
	Name() string
	Render(ctx context.Context, description []byte) ([]byte, error)
}

// PuppeteerConfig is handed to the Mermaid CLI so headless Chrome starts in containers.
type PuppeteerConfig struct {
	Args     []string `json:"args"`
	Headless string   `json:"headless"`
}

func DefaultPuppeteerConfig() PuppeteerConfig {
	return PuppeteerConfig{
		Args:     []string{"--no-sandbox", "--disable-setuid-sandbox"},
		Headless: "new",
	}
}

// RunFunc executes argv and returns the combined diagnostic output.
type RunFunc func(ctx context.Context, argv []string) ([]byte, error)

func runCommand(ctx context.Context, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// CLIRenderer renders through the Mermaid CLI (mmdc) started as a subprocess.
type CLIRenderer struct {
	// Argv is the command prefix, e.g. ["mmdc"] or ["bun", "x", "mmdc"].
	Argv       []string
	Theme      string
	Background string
	// PuppeteerPath points at an existing puppeteer config; empty writes the default one.
	PuppeteerPath string
	Run           RunFunc
	// FS holds the scratch files; nil uses the OS filesystem.
	FS fs.FS
	// TempDir is where the scratch directory is created; empty uses os.TempDir().
	TempDir string
}

func (r *CLIRenderer) Name() string { return strings.Join(r.Argv, " ") }

// Args builds the full mmdc argument vector for the given input/output files.
func (r *CLIRenderer) Args(in, out, puppeteer string) []string {
	theme, bg := r.Theme, r.Background
	if theme == "" {
		theme = config.DefaultTheme
	}
	if bg == "" {
		bg = config.DefaultBackground
	}
	argv := append([]string(nil), r.Argv...)
	return append(argv,
		"-i", in,
		"-o", out,
		"-t", theme,
		"--backgroundColor", bg,
		"-p", puppeteer,
		"--quiet",
	)
}

func (r *CLIRenderer) Render(ctx context.Context, description []byte) ([]byte, error) {
	if len(r.Argv) == 0 {
		return nil, goerr.Wrap(core.ErrRender, "renderer command is empty")
	}

	fsys := r.FS
	if fsys == nil {
		fsys = fs.NewOSFS()
	}
	base := r.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "ckpt-render-"+uuid.NewString())
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(core.ErrRender, "failed to create temp dir", goerr.V("dir", dir), goerr.V("cause", err.Error()))
	}
	defer fsys.RemoveAll(dir)

	in := filepath.Join(dir, config.GraphFile)
	out := filepath.Join(dir, config.ImageFile)
	if err := fsys.WriteFile(in, description, 0o644); err != nil {
		return nil, goerr.Wrap(core.ErrRender, "failed to write renderer input", goerr.V("cause", err.Error()))
	}

	puppeteer := r.PuppeteerPath
	if puppeteer == "" {
		puppeteer = filepath.Join(dir, config.PuppeteerFile)
		data, err := json.Marshal(DefaultPuppeteerConfig())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode puppeteer config")
		}
		if err := fsys.WriteFile(puppeteer, data, 0o644); err != nil {
			return nil, goerr.Wrap(core.ErrRender, "failed to write puppeteer config", goerr.V("cause", err.Error()))
		}
	}

	run := r.Run
	if run == nil {
		run = runCommand
	}
	if output, err := run(ctx, r.Args(in, out, puppeteer)); err != nil {
		return nil, goerr.Wrap(core.ErrRender, "renderer failed",
			goerr.V("renderer", r.Name()),
			goerr.V("cause", err.Error()),
			goerr.V("output", strings.TrimSpace(string(output))))
	}

	image, err := fsys.ReadFile(out)
	if err != nil {
		return nil, goerr.Wrap(core.ErrRender, "renderer produced no image", goerr.V("renderer", r.Name()))
	}
	return image, nil
}
