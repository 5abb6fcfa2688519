package config

import (
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
)

const (
	MetaDir       = ".ckpt"
	StoreFile     = "db.json"
	GraphFile     = "graph.mmd"
	ImageFile     = "graph.svg"
	PuppeteerFile = "puppeteer.json"
	ConfigFile    = "config.yaml"

	GitignoreFile  = ".gitignore"
	CkptignoreFile = ".ckptignore"
)

const (
	DefaultTheme      = "dark"
	DefaultBackground = "black"
)

// Layout resolves the metadata paths of one workspace.
type Layout struct {
	Root string
}

func (l Layout) MetaDir() string       { return filepath.Join(l.Root, MetaDir) }
func (l Layout) StorePath() string     { return filepath.Join(l.Root, MetaDir, StoreFile) }
func (l Layout) GraphPath() string     { return filepath.Join(l.Root, MetaDir, GraphFile) }
func (l Layout) ImagePath() string     { return filepath.Join(l.Root, MetaDir, ImageFile) }
func (l Layout) PuppeteerPath() string { return filepath.Join(l.Root, MetaDir, PuppeteerFile) }
func (l Layout) ConfigPath() string    { return filepath.Join(l.Root, MetaDir, ConfigFile) }

// Render controls the diagram image step.
type Render struct {
	Enabled    bool   `yaml:"enabled"`
	Theme      string `yaml:"theme"`
	Background string `yaml:"background"`
	// Command overrides renderer discovery, e.g. "mmdc" or "bun x mmdc".
	Command string `yaml:"command"`
}

type Config struct {
	IgnoreFiles []string `yaml:"ignore_files"`
	Workers     int      `yaml:"workers"`
	Gitignore   bool     `yaml:"gitignore"`
	Render      Render   `yaml:"render"`
}

func Default() Config {
	return Config{
		IgnoreFiles: []string{GitignoreFile, CkptignoreFile},
		Workers:     0,
		Gitignore:   true,
		Render: Render{
			Enabled:    true,
			Theme:      DefaultTheme,
			Background: DefaultBackground,
		},
	}
}

// Load reads .ckpt/config.yaml over the defaults. A missing file yields the defaults.
func Load(fsys fs.Reader, root string) (Config, error) {
	cfg := Default()
	path := Layout{Root: root}.ConfigPath()

	data, err := fsys.ReadFile(path)
	if err != nil {
		if fsys.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, core.NewIOError("read", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), goerr.Wrap(err, "failed to parse config", goerr.V("path", path))
	}
	if len(cfg.IgnoreFiles) == 0 {
		cfg.IgnoreFiles = Default().IgnoreFiles
	}
	if cfg.Workers < 0 {
		return Default(), goerr.New("workers must not be negative", goerr.V("workers", cfg.Workers))
	}
	if cfg.Render.Theme == "" {
		cfg.Render.Theme = DefaultTheme
	}
	if cfg.Render.Background == "" {
		cfg.Render.Background = DefaultBackground
	}
	return cfg, nil
}

// ResolveWorkspaceRoot walks up from start until a directory holding .ckpt is found.
func ResolveWorkspaceRoot(fsys fs.Reader, start string) (string, error) {
	cur, err := filepath.Abs(start)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve path", goerr.V("path", start))
	}
	for {
		if fsys.IsDir(filepath.Join(cur, MetaDir)) {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break // reached filesystem root
		}
		cur = parent
	}
	return "", goerr.Wrap(core.ErrNotInitialized, "no .ckpt directory found", goerr.V("start", start))
}
