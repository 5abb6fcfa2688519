package graph

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/logging"
	"github.com/keshon/ckpt/internal/util"
)

// Publisher keeps .ckpt/graph.mmd and .ckpt/graph.svg in sync with the history.
type Publisher struct {
	fs         fs.FS
	layout     config.Layout
	cfg        config.Render
	renderer   Renderer
	env        Env
	strategies []Strategy
}

// PublisherOptions allows dependency injection; zero fields fall back to defaults.
type PublisherOptions struct {
	FS         fs.FS
	Renderer   Renderer
	Env        *Env
	Strategies []Strategy
}

func NewPublisher(layout config.Layout, cfg config.Render, opts *PublisherOptions) *Publisher {
	p := &Publisher{
		fs:         fs.NewOSFS(),
		layout:     layout,
		cfg:        cfg,
		env:        DefaultEnv(layout.Root, cfg.Command),
		strategies: DefaultStrategies(),
	}
	if opts != nil {
		if opts.FS != nil {
			p.fs = opts.FS
		}
		p.renderer = opts.Renderer
		if opts.Env != nil {
			p.env = *opts.Env
		}
		if opts.Strategies != nil {
			p.strategies = opts.Strategies
		}
	}
	return p
}

// Renderer returns the injected renderer or discovers a Mermaid CLI.
func (p *Publisher) Renderer(ctx context.Context) (Renderer, error) {
	if p.renderer != nil {
		return p.renderer, nil
	}
	name, argv, err := Discover(p.env, p.strategies)
	if err != nil {
		return nil, err
	}
	logging.From(ctx).Debug("renderer discovered", "strategy", name, "argv", argv)
	p.renderer = &CLIRenderer{
		Argv:          argv,
		Theme:         p.cfg.Theme,
		Background:    p.cfg.Background,
		PuppeteerPath: p.layout.PuppeteerPath(),
		FS:            p.fs,
		TempDir:       p.layout.MetaDir(),
	}
	return p.renderer, nil
}

// WriteDescription regenerates graph.mmd and returns its content.
func (p *Publisher) WriteDescription(ctx context.Context, snaps []*core.Snapshot) (string, error) {
	desc := Describe(snaps)
	if err := util.WriteFileAtomic(p.fs, p.layout.GraphPath(), []byte(desc)); err != nil {
		return "", err
	}
	logging.From(ctx).Debug("graph description written", "path", p.layout.GraphPath(), "nodes", len(snaps))
	return desc, nil
}

// Publish writes the description and, when rendering is enabled, the image.
// The description is on disk even when rendering fails.
func (p *Publisher) Publish(ctx context.Context, snaps []*core.Snapshot) error {
	desc, err := p.WriteDescription(ctx, snaps)
	if err != nil {
		return err
	}
	if !p.cfg.Enabled {
		return nil
	}
	return p.renderImage(ctx, desc)
}

// RenderImage regenerates both files regardless of the enabled setting.
func (p *Publisher) RenderImage(ctx context.Context, snaps []*core.Snapshot) error {
	desc, err := p.WriteDescription(ctx, snaps)
	if err != nil {
		return err
	}
	return p.renderImage(ctx, desc)
}

func (p *Publisher) renderImage(ctx context.Context, desc string) error {
	if err := p.ensurePuppeteerConfig(); err != nil {
		return err
	}
	r, err := p.Renderer(ctx)
	if err != nil {
		return err
	}
	image, err := r.Render(ctx, []byte(desc))
	if err != nil {
		if !errors.Is(err, core.ErrRender) {
			err = goerr.Wrap(core.ErrRender, "renderer failed", goerr.V("renderer", r.Name()), goerr.V("cause", err.Error()))
		}
		return err
	}
	if err := util.WriteFileAtomic(p.fs, p.layout.ImagePath(), image); err != nil {
		return err
	}
	logging.From(ctx).Debug("graph image written", "path", p.layout.ImagePath(), "renderer", r.Name())
	return nil
}

// ensurePuppeteerConfig writes the default config once; later edits by the user are kept.
func (p *Publisher) ensurePuppeteerConfig() error {
	path := p.layout.PuppeteerPath()
	if p.fs.Exists(path) {
		return nil
	}
	data, err := json.MarshalIndent(DefaultPuppeteerConfig(), "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode puppeteer config")
	}
	return util.WriteFileAtomic(p.fs, path, data)
}
