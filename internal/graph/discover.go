package graph

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/keshon/ckpt/internal/core"
)

// Remediation is shown when no Mermaid CLI can be found.
const Remediation = `Unable to find Mermaid CLI (mmdc).

Fixes:
  npm i -D @mermaid-js/mermaid-cli     # local project
  npm i -g @mermaid-js/mermaid-cli     # or global
  bun add -D @mermaid-js/mermaid-cli
  or set render.command in .ckpt/config.yaml`

// Env is what strategies may consult.
type Env struct {
	Root     string
	Command  string
	LookPath func(string) (string, error)
	Exists   func(string) bool
}

// Strategy resolves a renderer command line, reporting false when unavailable.
type Strategy struct {
	Name    string
	Resolve func(env Env) ([]string, bool)
}

// DefaultStrategies are tried in order; the first available one wins.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "config", Resolve: explicitCommand},
		{Name: "local", Resolve: localBinary},
		{Name: "path", Resolve: pathBinary},
		{Name: "bun", Resolve: bunx},
		{Name: "npx", Resolve: npx},
	}
}

func explicitCommand(env Env) ([]string, bool) {
	argv := strings.Fields(env.Command)
	if len(argv) == 0 {
		return nil, false
	}
	if _, err := env.LookPath(argv[0]); err != nil && !env.Exists(argv[0]) {
		return nil, false
	}
	return argv, true
}

func localBinary(env Env) ([]string, bool) {
	name := "mmdc"
	if runtime.GOOS == "windows" {
		name = "mmdc.cmd"
	}
	p := filepath.Join(env.Root, "node_modules", ".bin", name)
	if !env.Exists(p) {
		return nil, false
	}
	return []string{p}, true
}

func pathBinary(env Env) ([]string, bool) {
	p, err := env.LookPath("mmdc")
	if err != nil {
		return nil, false
	}
	return []string{p}, true
}

func bunx(env Env) ([]string, bool) {
	p, err := env.LookPath("bun")
	if err != nil {
		return nil, false
	}
	return []string{p, "x", "mmdc"}, true
}

func npx(env Env) ([]string, bool) {
	p, err := env.LookPath("npx")
	if err != nil {
		return nil, false
	}
	return []string{p, "-y", "@mermaid-js/mermaid-cli", "mmdc"}, true
}

// DefaultEnv resolves binaries on the real PATH.
func DefaultEnv(root, command string) Env {
	return Env{
		Root:     root,
		Command:  command,
		LookPath: exec.LookPath,
		Exists: func(p string) bool {
			_, err := os.Stat(p)
			return err == nil
		},
	}
}

// Discover returns the command line of the first available strategy.
func Discover(env Env, strategies []Strategy) (string, []string, error) {
	for _, s := range strategies {
		if argv, ok := s.Resolve(env); ok {
			return s.Name, argv, nil
		}
	}
	return "", nil, goerr.Wrap(core.ErrRender, Remediation)
}
