package workspace

import (
	"bufio"
	"bytes"
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6/plumbing/format/gitignore"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/logging"
)

// Matcher answers whether a workspace-relative path is excluded from capture.
type Matcher struct {
	patterns  []gitignore.Pattern
	matcher   gitignore.Matcher
	ruleFiles []string
}

// Match reports whether rel (slash separated, relative to the workspace root) is ignored.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil || m.matcher == nil || rel == "" || rel == "." {
		return false
	}
	return m.matcher.Match(strings.Split(rel, "/"), isDir)
}

// RuleFiles lists the rule files that contributed patterns, parents before children.
func (m *Matcher) RuleFiles() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.ruleFiles...)
}

// ParseRules turns the lines of one rule file into patterns scoped to dir.
// dir is the slash path of the file's directory relative to the root ("" for the root).
func ParseRules(data []byte, dir string) []gitignore.Pattern {
	var domain []string
	if dir != "" && dir != "." {
		domain = strings.Split(dir, "/")
	}

	var out []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := trimTrailingSpaces(strings.TrimRight(sc.Text(), "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, gitignore.ParsePattern(line, domain))
	}
	return out
}

// trimTrailingSpaces drops trailing spaces unless escaped with a backslash.
// Leading spaces are part of the pattern.
func trimTrailingSpaces(line string) string {
	end := len(line)
	for end > 0 && line[end-1] == ' ' {
		slashes := 0
		for i := end - 2; i >= 0 && line[i] == '\\'; i-- {
			slashes++
		}
		if slashes%2 == 1 {
			break
		}
		end--
	}
	return line[:end]
}

// ResolveIgnore discovers every rule file named in names below root and merges their
// patterns into one matcher. The metadata directory is never visited, and directories
// already excluded by an outer rule are not searched for further rule files.
func ResolveIgnore(ctx context.Context, fsys fs.Reader, root string, names []string) (*Matcher, error) {
	m := &Matcher{}
	var visit func(rel string) error
	visit = func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs := filepath.Join(root, filepath.FromSlash(rel))
		entries, err := fsys.ReadDir(abs)
		if err != nil {
			return core.NewIOError("readdir", abs, err)
		}

		// rule files of this directory first, in configured order
		for _, name := range names {
			for _, e := range entries {
				if e.Name() != name || !e.Type().IsRegular() {
					continue
				}
				filePath := path.Join(rel, name)
				data, err := fsys.ReadFile(filepath.Join(abs, name))
				if err != nil {
					return core.NewIOError("read", filePath, err)
				}
				m.patterns = append(m.patterns, ParseRules(data, rel)...)
				m.ruleFiles = append(m.ruleFiles, filePath)
				m.matcher = gitignore.NewMatcher(m.patterns)
			}
		}

		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if rel == "" && e.Name() == config.MetaDir {
				continue
			}
			child := path.Join(rel, e.Name())
			if m.Match(child, true) {
				continue
			}
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(""); err != nil {
		return nil, err
	}
	logging.From(ctx).Debug("ignore rules resolved", "files", len(m.ruleFiles), "patterns", len(m.patterns))
	return m, nil
}
