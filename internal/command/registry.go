package command

import (
	"sort"
	"sync"
)

// Registry holds commands by name and alias.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Command
	order  []Command
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds cmd under its name and aliases. Later registrations win.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[cmd.Name()]; !ok {
		r.order = append(r.order, cmd)
	} else {
		for i, c := range r.order {
			if c.Name() == cmd.Name() {
				r.order[i] = cmd
			}
		}
	}
	for _, n := range append([]string{cmd.Name()}, cmd.Aliases()...) {
		r.byName[n] = cmd
	}
}

func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	return cmd, ok
}

// All returns the registered commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]Command(nil), r.order...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

var registry = NewRegistry()

// RegisterCommand adds a command to the global registry
func RegisterCommand(cmd Command) {
	registry.Register(cmd)
}

// GetCommand returns a command by name or alias
func GetCommand(name string) (Command, bool) {
	return registry.Get(name)
}

// AllCommands returns all commands registered in the global registry.
func AllCommands() []Command {
	return registry.All()
}
