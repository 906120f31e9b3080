package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// PluginsLoaded fires once every plugin of the host has been loaded.
const PluginsLoaded = "plugins_loaded"

// DefaultPriority is used by hosts that do not care about ordering.
const DefaultPriority = 10

// Action is a callback attached to a named hook.
type Action func(ctx context.Context) error

type action struct {
	name     string
	priority int
	fn       Action
}

// Hooks runs named actions. Lower priorities run first; equal priorities run
// in registration order.
type Hooks struct {
	mu      sync.RWMutex
	actions map[string][]action
}

// NewHooks creates an empty hook table.
func NewHooks() *Hooks {
	return &Hooks{actions: make(map[string][]action)}
}

// AddAction attaches fn to hook. name identifies the callback; adding the
// same name twice replaces the earlier callback.
func (h *Hooks) AddAction(hook, name string, priority int, fn Action) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.actions[hook]
	for idx, existing := range list {
		if existing.name == name {
			list = append(list[:idx], list[idx+1:]...)
			break
		}
	}
	list = append(list, action{name: name, priority: priority, fn: fn})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority < list[j].priority
	})
	h.actions[hook] = list
}

// RemoveAction detaches the named callback from hook.
func (h *Hooks) RemoveAction(hook, name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.actions[hook]
	for idx, existing := range list {
		if existing.name == name {
			h.actions[hook] = append(list[:idx], list[idx+1:]...)
			return true
		}
	}
	return false
}

// Names lists the callbacks of hook in run order.
func (h *Hooks) Names(hook string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := h.actions[hook]
	names := make([]string, len(list))
	for idx, a := range list {
		names[idx] = a.name
	}
	return names
}

// Do runs every callback of hook and stops at the first error.
func (h *Hooks) Do(ctx context.Context, hook string) error {
	h.mu.RLock()
	list := make([]action, len(h.actions[hook]))
	copy(list, h.actions[hook])
	h.mu.RUnlock()

	for _, a := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.fn(ctx); err != nil {
			return fmt.Errorf("plugin: %s/%s: %w", hook, a.name, err)
		}
	}
	return nil
}
