// Package catalog holds the immutable in-memory index of command
// definitions. A catalog is built once at startup and only read afterwards,
// so concurrent lookups need no locking.
package catalog

import (
	"fmt"

	"OrbitCS/entity"
)

// CatalogError reports a duplicate or malformed command definition.
// It is fatal at load time.
type CatalogError struct {
	Source string
	Key    string
	Reason string
}

func (e *CatalogError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("catalog: command %q in %s: %s", e.Key, e.Source, e.Reason)
	}
	return fmt.Sprintf("catalog: command %q: %s", e.Key, e.Reason)
}

// SchemaError reports a dangling step reference inside a command.
// It is fatal at load time so it can never surface mid-conversation.
type SchemaError struct {
	Command string
	Step    string
	Target  string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("catalog: command %q step %q: %s (target %q)", e.Command, e.Step, e.Reason, e.Target)
}

// Catalog is the read-only command index. Iteration order is the load
// order, which makes matching ties deterministic.
type Catalog struct {
	commands map[string]*entity.Command
	keys     []string
}

// New builds a catalog directly from command values. Intended for wiring
// and tests; file-based construction goes through Load.
func New(commands ...*entity.Command) (*Catalog, error) {
	c := &Catalog{commands: make(map[string]*entity.Command, len(commands))}
	for _, cmd := range commands {
		if err := c.add("", cmd); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(source string, cmd *entity.Command) error {
	if cmd.Key == "" {
		return &CatalogError{Source: source, Reason: "empty command key"}
	}
	if _, exists := c.commands[cmd.Key]; exists {
		return &CatalogError{Source: source, Key: cmd.Key, Reason: "duplicate command key"}
	}
	if err := validateCommand(cmd); err != nil {
		return err
	}
	c.commands[cmd.Key] = cmd
	c.keys = append(c.keys, cmd.Key)
	return nil
}

// Get looks up a command by its catalog key.
func (c *Catalog) Get(key string) (*entity.Command, bool) {
	cmd, ok := c.commands[key]
	return cmd, ok
}

// Keys returns command keys in load order.
func (c *Catalog) Keys() []string {
	return c.keys
}

// Len returns the number of commands.
func (c *Catalog) Len() int {
	return len(c.keys)
}
