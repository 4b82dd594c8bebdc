package context

import (
	"fmt"
	"regexp"
)

// ContextEnvVar overrides the current context.
const ContextEnvVar = "YOCTL_CONTEXT"

const maxContextNameLength = 63

var contextNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]$`)

// ContextSettings holds per-context defaults.
type ContextSettings struct {
	// Output is the default output format (table, wide, json, yaml).
	Output string `yaml:"output,omitempty"`
	// Agent is the default agent for telemetry commands.
	Agent string `yaml:"agent,omitempty"`
}

// Context is a named manager endpoint with its access token.
type Context struct {
	Name     string           `yaml:"name"`
	Endpoint string           `yaml:"endpoint"`
	Token    string           `yaml:"token,omitempty"`
	Settings *ContextSettings `yaml:"settings,omitempty"`
}

// ContextConfig is the root of contexts.yaml.
type ContextConfig struct {
	CurrentContext string    `yaml:"current-context,omitempty"`
	Contexts       []Context `yaml:"contexts,omitempty"`
}

// ValidateContextName checks that name is 1-63 lowercase alphanumerics or
// hyphens, starting and ending with an alphanumeric.
func ValidateContextName(name string) error {
	if name == "" {
		return fmt.Errorf("context name cannot be empty")
	}
	if len(name) > maxContextNameLength {
		return fmt.Errorf("context name cannot exceed %d characters", maxContextNameLength)
	}
	if !contextNamePattern.MatchString(name) {
		return fmt.Errorf("context name must contain only lowercase letters, numbers, and hyphens, and must start and end with an alphanumeric character")
	}
	return nil
}

// GetContext returns the named context or nil.
func (c *ContextConfig) GetContext(name string) *Context {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			return &c.Contexts[i]
		}
	}
	return nil
}

// HasContext reports whether the named context exists.
func (c *ContextConfig) HasContext(name string) bool {
	return c.GetContext(name) != nil
}

// Current returns the current context, or nil when none is selected or it
// no longer exists.
func (c *ContextConfig) Current() *Context {
	if c.CurrentContext == "" {
		return nil
	}
	return c.GetContext(c.CurrentContext)
}

// AddOrUpdateContext replaces the context of the same name or appends ctx.
func (c *ContextConfig) AddOrUpdateContext(ctx Context) {
	for i := range c.Contexts {
		if c.Contexts[i].Name == ctx.Name {
			c.Contexts[i] = ctx
			return
		}
	}
	c.Contexts = append(c.Contexts, ctx)
}

// RemoveContext deletes the named context and clears CurrentContext if it
// pointed there. It reports whether anything was removed.
func (c *ContextConfig) RemoveContext(name string) bool {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			c.Contexts = append(c.Contexts[:i], c.Contexts[i+1:]...)
			if c.CurrentContext == name {
				c.CurrentContext = ""
			}
			return true
		}
	}
	return false
}

// ContextNotFoundError is returned when a named context does not exist.
type ContextNotFoundError struct {
	Name string
}

func (e *ContextNotFoundError) Error() string {
	return fmt.Sprintf("context %q not found", e.Name)
}
