package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the top-level manifest: host window settings, scheme
// registrations and service modules.
type Config struct {
	Host    HostSpec     `toml:"host"`
	Schemes []SchemeSpec `toml:"scheme"`
	Modules []ModuleSpec `toml:"module"`
}

// SchemeSpec registers a (scheme, domain) pair. Internal schemes are served by
// the dispatcher; external ones are left to the engine.
type SchemeSpec struct {
	Name     string `toml:"name"`
	Domain   string `toml:"domain"`
	External bool   `toml:"external"`
}

// Validate normalizes in place and reports the first problem found.
func (c *Config) Validate() error {
	c.Host.normalize()
	if err := c.Host.validate(); err != nil {
		return fmt.Errorf("host: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Schemes))
	for i := range c.Schemes {
		s := &c.Schemes[i]
		s.Name = strings.ToLower(strings.TrimSpace(s.Name))
		s.Domain = strings.ToLower(strings.TrimSpace(s.Domain))
		if s.Name == "" {
			return fmt.Errorf("scheme %d: name is required", i)
		}
		k := s.Name + "://" + s.Domain
		if _, dup := seen[k]; dup {
			return fmt.Errorf("scheme %d: duplicate %s", i, k)
		}
		seen[k] = struct{}{}
	}

	return c.validateModules()
}

func (c *Config) validateModules() error {
	names := make(map[string]struct{}, len(c.Modules))
	for i := range c.Modules {
		m := &c.Modules[i]
		if err := m.Validate(); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
		if _, dup := names[m.Name]; dup {
			return fmt.Errorf("module %d: duplicate name %q", i, m.Name)
		}
		names[m.Name] = struct{}{}
	}
	return nil
}

// ModuleSpec groups the routes of one service module.
type ModuleSpec struct {
	Name    string  `toml:"name"`
	Service string  `toml:"service"`
	Prefix  string  `toml:"prefix"`
	Routes  []Route `toml:"route"`
}

func (m *ModuleSpec) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(m.Service) == "" {
		m.Service = m.Name
	}
	for i := range m.Routes {
		if err := m.Routes[i].normalize(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		if err := m.Routes[i].validate(); err != nil {
			return fmt.Errorf("route %d (%s %s): %w", i, m.Routes[i].Method, m.Routes[i].Path, err)
		}
	}
	return nil
}
