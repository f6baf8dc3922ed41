// Package catalog loads the static description of build targets, libraries
// and tests that a run draws its candidates from.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/hiltest/hiltest/model"
)

// ErrUnknownTarget is returned for targets the catalog does not define.
var ErrUnknownTarget = errors.New("target platform not found")

var validate = validator.New()

// Catalog is the immutable set of targets, libraries and tests.
type Catalog struct {
	targets   map[string]*model.Target
	libraries []model.Library
	tests     []model.TestCase
	index     map[string]int
}

type document struct {
	Targets   map[string]*model.Target `yaml:"targets"`
	Libraries []model.Library          `yaml:"libraries"`
	Tests     []model.TestCase         `yaml:"tests"`
}

// Load reads a YAML catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w", path, err)
	}
	c, err := New(doc.Targets, doc.Libraries, doc.Tests)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %q: %w", path, err)
	}
	return c, nil
}

// New validates and indexes catalog content. Test order is preserved.
func New(targets map[string]*model.Target, libraries []model.Library, tests []model.TestCase) (*Catalog, error) {
	var merr *multierror.Error

	c := &Catalog{
		targets:   make(map[string]*model.Target, len(targets)),
		libraries: append([]model.Library(nil), libraries...),
		tests:     append([]model.TestCase(nil), tests...),
		index:     make(map[string]int, len(tests)),
	}

	for name, t := range targets {
		if t == nil {
			merr = multierror.Append(merr, fmt.Errorf("target %s: empty definition", name))
			continue
		}
		target := *t
		target.Name = name
		if err := validate.Struct(&target); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("target %s: %w", name, err))
			continue
		}
		c.targets[name] = &target
	}
	for i := range c.libraries {
		if err := validate.Struct(&c.libraries[i]); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("library %d: %w", i, err))
		}
	}
	for i := range c.tests {
		tc := &c.tests[i]
		if err := validate.Struct(tc); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("test %d: %w", i, err))
			continue
		}
		if _, dup := c.index[tc.ID]; dup {
			merr = multierror.Append(merr, fmt.Errorf("test %s: duplicate id", tc.ID))
			continue
		}
		c.index[tc.ID] = i
	}

	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return c, nil
}

// IDs returns every test identifier in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.tests))
	for _, tc := range c.tests {
		ids = append(ids, tc.ID)
	}
	return ids
}

// Tests returns a copy of every test in catalog order.
func (c *Catalog) Tests() []model.TestCase {
	return append([]model.TestCase(nil), c.tests...)
}

// Test looks up a test by id.
func (c *Catalog) Test(id string) (model.TestCase, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.TestCase{}, false
	}
	return c.tests[i], true
}

// Target looks up a target by name.
func (c *Catalog) Target(name string) (model.Target, error) {
	t, ok := c.targets[name]
	if !ok {
		return model.Target{}, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return *t, nil
}

// TargetNames returns every target name, sorted.
func (c *Catalog) TargetNames() []string {
	m := make(map[string][]string, len(c.targets))
	for name, t := range c.targets {
		m[name] = t.Toolchains
	}
	return model.SortedKeys(m)
}

// SupportedToolchains returns the toolchains of target, or nil when unknown.
func (c *Catalog) SupportedToolchains(target string) []string {
	t, ok := c.targets[target]
	if !ok {
		return nil
	}
	return append([]string(nil), t.Toolchains...)
}

// Supported reports whether tc may be built and run for (target, toolchain).
func (c *Catalog) Supported(tc model.TestCase, target, toolchain string) bool {
	t, ok := c.targets[target]
	if !ok || !t.SupportsToolchain(toolchain) {
		return false
	}
	if len(tc.MCU) > 0 && !contains(tc.MCU, target) {
		return false
	}
	return !contains(tc.ExcludeMCU, target)
}

// LibrariesFor returns the libraries whose build directory tc depends on,
// in catalog order.
func (c *Catalog) LibrariesFor(tc model.TestCase) []model.Library {
	var libs []model.Library
	for _, lib := range c.libraries {
		if contains(tc.Dependencies, lib.BuildDir) {
			libs = append(libs, lib)
		}
	}
	return libs
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
