// Completion: 100% - Batch configuration complete
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xyproto/env/v2"
	"github.com/xyproto/picosym/internal/engine"
	"github.com/xyproto/picosym/internal/examples"
	"github.com/xyproto/picosym/internal/hdrscan"
	"github.com/xyproto/picosym/internal/memmap"
	"github.com/xyproto/picosym/internal/symtab"
	"gopkg.in/yaml.v3"
)

// DefaultFile is used when neither -config nor PICOSYM_CONFIG is given
const DefaultFile = "picosym.yaml"

// HeadersJob runs the header scanner over a set of manifests
type HeadersJob struct {
	Symbols   string   `yaml:"symbols"`
	Stubs     string   `yaml:"stubs"`
	Manifests []string `yaml:"manifests"`
}

// MapJob scrapes a linker map for .text symbols
type MapJob struct {
	Map     string `yaml:"map"`
	Symbols string `yaml:"symbols"`
}

// MergeJob combines symbol lists into the lookup table source
type MergeJob struct {
	Output string   `yaml:"output"`
	Inputs []string `yaml:"inputs"`
}

// MemmapJob rewrites a linker script for a given OS RAM size
type MemmapJob struct {
	Output  string `yaml:"output"`
	Input   string `yaml:"input"`
	OSRAMKB int    `yaml:"os_ram_kb"`
}

// ExamplesJob assembles example programs into a filesystem image
type ExamplesJob struct {
	Device  []string `yaml:"device"`
	Build   []string `yaml:"build"`
	Tree    string   `yaml:"tree"`
	Output  string   `yaml:"output"`
	Size    string   `yaml:"size"`
	Configs []string `yaml:"configs"`
}

// Config is a batch file listing every generation step of a build
type Config struct {
	Headers  []HeadersJob  `yaml:"headers"`
	MapFuncs []MapJob      `yaml:"mapfuncs"`
	Merge    []MergeJob    `yaml:"merge"`
	Memmap   []MemmapJob   `yaml:"memmap"`
	Examples []ExamplesJob `yaml:"examples"`

	Path string `yaml:"-"` // File the configuration was read from
}

// DefaultPath returns the configuration file to use when none is given
func DefaultPath() string {
	return env.Str("PICOSYM_CONFIG", DefaultFile)
}

// ImageTool returns the image builder override, or "" for the default
func ImageTool() string {
	return env.Str("PICOSYM_MKLFSIMAGE")
}

// Parse decodes a configuration. Relative paths are taken relative to dir.
func Parse(data []byte, dir string) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.resolve(dir)
	return &c, nil
}

// Load reads the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

func (c *Config) resolve(dir string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	all := func(ps []string) {
		for i := range ps {
			abs(&ps[i])
		}
	}
	for i := range c.Headers {
		j := &c.Headers[i]
		abs(&j.Symbols)
		abs(&j.Stubs)
		all(j.Manifests)
	}
	for i := range c.MapFuncs {
		abs(&c.MapFuncs[i].Map)
		abs(&c.MapFuncs[i].Symbols)
	}
	for i := range c.Merge {
		abs(&c.Merge[i].Output)
		all(c.Merge[i].Inputs)
	}
	for i := range c.Memmap {
		abs(&c.Memmap[i].Output)
		abs(&c.Memmap[i].Input)
	}
	for i := range c.Examples {
		j := &c.Examples[i]
		abs(&j.Tree)
		abs(&j.Output)
		all(j.Configs)
	}
}

// Inputs lists the files whose change should trigger a new run: the
// configuration itself and every input that is not produced by a job.
func (c *Config) Inputs() []string {
	produced := make(map[string]bool)
	for _, j := range c.Headers {
		produced[j.Symbols] = true
		produced[j.Stubs] = true
	}
	for _, j := range c.MapFuncs {
		produced[j.Symbols] = true
	}

	var inputs []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p != "" && !produced[p] && !seen[p] {
			seen[p] = true
			inputs = append(inputs, p)
		}
	}
	add(c.Path)
	for _, j := range c.Headers {
		for _, m := range j.Manifests {
			add(m)
			for _, h := range hdrscan.ManifestHeaders(m) {
				add(h)
			}
		}
	}
	for _, j := range c.MapFuncs {
		add(j.Map)
	}
	for _, j := range c.Merge {
		for _, in := range j.Inputs {
			add(in)
		}
	}
	for _, j := range c.Memmap {
		add(j.Input)
	}
	for _, j := range c.Examples {
		for _, cf := range j.Configs {
			add(cf)
		}
	}
	return inputs
}

// Run executes every job in the order headers, mapfuncs, merge, memmap,
// examples and stops at the first error.
func (c *Config) Run(report *engine.Reporter) error {
	for _, j := range c.Headers {
		report.Debugf("headers -> %s, %s\n", j.Symbols, j.Stubs)
		if err := hdrscan.GenerateFiles(j.Symbols, j.Stubs, j.Manifests, report); err != nil {
			return err
		}
	}
	for _, j := range c.MapFuncs {
		if err := symtab.MapFuncs(j.Map, j.Symbols, report); err != nil {
			return err
		}
	}
	for _, j := range c.Merge {
		report.Debugf("merge -> %s\n", j.Output)
		if err := symtab.Merge(j.Output, j.Inputs); err != nil {
			return err
		}
	}
	for _, j := range c.Memmap {
		if err := memmap.Generate(j.Output, j.Input, strconv.Itoa(j.OSRAMKB), report); err != nil {
			return err
		}
	}
	for _, j := range c.Examples {
		opts := examples.Options{
			Devices: j.Device,
			Builds:  j.Build,
			Tree:    j.Tree,
			Output:  j.Output,
			Size:    j.Size,
			Configs: j.Configs,
			Tool:    ImageTool(),
		}
		if err := examples.Build(opts, report); err != nil {
			return err
		}
	}
	return nil
}
