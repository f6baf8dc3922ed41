package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imdario/mergo"
	"gopkg.in/yaml.v3"
)

// FileName is the optional settings file looked up in the working directory.
const FileName = ".hiltest.yml"

// Settings captures run options that may come from the settings file or flags.
type Settings struct {
	TestSpec     string `yaml:"test_spec"`
	Devices      string `yaml:"devices"`
	Catalog      string `yaml:"catalog"`
	BuildCommand string `yaml:"build_command"`
	BuildDir     string `yaml:"build_dir"`
	HostTests    string `yaml:"host_tests"`
	Interpreter  string `yaml:"interpreter"`
	CopyMethod   string `yaml:"copy_method"`
	WebDriverURL string `yaml:"webdriver_url"`
	ResetType    string `yaml:"reset_type"`
	LogFile      string `yaml:"log"`
	Jobs         int    `yaml:"jobs"`
	GlobalLoops  int    `yaml:"global_loops"`
	Loops        string `yaml:"loops"`
	IncTimeout   int    `yaml:"inc_timeout"`
}

// Default returns the baseline settings used when neither flags nor the
// settings file specify a value.
func Default() Settings {
	return Settings{
		Catalog:      "tests.yml",
		BuildCommand: "hiltest-build",
		BuildDir:     filepath.Join("build", "test"),
		HostTests:    "host_tests",
		Interpreter:  "python",
		Jobs:         1,
		GlobalLoops:  1,
	}
}

// Load reads the settings file from dir when present. Missing files are ignored.
func Load(dir string) (Settings, error) {
	var cfg Settings
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Resolve fills every unset field of flags from file, then from Default.
func Resolve(flags, file Settings) (Settings, error) {
	out := flags
	if err := mergo.Merge(&out, file); err != nil {
		return out, fmt.Errorf("merge settings file: %w", err)
	}
	if err := mergo.Merge(&out, Default()); err != nil {
		return out, fmt.Errorf("merge default settings: %w", err)
	}
	return out, nil
}
