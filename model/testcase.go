package model

import "time"

// TestCase describes one entry of the static test catalog.
type TestCase struct {
	// Unique test identifier (e.g., "MBED_A1")
	ID string `yaml:"id" json:"id" validate:"required"`
	// Human readable description
	Description string `yaml:"description" json:"description"`
	// Whether the test can run without an operator
	Automated bool `yaml:"automated" json:"automated"`
	// Peripherals a device must expose to run this test
	Peripherals []string `yaml:"peripherals,omitempty" json:"peripherals,omitempty"`
	// Source directory passed to the build collaborator
	SourceDir string `yaml:"source_dir" json:"source_dir"`
	// Library build directories this test links against
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	// Host test adapter name
	HostTest string `yaml:"host_test" json:"host_test"`
	// Nominal duration, also used as the host test deadline
	Duration int `yaml:"duration" json:"duration" validate:"gte=0"`
	// Extra files copied next to the image on non-virtual disks
	ExtraFiles []string `yaml:"extra_files,omitempty" json:"extra_files,omitempty"`
	// Targets the test is limited to (empty means all)
	MCU []string `yaml:"mcu,omitempty" json:"mcu,omitempty"`
	// Targets the test must not run on
	ExcludeMCU []string `yaml:"exclude_mcu,omitempty" json:"exclude_mcu,omitempty"`
}

// DefaultTestDuration is used when a catalog entry declares no duration.
const DefaultTestDuration = 10

// NominalDuration returns the declared duration in seconds.
func (t *TestCase) NominalDuration() int {
	if t.Duration <= 0 {
		return DefaultTestDuration
	}
	return t.Duration
}

// HasPeripherals reports whether the test requires any peripheral.
func (t *TestCase) HasPeripherals() bool {
	return len(t.Peripherals) > 0
}

// Target describes a build target known to the catalog.
type Target struct {
	// Target name (e.g., "K64F")
	Name string `yaml:"-" json:"name"`
	// Toolchains the target can be built with
	Toolchains []string `yaml:"toolchains" json:"toolchains" validate:"min=1"`
	// Whether the device storage is a purely virtual mount
	VirtualDisk bool `yaml:"virtual_disk" json:"virtual_disk"`
	// Settle delay between programming and running the host test
	ProgramCycle *time.Duration `yaml:"program_cycle,omitempty" json:"program_cycle,omitempty"`
}

// SupportsToolchain reports whether the target can be built with toolchain.
func (t *Target) SupportsToolchain(toolchain string) bool {
	for _, tc := range t.Toolchains {
		if tc == toolchain {
			return true
		}
	}
	return false
}

// SettleDelay returns the time to wait after programming the device.
func (t *Target) SettleDelay() time.Duration {
	if t.ProgramCycle != nil {
		return *t.ProgramCycle
	}
	if t.VirtualDisk {
		return 4 * time.Second
	}
	return 1500 * time.Millisecond
}

// Library describes a library that tests may depend on.
type Library struct {
	// Library identifier passed to the build collaborator
	ID string `yaml:"id" json:"id" validate:"required"`
	// Build directory tests reference in their dependencies
	BuildDir string `yaml:"build_dir" json:"build_dir" validate:"required"`
	// Extra include directories for projects using this library
	IncDirsExt []string `yaml:"inc_dirs_ext,omitempty" json:"inc_dirs_ext,omitempty"`
	// Extra macros for projects using this library
	Macros []string `yaml:"macros,omitempty" json:"macros,omitempty"`
}
