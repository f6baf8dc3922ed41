package model

// MatrixSpec selects the (target, toolchain) pairs and tests of a run.
type MatrixSpec struct {
	// Toolchains to build with, keyed by target name
	Targets map[string][]string `json:"targets" validate:"required,min=1,dive,min=1"`
	// Explicit subset of test identifiers (empty means all)
	TestIDs []string `json:"test_ids,omitempty"`
	// Discard previous build artifacts first
	Clean bool `json:"clean,omitempty"`
}

// TargetNames returns the matrix targets in lexical order.
func (m *MatrixSpec) TargetNames() []string {
	return SortedKeys(m.Targets)
}

// Toolchains returns the distinct toolchains used anywhere in the matrix, sorted.
func (m *MatrixSpec) Toolchains() []string {
	seen := make(map[string][]string)
	for _, toolchains := range m.Targets {
		for _, tc := range toolchains {
			seen[tc] = nil
		}
	}
	return SortedKeys(seen)
}

// Includes reports whether testID passes the explicit id subset.
func (m *MatrixSpec) Includes(testID string) bool {
	if len(m.TestIDs) == 0 {
		return true
	}
	for _, id := range m.TestIDs {
		if id == testID {
			return true
		}
	}
	return false
}
