package model

// Record is the outcome of one (target, toolchain, test) combination.
type Record struct {
	// Aggregated verdict over all loops
	Result ResultCode `json:"result"`
	// Target name
	Target string `json:"target"`
	// Toolchain name
	Toolchain string `json:"toolchain"`
	// Test identifier
	TestID string `json:"test_id"`
	// Test description
	Description string `json:"description"`
	// Elapsed seconds of the last loop, rounded to two decimals
	Elapsed float64 `json:"elapsed"`
	// Nominal test duration in seconds
	Duration int `json:"duration"`
	// Number of OK loops over the requested loop count (e.g., "2/3")
	Loops string `json:"loops"`
	// Verdict of every loop, in execution order
	LoopResults []ResultCode `json:"loop_results,omitempty"`
}
