package md2slides

// StatusSuccess is the canonical success status for compile and run steps.
const StatusSuccess = 0

// CompileOutcome holds the diagnostics and status of a compile step.
type CompileOutcome struct {
	Output string // compiler diagnostics (stderr), or "cached"
	Status int
}

// Succeeded reports whether the compile step exited with StatusSuccess.
func (c *CompileOutcome) Succeeded() bool {
	return c.Status == StatusSuccess
}

// RunOutcome holds the captured output and status of a run step.
type RunOutcome struct {
	Output string // combined stdout and stderr
	Status int
}

// Succeeded reports whether the run step exited with StatusSuccess.
func (r *RunOutcome) Succeeded() bool {
	return r.Status == StatusSuccess
}

// ExecutionResult is the uniform result of a language handler.
// Either outcome may be absent, but never both.
type ExecutionResult struct {
	Compile *CompileOutcome
	Run     *RunOutcome
}

// Validate returns ErrEmptyResult if neither outcome is present.
func (r *ExecutionResult) Validate() error {
	if r == nil || (r.Compile == nil && r.Run == nil) {
		return ErrEmptyResult
	}
	return nil
}

// Compiled reports whether the code compiled. Without a compile step it
// falls back to whether the run succeeded.
// Panics on an empty result: that is a handler bug, not a failed build.
func (r *ExecutionResult) Compiled() bool {
	if err := r.Validate(); err != nil {
		panic(err)
	}
	if r.Compile != nil {
		return r.Compile.Succeeded()
	}
	return r.Run.Succeeded()
}

// Ran reports whether a run step is present and succeeded.
func (r *ExecutionResult) Ran() bool {
	return r != nil && r.Run != nil && r.Run.Succeeded()
}
