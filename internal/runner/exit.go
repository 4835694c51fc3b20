package runner

// Process exit codes surfaced to the shell.
const (
	ExitSuccess      = 0 // every request in every cycle succeeded
	ExitFailed       = 1 // all cycles completed, but one or more proxies failed
	ExitUnableToTest = 2 // the test itself could not run or finish
)

// ExitCode classifies a run outcome. Any error means the test could not be
// carried out (a broken backend, an incomplete batch, an interrupted cycle),
// which is distinct from proxies failing their checks.
func ExitCode(res Result, err error) int {
	if err != nil {
		return ExitUnableToTest
	}
	if res.Failed > 0 {
		return ExitFailed
	}
	return ExitSuccess
}
