package checkout

// Step is a saga state. Each step is a precondition for the next; the
// attempt log records every step a checkout completed, in order.
type Step string

const (
	StepStarted          Step = "started"
	StepStockValidated   Step = "stock_validated"
	StepHeaderCreated    Step = "header_created"
	StepLinesCreated     Step = "lines_created"
	StepStockDecremented Step = "stock_decremented"
	StepCartCleared      Step = "cart_cleared"
	StepCompleted        Step = "completed"

	// StepFailed is the terminal log entry for an attempt that stopped
	// partway; its detail records the failed step and per-line outcomes.
	StepFailed Step = "failed"
)

func (s Step) String() string {
	return string(s)
}

// irreversible reports whether a failure at this step leaves committed
// writes behind. The order header is the first irreversible write, so
// everything from line creation onward can only fail partially.
func (s Step) irreversible() bool {
	switch s {
	case StepLinesCreated, StepStockDecremented, StepCartCleared:
		return true
	}
	return false
}
