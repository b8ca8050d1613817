package reconcile

// MutationState is the lifecycle position of one create operation.
type MutationState int

const (
	// StatePending means a create attempt may be issued.
	StatePending MutationState = iota

	// StateAwaitingVerification means the vendor accepted a create call
	// and the engine is re-reading the device until the code appears.
	StateAwaitingVerification

	// StateVerified means the code was observed on the device.
	StateVerified

	// StateFailed means every budgeted attempt was exhausted.
	StateFailed
)

func (s MutationState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAwaitingVerification:
		return "awaiting_verification"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CreateMutation tracks one code creation through bounded create and
// verification budgets. The engine drives it; transitions outside the
// legal ones are impossible by construction because each method checks
// the current state.
//
//	Pending --BeginAttempt/AttemptFailed--> Pending | Failed
//	Pending --AwaitVerification--> AwaitingVerification
//	AwaitingVerification --VerifyMissed--> AwaitingVerification | Pending | Failed
//	AwaitingVerification --Verified--> Verified
type CreateMutation struct {
	label       string
	maxAttempts int
	maxVerifies int

	state    MutationState
	attempts int
	verifies int
	lastErr  error
}

// NewCreateMutation builds a state machine for one label with the given
// attempt and verification budgets. Budgets below 1 are treated as 1.
func NewCreateMutation(label string, maxAttempts, maxVerifies int) *CreateMutation {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if maxVerifies < 1 {
		maxVerifies = 1
	}
	return &CreateMutation{
		label:       label,
		maxAttempts: maxAttempts,
		maxVerifies: maxVerifies,
		state:       StatePending,
	}
}

// State returns the current lifecycle position.
func (m *CreateMutation) State() MutationState { return m.state }

// Attempts returns how many create attempts have begun.
func (m *CreateMutation) Attempts() int { return m.attempts }

// Err returns the error that drove the machine to StateFailed, or the most
// recent attempt error. Nil while no attempt has failed.
func (m *CreateMutation) Err() error { return m.lastErr }

// BeginAttempt records the start of a create attempt and resets the
// verification counter. Only legal in StatePending.
func (m *CreateMutation) BeginAttempt() {
	if m.state != StatePending {
		return
	}
	m.attempts++
	m.verifies = 0
}

// AttemptFailed records a failed create call. The machine fails once the
// attempt budget is spent, otherwise stays Pending for a retry.
func (m *CreateMutation) AttemptFailed(err error) {
	if m.state != StatePending {
		return
	}
	m.lastErr = err
	if m.attempts >= m.maxAttempts {
		m.state = StateFailed
	}
}

// AwaitVerification records that the vendor accepted the create call.
func (m *CreateMutation) AwaitVerification() {
	if m.state != StatePending {
		return
	}
	m.state = StateAwaitingVerification
}

// VerifyMissed records a verification read that did not observe the label,
// or failed outright (non-nil err). When the verification budget for this
// attempt is spent, the machine retries creation if attempts remain, and
// fails with VerificationTimeout otherwise.
func (m *CreateMutation) VerifyMissed(err error) {
	if m.state != StateAwaitingVerification {
		return
	}
	if err != nil {
		m.lastErr = err
	}
	m.verifies++
	if m.verifies < m.maxVerifies {
		return
	}
	if m.attempts < m.maxAttempts {
		m.state = StatePending
		return
	}
	m.state = StateFailed
	m.lastErr = &VerificationTimeout{Label: m.label, Attempts: m.verifies}
}

// Verified records that the label was observed on the device.
func (m *CreateMutation) Verified() {
	if m.state != StateAwaitingVerification {
		return
	}
	m.state = StateVerified
}
