package domain

// MaxFailedLoginAttempts is the number of consecutive password mismatches
// that locks an active account.
const MaxFailedLoginAttempts = 5

// AccountEvent is an input to the account state machine
type AccountEvent string

const (
	EventPasswordMismatch AccountEvent = "PASSWORD_MISMATCH"
	EventLoginSucceeded   AccountEvent = "LOGIN_SUCCEEDED"
	EventPasswordReset    AccountEvent = "PASSWORD_RESET"
	EventPasswordUpdated  AccountEvent = "PASSWORD_UPDATED"
)

// Effect is a side effect the caller must perform after a transition
type Effect string

const (
	EffectAccountLocked              Effect = "ACCOUNT_LOCKED"
	EffectDeliverTemporaryCredential Effect = "DELIVER_TEMPORARY_CREDENTIAL"
	EffectIssueTokens                Effect = "ISSUE_TOKENS"
)

// AccountState is the part of a principal the state machine reads and writes
type AccountState struct {
	Status              AccountStatus
	FailedLoginAttempts int
}

// Transition is the result of applying an event. When Err is set the
// transition was rejected or ended in a failure the caller must report;
// State is still authoritative and must be persisted if it differs from
// the input (a mismatch increments the counter and then fails).
type Transition struct {
	State   AccountState
	Effects []Effect
	Err     error
}

// Changed reports whether the state differs from before
func (t Transition) Changed(before AccountState) bool {
	return t.State != before
}

// Has reports whether the transition carries the effect
func (t Transition) Has(e Effect) bool {
	for _, x := range t.Effects {
		if x == e {
			return true
		}
	}
	return false
}

// LoginGate returns the error for a status that may not log in. Only ACTIVE
// principals reach the credential check.
func LoginGate(s AccountStatus) error {
	return StatusError(s)
}

// NextState applies event to the current state. It performs no I/O.
func NextState(cur AccountState, ev AccountEvent) Transition {
	switch ev {
	case EventPasswordMismatch:
		if cur.Status != StatusActive {
			return Transition{State: cur, Err: StatusError(cur.Status)}
		}
		next := AccountState{Status: StatusActive, FailedLoginAttempts: cur.FailedLoginAttempts + 1}
		if next.FailedLoginAttempts >= MaxFailedLoginAttempts {
			next.Status = StatusLocked
			return Transition{State: next, Effects: []Effect{EffectAccountLocked}, Err: ErrAccountLocked}
		}
		return Transition{State: next, Err: ErrBadCredentials}

	case EventLoginSucceeded:
		if cur.Status != StatusActive {
			return Transition{State: cur, Err: StatusError(cur.Status)}
		}
		return Transition{
			State:   AccountState{Status: StatusActive},
			Effects: []Effect{EffectIssueTokens},
		}

	case EventPasswordReset:
		if cur.Status.Administrative() {
			return Transition{State: cur, Err: StatusError(cur.Status)}
		}
		return Transition{
			State:   AccountState{Status: StatusPasswordReset},
			Effects: []Effect{EffectDeliverTemporaryCredential},
		}

	case EventPasswordUpdated:
		if cur.Status != StatusPasswordReset && cur.Status != StatusActive {
			return Transition{State: cur, Err: StatusError(cur.Status)}
		}
		return Transition{State: AccountState{Status: StatusActive}}
	}
	return Transition{State: cur, Err: ErrStatusNotPermitted}
}
