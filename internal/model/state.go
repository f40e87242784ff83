package model

// AccountPhase is where one queued account currently is in its run.
type AccountPhase string

const (
	PhaseQueued         AccountPhase = "queued"
	PhaseAuthenticating AccountPhase = "authenticating"
	PhaseRunning        AccountPhase = "running"
	PhaseFinished       AccountPhase = "finished"
	PhaseFailed         AccountPhase = "failed"
)

type AccountState struct {
	Username   string       `json:"username"`
	Phase      AccountPhase `json:"phase"`
	LastError  string       `json:"lastError,omitempty"`
	StartedMs  int64        `json:"startedMs,omitempty"`
	FinishedMs int64        `json:"finishedMs,omitempty"`
}

type RunState struct {
	RunID    string         `json:"runId"`
	Running  bool           `json:"running"`
	Workers  int            `json:"workers"`
	Accounts []AccountState `json:"accounts"`
}
