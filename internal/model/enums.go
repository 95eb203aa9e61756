package model

// SessionStatus is the lifecycle state of a verification session. Any
// value reported by the client after issuance is stored verbatim.
type SessionStatus string

const (
	SessionStatusCreated SessionStatus = "created"
	SessionStatusIssued  SessionStatus = "issued"
)

// IssueMode tells the caller whether the provider credentials are real.
type IssueMode string

const (
	IssueModeLive IssueMode = "LIVE"
	IssueModeMock IssueMode = "MOCK"
)
