package model

import (
	"encoding/json"
	"time"
)

// VerificationSession is a pending liveness check. It is created locally,
// then resolved against the provider when the client page asks for a token.
type VerificationSession struct {
	ID                   string           `db:"id" json:"id"`
	UserID               string           `db:"user_id" json:"userId,omitempty"`
	CustomerName         string           `db:"customer_name" json:"customerName,omitempty"`
	CustomerEmail        string           `db:"customer_email" json:"customerEmail,omitempty"`
	AppointmentRef       string           `db:"appointment_ref" json:"appointmentRef,omitempty"`
	Locale               string           `db:"locale" json:"locale"`
	Status               SessionStatus    `db:"status" json:"status"`
	ProviderSessionToken string           `db:"provider_session_token" json:"providerSessionToken,omitempty"`
	ProviderGUID         string           `db:"provider_guid" json:"providerGuid,omitempty"`
	ProviderExpiresAt    *string          `db:"provider_expires_at" json:"providerExpiresAt,omitempty"`
	IsMock               bool             `db:"is_mock" json:"isMock"`
	Result               *json.RawMessage `db:"result" json:"result,omitempty"`
	CreatedAt            time.Time        `db:"created_at" json:"createdAt"`
	IssuedAt             *time.Time       `db:"issued_at" json:"issuedAt,omitempty"`
	FinishedAt           *time.Time       `db:"finished_at" json:"finishedAt,omitempty"`
}

// Subject returns whichever identifier the session was requested for.
func (s *VerificationSession) Subject() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.CustomerEmail
}

type CreateSessionParams struct {
	UserID         string
	CustomerName   string
	CustomerEmail  string
	AppointmentRef string
	Locale         string
}
