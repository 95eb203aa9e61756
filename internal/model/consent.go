package model

import (
	"database/sql/driver"
	"time"
)

// ConsentRecord is written once per consent submission and never updated.
type ConsentRecord struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"userId"`
	AppointmentRef string     `db:"appointment_ref" json:"appointmentRef"`
	ConsentText    string     `db:"consent_text" json:"consentText"`
	ConsentVersion string     `db:"consent_version" json:"consentVersion"`
	UserAgent      string     `db:"user_agent" json:"userAgent,omitempty"`
	ClientIP       string     `db:"client_ip" json:"clientIp"`
	Device         DeviceInfo `db:"device" json:"device"`
	RecordedAt     time.Time  `db:"recorded_at" json:"recordedAt"`
}

// DeviceInfo summarizes the user agent a consent was given from.
type DeviceInfo struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Mobile  bool   `json:"mobile"`
	Bot     bool   `json:"bot,omitempty"`
}

func (d DeviceInfo) Value() (driver.Value, error) {
	return jsonValue(d)
}

func (d *DeviceInfo) Scan(src any) error {
	return jsonScan(src, d)
}

type CreateConsentParams struct {
	UserID         string
	AppointmentRef string
	ConsentText    string
	ConsentVersion string
	UserAgent      string
	ClientIP       string
}
