package domain

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

// Status is the checkout state of a rental.
type Status string

const (
	StatusIn  Status = "IN"
	StatusOut Status = "OUT"
)

// ParseStatus converts a stored status value, rejecting anything but IN or OUT.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusIn, StatusOut:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrCorruptStatus, s)
}

// Flip returns the status a toggle moves to.
func (s Status) Flip() (Status, error) {
	switch s {
	case StatusIn:
		return StatusOut, nil
	case StatusOut:
		return StatusIn, nil
	}
	return "", fmt.Errorf("%w: %q", ErrCorruptStatus, string(s))
}

// Rental is the current state of a trackable item.
// Holder is empty while the rental is IN. Clients know it as the renter.
type Rental struct {
	ID     int64  `json:"id"`
	Rental string `json:"rental"`
	Status Status `json:"status"`
	Holder string `json:"renter"`
}

// CheckedOut returns true if the rental is currently OUT.
func (r *Rental) CheckedOut() bool {
	return r.Status == StatusOut
}

// LogEntry is one immutable check-in or check-out record. Holder goes over
// the wire as student, the same name /api/write takes it under.
type LogEntry struct {
	ID     int64  `json:"id"`
	Rental string `json:"rental"`
	Action Status `json:"action"`
	Holder string `json:"student"`
	Date   string `json:"date"`
	Time   string `json:"time"`
}

// Event is a check-in/check-out request for a single rental.
// Date and Time are caller formatted and stored verbatim.
type Event struct {
	Rental    string
	HolderB64 string
	Date      string
	Time      string
}

// DecodeHolder decodes a base64 holder value into UTF-8 text.
func DecodeHolder(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHolderEncoding, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: not utf-8", ErrInvalidHolderEncoding)
	}
	return string(raw), nil
}
