package domain

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
)

// Status is the outcome of a delivery attempt.
type Status string

// Delivery outcomes. Only StatusSuccess retires a scheduled event.
const (
	StatusSuccess             Status = "success"
	StatusFailed              Status = "failed"
	StatusNoRegisteredToken   Status = "no_registered_token"
	StatusDeviceUnreachable   Status = "device_unreachable"
	StatusParticipantInactive Status = "participant_inactive"
	StatusRejected            Status = "rejected"
)

// ErrUnknownStatus is returned for status strings outside the vocabulary.
var ErrUnknownStatus = errors.New("unknown delivery status")

var statuses = map[Status]struct{}{
	StatusSuccess:             {},
	StatusFailed:              {},
	StatusNoRegisteredToken:   {},
	StatusDeviceUnreachable:   {},
	StatusParticipantInactive: {},
	StatusRejected:            {},
}

// ParseStatus normalizes a worker-supplied status. Matching is
// case-insensitive and treats '-' and ' ' like '_'.
func ParseStatus(s string) (Status, error) {
	norm := cases.Fold().String(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	st := Status(norm)
	if _, ok := statuses[st]; !ok {
		return "", ErrUnknownStatus
	}
	return st, nil
}

// Valid reports whether s belongs to the vocabulary.
func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

// Retires reports whether the outcome marks the scheduled event as done.
func (s Status) Retires() bool { return s == StatusSuccess }
