package core

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

const maxSessionIDLength = 128

var safeSessionID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSessionID accepts proper UUIDs as well as opaque tokens limited to
// alphanumerics, underscores and hyphens. Callers run this at the boundary;
// the agent core assumes ids have already passed it.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session id is empty")
	}
	if len(id) > maxSessionIDLength {
		return fmt.Errorf("session id exceeds %d characters", maxSessionIDLength)
	}
	if _, err := uuid.Parse(id); err == nil {
		return nil
	}
	if !safeSessionID.MatchString(id) {
		return fmt.Errorf("session id must contain only alphanumeric characters, underscores, and hyphens")
	}
	return nil
}

// NewSessionID mints a random session identifier for callers that do not
// bring their own.
func NewSessionID() string {
	return uuid.NewString()
}
