// Package domain contains entity meta-data without logic.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPhase = errors.New("invalid lobby phase")
	ErrSamePhase    = errors.New("lobby is already in that phase")
	ErrLobbyExists  = errors.New("a lobby already exists for that voice channel")
)

// Phase is the current stage of a game tracked by a lobby.
type Phase string

const (
	PhaseIntermission Phase = "intermission"
	PhaseWorking      Phase = "working"
	PhaseMeeting      Phase = "meeting"
)

// ParsePhase normalizes a phase name from an external caller.
func ParsePhase(s string) (Phase, error) {
	switch Phase(strings.ToLower(strings.TrimSpace(s))) {
	case PhaseIntermission:
		return PhaseIntermission, nil
	case PhaseWorking:
		return PhaseWorking, nil
	case PhaseMeeting:
		return PhaseMeeting, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, s)
	}
}

func (p Phase) Valid() bool {
	switch p {
	case PhaseIntermission, PhaseWorking, PhaseMeeting:
		return true
	}
	return false
}
