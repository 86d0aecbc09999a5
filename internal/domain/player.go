package domain

// PlayerStatus is a player's liveness inside one lobby. A player can be
// marked dying at any time but only goes back to living via an explicit
// revive.
type PlayerStatus string

const (
	StatusLiving PlayerStatus = "living"
	StatusDying  PlayerStatus = "dying"
)

// CommState is the mute/deaf pair applied to a member on the voice platform.
type CommState struct {
	Mute bool `json:"mute"`
	Deaf bool `json:"deaf"`
}
