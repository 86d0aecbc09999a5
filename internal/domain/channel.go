package domain

type (
	ChannelID string
	GuildID   string
	PlayerID  string
)

// GuildInfo is the reporting view of one guild the bot serves.
type GuildInfo struct {
	ID          GuildID `json:"id"`
	Name        string  `json:"name"`
	MemberCount int     `json:"memberCount"`
}
