package domain

import "github.com/google/uuid"

// Member is a participant of a coordination room. CarryOver counts slots
// deferred from previous weeks and is used as a scheduling tiebreak, never
// as an authoritative objective.
type Member struct {
	userID    uuid.UUID
	color     string
	carryOver int
	completed int
}

// NewMember creates a room member.
func NewMember(userID uuid.UUID, color string) Member {
	return Member{userID: userID, color: color}
}

// RehydrateMember recreates a member from persisted state.
func RehydrateMember(userID uuid.UUID, color string, carryOver, completed int) Member {
	return Member{
		userID:    userID,
		color:     color,
		carryOver: carryOver,
		completed: completed,
	}
}

// MemberPalette holds the colors assigned to members in join order.
var MemberPalette = []string{
	"#4F86C6", "#F2B263", "#7BC88F", "#E58BB5", "#9D8CD6", "#6FC2C9", "#E5A49B", "#B5C96F",
}

// PaletteColor picks the color for the nth member.
func PaletteColor(n int) string {
	return MemberPalette[n%len(MemberPalette)]
}

func (m Member) UserID() uuid.UUID { return m.userID }
func (m Member) Color() string     { return m.color }
func (m Member) CarryOver() int    { return m.carryOver }
func (m Member) Completed() int    { return m.completed }
