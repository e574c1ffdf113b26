package models

import "time"

// Role is the resolved relationship between a viewer and an event.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
	RoleNone   Role = "none"
)

// Event represents a time-boxed gathering with an owner and a feed.
type Event struct {
	ID         string     `db:"id" json:"id"`
	Title      string     `db:"title" json:"title"`
	OwnerID    string     `db:"owner_id" json:"owner_id"`
	StartsAt   time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt     *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	Private    bool       `db:"private" json:"private"`
	ShareToken string     `db:"share_token" json:"-"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`

	// AllowList and Members are loaded alongside the event row. A nil
	// slice means the event defines no such list at all, which is
	// different from an empty one.
	AllowList []string `json:"-"`
	Members   []string `json:"-"`
}

// HasAllowList reports whether the event defines an explicit allow-list.
func (e Event) HasAllowList() bool {
	return e.AllowList != nil
}

// HasMemberSet reports whether the event defines a membership set.
func (e Event) HasMemberSet() bool {
	return e.Members != nil
}

// Membership is the resolved viewer/event relationship. It is computed per
// request and never persisted.
type Membership struct {
	EventID  string `json:"event_id"`
	ViewerID string `json:"viewer_id,omitempty"`
	Role     Role   `json:"role"`
}

// Resolved reports whether the membership grants any access at all.
func (m Membership) Resolved() bool {
	return m.Role == RoleOwner || m.Role == RoleMember
}

// AccessToken is a capability bound to exactly one event at mint time.
type AccessToken struct {
	Token   string `json:"token"`
	EventID string `json:"event_id"`
}
