package service

import "github.com/theunknown2025/sympos-ai-sub004/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Email  string
	Role   models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// owns reports whether the actor may manage an event.
func (a Actor) owns(ev *models.Event) bool {
	return a.IsAdmin() || ev.OrganizerID == a.UserID
}
