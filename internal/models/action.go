package models

import "time"

type ActionLogEntry struct {
	ID        int64
	UserID    string
	Action    string
	Timestamp time.Time
}

const (
	ActionSignedUp        = "Signed up"
	ActionActivated       = "Activated account"
	ActionLoggedIn        = "Logged in"
	ActionChangedPassword = "Changed password"
	ActionDeletedByAdmin  = "Deleted by admin"
)
