package service

import "github.com/google/uuid"

// Actor is the caller identity, passed explicitly into every operation.
// The zero value is an anonymous caller.
type Actor struct {
	UserID  uuid.UUID
	IsStaff bool
}

func (a Actor) Anonymous() bool {
	return a.UserID == uuid.Nil
}

// CanModify reports whether the actor may change something owned by authorID.
// Orphaned records (nil author) can only be changed by staff.
func (a Actor) CanModify(authorID *uuid.UUID) bool {
	if a.Anonymous() {
		return false
	}
	if a.IsStaff {
		return true
	}
	return authorID != nil && *authorID == a.UserID
}
