package models

// UserRole is the role claim carried by access tokens.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)
