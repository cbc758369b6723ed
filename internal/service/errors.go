package service

import "errors"

// Typed failures returned by services. The HTTP layer translates these into
// status codes; services never write responses themselves.
var (
	ErrInvalidCredentials     = errors.New("Invalid credentials")
	ErrIncorrectPassword      = errors.New("Incorrect password")
	ErrPrincipalNotFound      = errors.New("principal not found")
	ErrInvalidOrExpiredTicket = errors.New("Invalid or expired token")
	ErrEmailTaken             = errors.New("email already registered")
	ErrInvalidRole            = errors.New("invalid role")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrNoCapacity             = errors.New("no admission spots remaining")
)
