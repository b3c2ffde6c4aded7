package store

import "errors"

var (
	ErrNoTicketWaiting = errors.New("no ticket waiting")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrCallNotFound    = errors.New("call not found")
	ErrInvalidState    = errors.New("invalid ticket state")
	ErrInvalidCategory = errors.New("invalid category")
)
