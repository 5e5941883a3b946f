package domain

import "errors"

var (
	// ErrInvalidState is returned when an order cannot change in its current state,
	// e.g. adding items to an order that is ready for collection.
	ErrInvalidState = errors.New("invalid order state")
	// ErrNotReady is returned when collecting an order that is not fully on the tray.
	ErrNotReady = errors.New("order not ready for collection")
	// ErrLockTimeout is returned when disconnect cleanup could not acquire the staging locks in time.
	ErrLockTimeout = errors.New("timed out acquiring staging locks")

	ErrInvalidQuantity = errors.New("order must contain at least one drink")
	ErrEmptyName       = errors.New("name cannot be empty")
	// ErrEngineStopped is returned for new work once the brewing workers have shut down.
	ErrEngineStopped = errors.New("engine stopped")
)
