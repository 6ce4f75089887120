package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Pending update repository sentinels.
	ErrPendingUpdateNotFound = errors.New("pending update not found")
	ErrPendingUpdateExists   = errors.New("pending update already in flight for subscription")

	// Job repository sentinels.
	ErrJobNotFound = errors.New("job not found")

	// Order repository sentinels.
	ErrOrderNotFound = errors.New("order not found")

	// Settings repository sentinels.
	ErrSettingNotFound = errors.New("setting not found")
)
