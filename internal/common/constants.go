package common

import "time"

const (
	// Concurrency constants
	MaxConcurrencyLimit = 8

	// File operation constants
	DefaultFilePermissions = 0755
	DebugFilePermissions   = 0644

	// Session constants
	CLIUserKey           = "cli"
	DefaultSweepInterval = time.Minute

	// Upload constants
	DefaultMaxImageBytes = 20 << 20

	// Debug artifact timestamp layout
	DebugTimestampLayout = "20060102_150405"
)
