package config

import "time"

// Colors
const (
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	WarningColor = 0xFFAA00

	// panel and leaderboard embeds
	PanelColor       = 0x5865F2
	LeaderboardColor = 0xF1C40F
)

// Timeouts
const (
	DefaultQueryTimeout = 5 * time.Second
	CommandTimeout      = 10 * time.Second
	SlowCommandWarning  = 2 * time.Second
)

const (
	LeaderboardPerPage = 10
	MaxLeaderboardSize = 100
)
