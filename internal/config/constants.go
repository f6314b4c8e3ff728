package config

import "time"

const (
	// Wallet view
	RecentWithdrawals = 3
	HistoryPageSize   = 10

	// Conversation session TTL in the Redis store. Abandoned forms expire
	// instead of trapping the user in a stale step.
	SessionTTL = 30 * time.Minute

	// Broadcast pacing, keeps us under Telegram's ~30 msg/s limit.
	BroadcastInterval = 50 * time.Millisecond
)
