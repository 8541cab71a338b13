package cycle

import "time"

// Config is the singleton cycle/season state row (id=1 enforced by a
// check constraint). Dates only move forward, and only on rollover.
type Config struct {
	ID           int       `db:"id" json:"-"`
	CycleNumber  int64     `db:"cycle_number" json:"cycle_number"`
	SeasonNumber int64     `db:"season_number" json:"season_number"`
	CycleStart   time.Time `db:"cycle_start" json:"cycle_start"`
	SeasonStart  time.Time `db:"season_start" json:"season_start"`
	Paused       bool      `db:"paused" json:"paused"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ArchiveEntry snapshots one user's pontuacao at the close of a cycle
type ArchiveEntry struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	CycleNumber int64     `db:"cycle_number" json:"cycle_number"`
	Pontuacao   int64     `db:"pontuacao" json:"pontuacao"`
	ArchivedAt  time.Time `db:"archived_at" json:"archived_at"`
}

// Status is the external view of the controller, served on every
// status query (which is also the lazy rollover trigger).
type Status struct {
	CycleNumber         int64 `json:"cycle_number"`
	SeasonNumber        int64 `json:"season_number"`
	DaysRemainingCycle  int   `json:"days_remaining_cycle"`
	DaysRemainingSeason int   `json:"days_remaining_season"`
	Paused              bool  `json:"paused"`
}
