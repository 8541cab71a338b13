package experience

import (
	"time"

	"github.com/google/uuid"
)

// xpPerLevel is how many experience points advance one level.
const xpPerLevel = 100

// HistoryEntry records a single XP grant. Before/after snapshots make
// the ledger auditable without replaying it.
type HistoryEntry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Amount      int64     `db:"amount" json:"amount"`
	XPBefore    int64     `db:"xp_before" json:"xp_before"`
	XPAfter     int64     `db:"xp_after" json:"xp_after"`
	LevelBefore int       `db:"level_before" json:"level_before"`
	LevelAfter  int       `db:"level_after" json:"level_after"`
	Source      string    `db:"source" json:"source"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LevelForXP maps accumulated XP to a level. Levels start at 1.
func LevelForXP(xp int64) int {
	if xp < 0 {
		return 1
	}
	return int(xp/xpPerLevel) + 1
}
