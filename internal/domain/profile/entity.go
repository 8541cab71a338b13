package profile

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// CreatorProfile holds aggregate content stats. ContentCount and
// LastContentAt drive fund distribution weights; SeasonContentCount is
// an ephemeral per-season aggregate purged on season rollover.
type CreatorProfile struct {
	ID                 uuid.UUID    `db:"id" json:"id"`
	UserID             uuid.UUID    `db:"user_id" json:"user_id"`
	Bio                string       `db:"bio" json:"bio"`
	ContentCount       int64        `db:"content_count" json:"content_count"`
	SeasonContentCount int64        `db:"season_content_count" json:"season_content_count"`
	LastContentAt      sql.NullTime `db:"last_content_at" json:"last_content_at,omitempty"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

// PartnerProfile holds aggregate sales stats for a partner store.
type PartnerProfile struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	StoreName   string    `db:"store_name" json:"store_name"`
	SalesTotal  int64     `db:"sales_total" json:"sales_total"`
	SeasonSales int64     `db:"season_sales" json:"season_sales"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
