package cashback

import (
	"time"

	"github.com/google/uuid"
)

// Code is a single-use cashback code. Used flips false→true exactly
// once; RedeemedBy stays nil until then.
type Code struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PartnerID  uuid.UUID  `db:"partner_id" json:"partner_id"`
	Code       string     `db:"code" json:"code"`
	Value      int64      `db:"value" json:"value"`
	Used       bool       `db:"used" json:"used"`
	RedeemedBy *uuid.UUID `db:"redeemed_by" json:"redeemed_by,omitempty"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
