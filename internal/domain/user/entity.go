package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser    Role = "user"
	RoleCreator Role = "creator"
	RolePartner Role = "partner"
	RoleAdmin   Role = "admin"
)

// TransactionType classifies a sementes ledger entry
type TransactionType string

const (
	TransactionTypeCashback   TransactionType = "cashback"
	TransactionTypeFundShare  TransactionType = "fund_share"
	TransactionTypeCodeRedeem TransactionType = "code_redeem"
	TransactionTypeDonation   TransactionType = "donation"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// User holds the platform account: sementes balance, ranking score
// (pontuacao) and XP progression. The balance only ever moves through
// the ledger; pontuacao is reset by cycle rollover, balance is not.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         Role      `db:"role" json:"role"`
	Sementes     int64     `db:"sementes" json:"sementes"`
	Pontuacao    int64     `db:"pontuacao" json:"pontuacao"`
	XP           int64     `db:"xp" json:"xp"`
	Level        int       `db:"level" json:"level"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is one sementes ledger entry. ReferenceID dedups retried
// operations: the same (type, reference) pair is applied at most once.
type Transaction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	Amount      int64           `db:"amount" json:"amount"`
	Type        TransactionType `db:"type" json:"type"`
	ReferenceID *string         `db:"reference_id" json:"reference_id,omitempty"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
