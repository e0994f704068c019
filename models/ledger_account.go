package models

import "time"

// LedgerAccount represents a holder's currency balance in the built-in ledger
type LedgerAccount struct {
	Holder    string    `db:"holder"`
	Balance   float64   `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
