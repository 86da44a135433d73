// Package trades models raw marketplace trade records from the upstream
// API and their canonical ledger-row form.
package trades

import (
	"errors"
	"strings"

	"github.com/dmaher/sfl-tracker/internal/core/identity"
	"github.com/shopspring/decimal"
)

// Party identifies one side of a marketplace trade.
type Party struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Trade is a raw marketplace trade as returned by /marketplace/profile.
// The upstream feed re-delivers the same trades on every fetch; ID is
// globally unique and is the dedup key for reconciliation.
type Trade struct {
	ID          string          `json:"id"`
	FulfilledAt int64           `json:"fulfilledAt"` // ms since epoch
	ItemID      int             `json:"itemId"`
	Collection  string          `json:"collection"`
	Quantity    int             `json:"quantity"`
	SFL         decimal.Decimal `json:"sfl"`
	Source      string          `json:"source"`
	InitiatedBy Party           `json:"initiatedBy"`
	FulfilledBy Party           `json:"fulfilledBy"`
}

// ErrMalformed marks a trade record missing the fields reconciliation
// depends on. Callers drop the record and keep the batch going.
var ErrMalformed = errors.New("malformed trade record")

// Validate checks the fields the reconciler cannot work without.
func (t Trade) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.Join(ErrMalformed, errors.New("missing trade id"))
	}
	if t.InitiatedBy.Username == "" && t.FulfilledBy.Username == "" {
		return errors.Join(ErrMalformed, errors.New("missing both parties"))
	}
	return nil
}

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// DirectionFor classifies a trade relative to the subject player: the
// initiating party is the seller, so initiator == subject means SELL.
// Both sides go through identity.Normalize because the subject key is
// always the canonical form while the raw feed carries whatever casing
// and accents the player registered with.
func (t Trade) DirectionFor(subject string) Direction {
	if identity.Normalize(t.InitiatedBy.Username) == identity.Normalize(subject) {
		return Sell
	}
	return Buy
}

// CounterpartyFor returns the other side's display name relative to the
// subject player.
func (t Trade) CounterpartyFor(subject string) string {
	if t.DirectionFor(subject) == Sell {
		return t.FulfilledBy.Username
	}
	return t.InitiatedBy.Username
}
