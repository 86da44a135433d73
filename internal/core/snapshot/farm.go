// Package snapshot persists the raw per-player JSON captures and the
// small identifier caches derived from them. Everything here favors
// forward progress: a missing or corrupt file is "no prior state",
// never a fatal error.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/dmaher/sfl-tracker/internal/core/identity"
	"github.com/dmaher/sfl-tracker/internal/core/trades"
	"github.com/shopspring/decimal"
)

// Document is a point-in-time capture of one player's farm state as
// returned by /community/farms. Only the fields the tracker reads are
// modeled; the raw bytes are persisted untouched.
type Document struct {
	ID    json.Number `json:"id"`
	NFTID json.Number `json:"nft_id"`
	Farm  Farm        `json:"farm"`
}

type Farm struct {
	Username     string                 `json:"username"`
	FarmAddress  string                 `json:"farmAddress"`
	Balance      json.Number            `json:"balance"`
	Coins        json.Number            `json:"coins"`
	Gems         json.Number            `json:"gems"`
	FarmActivity map[string]json.Number `json:"farmActivity"`
	Trades       TradeSummary           `json:"trades"`
	Inventory    map[string]json.Number `json:"inventory"`
}

// TradeSummary is the embedded trade substructure of a farm snapshot.
type TradeSummary struct {
	SoldCount   int                `json:"soldCount"`
	TradePoints float64            `json:"tradePoints"`
	Listings    map[string]Listing `json:"listings"`
}

type Listing struct {
	Items      map[string]float64 `json:"items"`
	SFL        decimal.Decimal    `json:"sfl"`
	CreatedAt  int64              `json:"createdAt"`
	Collection string             `json:"collection"`
}

// ParseFarm decodes a farm snapshot document.
func ParseFarm(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse farm snapshot: %w", err)
	}
	return &doc, nil
}

// Username returns the canonical lowercase username for this snapshot,
// falling back to the farm address when no username is set. Empty when
// neither is present.
func (d *Document) Username() string {
	if d.Farm.Username != "" {
		return identity.Normalize(d.Farm.Username)
	}
	return identity.Normalize(d.Farm.FarmAddress)
}

// Activity reads a farmActivity counter such as "SFL Earned", 0 when
// absent or unparseable.
func (f Farm) Activity(key string) float64 {
	n, ok := f.FarmActivity[key]
	if !ok {
		return 0
	}
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}

// MarketplaceDoc is the /marketplace/profile response: the trade feed
// plus whatever listing metadata the upstream includes.
type MarketplaceDoc struct {
	Trades []trades.Trade `json:"trades"`
}

// ParseMarketplace decodes a marketplace profile document. Individual
// trades that fail to decode do not surface here; json.Unmarshal fills
// zero values and the reconciler's validation drops them.
func ParseMarketplace(raw []byte) (*MarketplaceDoc, error) {
	var doc MarketplaceDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse marketplace snapshot: %w", err)
	}
	return &doc, nil
}
