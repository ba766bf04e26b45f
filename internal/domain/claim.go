package domain

import "github.com/alanyoungcy/dropmarket/internal/amount"

// Unlimited is the wire value the ledger uses for supply caps with no bound.
const Unlimited = "unlimited"

// ClaimCondition is the active rule set of a drop. Quantities are kept as the
// strings the ledger returns because MaxQuantity and AvailableSupply may be
// Unlimited and the per-transaction limit may be missing or malformed.
type ClaimCondition struct {
	ContractAddress             string          `json:"contract_address"`
	StartTimeEpochSeconds       int64           `json:"start_time"`
	Currency                    amount.Currency `json:"currency"`
	PricePerUnit                amount.Amount   `json:"price_per_unit"`
	MaxQuantity                 string          `json:"max_quantity"`
	QuantityLimitPerTransaction string          `json:"quantity_limit_per_transaction"`
	CurrentMintSupply           string          `json:"current_mint_supply"`
	AvailableSupply             string          `json:"available_supply"`
	MerkleRoot                  string          `json:"merkle_root,omitempty"`

	// Snapshot is the allowlist. A nil slice means no allowlist applies; an
	// empty non-nil slice is an allowlist nobody is on.
	Snapshot []SnapshotEntry `json:"snapshot"`
}

// HasSnapshot reports whether an allowlist restricts this condition.
func (c ClaimCondition) HasSnapshot() bool {
	return c.Snapshot != nil
}

// SnapshotEntry is one allowlisted address. A MaxClaimable of "0" means the
// address may claim an unlimited quantity, not zero. Existing allowlist files
// rely on this, so it must not be reinterpreted.
type SnapshotEntry struct {
	Address      string `json:"address"`
	MaxClaimable string `json:"maxClaimable"`
}
