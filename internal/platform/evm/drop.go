package evm

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// GetActiveClaimCondition reads the active claim condition of a drop
// contract. The allowlist itself is not on-chain; Snapshot is left nil and
// MerkleRoot tells the caller whether one should be fetched.
func (c *Client) GetActiveClaimCondition(ctx context.Context, contract string) (domain.ClaimCondition, error) {
	if !common.IsHexAddress(contract) {
		return domain.ClaimCondition{}, fmt.Errorf("evm: %w: invalid drop address %q", domain.ErrNotFound, contract)
	}
	addr := common.HexToAddress(contract)

	out, err := c.call(ctx, addr, dropABI, "getActiveClaimConditionId")
	if err != nil {
		// The drop contract reverts when no condition has been set.
		if ClassifyError(err) == "reverted" {
			return domain.ClaimCondition{}, fmt.Errorf("evm: active condition of %s: %w", contract, domain.ErrNoClaimCondition)
		}
		return domain.ClaimCondition{}, fmt.Errorf("evm: active condition of %s: %w", contract, err)
	}
	conditionID := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)

	out, err = c.call(ctx, addr, dropABI, "getClaimConditionById", conditionID)
	if err != nil {
		return domain.ClaimCondition{}, fmt.Errorf("evm: condition %s of %s: %w", conditionID, contract, err)
	}
	raw := *abi.ConvertType(out[0], new(claimConditionOutput)).(*claimConditionOutput)

	cur, err := c.currency(ctx, raw.Currency)
	if err != nil {
		return domain.ClaimCondition{}, fmt.Errorf("evm: condition of %s: %w", contract, err)
	}
	price, err := cur.FromRaw(raw.PricePerToken)
	if err != nil {
		return domain.ClaimCondition{}, fmt.Errorf("evm: condition of %s price: %w", contract, err)
	}

	cond := domain.ClaimCondition{
		ContractAddress:             addr.Hex(),
		StartTimeEpochSeconds:       clampInt64(raw.StartTimestamp),
		Currency:                    cur,
		PricePerUnit:                price,
		MaxQuantity:                 quantityString(raw.MaxClaimableSupply),
		QuantityLimitPerTransaction: quantityString(raw.QuantityLimitPerTransaction),
		CurrentMintSupply:           raw.SupplyClaimed.String(),
		AvailableSupply:             domain.Unlimited,
	}
	if raw.MaxClaimableSupply.Cmp(maxUint256) != 0 {
		avail := new(big.Int).Sub(raw.MaxClaimableSupply, raw.SupplyClaimed)
		if avail.Sign() < 0 {
			avail.SetInt64(0)
		}
		cond.AvailableSupply = avail.String()
	}
	if raw.MerkleRoot != ([32]byte{}) {
		cond.MerkleRoot = common.Hash(raw.MerkleRoot).Hex()
	}
	return cond, nil
}

func quantityString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	if n.Cmp(maxUint256) == 0 {
		return domain.Unlimited
	}
	if n.IsInt64() {
		return strconv.FormatInt(n.Int64(), 10)
	}
	return n.String()
}
