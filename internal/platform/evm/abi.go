package evm

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const marketplaceABIJSON = `[
{"type":"function","name":"listings","stateMutability":"view",
 "inputs":[{"name":"","type":"uint256"}],
 "outputs":[
  {"name":"listingId","type":"uint256"},
  {"name":"tokenOwner","type":"address"},
  {"name":"assetContract","type":"address"},
  {"name":"tokenId","type":"uint256"},
  {"name":"startTime","type":"uint256"},
  {"name":"endTime","type":"uint256"},
  {"name":"quantity","type":"uint256"},
  {"name":"currency","type":"address"},
  {"name":"reservePricePerToken","type":"uint256"},
  {"name":"buyoutPricePerToken","type":"uint256"},
  {"name":"tokenType","type":"uint8"},
  {"name":"listingType","type":"uint8"}]},
{"type":"function","name":"winningBid","stateMutability":"view",
 "inputs":[{"name":"","type":"uint256"}],
 "outputs":[
  {"name":"listingId","type":"uint256"},
  {"name":"offeror","type":"address"},
  {"name":"quantityWanted","type":"uint256"},
  {"name":"currency","type":"address"},
  {"name":"pricePerToken","type":"uint256"},
  {"name":"expirationTimestamp","type":"uint256"}]},
{"type":"function","name":"bidBufferBps","stateMutability":"view",
 "inputs":[],
 "outputs":[{"name":"","type":"uint64"}]}
]`

const dropABIJSON = `[
{"type":"function","name":"getActiveClaimConditionId","stateMutability":"view",
 "inputs":[],
 "outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getClaimConditionById","stateMutability":"view",
 "inputs":[{"name":"_conditionId","type":"uint256"}],
 "outputs":[{"name":"condition","type":"tuple","components":[
  {"name":"startTimestamp","type":"uint256"},
  {"name":"maxClaimableSupply","type":"uint256"},
  {"name":"supplyClaimed","type":"uint256"},
  {"name":"quantityLimitPerTransaction","type":"uint256"},
  {"name":"waitTimeInSecondsBetweenClaims","type":"uint256"},
  {"name":"merkleRoot","type":"bytes32"},
  {"name":"pricePerToken","type":"uint256"},
  {"name":"currency","type":"address"}]}]}
]`

const erc20ABIJSON = `[
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var (
	marketplaceABI = mustParseABI(marketplaceABIJSON)
	dropABI        = mustParseABI(dropABIJSON)
	erc20ABI       = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("evm: invalid embedded abi: " + err.Error())
	}
	return parsed
}

// Listing types as encoded by the marketplace contract.
const (
	listingTypeDirect  uint8 = 0
	listingTypeAuction uint8 = 1
)

// listingOutput mirrors the outputs of listings(uint256).
type listingOutput struct {
	ListingId            *big.Int
	TokenOwner           common.Address
	AssetContract        common.Address
	TokenId              *big.Int
	StartTime            *big.Int
	EndTime              *big.Int
	Quantity             *big.Int
	Currency             common.Address
	ReservePricePerToken *big.Int
	BuyoutPricePerToken  *big.Int
	TokenType            uint8
	ListingType          uint8
}

// offerOutput mirrors the outputs of winningBid(uint256).
type offerOutput struct {
	ListingId           *big.Int
	Offeror             common.Address
	QuantityWanted      *big.Int
	Currency            common.Address
	PricePerToken       *big.Int
	ExpirationTimestamp *big.Int
}

// claimConditionOutput mirrors the tuple returned by getClaimConditionById.
type claimConditionOutput struct {
	StartTimestamp                 *big.Int
	MaxClaimableSupply             *big.Int
	SupplyClaimed                  *big.Int
	QuantityLimitPerTransaction    *big.Int
	WaitTimeInSecondsBetweenClaims *big.Int
	MerkleRoot                     [32]byte
	PricePerToken                  *big.Int
	Currency                       common.Address
}

// nativeCurrency is the sentinel address contracts use for the chain's
// native currency.
var nativeCurrency = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// maxUint256 marks an unbounded supply or limit.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
