// Package amount implements exact fixed-point arithmetic over token amounts.
// Every value is an integer number of base units scaled by 10^decimals; no
// floating point is used anywhere a monetary value is computed or compared.
package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxBasisPoints is the upper bound accepted by ApplyBasisPoints (100%).
const MaxBasisPoints = 10_000

var (
	ErrIncompatibleDecimals = errors.New("amount: incompatible decimals")
	ErrNegativeAmount       = errors.New("amount: negative value")
	ErrInvalidBasisPoints   = errors.New("amount: basis points out of range")
	ErrInvalidAmount        = errors.New("amount: invalid amount")
)

var bpsDenominator = big.NewInt(MaxBasisPoints)

// Currency describes how raw units of a token are scaled and labelled.
type Currency struct {
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
}

// Zero returns a zero amount in c.
func (c Currency) Zero() Amount {
	return Amount{decimals: c.Decimals, symbol: c.Symbol}
}

// FromRaw returns an amount of raw base units in c.
func (c Currency) FromRaw(raw *big.Int) (Amount, error) {
	return New(raw, c.Decimals, c.Symbol)
}

// Amount is an immutable, non-negative quantity of a currency. The zero value
// is a valid zero amount with 0 decimals.
type Amount struct {
	raw      *big.Int
	decimals uint8
	symbol   string
}

// New returns an amount holding a copy of raw. Negative values are rejected.
func New(raw *big.Int, decimals uint8, symbol string) (Amount, error) {
	if raw == nil {
		return Amount{decimals: decimals, symbol: symbol}, nil
	}
	if raw.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %s", ErrNegativeAmount, raw.String())
	}
	return Amount{raw: new(big.Int).Set(raw), decimals: decimals, symbol: symbol}, nil
}

// FromUint64 returns an amount of v base units.
func FromUint64(v uint64, decimals uint8, symbol string) Amount {
	return Amount{raw: new(big.Int).SetUint64(v), decimals: decimals, symbol: symbol}
}

// FromString parses a base-10 integer of base units, as returned by ledger
// reads.
func FromString(raw string, decimals uint8, symbol string) (Amount, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidAmount, raw)
	}
	return New(n, decimals, symbol)
}

// Parse converts a human decimal string such as "1.25" into base units of a
// currency with the given decimals. More fractional digits than decimals is
// an error rather than a silent truncation.
func Parse(text string, decimals uint8, symbol string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, text, err)
	}
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("%w: %s", ErrNegativeAmount, text)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, text, decimals)
	}
	return New(scaled.BigInt(), decimals, symbol)
}

// Raw returns a copy of the base-unit integer.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a Amount) Decimals() uint8 { return a.decimals }
func (a Amount) Symbol() string  { return a.symbol }

// Currency returns the descriptor of a.
func (a Amount) Currency() Currency {
	return Currency{Decimals: a.decimals, Symbol: a.symbol}
}

// IsZero reports whether a holds no base units.
func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

func (a Amount) value() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return a.raw
}

func (a Amount) with(raw *big.Int) Amount {
	return Amount{raw: raw, decimals: a.decimals, symbol: a.symbol}
}

// Add returns a + b.
func Add(a, b Amount) (Amount, error) {
	if a.decimals != b.decimals {
		return Amount{}, incompatible(a, b)
	}
	return a.with(new(big.Int).Add(a.value(), b.value())), nil
}

// MulInt returns a * n for a non-negative integer n, e.g. a per-unit price
// times a quantity.
func MulInt(a Amount, n int64) (Amount, error) {
	if n < 0 {
		return Amount{}, fmt.Errorf("%w: multiplier %d", ErrNegativeAmount, n)
	}
	return a.with(new(big.Int).Mul(a.value(), big.NewInt(n))), nil
}

// ApplyBasisPoints returns a * (10000 + bps) / 10000 with truncating integer
// division, matching the fixed-point math the marketplace contract uses.
func ApplyBasisPoints(a Amount, bps int64) (Amount, error) {
	if bps < 0 || bps > MaxBasisPoints {
		return Amount{}, fmt.Errorf("%w: %d", ErrInvalidBasisPoints, bps)
	}
	scaled := new(big.Int).Mul(a.value(), big.NewInt(MaxBasisPoints+bps))
	return a.with(scaled.Quo(scaled, bpsDenominator)), nil
}

// Cmp compares a and b and returns -1, 0 or +1. Amounts with different
// decimals cannot be compared.
func Cmp(a, b Amount) (int, error) {
	if a.decimals != b.decimals {
		return 0, incompatible(a, b)
	}
	return a.value().Cmp(b.value()), nil
}

func incompatible(a, b Amount) error {
	return fmt.Errorf("%w: %d (%s) vs %d (%s)", ErrIncompatibleDecimals, a.decimals, a.symbol, b.decimals, b.symbol)
}

// Format renders a as a decimal string in whole currency units. Trailing
// fractional zeros are trimmed but one fractional digit is always kept when
// the currency has decimals ("1.0", "0.05"); a currency with 0 decimals
// renders as a plain integer.
func (a Amount) Format() string {
	v := a.value()
	if a.decimals == 0 {
		return v.String()
	}

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.decimals)), nil)
	whole, frac := new(big.Int).QuoRem(v, unit, new(big.Int))

	fs := frac.String()
	if pad := int(a.decimals) - len(fs); pad > 0 {
		fs = strings.Repeat("0", pad) + fs
	}
	fs = strings.TrimRight(fs, "0")
	if fs == "" {
		fs = "0"
	}
	return whole.String() + "." + fs
}

// String renders a with its symbol, e.g. "1.5 ETH".
func (a Amount) String() string {
	if a.symbol == "" {
		return a.Format()
	}
	return a.Format() + " " + a.symbol
}

type amountJSON struct {
	Raw      string `json:"raw"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Display  string `json:"display,omitempty"`
}

// MarshalJSON encodes the raw integer as a string so it survives JSON
// number precision limits.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountJSON{
		Raw:      a.value().String(),
		Decimals: a.decimals,
		Symbol:   a.symbol,
		Display:  a.Format(),
	})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var v amountJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	raw := v.Raw
	if raw == "" {
		raw = "0"
	}
	parsed, err := FromString(raw, v.Decimals, v.Symbol)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
