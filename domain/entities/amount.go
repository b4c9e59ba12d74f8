package entities

import (
	"fmt"

	"github.com/holiman/uint256"
)

// AccountID identifies a participant or payout destination.
type AccountID string

// Amount is a 256-bit unsigned value quantity. All arithmetic is checked:
// an operation that cannot represent its result reports failure instead of
// wrapping. The zero value is a zero amount and ready to use.
type Amount struct {
	n uint256.Int
}

// NewAmount returns an Amount holding v.
func NewAmount(v uint64) Amount {
	var a Amount
	a.n.SetUint64(v)
	return a
}

// ParseAmount parses a base-10 amount string.
func ParseAmount(s string) (Amount, error) {
	n, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{n: *n}, nil
}

// MaxAmount returns the largest representable Amount.
func MaxAmount() Amount {
	var a Amount
	a.n.SetAllOne()
	return a
}

// Add returns a+b; ok is false on overflow.
func (a Amount) Add(b Amount) (Amount, bool) {
	var r Amount
	_, overflow := r.n.AddOverflow(&a.n, &b.n)
	return r, !overflow
}

// Sub returns a-b; ok is false if b > a.
func (a Amount) Sub(b Amount) (Amount, bool) {
	var r Amount
	_, underflow := r.n.SubOverflow(&a.n, &b.n)
	return r, !underflow
}

// MulUint64 returns a*k; ok is false on overflow.
func (a Amount) MulUint64(k uint64) (Amount, bool) {
	var r Amount
	_, overflow := r.n.MulOverflow(&a.n, uint256.NewInt(k))
	return r, !overflow
}

// Percent returns floor(a*pct/100); ok is false if the intermediate
// product overflows.
func (a Amount) Percent(pct uint64) (Amount, bool) {
	var r Amount
	_, overflow := r.n.MulOverflow(&a.n, uint256.NewInt(pct))
	if overflow {
		return Amount{}, false
	}
	r.n.Div(&r.n, uint256.NewInt(100))
	return r, true
}

// Cmp returns -1, 0 or 1 comparing a against b.
func (a Amount) Cmp(b Amount) int {
	return a.n.Cmp(&b.n)
}

// IsZero reports whether a is zero.
func (a Amount) IsZero() bool {
	return a.n.IsZero()
}

// Equal reports whether a and b hold the same value.
func (a Amount) Equal(b Amount) bool {
	return a.n.Eq(&b.n)
}

// Uint64 returns the low 64 bits of a. Callers that might hold wider
// values should compare with Cmp instead.
func (a Amount) Uint64() uint64 {
	return a.n.Uint64()
}

// String renders a as base-10.
func (a Amount) String() string {
	return a.n.Dec()
}

// MarshalJSON renders a as a base-10 JSON string, so wide values survive
// serialization without float truncation.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.n.Dec() + `"`), nil
}

// UnmarshalJSON parses a base-10 JSON string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("amount must be a JSON string, got %s", data)
	}
	parsed, err := ParseAmount(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
