package cart

import "github.com/dustin/go-humanize"

// Money is an amount in integer minor units (cents). All price arithmetic
// stays in cents; floats never touch a total.
type Money struct{ Cents int64 }

func (m Money) Add(o Money) Money   { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Mul(qty int32) Money { return Money{Cents: m.Cents * int64(qty)} }
func (m Money) IsZero() bool        { return m.Cents == 0 }

// Display renders the amount with thousands separators for snapshot
// payloads, e.g. 1534500 -> "15,345.00". Cosmetic only.
func (m Money) Display() string {
	return humanize.CommafWithDigits(float64(m.Cents)/100, 2)
}
