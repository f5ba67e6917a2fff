// Package money converts between integer cents and dollar strings.
package money

import (
	"strings"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
)

// Format renders cents as US dollars, e.g. 123456 -> "$1,234.56".
func Format(cents int64) string {
	d := decimal.New(cents, -2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

// Dollars renders cents as a plain decimal amount, e.g. 1999 -> "19.99".
func Dollars(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// ParseDollars reads a dollar amount and rounds it to whole cents.
func ParseDollars(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, errors.NotValidf("empty price")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.NotValidf("price %q", s)
	}
	if d.IsNegative() {
		return 0, errors.NotValidf("negative price %q", s)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}
