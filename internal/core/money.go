// Package core provides money parsing and formatting utilities.
//
// Amounts are VND-style floats as stored by the database. Statement amounts
// arrive as free text and are parsed with shopspring/decimal so that
// separators and rounding never go through binary floating point.
package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// currencyTokens are stripped from statement amounts, matched on the lowercased text.
var currencyTokens = []string{"vnđ", "vnd", "usd", "eur", "đ", "₫", "$", "€"}

// ParseStatementAmount converts a bank-statement amount into a signed decimal.
//
// Spaces, currency glyphs and thousands separators are removed. When both
// '.' and ',' appear the last one is the decimal mark. A single separator
// followed by exactly three digits, or a separator repeated, groups
// thousands; otherwise it is the decimal mark. A leading '-', a trailing
// '-' or surrounding parentheses make the amount negative.
//
// Examples:
//
//	ParseStatementAmount("-150,000đ")  -> -150000
//	ParseStatementAmount("2.000.000")  -> 2000000
//	ParseStatementAmount("1,234.56")   -> 1234.56
//	ParseStatementAmount("(45.000 ₫)") -> -45000
func ParseStatementAmount(raw string) (decimal.Decimal, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, s)

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	switch {
	case strings.HasPrefix(s, "-"):
		neg = !neg
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		neg = !neg
		s = s[:len(s)-1]
	}
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return decimal.Zero, ErrInvalidAmount
		}
	}

	normalized, err := normalizeSeparators(s)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func normalizeSeparators(s string) (string, error) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	var thousands, decimalMark string
	switch {
	case dots == 0 && commas == 0:
		return s, nil
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			thousands, decimalMark = ",", "."
		} else {
			thousands, decimalMark = ".", ","
		}
		if strings.Count(s, decimalMark) > 1 {
			return "", ErrInvalidAmount
		}
	default:
		sep := "."
		if commas > 0 {
			sep = ","
		}
		idx := strings.LastIndex(s, sep)
		if strings.Count(s, sep) > 1 || len(s)-idx-1 == 3 {
			thousands = sep
		} else {
			decimalMark = sep
		}
	}

	intPart, fracPart := s, ""
	if decimalMark != "" {
		idx := strings.LastIndex(s, decimalMark)
		intPart, fracPart = s[:idx], s[idx+1:]
		if fracPart == "" {
			return "", ErrInvalidAmount
		}
	}
	if thousands != "" {
		groups := strings.Split(intPart, thousands)
		if groups[0] == "" || len(groups[0]) > 3 {
			return "", ErrInvalidAmount
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return "", ErrInvalidAmount
			}
		}
		intPart = strings.Join(groups, "")
	}
	if intPart == "" {
		intPart = "0"
	}
	if fracPart == "" {
		return intPart, nil
	}
	return intPart + "." + fracPart, nil
}

// FormatCurrency renders an amount as whole dong with comma grouping, e.g. "1,234,567 đ".
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(0)
	digits := d.Abs().String()

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(" đ")
	return b.String()
}

// FormatDate renders a date as dd/mm/yyyy, or "" when unset.
func FormatDate(d Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("02/01/2006")
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
