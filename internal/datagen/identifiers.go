//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"fmt"
	"regexp"
	"strings"
)

// IBANCountries lists the countries IBAN knows how to format.
var IBANCountries = []string{"GB", "CH", "FR", "DE", "SA"}

// ibanPatterns validate the generated layouts: two check digits (10-99)
// followed by the country-specific BBAN.
var ibanPatterns = map[string]*regexp.Regexp{
	"GB": regexp.MustCompile(`^GB[1-9][0-9][A-Z]{4}[0-9]{14}$`),
	"CH": regexp.MustCompile(`^CH[1-9][0-9][0-9]{17}$`),
	"FR": regexp.MustCompile(`^FR[1-9][0-9][0-9]{20}[A-Z][0-9]{2}$`),
	"DE": regexp.MustCompile(`^DE[1-9][0-9][0-9]{18}$`),
	"SA": regexp.MustCompile(`^SA[1-9][0-9][0-9]{20}$`),
}

const (
	figiConsonants = "BCDFGHJKLMNPQRSTVWXYZ"
)

// invalidFIGIPrefixes are reserved two-letter prefixes that must not start
// a FIGI.
var invalidFIGIPrefixes = map[string]bool{
	"BS": true, "BM": true, "GG": true, "GB": true, "GH": true, "KY": true, "VG": true,
}

// IBAN returns a synthetic IBAN for one of IBANCountries.
func (f *Faker) IBAN(country string) (string, error) {
	check := fmt.Sprintf("%02d", f.Int(10, 99))
	var bban string
	switch country {
	case "GB":
		bban = f.String(4, false) + f.Digits(14)
	case "CH":
		bban = f.Digits(17)
	case "FR":
		bban = f.Digits(20) + f.String(1, false) + f.Digits(2)
	case "DE":
		bban = f.Digits(18)
	case "SA":
		bban = f.Digits(20)
	default:
		return "", fmt.Errorf("unsupported IBAN country %q", country)
	}
	return country + check + bban, nil
}

// ValidIBAN reports whether iban matches the layout for its country prefix.
func ValidIBAN(iban string) bool {
	if len(iban) < 2 {
		return false
	}
	re, ok := ibanPatterns[iban[:2]]
	return ok && re.MatchString(iban)
}

// ISIN derives an ISIN from the country of issuance and CUSIP.
func ISIN(country, cusip string) string {
	return country + cusip + "4"
}

// RIC derives a Reuters instrument code from a ticker and exchange code.
func RIC(ticker, exchangeCode string) string {
	return ticker + "." + exchangeCode
}

// CUSIP returns 9 decimal digits.
func (f *Faker) CUSIP() string {
	return f.Digits(9)
}

// SEDOL returns 7 decimal digits.
func (f *Faker) SEDOL() string {
	return f.Digits(7)
}

// Valoren returns between 6 and 9 decimal digits.
func (f *Faker) Valoren() string {
	return f.Digits(f.Int(6, 9))
}

// FIGI returns a 12 character identifier: a consonant pair outside the
// reserved prefixes, 'G', eight consonants or digits, and a check digit.
func (f *Faker) FIGI() string {
	var b strings.Builder
	b.Grow(12)

	prefix := f.RandomString(2, figiConsonants)
	for invalidFIGIPrefixes[prefix] {
		prefix = f.RandomString(2, figiConsonants)
	}
	b.WriteString(prefix)
	b.WriteByte('G')
	b.WriteString(f.RandomString(8, figiConsonants+digits))
	b.WriteString(f.Digits(1))
	return b.String()
}

// ValidFIGI reports whether s satisfies the FIGI structure produced by FIGI.
func ValidFIGI(s string) bool {
	if len(s) != 12 || s[2] != 'G' {
		return false
	}
	if invalidFIGIPrefixes[s[:2]] {
		return false
	}
	for i := 0; i < 2; i++ {
		if !strings.ContainsRune(figiConsonants, rune(s[i])) {
			return false
		}
	}
	for i := 3; i < 11; i++ {
		if !strings.ContainsRune(figiConsonants+digits, rune(s[i])) {
			return false
		}
	}
	return s[11] >= '0' && s[11] <= '9'
}
