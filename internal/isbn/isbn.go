// Package isbn turns scanned or typed book codes into canonical identifiers.
package isbn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIdentifier is the root of every normalization failure.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrUnrecognized is returned when a code is neither an ISBN nor a book UPC.
	ErrUnrecognized = fmt.Errorf("%w: unrecognized identifier", ErrInvalidIdentifier)
)

// Book-industry EAN prefixes.
const (
	PrefixBookland    = "978"
	PrefixBooklandAlt = "979"
)

// Normalize strips separators from raw and returns an ISBN-13, an ISBN-10
// passthrough, or the ISBN-13 derived from a 12-digit book UPC.
func Normalize(raw string) (string, error) {
	code := digitsOnly(raw)

	switch len(code) {
	case 13:
		if strings.HasPrefix(code, PrefixBookland) || strings.HasPrefix(code, PrefixBooklandAlt) {
			return code, nil
		}
	case 10:
		return code, nil
	case 12:
		return FromUPC(code)
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognized, raw)
}

// FromUPC forms an ISBN-13 from a 12-digit UPC-A: the bookland prefix, the
// first nine UPC digits and a freshly computed check digit.
func FromUPC(upc string) (string, error) {
	if len(upc) != 12 || !allDigits(upc) {
		return "", fmt.Errorf("%w: UPC must be 12 digits", ErrInvalidIdentifier)
	}
	root := PrefixBookland + upc[:9]
	check, err := CheckDigit13(root)
	if err != nil {
		return "", err
	}
	return root + string(check), nil
}

// CheckDigit13 computes the ISBN-13 check digit of a 12-digit root.
// Digits are weighted 1,3,1,3... starting at position 0.
func CheckDigit13(root string) (byte, error) {
	if len(root) != 12 || !allDigits(root) {
		return 0, fmt.Errorf("%w: ISBN-13 root must be 12 digits", ErrInvalidIdentifier)
	}
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(root[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10), nil
}

// IsISBN13 reports whether s has the shape of an ISBN-13: 13 digits with a
// Bookland prefix. The check digit is not verified.
func IsISBN13(s string) bool {
	return len(s) == 13 && allDigits(s) &&
		(strings.HasPrefix(s, PrefixBookland) || strings.HasPrefix(s, PrefixBooklandAlt))
}

// ValidISBN13 reports whether s is 13 digits with a correct check digit.
func ValidISBN13(s string) bool {
	if len(s) != 13 || !allDigits(s) {
		return false
	}
	check, err := CheckDigit13(s[:12])
	return err == nil && check == s[12]
}

// ValidISBN10 reports whether s is nine digits plus a correct check
// character (digit or X).
func ValidISBN10(s string) bool {
	if len(s) != 10 || !allDigits(s[:9]) {
		return false
	}
	last := s[9]
	if last != 'X' && (last < '0' || last > '9') {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(s[i]-'0') * (10 - i)
	}
	if last == 'X' {
		sum += 10
	} else {
		sum += int(last - '0')
	}
	return sum%11 == 0
}

// ToISBN13 converts an ISBN-10 to its 978-prefixed ISBN-13. A 13-digit
// input is returned unchanged.
func ToISBN13(s string) (string, error) {
	switch len(s) {
	case 13:
		if !allDigits(s) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
		}
		return s, nil
	case 10:
		if !allDigits(s[:9]) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
		}
		root := PrefixBookland + s[:9]
		check, err := CheckDigit13(root)
		if err != nil {
			return "", err
		}
		return root + string(check), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
}

// ToISBN10 converts a 978-prefixed ISBN-13 to ISBN-10. 979 numbers have no
// ISBN-10 form.
func ToISBN10(s string) (string, bool) {
	if len(s) != 13 || !strings.HasPrefix(s, PrefixBookland) || !allDigits(s) {
		return "", false
	}
	body := s[3:12]
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(body[i]-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return body + "X", true
	}
	return body + string(byte('0'+check)), true
}

// digitsOnly drops every non-digit, keeping a trailing X when it follows
// exactly nine digits (an ISBN-10 check character).
func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case (c == 'X' || c == 'x') && b.Len() == 9 && onlySeparatorsAfter(raw[i+1:]):
			b.WriteByte('X')
		}
	}
	return b.String()
}

func onlySeparatorsAfter(rest string) bool {
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if (c >= '0' && c <= '9') || c == 'X' || c == 'x' {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
