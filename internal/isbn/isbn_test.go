package isbn

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"isbn13 passthrough", "9780596000486", "9780596000486"},
		{"isbn13 979 prefix", "9791034304530", "9791034304530"},
		{"isbn13 with hyphens", "978-0-596-00048-6", "9780596000486"},
		{"isbn10 passthrough", "0596000486", "0596000486"},
		{"isbn10 with X", "0-8044-2957-X", "080442957X"},
		{"isbn10 lower x", "080442957x", "080442957X"},
		{"upc converted", "059600048000", "9780596000486"},
		{"upc with spaces", "0 59600 04800 0", "9780596000486"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalize_Unrecognized(t *testing.T) {
	for _, in := range []string{"", "12345", "1234567890123", "abc", "97805960004861", "X123456789"} {
		_, err := Normalize(in)
		assert.Error(t, err, "input %q", in)
		assert.True(t, errors.Is(err, ErrUnrecognized), "input %q", in)
		assert.True(t, errors.Is(err, ErrInvalidIdentifier), "input %q", in)
	}
}

func TestCheckDigit13(t *testing.T) {
	t.Run("known root", func(t *testing.T) {
		d, err := CheckDigit13("978059600048")
		require.NoError(t, err)
		assert.Equal(t, byte('6'), d)
	})

	t.Run("sum already multiple of ten", func(t *testing.T) {
		// 9+21+8+0+0+0+0+0+0+0+0+3 = 41 -> 9
		d, err := CheckDigit13("978000000001")
		require.NoError(t, err)
		assert.Equal(t, byte('9'), d)
	})

	t.Run("rejects bad root", func(t *testing.T) {
		_, err := CheckDigit13("97805960004")
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
		_, err = CheckDigit13("97805960004a")
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	})
}

func TestFromUPC_SatisfiesCheckEquation(t *testing.T) {
	for i := 0; i < 2000; i++ {
		upc := fmt.Sprintf("%012d", int64(i)*499_999_337%1_000_000_000_000)
		got, err := FromUPC(upc)
		require.NoError(t, err)
		require.Len(t, got, 13)

		sum := 0
		for j := 0; j < 13; j++ {
			d := int(got[j] - '0')
			if j%2 == 1 {
				d *= 3
			}
			sum += d
		}
		assert.Zero(t, sum%10, "upc %s -> %s", upc, got)
		assert.True(t, ValidISBN13(got))
	}
}

func TestValidISBN10(t *testing.T) {
	assert.True(t, ValidISBN10("0596000480"))
	assert.True(t, ValidISBN10("080442957X"))
	assert.False(t, ValidISBN10("0596000486"))
	assert.False(t, ValidISBN10("05960004"))
}

func TestToISBN13(t *testing.T) {
	got, err := ToISBN13("0596000480")
	require.NoError(t, err)
	assert.Equal(t, "9780596000486", got)

	got, err = ToISBN13("9780596000486")
	require.NoError(t, err)
	assert.Equal(t, "9780596000486", got)

	_, err = ToISBN13("12345")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestToISBN10(t *testing.T) {
	got, ok := ToISBN10("9780596000486")
	assert.True(t, ok)
	assert.Equal(t, "0596000480", got)

	got, ok = ToISBN10("9780804429573")
	assert.True(t, ok)
	assert.Equal(t, "080442957X", got)

	_, ok = ToISBN10("9791034304530")
	assert.False(t, ok)
}

func TestIsISBN13(t *testing.T) {
	assert.True(t, IsISBN13("9780596000486"))
	assert.True(t, IsISBN13("9790000000001"))
	assert.True(t, IsISBN13("9780596000480"), "check digit is not verified")
	assert.False(t, IsISBN13("1234567890123"))
	assert.False(t, IsISBN13("0596000480"))
	assert.False(t, IsISBN13("978059600048a"))
}
