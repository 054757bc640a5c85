package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	stored := Book{
		ID:      "9780596000486",
		Title:   Str("CGI Programming with Perl"),
		Authors: []string{"Scott Guelich", "Shishir Gundavaram"},
		Price:   decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
		Tag:     ConditionUsed,
	}

	t.Run("absent fields never erase", func(t *testing.T) {
		got := stored.Merge(Book{ID: "9780596000486"})
		assert.Equal(t, stored, got)
	})

	t.Run("present fields replace", func(t *testing.T) {
		got := stored.Merge(Book{
			Description: Str("A classic."),
			Price:       decimal.NewNullDecimal(decimal.RequireFromString("7.25")),
			Tag:         ConditionNew,
		})
		assert.Equal(t, "CGI Programming with Perl", Deref(got.Title))
		assert.Equal(t, "A classic.", Deref(got.Description))
		assert.Equal(t, "7.25", got.Price.Decimal.StringFixed(2))
		assert.Equal(t, ConditionNew, got.Tag)
		assert.Equal(t, stored.Authors, got.Authors)
	})

	t.Run("empty strings are absent", func(t *testing.T) {
		empty := ""
		got := stored.Merge(Book{Title: &empty, Authors: []string{}})
		assert.Equal(t, "CGI Programming with Perl", Deref(got.Title))
		assert.Len(t, got.Authors, 2)
	})
}

func TestPrepare(t *testing.T) {
	_, err := prepare(Book{ID: "0596000480"})
	assert.ErrorIs(t, err, ErrInvalidID)

	empty := ""
	b, err := prepare(Book{ID: "9780596000486", Title: &empty, Genre: []string{}})
	require.NoError(t, err)
	assert.Nil(t, b.Title)
	assert.Nil(t, b.Genre)
}

func TestCacheKey(t *testing.T) {
	got, err := CacheKey("0-596-00048-0")
	require.NoError(t, err)
	assert.Equal(t, "9780596000486", got)

	got, err = CacheKey("059600048012")
	require.NoError(t, err)
	assert.Equal(t, "9780596000486", got)

	_, err = CacheKey("12345")
	assert.Error(t, err)
}
