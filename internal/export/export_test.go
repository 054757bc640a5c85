package export

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookscan/internal/book"
)

func column(t *testing.T, row []string, name string) string {
	t.Helper()
	for i, c := range Columns {
		if c == name {
			return row[i]
		}
	}
	t.Fatalf("no column %q", name)
	return ""
}

// splitRow splits one rendered data row. Every field is quoted, so the
// separator between fields is always `","`.
func splitRow(t *testing.T, line string) []string {
	t.Helper()
	require.True(t, strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`), line)
	parts := strings.Split(line[1:len(line)-1], `","`)
	require.Len(t, parts, len(Columns))
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, `""`, `"`)
	}
	return parts
}

func sampleBook() book.Book {
	return book.Book{
		ID:          "9780596000486",
		ISBN10:      book.Str("0596000480"),
		Title:       book.Str("CGI Programming with Perl"),
		Authors:     []string{"Scott Guelich", "Shishir Gundavaram"},
		Description: book.Str("Learn CGI"),
		ImageHint:   book.Str("Programming the web"),
		ImageURL:    book.Str("http://example.com/cover.jpg"),
		Genre:       []string{"Computers", "Internet"},
		Price:       decimal.NewNullDecimal(decimal.RequireFromString("5.1")),
		Tag:         book.ConditionUsed,
		Height:      book.Str("23"),
		Weight:      book.Str("0.8"),
	}
}

func TestRows_HeaderOnly(t *testing.T) {
	out := Rows(nil, Options{})
	assert.Equal(t, strings.Join(Columns, ","), out)
	assert.NotContains(t, out, "\n")
	assert.Len(t, Columns, 37)
}

func TestRows_MapsFields(t *testing.T) {
	out := Rows([]book.Book{sampleBook()}, Options{})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	row := splitRow(t, lines[1])

	assert.Equal(t, "simple", column(t, row, "Type"))
	assert.Equal(t, "9780596000486", column(t, row, "SKU"))
	assert.Equal(t, "CGI Programming with Perl", column(t, row, "Name"))
	assert.Equal(t, "Programming the web", column(t, row, "Short description"))
	assert.Equal(t, "Learn CGI", column(t, row, "Description"))
	assert.Equal(t, "5.10", column(t, row, "Regular price"))
	assert.Equal(t, "Computers, Internet", column(t, row, "Categories"))
	assert.Equal(t, "Scott Guelich, Shishir Gundavaram, Used", column(t, row, "Tags"))
	assert.Equal(t, "http://example.com/cover.jpg", column(t, row, "Images"))
	assert.Equal(t, "23", column(t, row, "Height (cm)"))
	assert.Equal(t, "0.8", column(t, row, "Weight (kg)"))
	assert.Equal(t, "1", column(t, row, "Stock"))
	assert.Equal(t, "1", column(t, row, "Sold individually?"))
	assert.Equal(t, "", column(t, row, "External URL"))
	assert.Equal(t, "", column(t, row, "Position"))
}

func TestRows_AbsentFieldsAreEmpty(t *testing.T) {
	out := Rows([]book.Book{{ID: "9780000000002"}}, Options{})
	row := splitRow(t, strings.Split(out, "\n")[1])

	assert.Equal(t, "", column(t, row, "Name"))
	assert.Equal(t, "", column(t, row, "Regular price"))
	assert.Equal(t, "", column(t, row, "Tags"))
	assert.Equal(t, "", column(t, row, "Categories"))
}

func TestRows_TagsWithoutAuthors(t *testing.T) {
	out := Rows([]book.Book{{ID: "9780000000002", Tag: book.ConditionNew}}, Options{})
	row := splitRow(t, strings.Split(out, "\n")[1])
	assert.Equal(t, "New", column(t, row, "Tags"))
}

func TestRows_EscapesQuotes(t *testing.T) {
	b := sampleBook()
	b.Description = book.Str(`The "camel" book, 2nd edition`)

	out := Rows([]book.Book{b}, Options{})
	assert.Contains(t, out, `"The ""camel"" book, 2nd edition"`)

	row := splitRow(t, strings.Split(out, "\n")[1])
	assert.Equal(t, `The "camel" book, 2nd edition`, column(t, row, "Description"))
}

func TestRows_Deterministic(t *testing.T) {
	books := []book.Book{sampleBook(), {ID: "9780000000002", Title: book.Str("Second")}}
	assert.Equal(t, Rows(books, Options{}), Rows(books, Options{}))
	assert.Len(t, strings.Split(Rows(books, Options{}), "\n"), 3)
}

func TestRows_AffiliateLink(t *testing.T) {
	t.Run("uses isbn10", func(t *testing.T) {
		out := Rows([]book.Book{sampleBook()}, Options{AffiliateTag: "shop-20"})
		row := splitRow(t, strings.Split(out, "\n")[1])

		link := "https://www.amazon.com/dp/0596000480?tag=shop-20&language=en_US&th=1&ref_=as_li_ss_tl"
		assert.Equal(t, link, column(t, row, "External URL"))
		assert.Equal(t, "Also on Amazon", column(t, row, "Button text"))
		assert.Equal(t, "Learn CGI <a href='"+link+"' target='amazon'>Also on Amazon</a>", column(t, row, "Description"))
	})

	t.Run("derives isbn10", func(t *testing.T) {
		b := sampleBook()
		b.ISBN10 = nil
		row := splitRow(t, strings.Split(Rows([]book.Book{b}, Options{AffiliateTag: "shop-20"}), "\n")[1])
		assert.Contains(t, column(t, row, "External URL"), "/dp/0596000480?")
	})

	t.Run("979 has no link", func(t *testing.T) {
		row := splitRow(t, strings.Split(Rows([]book.Book{{ID: "9791034300380"}}, Options{AffiliateTag: "shop-20"}), "\n")[1])
		assert.Equal(t, "", column(t, row, "External URL"))
		assert.Equal(t, "", column(t, row, "Button text"))
	})
}
