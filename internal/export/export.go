// Package export renders inventory records as a WooCommerce product import.
package export

import (
	"net/url"
	"strings"

	"bookscan/internal/book"
	"bookscan/internal/isbn"
)

// FileName is the download name of the rendered file.
const FileName = "woocommerce_products.csv"

// Columns is the WooCommerce import schema, in order.
var Columns = []string{
	"Type", "SKU", "Name", "Published", "Is featured?", "Visibility in catalog", "Short description",
	"Description", "Date sale price starts", "Date sale price ends", "Tax status", "Tax class", "In stock?",
	"Stock", "Backorders allowed?", "Sold individually?", "Weight (kg)", "Length (cm)", "Width (cm)",
	"Height (cm)", "Allow customer reviews?", "Purchase note", "Sale price", "Regular price", "Categories",
	"Tags", "Shipping class", "Images", "Download limit", "Download expiry days", "Parent",
	"Grouped products", "Upsells", "Cross-sells", "External URL", "Button text", "Position",
}

type Options struct {
	// AffiliateTag adds an Amazon link to every product when set.
	AffiliateTag string
}

// Rows renders books as CSV text: a header row, then one row per book.
// Data fields are always quoted and rows are joined by "\n".
func Rows(books []book.Book, opts Options) string {
	var b strings.Builder
	b.WriteString(strings.Join(Columns, ","))
	for _, bk := range books {
		b.WriteByte('\n')
		writeRow(&b, fields(bk, opts))
	}
	return b.String()
}

func fields(bk book.Book, opts Options) map[string]string {
	row := map[string]string{
		"Type":                    "simple",
		"SKU":                     bk.ID,
		"Name":                    book.Deref(bk.Title),
		"Published":               "1",
		"Is featured?":            "0",
		"Visibility in catalog":   "visible",
		"Short description":       book.Deref(bk.ImageHint),
		"Description":             book.Deref(bk.Description),
		"Tax status":              "taxable",
		"In stock?":               "1",
		"Stock":                   "1",
		"Backorders allowed?":     "0",
		"Sold individually?":      "1",
		"Weight (kg)":             book.Deref(bk.Weight),
		"Length (cm)":             book.Deref(bk.Length),
		"Width (cm)":              book.Deref(bk.Width),
		"Height (cm)":             book.Deref(bk.Height),
		"Allow customer reviews?": "1",
		"Categories":              strings.Join(bk.Genre, ", "),
		"Tags":                    tags(bk),
		"Images":                  book.Deref(bk.ImageURL),
	}
	if bk.Price.Valid {
		row["Regular price"] = bk.Price.Decimal.StringFixed(2)
	}

	if link := amazonLink(bk, opts.AffiliateTag); link != "" {
		row["Description"] += " <a href='" + link + "' target='amazon'>Also on Amazon</a>"
		row["External URL"] = link
		row["Button text"] = "Also on Amazon"
	}
	return row
}

func tags(bk book.Book) string {
	parts := make([]string, 0, 2)
	if len(bk.Authors) > 0 {
		parts = append(parts, strings.Join(bk.Authors, ", "))
	}
	if bk.Tag != book.ConditionNone {
		parts = append(parts, string(bk.Tag))
	}
	return strings.Join(parts, ", ")
}

func amazonLink(bk book.Book, tag string) string {
	if tag == "" {
		return ""
	}
	id := book.Deref(bk.ISBN10)
	if id == "" {
		var ok bool
		if id, ok = isbn.ToISBN10(bk.ID); !ok {
			return ""
		}
	}
	return "https://www.amazon.com/dp/" + id + "?tag=" + url.QueryEscape(tag) + "&language=en_US&th=1&ref_=as_li_ss_tl"
}

func writeRow(b *strings.Builder, row map[string]string) {
	for i, col := range Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(row[col], `"`, `""`))
		b.WriteByte('"')
	}
}
