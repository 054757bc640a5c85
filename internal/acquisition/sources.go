package acquisition

import (
	"context"

	"bookscan/internal/book"
	"bookscan/internal/platform/booksrun"
	"bookscan/internal/platform/googlebooks"
	"bookscan/internal/platform/openlibrary"
)

const maxSubjects = 5

type VolumeFinder interface {
	VolumeByISBN(ctx context.Context, isbn string) (*googlebooks.Volume, error)
}

// GoogleBooks adapts the Google Books client to BibliographicSource.
type GoogleBooks struct {
	Client VolumeFinder
}

func (GoogleBooks) Name() string { return "google_books" }

func (g GoogleBooks) Lookup(ctx context.Context, isbn string) (Bibliographic, error) {
	v, err := g.Client.VolumeByISBN(ctx, isbn)
	if err != nil {
		return Bibliographic{}, err
	}
	info := v.VolumeInfo
	return Bibliographic{
		Source:      g.Name(),
		ISBN13:      info.Identifier("ISBN_13"),
		ISBN10:      info.Identifier("ISBN_10"),
		Title:       info.Title,
		Authors:     info.Authors,
		Description: info.Description,
		ImageURL:    info.ImageLinks.Thumbnail,
		ImageHint:   v.SearchInfo.TextSnippet,
		Genre:       info.Categories,
		ASIN:        info.ASIN(),
		Height:      info.Dimensions.Height,
		Width:       info.Dimensions.Width,
		Length:      info.Dimensions.Thickness,
	}, nil
}

type EditionFinder interface {
	GetBookByISBN(ctx context.Context, isbn string) (*openlibrary.BookDetails, error)
}

// OpenLibrary adapts the Open Library client to BibliographicSource.
type OpenLibrary struct {
	Client EditionFinder
}

func (OpenLibrary) Name() string { return "open_library" }

func (o OpenLibrary) Lookup(ctx context.Context, isbn string) (Bibliographic, error) {
	d, err := o.Client.GetBookByISBN(ctx, isbn)
	if err != nil {
		return Bibliographic{}, err
	}

	b := Bibliographic{
		Source:      o.Name(),
		ISBN13:      first(d.Identifiers.ISBN13),
		ISBN10:      first(d.Identifiers.ISBN10),
		ASIN:        first(d.Identifiers.Amazon),
		Title:       d.Title,
		Description: d.Notes,
		ImageURL:    firstNonEmpty(d.Cover.Medium, d.Cover.Large, d.Cover.Small),
		Weight:      d.Weight,
	}
	if d.Subtitle != "" && d.Title != "" {
		b.Title = d.Title + ": " + d.Subtitle
	}
	for _, a := range d.Authors {
		b.Authors = append(b.Authors, a.Name)
	}
	for i, s := range d.Subjects {
		if i == maxSubjects {
			break
		}
		b.Genre = append(b.Genre, s.Name)
	}
	if len(d.Excerpts) > 0 {
		b.ImageHint = d.Excerpts[0].Text
	}
	return b, nil
}

type PriceQuoter interface {
	PriceFor(ctx context.Context, isbn string) (booksrun.Quote, error)
}

// BooksRun adapts the BooksRun client to PricingSource.
type BooksRun struct {
	Client PriceQuoter
}

func (b BooksRun) PriceFor(ctx context.Context, isbn13 string) (Quote, error) {
	q, err := b.Client.PriceFor(ctx, isbn13)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Price: q.Price, Tag: book.Condition(q.Condition)}, nil
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
