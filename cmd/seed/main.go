package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bookscan/internal/app"
	"bookscan/internal/book"
	"bookscan/internal/config"
	"bookscan/internal/isbn"
)

var samples = []book.Book{
	{
		ID:      "9780596000486",
		ISBN10:  book.Str("0596000480"),
		Title:   book.Str("CGI Programming with Perl"),
		Authors: []string{"Scott Guelich", "Shishir Gundavaram", "Gunther Birznieks"},
		Genre:   []string{"Computers"},
		Price:   decimal.NewNullDecimal(decimal.RequireFromString("9.99")),
		Tag:     book.ConditionUsed,
	},
	{
		ID:      "9780441013593",
		ISBN10:  book.Str("0441013597"),
		Title:   book.Str("Dune"),
		Authors: []string{"Frank Herbert"},
		Genre:   []string{"Fiction", "Science Fiction"},
		Price:   decimal.NewNullDecimal(decimal.RequireFromString("6.45")),
		Tag:     book.ConditionUsed,
	},
	{
		ID:      "9780262033848",
		ISBN10:  book.Str("0262033844"),
		Title:   book.Str("Introduction to Algorithms"),
		Authors: []string{"Thomas H. Cormen", "Charles E. Leiserson", "Ronald L. Rivest", "Clifford Stein"},
		Genre:   []string{"Computers"},
		Price:   decimal.NewNullDecimal(decimal.RequireFromString("24.50")),
		Tag:     book.ConditionNew,
	},
}

func main() {
	count := flag.Int("count", 100, "number of generated books on top of the samples")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load(os.Getenv("BOOKSCAN_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	st, err := app.OpenStores(ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	books := slices.Concat(samples, generate(*count))
	log.Printf("Upserting %d books...", len(books))
	for i, b := range books {
		if _, err := st.Books.Upsert(ctx, b); err != nil {
			log.Fatalf("Failed to upsert %s: %v", b.ID, err)
		}
		if (i+1)%1000 == 0 {
			log.Printf("Upserted %d/%d books", i+1, len(books))
		}
	}
	log.Printf("Successfully seeded %d books!", len(books))
}

// generate makes n synthetic records under valid 979-prefixed ISBN-13s.
func generate(n int) []book.Book {
	genres := []string{"Fiction", "Science Fiction", "History", "Science", "Technology", "Romance", "Mystery", "Biography", "Philosophy", "Art"}

	out := make([]book.Book, 0, n)
	for i := 0; i < n; i++ {
		root := fmt.Sprintf("%s%09d", isbn.PrefixBooklandAlt, 100000000+i)
		check, err := isbn.CheckDigit13(root)
		if err != nil {
			log.Fatalf("check digit for %s: %v", root, err)
		}
		cents := 399 + rand.Intn(2000)
		tag := book.ConditionUsed
		if rand.Intn(4) == 0 {
			tag = book.ConditionNew
		}
		out = append(out, book.Book{
			ID:          root + string(check),
			Title:       book.Str(fmt.Sprintf("Book Title %d - %s", i+1, getRandomWord())),
			Authors:     []string{"Author " + getRandomWord()},
			Description: book.Str(fmt.Sprintf("This is a book about %s.", getRandomWord())),
			Genre:       []string{genres[rand.Intn(len(genres))]},
			Price:       decimal.NewNullDecimal(decimal.New(int64(cents), -2)),
			Tag:         tag,
		})
	}
	return out
}

func getRandomWord() string {
	words := []string{
		"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
		"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
		"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
		"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
	}
	return words[rand.Intn(len(words))]
}
