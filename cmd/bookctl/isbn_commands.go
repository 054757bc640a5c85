package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bookscan/internal/acquisition"
	"bookscan/internal/book"
	"bookscan/internal/isbn"
)

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <code>...",
		Short: "Convert scanned codes to ISBN-13",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			for _, code := range args {
				normalized, err := isbn.Normalize(code)
				if err != nil {
					rows = append(rows, []string{code, "invalid", "", ""})
					continue
				}
				isbn13, err := isbn.ToISBN13(normalized)
				if err != nil {
					rows = append(rows, []string{code, "invalid", "", ""})
					continue
				}
				isbn10, _ := isbn.ToISBN10(isbn13)
				rows = append(rows, []string{code, normalized, isbn13, isbn10})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Code", "Normalized", "ISBN-13", "ISBN-10"}, rows, nil))
			return nil
		},
	}
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <code>",
		Short: "Query the bibliographic sources without touching any inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			key, err := book.CacheKey(args[0])
			if err != nil {
				return err
			}

			sources, pricing := ctx.sources()
			if len(sources) == 0 {
				return fmt.Errorf("no bibliographic sources configured")
			}
			var (
				bib  acquisition.Bibliographic
				errs []string
			)
			for _, src := range sources {
				if bib, err = src.Lookup(cmd.Context(), key); err == nil {
					break
				}
				errs = append(errs, src.Name()+": "+err.Error())
			}
			if err != nil {
				return fmt.Errorf("lookup %s failed: %s", key, strings.Join(errs, "; "))
			}

			rows := [][]string{
				{"Source", bib.Source},
				{"ISBN-13", key},
				{"ISBN-10", bib.ISBN10},
				{"Title", bib.Title},
				{"Authors", strings.Join(bib.Authors, ", ")},
				{"Genre", strings.Join(bib.Genre, ", ")},
				{"ASIN", bib.ASIN},
			}
			if pricing != nil {
				price := "unavailable"
				if q, err := pricing.PriceFor(cmd.Context(), key); err == nil {
					price = q.Price.StringFixed(2) + " (" + string(q.Tag) + ")"
				}
				rows = append(rows, []string{"Price", price})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "scan <code>...",
		Short: "Add books to a user's inventory, one credit each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.acquisitionService(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(args))
			for _, code := range args {
				res, err := svc.Scan(cmd.Context(), code, userID)
				if err != nil {
					msg := acquisition.UserMessage(err)
					if msg == "" {
						msg = err.Error()
					}
					rows = append(rows, []string{code, "", "error: " + msg, ""})
					continue
				}
				status := "added"
				if res.Receipt.AlreadyOwned {
					status = "already owned"
				}
				rows = append(rows, []string{code, res.Book.ID, status, fmt.Sprint(res.Receipt.Credits)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Code", "ISBN-13", "Status", "Credits"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newPrefetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prefetch <code>...",
		Short: "Fill the shared book cache without charging anyone",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.acquisitionService(cmd.Context())
			if err != nil {
				return err
			}
			report, err := svc.Prefetch(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(report.Errors) > 0 {
				rows := make([][]string, 0, len(report.Errors))
				for _, code := range args {
					if msg, ok := report.Errors[code]; ok {
						rows = append(rows, []string{code, msg})
					}
				}
				fmt.Fprintln(out, renderTable([]string{"Code", "Error"}, rows, nil))
			}
			fmt.Fprintln(out, report.String())
			return nil
		},
	}
}
