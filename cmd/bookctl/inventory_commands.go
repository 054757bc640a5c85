package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bookscan/internal/book"
	"bookscan/internal/export"
	"bookscan/internal/ledger"
	"bookscan/internal/platform/crypto"
)

func newInventoryCommand(ctx *commandContext) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List a user's books and credit balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ctx.ledgerService(cmd.Context())
			if err != nil {
				return err
			}
			books, err := ctx.bookService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := led.Profile(cmd.Context(), userID)
			if err != nil {
				return err
			}
			records, err := books.ListByIDs(cmd.Context(), p.ISBNs)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(records))
			for _, b := range records {
				price := ""
				if b.Price.Valid {
					price = b.Price.Decimal.StringFixed(2)
				}
				rows = append(rows, []string{b.ID, b.TitleOrEmpty(), strings.Join(b.Authors, ", "), string(b.Tag), price})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"ISBN-13", "Title", "Authors", "Condition", "Price"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
			fmt.Fprintf(out, "%d books, %d credits\n", len(p.ISBNs), p.Credits)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newCreditCommand(ctx *commandContext) *cobra.Command {
	var (
		userID string
		amount int64
	)
	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Record a manual credit purchase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ctx.ledgerService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := led.CreditPurchaseCompleted(cmd.Context(), ledger.PaymentEvent{
				ID:          "manual_" + uuid.NewString(),
				UserID:      userID,
				AmountMinor: amount,
				Currency:    "usd",
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now has %d credits\n", userID, p.Credits)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Purchase amount in minor currency units")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		userID string
		codes  []string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's inventory as a WooCommerce import CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ctx.ledgerService(cmd.Context())
			if err != nil {
				return err
			}
			books, err := ctx.bookService(cmd.Context())
			if err != nil {
				return err
			}

			subset := make([]string, 0, len(codes))
			for _, code := range codes {
				id, err := book.CacheKey(code)
				if err != nil {
					return fmt.Errorf("--isbn %s: %w", code, err)
				}
				subset = append(subset, id)
			}

			svc := export.NewService(led, books, export.Options{AffiliateTag: ctx.cfg.Export.AmazonAffiliateTag})
			csv, err := svc.ExportForUser(cmd.Context(), userID, subset)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), csv)
				return err
			}
			if err := os.WriteFile(output, []byte(csv), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id")
	cmd.Flags().StringSliceVar(&codes, "isbn", nil, "Only export these books (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", export.FileName, "Output file, - for stdout")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			token, _, err := crypto.GenerateToken(cfg.Auth.JWTSecret, userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id (token subject)")
	cmd.Flags().StringVar(&role, "role", "USER", "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
