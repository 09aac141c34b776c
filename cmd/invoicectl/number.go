package main

import (
	"fmt"
	"strings"
	"time"

	"invoicedesk/internal/billing"
	"invoicedesk/internal/repository"

	"github.com/spf13/cobra"
)

var numberCmd = &cobra.Command{
	Use:   "number",
	Short: "Print the invoice number the next commit would get",
	Long: `Print the invoice number produced for a given count of existing invoices.

With --owner the count is read from the database instead of --count.`,
	Example: `  invoicectl number --count 41 --year 2025
  invoicectl number --owner owner@example.com`,
	RunE: runNumber,
}

func init() {
	rootCmd.AddCommand(numberCmd)

	numberCmd.Flags().Int64("count", 0, "Number of invoices that already exist")
	numberCmd.Flags().Int("year", 0, "Invoice year (default: current year)")
	numberCmd.Flags().String("owner", "", "Count the invoices of this user")
}

func runNumber(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt64("count")
	year, _ := cmd.Flags().GetInt("year")
	email, _ := cmd.Flags().GetString("owner")

	if year == 0 {
		year = time.Now().Year()
	}
	if count < 0 {
		return fmt.Errorf("count cannot be negative")
	}

	if email != "" {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		owner, err := repository.NewUserRepository(a.db).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			return fmt.Errorf("look up %s: %w", email, err)
		}
		count, err = repository.NewInvoiceRepository(a.db).CountInvoices(ctx, owner.ID)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), billing.NextInvoiceNumber(count, year))
	return nil
}
