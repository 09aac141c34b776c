package main

import (
	"fmt"
	"os"
	"strings"

	"invoicedesk/internal/document"
	"invoicedesk/internal/events"
	"invoicedesk/internal/repository"
	"invoicedesk/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var renderCmd = &cobra.Command{
	Use:     "render",
	Short:   "Write a printable HTML invoice",
	Example: `  invoicectl render --owner owner@example.com --invoice INV-2025-0001 --out invoice.html`,
	RunE:    runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("owner", "", "Email of the invoice owner")
	renderCmd.Flags().String("invoice", "", "Invoice number")
	renderCmd.Flags().String("out", "", "Output file (default: stdout)")
	_ = renderCmd.MarkFlagRequired("owner")
	_ = renderCmd.MarkFlagRequired("invoice")
}

func runRender(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("owner")
	number, _ := cmd.Flags().GetString("invoice")
	out, _ := cmd.Flags().GetString("out")

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

	invoices := service.NewInvoiceService(
		repository.NewInvoiceRepository(a.db),
		repository.NewProfileRepository(a.db),
		repository.NewAuditRepository(a.db),
		repository.NewTransactionManager(a.db),
		events.Nop{},
		document.Options{Currency: a.cfg.Billing.Currency},
		a.logger,
	)
	view, err := invoices.DocumentByNumber(ctx, owner.ID, number)
	if err != nil {
		return fmt.Errorf("load %s: %w", number, err)
	}

	if out == "" {
		return document.RenderHTML(cmd.OutOrStdout(), view)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := document.RenderHTML(f, view); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.logger.Info("Invoice written", zap.String("invoice", number), zap.String("file", out))
	return nil
}
