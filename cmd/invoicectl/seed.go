package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"invoicedesk/internal/events"
	"invoicedesk/internal/money"
	"invoicedesk/internal/repository"
	"invoicedesk/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Bulk-create inventory items from a CSV file",
	Long: `Create inventory items for an existing user.

The CSV needs a header row. name, quantity and price_per_unit are required
columns; unit and description are optional.`,
	Example: `  invoicectl seed --owner owner@example.com --file items.csv`,
	RunE:    runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("owner", "", "Email of the user who owns the items")
	seedCmd.Flags().String("file", "", "Path to the CSV file")
	_ = seedCmd.MarkFlagRequired("owner")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("owner")
	path, _ := cmd.Flags().GetString("file")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	items, err := parseItemsCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

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

	inventory := service.NewInventoryService(
		repository.NewInventoryRepository(a.db),
		repository.NewAuditRepository(a.db),
		repository.NewTransactionManager(a.db),
		events.Nop{},
		a.logger,
	)
	for i, req := range items {
		item, err := inventory.Create(ctx, owner.ID, req)
		if err != nil {
			return fmt.Errorf("row %d (%s): %w", i+2, req.Name, err)
		}
		a.logger.Debug("Item created", zap.String("id", item.ID), zap.String("name", item.Name))
	}

	a.logger.Info("Seed finished", zap.String("owner", owner.Email), zap.Int("items", len(items)))
	return nil
}

// parseItemsCSV reads the whole file before anything is written, so a bad
// row leaves the inventory untouched.
func parseItemsCSV(r io.Reader) ([]service.CreateInventoryRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("file is empty")
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"name", "quantity", "price_per_unit"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var items []service.CreateInventoryRequest
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		qty, err := money.ParseNonNegative(field(rec, "quantity"))
		if err != nil {
			return nil, fmt.Errorf("row %d quantity: %w", line, err)
		}
		price, err := money.ParseNonNegative(field(rec, "price_per_unit"))
		if err != nil {
			return nil, fmt.Errorf("row %d price_per_unit: %w", line, err)
		}
		name := field(rec, "name")
		if name == "" {
			return nil, fmt.Errorf("row %d: name is required", line)
		}
		items = append(items, service.CreateInventoryRequest{
			Name:         name,
			Description:  field(rec, "description"),
			Quantity:     qty,
			PricePerUnit: price,
			Unit:         field(rec, "unit"),
		})
	}
	return items, nil
}
