package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"stockbook/internal/analytics"
	"stockbook/internal/domain"
	"stockbook/internal/report"
	"stockbook/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	periodMode string
	periodDate string
	topN       int
	asJSON     bool
	outPath    string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the dashboard for one period",
	RunE: func(cmd *cobra.Command, args []string) error {
		dash, _, err := loadDashboard(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dash)
		}
		return printDashboard(cmd.OutOrStdout(), dash)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the period's sales and current stock to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		dash, items, err := loadDashboard(cmd.Context())
		if err != nil {
			return err
		}

		path := outPath
		if path == "" {
			path = fmt.Sprintf("stockbook-%s-%s.xlsx", dash.Mode, dash.Reference)
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}

		err = writeWorkbook(f, report.Period{
			Mode:      dash.Mode,
			Reference: dash.Reference,
			Sales:     dash.Sales,
			Summary:   dash.Summary,
			Items:     items,
			Inventory: dash.Inventory,
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		log.Info("Workbook written", zap.String("path", path), zap.Int("sales", len(dash.Sales)))
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

// writeWorkbook writes the period and closes w. A failed close is reported
// since buffered bytes may not have reached the file.
func writeWorkbook(w io.WriteCloser, period report.Period) error {
	err := report.Write(w, period)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = cerr
	}
	return err
}

func loadDashboard(ctx context.Context) (service.Dashboard, []domain.InventoryItem, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mode, err := analytics.ParseMode(periodMode)
	if err != nil {
		return service.Dashboard{}, nil, err
	}
	reference := periodDate
	if reference == "" {
		reference = time.Now().Format(domain.DateLayout)
	}

	svc, backend, err := openService(ctx)
	if err != nil {
		return service.Dashboard{}, nil, err
	}
	defer backend.Close()

	dash, err := svc.Dashboard(ctx, mode, reference, topN)
	if err != nil {
		return service.Dashboard{}, nil, err
	}
	items, _ := svc.Snapshot(ctx)
	return dash, items, nil
}

func printDashboard(out io.Writer, dash service.Dashboard) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Period\t%s %s\n", dash.Mode, dash.Reference)
	fmt.Fprintf(tw, "Sales\t%d\n", dash.Summary.Count)
	fmt.Fprintf(tw, "Units sold\t%d\n", dash.Summary.TotalUnits)
	fmt.Fprintf(tw, "Revenue\t%s\n", dash.Summary.TotalRevenue.StringFixed(2))
	fmt.Fprintf(tw, "Items in catalog\t%d\n", dash.Inventory.ItemCount)
	fmt.Fprintf(tw, "Units in stock\t%d\n", dash.Inventory.UnitsInStock)
	fmt.Fprintf(tw, "Stock value\t%s\n", dash.Inventory.StockValue.StringFixed(2))

	fmt.Fprintln(tw, "\nRevenue by period")
	for _, b := range dash.Revenue {
		fmt.Fprintf(tw, "  %s\t%s\n", b.Key, b.Revenue.StringFixed(2))
	}

	fmt.Fprintln(tw, "\nTop products")
	for _, p := range dash.TopProducts {
		fmt.Fprintf(tw, "  %s\t%d\n", p.Name, p.Quantity)
	}

	fmt.Fprintln(tw, "\nMost stocked")
	for _, s := range dash.TopStock {
		fmt.Fprintf(tw, "  %s\t%d\n", s.Item.Name, s.Quantity)
	}

	return tw.Flush()
}

func init() {
	for _, cmd := range []*cobra.Command{summaryCmd, exportCmd} {
		cmd.Flags().StringVar(&periodMode, "mode", string(analytics.ModeMonthly), "Period: daily, monthly or yearly")
		cmd.Flags().StringVar(&periodDate, "date", "", "Reference date YYYY-MM-DD (default today)")
		cmd.Flags().IntVar(&topN, "top", analytics.DefaultTopN, "Length of the top product and stock lists")
	}
	summaryCmd.Flags().BoolVar(&asJSON, "json", false, "Print the dashboard as JSON")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "Workbook path (default stockbook-<mode>-<date>.xlsx)")

	rootCmd.AddCommand(summaryCmd, exportCmd)
}
