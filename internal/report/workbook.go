package report

import (
	"fmt"
	"io"

	"stockbook/internal/analytics"
	"stockbook/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook
const (
	SheetSales   = "Sales"
	SheetSummary = "Summary"
	SheetStock   = "Stock"
)

// Period is the data exported for one dashboard period
type Period struct {
	Mode      analytics.Mode
	Reference string
	Sales     []domain.Sale
	Summary   analytics.PeriodSummary
	Items     []domain.InventoryItem
	Inventory analytics.InventorySummary
}

var (
	salesHeader = []interface{}{"Sale ID", "Date", "Item ID", "Item", "Unit price", "Quantity", "Subtotal", "Sale total"}
	stockHeader = []interface{}{"Item ID", "Name", "Category", "Price", "Quantity", "Stock value"}
)

// Build lays the period out over three sheets: one row per sold line, the
// period and inventory totals, and the current catalog.
func Build(p Period) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSales); err != nil {
		return nil, fmt.Errorf("failed to name sales sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetStock} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	if err := writeSales(f, p.Sales); err != nil {
		return nil, err
	}
	if err := writeSummary(f, p); err != nil {
		return nil, err
	}
	if err := writeStock(f, p.Items); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and streams it as XLSX
func Write(w io.Writer, p Period) error {
	f, err := Build(p)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSales(f *excelize.File, sales []domain.Sale) error {
	if err := setRow(f, SheetSales, 1, salesHeader); err != nil {
		return err
	}

	row := 2
	for _, sale := range sales {
		total, _ := sale.Total.Float64()
		for _, line := range sale.Items {
			price, _ := line.Price.Float64()
			subtotal, _ := line.Subtotal().Float64()
			values := []interface{}{sale.ID, sale.Date, line.ItemID, line.Name, price, line.Quantity, subtotal, total}
			if err := setRow(f, SheetSales, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeSummary(f *excelize.File, p Period) error {
	revenue, _ := p.Summary.TotalRevenue.Float64()
	stockValue, _ := p.Inventory.StockValue.Float64()

	rows := [][]interface{}{
		{"Mode", string(p.Mode)},
		{"Reference date", p.Reference},
		{"Sales", p.Summary.Count},
		{"Revenue", revenue},
		{"Units sold", p.Summary.TotalUnits},
		{"Items in catalog", p.Inventory.ItemCount},
		{"Units in stock", p.Inventory.UnitsInStock},
		{"Stock value", stockValue},
	}
	for i, values := range rows {
		if err := setRow(f, SheetSummary, i+1, values); err != nil {
			return err
		}
	}
	return nil
}

func writeStock(f *excelize.File, items []domain.InventoryItem) error {
	if err := setRow(f, SheetStock, 1, stockHeader); err != nil {
		return err
	}

	for i, item := range items {
		price, _ := item.Price.Float64()
		value, _ := item.StockValue().Float64()
		values := []interface{}{item.ID, item.Name, item.Category, price, item.Quantity, value}
		if err := setRow(f, SheetStock, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
