// Package export writes the price list and the contact inbox to an Excel workbook.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"carspa/internal/domain"
	"carspa/internal/models"
	"carspa/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	SheetPrices    = "Prices"
	SheetInquiries = "Inquiries"
)

type Exporter struct {
	store  domain.ContactRepository
	dir    string
	loc    *time.Location
	logger *zerolog.Logger
}

func NewExporter(store domain.ContactRepository, dir string, loc *time.Location, logger *zerolog.Logger) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{store: store, dir: dir, loc: loc, logger: logger}
}

// Export writes export_<from>_to_<to>.xlsx with inquiries received in
// [from, to] (whole days) and returns its path.
func (e *Exporter) Export(ctx context.Context, from, to models.Date) (string, error) {
	if to.Before(from) {
		return "", fmt.Errorf("invalid export range %s - %s", from, to)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	since := from.In(e.loc)
	until := to.In(e.loc).AddDate(0, 0, 1)
	messages, err := e.store.ListContactMessages(ctx, since, until)
	if err != nil {
		return "", fmt.Errorf("error getting contact messages: %w", err)
	}

	f, err := Build(pricing.Table(), messages, from, to, e.loc)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("export_%s_to_%s.xlsx", from, to)
	filePath := filepath.Join(e.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("inquiries", len(messages)).Msg("Excel file created")
	return filePath, nil
}

// Build assembles the workbook in memory. The caller closes it.
func Build(table pricing.TableView, messages []*models.ContactMessage, from, to models.Date, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()

	if _, err := f.NewSheet(SheetPrices); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetInquiries); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 7}) // $#,##0.00

	writePrices(f, table, headerStyle, titleStyle, moneyStyle)
	writeInquiries(f, messages, from, to, loc, headerStyle, titleStyle)

	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetPrices); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writePrices(f *excelize.File, table pricing.TableView, header, title, money int) {
	sh := SheetPrices
	row := 1

	// Service packages offered on the booking form
	_ = f.SetCellValue(sh, cell(1, row), "Service packages")
	_ = f.SetCellStyle(sh, cell(1, row), cell(1, row), title)
	row++
	for i, h := range []string{"Package", "Price", "Includes"} {
		_ = f.SetCellValue(sh, cell(i+1, row), h)
	}
	_ = f.SetCellStyle(sh, cell(1, row), cell(3, row), header)
	row++
	for _, p := range models.ServicePackages() {
		_ = f.SetCellValue(sh, cell(1, row), p.DisplayName())
		_ = f.SetCellValue(sh, cell(2, row), float64(p.PriceCents())/100)
		_ = f.SetCellStyle(sh, cell(2, row), cell(2, row), money)
		_ = f.SetCellValue(sh, cell(3, row), p.Description())
		row++
	}
	row++

	// Calculator base prices
	_ = f.SetCellValue(sh, cell(1, row), "Base price by vehicle")
	_ = f.SetCellStyle(sh, cell(1, row), cell(1, row), title)
	row++
	_ = f.SetCellValue(sh, cell(1, row), "Vehicle")
	for i, tier := range table.Tiers {
		_ = f.SetCellValue(sh, cell(i+2, row), tier)
	}
	_ = f.SetCellStyle(sh, cell(1, row), cell(len(table.Tiers)+1, row), header)
	row++
	for _, base := range table.Base {
		_ = f.SetCellValue(sh, cell(1, row), base.Vehicle)
		for i, tier := range table.Tiers {
			_ = f.SetCellValue(sh, cell(i+2, row), base.Prices[tier])
		}
		row++
	}
	row++

	_ = f.SetCellValue(sh, cell(1, row), "Add-ons")
	_ = f.SetCellStyle(sh, cell(1, row), cell(1, row), title)
	row++
	_ = f.SetCellValue(sh, cell(1, row), "Add-on")
	for i, v := range table.Vehicles {
		_ = f.SetCellValue(sh, cell(i+2, row), v)
	}
	_ = f.SetCellStyle(sh, cell(1, row), cell(len(table.Vehicles)+1, row), header)
	row++
	for _, a := range table.AddOns {
		_ = f.SetCellValue(sh, cell(1, row), a.Name)
		for i, v := range table.Vehicles {
			_ = f.SetCellValue(sh, cell(i+2, row), a.Prices[v])
		}
		row++
	}

	_ = f.SetColWidth(sh, "A", "A", 28)
	_ = f.SetColWidth(sh, "B", "D", 14)
}

func writeInquiries(f *excelize.File, messages []*models.ContactMessage, from, to models.Date, loc *time.Location, header, title int) {
	sh := SheetInquiries
	headers := []string{"ID", "Received", "Name", "Email", "Phone", "Message"}

	_ = f.SetCellValue(sh, "A1", fmt.Sprintf("Period: %s - %s", from, to))
	_ = f.MergeCell(sh, "A1", cell(len(headers), 1))
	_ = f.SetCellStyle(sh, "A1", "A1", title)

	for i, h := range headers {
		_ = f.SetCellValue(sh, cell(i+1, 2), h)
	}
	_ = f.SetCellStyle(sh, cell(1, 2), cell(len(headers), 2), header)

	for i, m := range messages {
		row := i + 3
		_ = f.SetCellValue(sh, cell(1, row), m.ID)
		_ = f.SetCellValue(sh, cell(2, row), m.CreatedAt.In(loc).Format("2006-01-02 15:04"))
		_ = f.SetCellValue(sh, cell(3, row), m.Name)
		_ = f.SetCellValue(sh, cell(4, row), m.Email)
		_ = f.SetCellValue(sh, cell(5, row), m.Phone)
		_ = f.SetCellValue(sh, cell(6, row), m.Message)
	}

	_ = f.SetColWidth(sh, "A", "A", 8)
	_ = f.SetColWidth(sh, "B", "E", 22)
	_ = f.SetColWidth(sh, "F", "F", 60)
}
