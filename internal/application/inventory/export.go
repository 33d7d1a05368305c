package inventory

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/infrastructure/telemetry"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the stock export workbook
const (
	ExportLotsSheet     = "Lots"
	ExportProductsSheet = "Products"
)

var (
	exportLotHeaders = []any{
		"Lot ID", "Product", "Class", "Warehouse", "Status", "Measure",
		"Initial Units", "Initial Meters", "Available Units", "Available Meters",
	}
	exportProductHeaders = []any{
		"Product", "Lots", "Available Units", "Available Meters",
	}
)

// ExportAvailability writes the availability report for a query as an xlsx
// workbook: one sheet of lots, one of products closed by a total row
func (s *InventoryService) ExportAvailability(ctx context.Context, q AvailabilityQuery, w io.Writer) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "export_availability")
	defer func(start time.Time) {
		s.metrics.Observe(ctx, "export_availability", start, err)
		telemetry.EndSpan(span, err)
	}(time.Now())

	report, err := s.availability(ctx, q.filter())
	if err != nil {
		return err
	}

	f, err := renderAvailability(report)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write stock export: %w", err)
	}
	return nil
}

func renderAvailability(report inventory.AvailabilityReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ExportLotsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ExportProductsSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	lotRows := make([][]any, 0, len(report.Lots))
	for _, la := range report.Lots {
		lotRows = append(lotRows, []any{
			la.Lot.ID,
			la.Lot.ProductKey(),
			la.Lot.Class.String(),
			la.Lot.Warehouse,
			la.Lot.Status,
			la.Lot.PrimaryMeasure().String(),
			la.Lot.Initial.Units.InexactFloat64(),
			la.Lot.Initial.Meters.InexactFloat64(),
			la.Available.Units.InexactFloat64(),
			la.Available.Meters.InexactFloat64(),
		})
	}
	if err := writeSheet(f, ExportLotsSheet, exportLotHeaders, lotRows, bold); err != nil {
		return nil, err
	}

	productRows := make([][]any, 0, len(report.Products)+1)
	for _, pa := range report.Products {
		productRows = append(productRows, []any{
			pa.ProductKey,
			len(pa.LotIDs),
			pa.Available.Units.InexactFloat64(),
			pa.Available.Meters.InexactFloat64(),
		})
	}
	productRows = append(productRows, []any{
		"Total",
		len(report.Lots),
		report.Total.Units.InexactFloat64(),
		report.Total.Meters.InexactFloat64(),
	})
	if err := writeSheet(f, ExportProductsSheet, exportProductHeaders, productRows, bold); err != nil {
		return nil, err
	}
	totalCell, err := excelize.CoordinatesToCellName(1, len(productRows)+1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(ExportProductsSheet, totalCell, totalCell, bold); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headers []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
