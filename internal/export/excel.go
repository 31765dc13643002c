package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"parkwise/internal/models"
	"parkwise/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Exporter renders booking history as an Excel workbook.
type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{path: path, logger: logger}
}

// WriteBookings writes the workbook to w.
func (e *Exporter) WriteBookings(w io.Writer, bookings []*models.Booking) error {
	f, err := e.buildWorkbook(bookings)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// ExportBookings saves the workbook under the export directory and
// returns the file path.
func (e *Exporter) ExportBookings(bookings []*models.Booking) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := e.buildWorkbook(bookings)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) buildWorkbook(bookings []*models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Order ID", "Facility", "Option", "Address", "Vehicle", "Plate",
		"Start", "Hours", "Base", "Discount", "Surcharge", "Total", "Status",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		row := i + 2
		values := []interface{}{
			booking.OrderID,
			booking.FacilityName,
			booking.OptionName,
			booking.FacilityAddress,
			booking.VehicleType,
			booking.VehicleNumber,
			booking.StartAt.Format("02.01.2006 15:04"),
			booking.DurationHours,
			pricing.FormatCents(booking.BaseCents),
			pricing.FormatCents(booking.DiscountCents),
			pricing.FormatCents(booking.SurchargeCents),
			pricing.FormatCents(booking.TotalCents),
			booking.Status,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}

		if styleID, err := statusStyle(f, booking.Status); err == nil {
			statusCell, _ := excelize.CoordinatesToCellName(len(values), row)
			_ = f.SetCellStyle(sheetName, statusCell, statusCell, styleID)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 14)
	_ = f.SetColWidth(sheetName, "B", "C", 24)
	_ = f.SetColWidth(sheetName, "D", "F", 14)
	_ = f.SetColWidth(sheetName, "G", "G", 18)
	_ = f.SetColWidth(sheetName, "H", "M", 12)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// statusStyle colors the status cell: green completed, yellow upcoming
// or ongoing, red cancelled.
func statusStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusUpcoming, models.StatusOngoing:
		color = "#FFEB9C"
	case models.StatusCancelled:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}

	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
}
