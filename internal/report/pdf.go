package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
)

var pdfHeader = []string{"Room", "Teacher", "Start Time", "End Time", "Students", "Purpose"}

var pdfColumnWidths = []float64{24, 38, 40, 26, 20, 42}

// WritePDF renders the tabular usage report. Open entries show "Active" in
// the end-time column.
func WritePDF(w io.Writer, entries []model.UsageEntry, period Period, generatedAt time.Time) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 10, "Laboratory Room Usage Report")
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, "Generated on: "+generatedAt.Format("2006-01-02 15:04:05"))
	doc.Ln(6)
	doc.Cell(0, 6, "Filter: "+strings.ToUpper(string(period)))
	doc.Ln(10)

	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(230, 230, 230)
	for i, title := range pdfHeader {
		doc.CellFormat(pdfColumnWidths[i], 8, title, "1", 0, "L", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 9)
	for _, entry := range entries {
		endTime := "Active"
		if entry.EndTime != nil {
			endTime = entry.EndTime.Format("15:04:05")
		}
		row := []string{
			RoomLabel(entry),
			entry.TeacherName,
			entry.StartTime.Format("2006-01-02 15:04:05"),
			endTime,
			strconv.Itoa(entry.NumStudents),
			entry.Purpose,
		}
		for i, cell := range row {
			doc.CellFormat(pdfColumnWidths[i], 7, cell, "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	return doc.Output(w)
}
