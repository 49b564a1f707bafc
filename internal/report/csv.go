package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
)

var csvHeader = []string{"Date", "Time", "Room", "Students", "Purpose", "Equipment"}

func WriteCSV(w io.Writer, entries []model.UsageEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		record := []string{
			entry.StartTime.Format("2006-01-02"),
			entry.StartTime.Format("15:04:05"),
			RoomLabel(entry),
			strconv.Itoa(entry.NumStudents),
			entry.Purpose,
			strings.Join(entry.Equipment, "; "),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
