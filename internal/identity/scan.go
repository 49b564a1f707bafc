package identity

import (
	"strings"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
)

const ErrInvalidScanFormat = "invalid_scan_format"

// ParseScan decodes the text payload of a scanned teacher ID. The expected
// form is "Department,Name,ID"; anything else is rejected so the caller can
// fall back to a registry lookup or manual entry.
func ParseScan(value string) (model.ScannedIdentity, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return model.ScannedIdentity{}, &Error{Code: ErrInvalidScanFormat}
	}
	department := strings.TrimSpace(parts[0])
	name := strings.TrimSpace(parts[1])
	id := strings.TrimSpace(parts[2])
	if department == "" || name == "" || id == "" {
		return model.ScannedIdentity{}, &Error{Code: ErrInvalidScanFormat}
	}
	return model.ScannedIdentity{
		ID:         id,
		Name:       name,
		Department: department,
	}, nil
}
