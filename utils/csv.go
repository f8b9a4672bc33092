package utils

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/zotexmedia/verification/models"
)

// ResultsToCSV renders job rows as delimited text for download, in input
// order. Columns: position, email, verdict, reason, detail, role_account.
func ResultsToCSV(rows []models.VerificationRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"position", "email", "verdict", "reason", "detail", "role_account"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Position),
			row.Email,
			row.Verdict,
			row.Reason,
			row.Detail,
			strconv.FormatBool(row.RoleAccount),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
