package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	telemetry "odcv-analytics/internal/telemetry/domain"
)

// Read parses raw records from the exported CSV format: a header with
// time, name, and value columns in any order. Rows with unparseable
// timestamps or values are tolerated and counted, matching how exports
// arrive from site controllers.
func Read(r io.Reader) ([]telemetry.RawRecord, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("csv: read header: %w", err)
	}
	timeIdx, nameIdx, valueIdx := -1, -1, -1
	for i, column := range header {
		switch strings.ToLower(strings.TrimSpace(column)) {
		case "time", "timestamp":
			timeIdx = i
		case "name", "device", "device_name":
			nameIdx = i
		case "value":
			valueIdx = i
		}
	}
	if timeIdx < 0 || nameIdx < 0 || valueIdx < 0 {
		return nil, 0, fmt.Errorf("csv: header missing time/name/value columns: %v", header)
	}

	var records []telemetry.RawRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("csv: read row: %w", err)
		}
		if len(row) <= timeIdx || len(row) <= nameIdx || len(row) <= valueIdx {
			skipped++
			continue
		}
		at, err := telemetry.ParseTimestamp(row[timeIdx])
		if err != nil {
			skipped++
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, telemetry.RawRecord{
			At:         at,
			DeviceName: strings.Trim(strings.TrimSpace(row[nameIdx]), `"`),
			Value:      value,
		})
	}
	return records, skipped, nil
}

// LoadFile reads raw records from a CSV file on disk.
func LoadFile(path string) ([]telemetry.RawRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Read(f)
}
