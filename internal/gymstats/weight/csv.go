package weight

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	csvDateLayout   = "2006-01-02"
	csvFieldsCount  = 5
	csvFieldsJoiner = ","
)

var csvHeader = []string{"Date", "Weight", "Body Fat %", "Time of Day", "Notes"}

// ExportFileName is the name suggested to the browser for the CSV download.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("weight-data-%s.csv", now.Format(csvDateLayout))
}

// ToCSV renders the entries, one row per entry, in the given order.
// Fields are joined as they are: a comma inside the notes is NOT escaped and
// will shift the columns for any consumer reading the file back.
func ToCSV(entries []Entry) string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, strings.Join(csvHeader, csvFieldsJoiner))
	for _, e := range entries {
		lines = append(lines, strings.Join(csvRecord(e), csvFieldsJoiner))
	}
	return strings.Join(lines, "\n")
}

// hasBodyFat treats a zero reading as not recorded, exports leave it empty.
func hasBodyFat(e Entry) bool {
	return e.BodyFat != nil && *e.BodyFat != 0
}

func csvRecord(e Entry) []string {
	bodyFat := ""
	if hasBodyFat(e) {
		bodyFat = formatDecimal(*e.BodyFat)
	}
	notes := ""
	if e.Notes != nil {
		notes = *e.Notes
	}
	return []string{
		e.Date.Format(csvDateLayout),
		formatDecimal(e.Weight),
		bodyFat,
		e.TimeOfDay.String(),
		notes,
	}
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseCSV reads back what ToCSV produces. Each line is split on every comma and
// the fields are taken by position, so notes containing commas come back truncated.
func ParseCSV(text string) ([]Entry, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != strings.Join(csvHeader, csvFieldsJoiner) {
		return nil, fmt.Errorf("%w: missing or unexpected header", ErrMalformedCSV)
	}

	entries := make([]Entry, 0, len(lines)-1)
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNum := i + 2
		entry, err := parseCSVLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func parseCSVLine(line string) (Entry, error) {
	fields := strings.Split(line, csvFieldsJoiner)
	if len(fields) < csvFieldsCount {
		return Entry{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedCSV, csvFieldsCount, len(fields))
	}

	date, err := time.Parse(csvDateLayout, fields[0])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: date [%s]: %s", ErrMalformedCSV, fields[0], err)
	}

	weight, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: weight [%s]: %s", ErrMalformedCSV, fields[1], err)
	}

	entry := Entry{
		Date:      date,
		Weight:    weight,
		TimeOfDay: TimeOfDay(fields[3]),
	}

	if fields[2] != "" {
		bodyFat, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: body fat [%s]: %s", ErrMalformedCSV, fields[2], err)
		}
		entry.BodyFat = &bodyFat
	}

	if fields[4] != "" {
		notes := fields[4]
		entry.Notes = &notes
	}

	return entry, nil
}
