package logsink

import (
	"fmt"
	"time"
)

// DateFolderFormat is the format string for organizing logs by date in blob storage
// Format: YYYY/MM/DD
const DateFolderFormat = "%d/%02d/%02d"

// FormatDateFolder returns the date-based folder path for a given year, month, day
func FormatDateFolder(year int, month int, day int) string {
	return fmt.Sprintf(DateFolderFormat, year, month, day)
}

// DefaultBlobName places one host's logs for the day under its date folder.
func DefaultBlobName(host string, t time.Time) string {
	t = t.UTC()
	return FormatDateFolder(t.Year(), int(t.Month()), t.Day()) + "/" + host + ".jsonl"
}
