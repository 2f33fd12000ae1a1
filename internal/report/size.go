package report

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders bytes with two decimals, dividing by 1024 until the
// value drops below 1024. Anything past TB is reported in PB.
func FormatSize(bytes int64) string {
	size := float64(bytes)
	for _, unit := range sizeUnits {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f PB", size)
}
