package genotype

import (
	"fmt"
	"sort"
	"time"

	"github.com/inodb/vibe-lineage/internal/barcode"
)

// Columns is the header of a result table.
var Columns = []string{"Sample", "level_1", "level_2", "level_3", "level_4", "level_5"}

// Row is the lineage call of one sample.
type Row struct {
	Sample string
	Levels [barcode.NumLevels]string
	Source string // name of the file the sample was read from
}

// Values returns the row's cells in Columns order.
func (r Row) Values() []string {
	return append([]string{r.Sample}, r.Levels[:]...)
}

// SortRows sorts rows by level 1 to level 5. Ties keep their input order.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		for l := range barcode.NumLevels {
			if rows[i].Levels[l] != rows[j].Levels[l] {
				return rows[i].Levels[l] < rows[j].Levels[l]
			}
		}
		return false
	})
}

// FormatElapsed renders a duration as HH:MM:SS.ss.
func FormatElapsed(d time.Duration) string {
	secs := d.Seconds()
	hours := int(secs) / 3600
	minutes := (int(secs) % 3600) / 60
	seconds := secs - float64(hours*3600+minutes*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, seconds)
}
