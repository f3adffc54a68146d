// The report package formats simulation results for humans and spreadsheets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/vertex-lab/gossip/pkg/models"
)

// WriteSpreadCSV() writes the spread log as CSV with the header "Step,Spread".
// Steps are numbered from 1, the seed being step 1.
func WriteSpreadCSV(w io.Writer, log models.SpreadLog) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Step", "Spread"}); err != nil {
		return err
	}

	for i, spread := range log {
		record := []string{strconv.Itoa(i + 1), strconv.Itoa(spread)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSpreadCSVFile() writes the spread log to the CSV file at path, overwriting it.
func WriteSpreadCSVFile(path string, log models.SpreadLog) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteSpreadCSV(file, log); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return file.Close()
}

// PrintSpread() prints the number of reached nodes after each step.
func PrintSpread(w io.Writer, seed uint32, log models.SpreadLog) {
	fmt.Fprintf(w, "Spread from node %d:\n", seed)
	for i, spread := range log {
		fmt.Fprintf(w, "  step %d: %d nodes\n", i+1, spread)
	}
	fmt.Fprintf(w, "Total reach: %d nodes in %d steps\n", log.Reach(), log.Steps())
}

// PrintTopSpreaders() prints the ranking, one spreader per line.
// If labels is not nil, it's used to display a label next to each nodeID.
func PrintTopSpreaders(w io.Writer, results []models.SpreaderResult, labels func(uint32) string) {
	fmt.Fprintf(w, "Top %d spreaders:\n", len(results))
	for i, result := range results {
		label := ""
		if labels != nil {
			if l := labels(result.NodeID); l != "" {
				label = " (" + l + ")"
			}
		}

		fmt.Fprintf(w, "%3d. node %d%s: total spread %d\n", i+1, result.NodeID, label, result.Reach)
	}
}
