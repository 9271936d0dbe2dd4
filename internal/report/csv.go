package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"specparam/internal/consensus"
	"specparam/internal/types"
)

// WriteInventoryCSV lists the snippets that went into a run.
func WriteInventoryCSV(path string, snippets []types.Snippet) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"Snippet", "Size (bytes)"}); err != nil {
			return err
		}
		for _, s := range snippets {
			if err := w.Write([]string{s.ID, fmt.Sprintf("%d", len(s.Text))}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteComparisonCSV produces the backend-by-backend comparison table: one
// row per snippet, one column per backend, each cell a parameter count or an
// error. Used for manual QA of backend behavior.
func WriteComparisonCSV(path string, backendIDs []string, runs [][]types.BackendResult) error {
	return writeCSV(path, func(w *csv.Writer) error {
		header := append([]string{"Snippet"}, backendIDs...)
		if err := w.Write(header); err != nil {
			return err
		}

		for _, results := range runs {
			if len(results) == 0 {
				continue
			}
			byBackend := make(map[string]types.BackendResult, len(results))
			for _, r := range results {
				byBackend[r.BackendID] = r
			}

			row := []string{results[0].SnippetID}
			for _, id := range backendIDs {
				r, ok := byBackend[id]
				switch {
				case !ok:
					row = append(row, "not dispatched")
				case r.OK():
					row = append(row, fmt.Sprintf("%d parameters", len(r.Parameters)))
				default:
					row = append(row, fmt.Sprintf("Error: %s", r.ErrorDetail))
				}
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDetailedCSV writes one row per reconciled parameter with its
// confidence annotations.
func WriteDetailedCSV(path string, entries []consensus.Entry) error {
	return writeCSV(path, func(w *csv.Writer) error {
		header := []string{
			"Source Snippet", "Parameter Name", "Description", "Type",
			"Constraints", "Keywords", "Confidence Score", "Confidence Level",
			"Backend Agreement", "Needs Review",
		}
		if err := w.Write(header); err != nil {
			return err
		}

		for _, e := range entries {
			rep := e.Representative
			row := []string{
				rep.SourceSnippet,
				rep.Name,
				rep.Description,
				rep.Type,
				rep.Constraints,
				strings.Join(rep.Keywords, ", "),
				fmt.Sprintf("%.2f", e.ConfidenceScore),
				string(e.Tier),
				agreementLabel(e.AgreementCount, e.TotalBackends),
				fmt.Sprintf("%t", e.NeedsReview),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}
