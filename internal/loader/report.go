package loader

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxListedRejections bounds the rejected rows printed per source.
const MaxListedRejections = 10

// WriteText prints the console report for a run.
func WriteText(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "Using database: %s (%s)\n", s.Provision.Target, s.Backend)
	if s.ProvisionError != "" {
		fmt.Fprintf(w, "Error creating database: %s\n", s.ProvisionError)
		return
	}
	if s.Provision.Created {
		fmt.Fprintf(w, "Database '%s' created successfully.\n", s.Provision.Target)
	} else if s.Provision.Target != "" {
		fmt.Fprintf(w, "Database '%s' already exists.\n", s.Provision.Target)
	}
	if s.ConnectError != "" {
		fmt.Fprintf(w, "Database connection error: %s\n", s.ConnectError)
		return
	}

	for _, r := range s.Sources {
		if r.Skipped {
			fmt.Fprintf(w, "Warning: CSV file '%s' not found. Skipping.\n", r.File)
			continue
		}
		fmt.Fprintf(w, "Loaded %d rows from '%s' into table '%s'.\n", r.RowsLoaded, r.File, r.Table)
		if len(r.Rejected) == 0 {
			continue
		}
		fmt.Fprintf(w, "  Rejected %d rows:\n", len(r.Rejected))
		for i, rej := range r.Rejected {
			if i == MaxListedRejections {
				fmt.Fprintf(w, "    ... and %d more\n", len(r.Rejected)-i)
				break
			}
			if rej.Column != "" {
				fmt.Fprintf(w, "    line %d, column %s: %s\n", rej.Line, rej.Column, rej.Reason)
			} else {
				fmt.Fprintf(w, "    line %d: %s\n", rej.Line, rej.Reason)
			}
		}
	}

	if !s.Committed {
		fmt.Fprintln(w, "Load rolled back.")
		return
	}
	fmt.Fprintln(w, "Database setup complete.")

	if len(s.Verified) > 0 {
		fmt.Fprintln(w, "\nVerifying data load:")
		for _, v := range s.Verified {
			fmt.Fprintf(w, "Table '%s': %d rows\n", v.Table, v.Rows)
		}
	}
	if s.BatchLatency.Batches > 0 {
		fmt.Fprintf(w, "\n%d batches, mean %s, p95 %s, p99 %s, total %s\n",
			s.BatchLatency.Batches, s.BatchLatency.Mean, s.BatchLatency.P95, s.BatchLatency.P99, s.TotalTime)
	}
}

// WriteJSON prints the summary as indented JSON.
func WriteJSON(w io.Writer, s *Summary) error {
	jsonOutput, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(jsonOutput))
	return err
}
