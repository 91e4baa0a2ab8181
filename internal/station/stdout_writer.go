// Writer implementation printing archive rows to STDOUT
package station

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// StdoutWriter prints archive rows as JSONL to STDOUT.
type StdoutWriter struct {
	out io.Writer
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter() *StdoutWriter {
	return &StdoutWriter{out: os.Stdout}
}

// Write outputs a single row.
func (w *StdoutWriter) Write(row ArchiveRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	fmt.Fprintln(w.out, string(data))
	return nil
}

// WriteBatch outputs multiple rows.
func (w *StdoutWriter) WriteBatch(rows []ArchiveRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
