package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteFile writes the empty-resource report to path, replacing any file
// already there.
func WriteFile(path string, data Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeBlocks(w, data); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return f.Close()
}

func writeBlocks(w io.Writer, data Data) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n\n", fileTitle(data.Kind), rule("=")); err != nil {
		return err
	}
	for _, r := range data.Empty {
		for _, field := range Fields(r) {
			if _, err := fmt.Fprintf(w, "%s: %s\n", field.Key, field.Value); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", rule("-")); err != nil {
			return err
		}
	}
	return nil
}
