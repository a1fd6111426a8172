package review

import (
	"fmt"
	"io"
)

// WriteText writes each report followed by a blank separator line.
func WriteText(w io.Writer, b *Batch) error {
	for _, r := range b.Reports {
		if _, err := fmt.Fprintf(w, "%s\n", r.Text); err != nil {
			return err
		}
	}
	return nil
}
