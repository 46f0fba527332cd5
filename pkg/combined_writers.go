package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter writes to stdout and the rotated log file at once.
// A failing writer does not stop the others.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		Writers: writers,
	}
}

// Write reports len(p) as long as one writer took the whole buffer,
// errors of all failing writers are combined.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	n := 0
	var err error
	for _, w := range cw.Writers {
		written, wErr := w.Write(p)
		if wErr != nil {
			err = multierr.Append(err, wErr)
			continue
		}
		n = max(n, written)
	}
	return n, err
}
