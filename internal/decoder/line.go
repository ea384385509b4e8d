package decoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// LineSource reads newline-terminated payloads, as sent by keyboard-wedge
// barcode scanners.
type LineSource struct {
	fanout
	r io.Reader
}

func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r}
}

// Run emits one event per line until the reader is exhausted or ctx is
// done. Cancellation is observed between lines.
func (s *LineSource) Run(ctx context.Context) error {
	sc := bufio.NewScanner(s.r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		s.emit(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading scanner input: %w", err)
	}
	return nil
}
