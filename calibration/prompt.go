package calibration

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// StdinPrompter prompts on a writer and reads the answer a line at a time
// from a reader, normally os.Stdout and os.Stdin.  An empty line or the end
// of input cancels, input that is not a number asks again.
type StdinPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewStdinPrompter returns a prompter reading from r and writing prompts to w
func NewStdinPrompter(r io.Reader, w io.Writer) *StdinPrompter {
	return &StdinPrompter{
		in:  bufio.NewScanner(r),
		out: w,
	}
}

// Scanner exposes the underlying line scanner so callers reading other
// input from the same reader share its buffer
func (p *StdinPrompter) Scanner() *bufio.Scanner {
	return p.in
}

// Prompt writes message and waits for a number.  The context is checked
// between attempts, a read already in progress is not interrupted.
func (p *StdinPrompter) Prompt(ctx context.Context, message string) (float64, bool, error) {

	for {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}

		fmt.Fprintf(p.out, "%s ", message)

		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, false, fmt.Errorf("error reading input: %w", err)
			}
			return 0, false, nil
		}

		line := strings.TrimSpace(p.in.Text())

		if line == "" {
			return 0, false, nil
		}

		v, err := strconv.ParseFloat(line, 64)

		if err != nil {
			fmt.Fprintf(p.out, "%q is not a number, press enter to cancel\n", line)
			continue
		}

		return v, true, nil
	}
}
