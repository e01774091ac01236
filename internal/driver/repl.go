// Package driver implements the shared REPL/epoch-stepping shell both
// cmd/cc and cmd/stable run on top of: a line grammar ("graph ± src
// dst", "label ± k v", "query ± ... ", "prefs ± ...") read from stdin
// or a batch file, epoch advance, and a probe-style wait for the
// correction loop to quiesce. Grounded on the REPL loop of
// original_source/examples/interactive-cc.rs and interactive-stable.rs.
package driver

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rosscartlidge/explaindf/pkg/dataflow"
)

// Line is one parsed REPL command: a named command, a signed weight
// (+1 for insertion, -1 for retraction), and the remaining
// whitespace-separated fields, left for the caller to interpret
// according to the command's own arity.
type Line struct {
	Command string
	Sign    int64
	Fields  []string
}

// ParseLine parses one raw REPL line. ok is false for blank lines,
// lines with no recognizable sign token, or comment lines starting
// with '#'.
func ParseLine(raw string) (Line, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return Line{}, false
	}
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return Line{}, false
	}
	command := fields[0]
	var sign int64
	switch fields[1] {
	case "+":
		sign = 1
	case "-":
		sign = -1
	default:
		return Line{}, false
	}
	return Line{Command: command, Sign: sign, Fields: fields[2:]}, true
}

// Uint64Field parses Fields[i] as a uint64, returning an error naming
// the command and field index on failure.
func (l Line) Uint64Field(i int) (uint64, error) {
	if i >= len(l.Fields) {
		return 0, fmt.Errorf("driver: command %q missing field %d", l.Command, i)
	}
	v, err := strconv.ParseUint(l.Fields[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("driver: command %q field %d: %w", l.Command, i, err)
	}
	return v, nil
}

// Lines scans raw REPL lines from r, reporting each successfully
// parsed Line to fn in order. Unparseable lines are skipped silently,
// matching the original REPL's tolerant line-at-a-time reading. Built
// on pkg/dataflow's pull-style Stream rather than scanning directly, so
// the REPL's line source composes with the same Stream combinators
// (Where, MapStream, ForEach) the rest of the library's I/O boundary uses.
func Lines(r io.Reader, fn func(Line) error) error {
	raw := dataflow.FromLines(r)
	parsed := dataflow.MapStream(raw, func(s string) lineOrSkip {
		line, ok := ParseLine(s)
		return lineOrSkip{line: line, ok: ok}
	})
	recognized := dataflow.Where(parsed, func(p lineOrSkip) bool { return p.ok })
	return dataflow.ForEach(recognized, func(p lineOrSkip) error { return fn(p.line) })
}

type lineOrSkip struct {
	line Line
	ok   bool
}
