// Package textdiff renders line-oriented previews of content changes.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op marks how a line changed.
type Op byte

const (
	OpEqual  Op = ' '
	OpInsert Op = '+'
	OpDelete Op = '-'
)

// Line is one line of a diff.
type Line struct {
	Op   Op
	Text string
}

// Lines computes a line-level diff between before and after.
func Lines(before, after string) []Line {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	var out []Line
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}

		text := strings.TrimSuffix(d.Text, "\n")
		for _, l := range strings.Split(text, "\n") {
			out = append(out, Line{Op: op, Text: l})
		}
	}
	return out
}

// Stats counts inserted and deleted lines.
func Stats(lines []Line) (additions, deletions int) {
	for _, l := range lines {
		switch l.Op {
		case OpInsert:
			additions++
		case OpDelete:
			deletions++
		}
	}
	return additions, deletions
}

// Render formats a diff for path with a header, showing context lines of
// unchanged text around each change and eliding the rest.
func Render(path, before, after string, context int) string {
	lines := Lines(before, after)
	adds, dels := Stats(lines)

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", path, path)
	fmt.Fprintf(&b, "@@ %d additions, %d deletions @@\n", adds, dels)

	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.Op == OpEqual {
			continue
		}
		for j := max(0, i-context); j <= min(len(lines)-1, i+context); j++ {
			keep[j] = true
		}
	}

	elided := false
	for i, l := range lines {
		if !keep[i] {
			if !elided {
				b.WriteString("...\n")
				elided = true
			}
			continue
		}
		elided = false
		b.WriteByte(byte(l.Op))
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}

	return b.String()
}
