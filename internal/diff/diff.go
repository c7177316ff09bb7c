// Package diff compares two rendered lead generation plans line by line.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"leadplan/engine/internal/plan"
)

type LineKind string

const (
	LineContext LineKind = "context"
	LineAdded   LineKind = "added"
	LineRemoved LineKind = "removed"
)

type Line struct {
	Kind    LineKind `json:"kind"`
	Text    string   `json:"text"`
	OldLine int      `json:"old_line,omitempty"`
	NewLine int      `json:"new_line,omitempty"`
}

// Hunk is a run of changed lines with surrounding context.
type Hunk struct {
	Lines []Line `json:"lines"`
}

type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// DefaultContext is the number of unchanged lines kept around each change.
const DefaultContext = 2

// Plans diffs the Markdown renderings of two plans.
func Plans(before, after plan.Plan, context int) ([]Hunk, Stats) {
	return Text(plan.Markdown(before), plan.Markdown(after), context)
}

// Text diffs two documents and groups the result into hunks. A negative
// context keeps every unchanged line in a single hunk.
func Text(before, after string, context int) ([]Hunk, Stats) {
	lines, stats := lineDiff(before, after)
	if stats.Added == 0 && stats.Removed == 0 {
		return nil, stats
	}
	if context < 0 {
		return []Hunk{{Lines: lines}}, stats
	}
	return group(lines, context), stats
}

func lineDiff(before, after string) ([]Line, Stats) {
	table := newLineTable()
	beforeRunes := table.encode(before)
	afterRunes := table.encode(after)
	diffs := diffmatchpatch.New().DiffMainRunes(beforeRunes, afterRunes, false)

	var lines []Line
	var stats Stats
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		for _, text := range table.decode(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, Line{Kind: LineContext, Text: text, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, Line{Kind: LineRemoved, Text: text, OldLine: oldLine})
				oldLine++
				stats.Removed++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, Line{Kind: LineAdded, Text: text, NewLine: newLine})
				newLine++
				stats.Added++
			}
		}
	}
	return lines, stats
}

// lineTable maps every distinct line to a single rune so the diff runs over
// whole lines. Runes skip the surrogate range, which does not survive a
// round trip through string.
type lineTable struct {
	runes map[string]rune
	lines map[rune]string
}

func newLineTable() *lineTable {
	return &lineTable{runes: map[string]rune{}, lines: map[rune]string{}}
}

func (t *lineTable) encode(text string) []rune {
	parts := splitLines(text)
	out := make([]rune, 0, len(parts))
	for _, line := range parts {
		r, ok := t.runes[line]
		if !ok {
			r = lineRune(len(t.runes))
			t.runes[line] = r
			t.lines[r] = line
		}
		out = append(out, r)
	}
	return out
}

func (t *lineTable) decode(text string) []string {
	var out []string
	for _, r := range text {
		out = append(out, t.lines[r])
	}
	return out
}

func lineRune(index int) rune {
	r := rune(index + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func splitLines(text string) []string {
	parts := strings.Split(text, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func group(lines []Line, context int) []Hunk {
	keep := make([]bool, len(lines))
	for i, line := range lines {
		if line.Kind == LineContext {
			continue
		}
		lo, hi := max(0, i-context), min(len(lines)-1, i+context)
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}
	var hunks []Hunk
	var current []Line
	for i, line := range lines {
		if !keep[i] {
			if len(current) > 0 {
				hunks = append(hunks, Hunk{Lines: current})
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		hunks = append(hunks, Hunk{Lines: current})
	}
	return hunks
}

// Unified renders hunks with +/- prefixes and an @@ header per hunk.
func Unified(hunks []Hunk) string {
	var b strings.Builder
	for _, h := range hunks {
		oldStart, newStart := h.start()
		fmt.Fprintf(&b, "@@ -%d +%d @@\n", oldStart, newStart)
		for _, line := range h.Lines {
			switch line.Kind {
			case LineAdded:
				b.WriteString("+")
			case LineRemoved:
				b.WriteString("-")
			default:
				b.WriteString(" ")
			}
			b.WriteString(line.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (h Hunk) start() (int, int) {
	oldStart, newStart := 0, 0
	for _, line := range h.Lines {
		if oldStart == 0 && line.OldLine > 0 {
			oldStart = line.OldLine
		}
		if newStart == 0 && line.NewLine > 0 {
			newStart = line.NewLine
		}
	}
	return oldStart, newStart
}
