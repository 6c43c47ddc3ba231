package corrector

import (
	"sort"
	"strings"

	"mermdv/schema"
)

// Edit replaces an inclusive span of physical lines with replacement
// lines. A nil replacement deletes the span; EndLine = StartLine-1
// inserts before StartLine. Edits are always computed against the
// current text and applied back-to-front so earlier edits cannot
// invalidate later offsets.
type Edit struct {
	StartLine   int // 1-based, inclusive
	EndLine     int // 1-based, inclusive
	Replacement []string
}

// applyEdits applies a set of non-overlapping edits to the text.
func applyEdits(text string, edits []Edit) string {
	if len(edits) == 0 {
		return text
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartLine > sorted[j].StartLine
	})

	lines := strings.Split(text, "\n")
	for _, e := range sorted {
		if e.StartLine < 1 || e.EndLine > len(lines) || e.EndLine < e.StartLine-1 {
			continue
		}
		tail := make([]string, len(lines[e.EndLine:]))
		copy(tail, lines[e.EndLine:])
		lines = append(lines[:e.StartLine-1], append(e.Replacement, tail...)...)
	}
	return strings.Join(lines, "\n")
}

// indentOf returns the leading whitespace of a line.
func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

const indentStep = "    "

// renderAttribute writes an attribute back in canonical diagram form:
// type, name, constraint keywords, quoted description.
func renderAttribute(a schema.Attribute) string {
	var b strings.Builder
	b.WriteString(string(a.Type))
	if len(a.TypeArgs) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(a.TypeArgs, ","))
		b.WriteString(")")
	}
	b.WriteString(" ")
	b.WriteString(a.Name)
	if a.PrimaryKey {
		b.WriteString(" PK")
	}
	if a.ForeignKey {
		b.WriteString(" FK")
	}
	if a.Description != "" {
		b.WriteString(` "` + a.Description + `"`)
	}
	return b.String()
}

// renderRelationship writes a one-to-many relationship line.
func renderRelationship(from, to, label string) string {
	line := from + " ||--o{ " + to
	if label != "" {
		line += " : " + label
	}
	return line
}
