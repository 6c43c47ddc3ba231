// Package corrector rewrites Mermaid erDiagram text to resolve
// validator warnings. Every fix is a minimal, line-scoped edit computed
// against the current text: the corrector re-parses before each fix so
// batch application is order-independent for fixes on disjoint
// entities, and a fix whose offending pattern is already gone is a
// silent no-op. The model is never mutated; callers re-parse the
// corrected text.
package corrector

import (
	"regexp"
	"strings"

	"mermdv/loader"
	"mermdv/schema"
	"mermdv/validator"
)

// Result is the outcome of a correction run: the (possibly unchanged)
// text and the ids of the warnings that were actually resolved.
type Result struct {
	Text     string   `json:"text"`
	Resolved []string `json:"resolved"`
}

// FixAll applies every auto-fixable warning in order. Each fix is
// computed against the text produced by the previous one.
func FixAll(text string, warnings []validator.Warning) Result {
	result := Result{Text: text}
	for _, w := range warnings {
		if !w.AutoFixable || w.Fix == nil {
			continue
		}
		next, changed := apply(result.Text, w)
		if changed {
			result.Text = next
			result.Resolved = append(result.Resolved, w.ID)
		}
	}
	return result
}

// FixOne applies a single warning by id. Unknown, non-fixable or
// already-resolved ids return the input text unchanged.
func FixOne(text string, id string, warnings []validator.Warning) Result {
	result := Result{Text: text}
	w, ok := validator.Find(warnings, id)
	if !ok || !w.AutoFixable || w.Fix == nil {
		return result
	}
	next, changed := apply(text, w)
	if changed {
		result.Text = next
		result.Resolved = []string{id}
	}
	return result
}

// apply dispatches one fix. It re-derives the model and line offsets
// from the current text; the warning's own line data may be stale.
func apply(text string, w validator.Warning) (string, bool) {
	d := loader.ParseDiagram(text)
	lines := strings.Split(text, "\n")
	fix := w.Fix

	switch w.Type {
	case validator.MissingPrimaryKey:
		return fixMissingPrimaryKey(text, lines, d, fix)
	case validator.MultiplePrimaryKeys:
		return fixMultiplePrimaryKeys(text, lines, d, fix)
	case validator.CompositeKey:
		return fixCompositeKey(text, lines, d, fix)
	case validator.NamingConflict:
		if fix.NewName == "" {
			return fixPromoteToPrimaryKey(text, lines, d, fix)
		}
		return fixRename(text, lines, d, fix)
	case validator.ReservedColumn, validator.ForeignKeyNaming:
		return fixRename(text, lines, d, fix)
	case validator.MissingForeignKey:
		return fixMissingForeignKey(text, lines, d, fix)
	case validator.DuplicateColumns:
		return fixDuplicateColumns(text, lines, d, fix)
	case validator.ManyToManyCorrected:
		return fixManyToMany(text, lines, d, fix)
	}
	return text, false
}

func fixMissingPrimaryKey(text string, lines []string, d *schema.Diagram, fix *validator.FixData) (string, bool) {
	e, ok := d.Entity(fix.Entity)
	if !ok || len(e.PrimaryKeys()) > 0 || e.IsJunction() {
		return text, false
	}
	return insertAttribute(text, lines, e, "string "+fix.NewName+" PK", true)
}

func fixMissingForeignKey(text string, lines []string, d *schema.Diagram, fix *validator.FixData) (string, bool) {
	e, ok := d.Entity(fix.Entity)
	if !ok || hasForeignKeyFor(e, fix.From) {
		return text, false
	}
	return insertAttribute(text, lines, e, "string "+fix.NewName+" FK", false)
}

func fixRename(text string, lines []string, d *schema.Diagram, fix *validator.FixData) (string, bool) {
	e, ok := d.Entity(fix.Entity)
	if !ok {
		return text, false
	}
	if _, exists := e.Attribute(fix.NewName); exists {
		return text, false
	}
	return transformAttribute(text, lines, e, fix.Column, func(a *schema.Attribute) {
		a.Name = fix.NewName
	})
}

func fixPromoteToPrimaryKey(text string, lines []string, d *schema.Diagram, fix *validator.FixData) (string, bool) {
	e, ok := d.Entity(fix.Entity)
	if !ok || len(e.PrimaryKeys()) > 0 {
		return text, false
	}
	return transformAttribute(text, lines, e, fix.Column, func(a *schema.Attribute) {
		a.PrimaryKey = true
	})
}

func fixMultiplePrimaryKeys(text string, lines []string, d *schema.Diagram, fix *validator.FixData) (string, bool) {
	e, ok := d.Entity(fix.Entity)
	if !ok || e.IsJunction() {
		return text, false
	}
	pks := e.PrimaryKeys()
	if len(pks) < 2 {
		return text, false
	}

	keep := fix.Keep
	if _, ok := e.Attribute(keep); !ok {
		keep = pks[0].Name
	}

	var edits []Edit
	for _, a := range pks {
		if a.Name == keep {
			continue
		}
		edit, ok := attributeEdit(lines, e, a.Name, func(a *schema.Attribute) {
			a.PrimaryKey = false
		})
		if ok {
			edits = append(edits, edit)
		}
	}
	if len(edits) == 0 {
		return text, false
	}
	return applyEdits(text, edits), true
}

func fixCompositeKey(text string, lines []string, d *schema.Diagram, fix *validator.FixData) (string, bool) {
	e, ok := d.Entity(fix.Entity)
	if !ok || e.IsJunction() {
		return text, false
	}
	a, ok := e.Attribute(fix.Column)
	if !ok || !a.PrimaryKey || !a.ForeignKey {
		return text, false
	}
	return transformAttribute(text, lines, e, fix.Column, func(a *schema.Attribute) {
		a.ForeignKey = false
	})
}

func fixDuplicateColumns(text string, lines []string, d *schema.Diagram, fix *validator.FixData) (string, bool) {
	e, ok := d.Entity(fix.Entity)
	if !ok {
		return text, false
	}

	var edits []Edit
	seen := false
	for _, a := range e.Attributes {
		if a.Name != fix.Column {
			continue
		}
		if !seen {
			seen = true
			continue
		}
		// A duplicate sharing a single-line declaration cannot be
		// deleted without taking the entity with it.
		if inlineEntity(e) && a.Line == e.StartLine {
			continue
		}
		edits = append(edits, Edit{StartLine: a.Line, EndLine: a.Line})
	}
	if len(edits) == 0 {
		return text, false
	}
	return applyEdits(text, edits), true
}

// fixManyToMany is the one generative correction: the offending
// many-to-many line becomes two one-to-many lines pointing at a
// synthesized junction entity with a composite PK+FK pair.
func fixManyToMany(text string, lines []string, d *schema.Diagram, fix *validator.FixData) (string, bool) {
	var rel schema.Relationship
	found := false
	for _, r := range d.ManyToMany {
		if (r.FromEntity == fix.From && r.ToEntity == fix.To) ||
			(r.FromEntity == fix.To && r.ToEntity == fix.From) {
			rel = r
			found = true
			break
		}
	}
	if !found {
		return text, false
	}

	junction := fix.Entity
	label := fix.Label
	if label == "" {
		label = rel.Label
	}
	if label == "" {
		label = "has"
	}

	indent := indentOf(lines[rel.Line-1])
	edits := []Edit{{
		StartLine: rel.Line,
		EndLine:   rel.Line,
		Replacement: []string{
			indent + renderRelationship(fix.From, junction, label),
			indent + renderRelationship(fix.To, junction, label),
		},
	}}

	if _, exists := d.Entity(junction); !exists {
		entityIndent := indentStep
		if from, ok := d.Entity(fix.From); ok {
			entityIndent = indentOf(lines[from.StartLine-1])
		}
		block := []string{
			entityIndent + junction + " {",
			entityIndent + indentStep + "string " + strings.ToLower(fix.From) + "_id PK FK",
			entityIndent + indentStep + "string " + strings.ToLower(fix.To) + "_id PK FK",
			entityIndent + "}",
		}

		// Append after the last non-blank line so a trailing newline in
		// the document stays where it was.
		insertAt := len(lines)
		for insertAt > 0 && strings.TrimSpace(lines[insertAt-1]) == "" {
			insertAt--
		}
		edits = append(edits, Edit{StartLine: insertAt + 1, EndLine: insertAt, Replacement: block})
	}

	return applyEdits(text, edits), true
}

func hasForeignKeyFor(e schema.Entity, from string) bool {
	needle := strings.ToLower(from)
	for _, a := range e.Attributes {
		if a.ForeignKey && strings.Contains(strings.ToLower(a.Name), needle) {
			return true
		}
	}
	return false
}

func inlineEntity(e schema.Entity) bool {
	return e.StartLine == e.EndLine
}

var inlineBodyRe = regexp.MustCompile(`^(\s*)([A-Za-z_][A-Za-z0-9_]*)\s*\{(.*)\}\s*$`)

// insertAttribute adds a new attribute line at the top or bottom of an
// entity block. Single-line entities are expanded to block form first;
// that is the minimal rewrite that keeps the result re-parseable.
func insertAttribute(text string, lines []string, e schema.Entity, attr string, top bool) (string, bool) {
	if inlineEntity(e) {
		raw := lines[e.StartLine-1]
		m := inlineBodyRe.FindStringSubmatch(raw)
		if m == nil {
			return text, false
		}
		indent, name, body := m[1], m[2], strings.TrimSpace(m[3])

		inner := []string{attr}
		if body != "" {
			if top {
				inner = []string{attr, body}
			} else {
				inner = []string{body, attr}
			}
		}

		replacement := []string{indent + name + " {"}
		for _, l := range inner {
			replacement = append(replacement, indent+indentStep+l)
		}
		replacement = append(replacement, indent+"}")
		return applyEdits(text, []Edit{{StartLine: e.StartLine, EndLine: e.StartLine, Replacement: replacement}}), true
	}

	indent := indentOf(lines[e.StartLine-1]) + indentStep
	if len(e.Attributes) > 0 {
		indent = indentOf(lines[e.Attributes[0].Line-1])
	}

	at := e.EndLine // insert just above the closing brace
	if top {
		at = e.StartLine + 1
		if len(e.Attributes) > 0 {
			at = e.Attributes[0].Line
		}
	}
	edit := Edit{StartLine: at, EndLine: at - 1, Replacement: []string{indent + attr}}
	return applyEdits(text, []Edit{edit}), true
}

// transformAttribute rewrites the first attribute with the given name
// through fn and splices the re-rendered line back, preserving the
// line's indentation. Only that line changes.
func transformAttribute(text string, lines []string, e schema.Entity, name string, fn func(*schema.Attribute)) (string, bool) {
	edit, ok := attributeEdit(lines, e, name, fn)
	if !ok {
		return text, false
	}
	return applyEdits(text, []Edit{edit}), true
}

func attributeEdit(lines []string, e schema.Entity, name string, fn func(*schema.Attribute)) (Edit, bool) {
	a, ok := e.Attribute(name)
	if !ok {
		return Edit{}, false
	}
	fn(&a)

	if inlineEntity(e) {
		raw := lines[e.StartLine-1]
		m := inlineBodyRe.FindStringSubmatch(raw)
		if m == nil {
			return Edit{}, false
		}
		replacement := m[1] + m[2] + " { " + renderAttribute(a) + " }"
		return Edit{StartLine: e.StartLine, EndLine: e.StartLine, Replacement: []string{replacement}}, true
	}

	indent := indentOf(lines[a.Line-1])
	return Edit{StartLine: a.Line, EndLine: a.Line, Replacement: []string{indent + renderAttribute(a)}}, true
}
