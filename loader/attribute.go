package loader

import (
	"regexp"
	"strings"

	"mermdv/schema"
)

// attributeRe is the attribute-line grammar: a type keyword with an
// optional parameter list, a name, zero or more PK/FK constraint
// keywords in either order, and an optional double-quoted description.
var attributeRe = regexp.MustCompile(
	`^(string|int|decimal|datetime|date|bool|choice|category|lookup)` +
		`(?:\(([^)]*)\))?` +
		`\s+([A-Za-z_][A-Za-z0-9_]*)` +
		`((?:\s+(?:PK|FK))*)` +
		`(?:\s+"([^"]*)")?\s*$`)

// ParseAttribute parses one attribute-classified line into a model
// attribute. It returns false when the line does not match the grammar;
// callers record such lines as parse notes instead of failing.
func ParseAttribute(text string, line int) (schema.Attribute, bool) {
	m := attributeRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return schema.Attribute{}, false
	}

	attr := schema.Attribute{
		Name:        m[3],
		Type:        schema.AttributeType(m[1]),
		Description: m[5],
		Line:        line,
	}

	if m[2] != "" {
		for _, arg := range strings.Split(m[2], ",") {
			arg = strings.TrimSpace(arg)
			if arg != "" {
				attr.TypeArgs = append(attr.TypeArgs, arg)
			}
		}
	}

	for _, kw := range strings.Fields(m[4]) {
		switch kw {
		case "PK":
			attr.PrimaryKey = true
		case "FK":
			attr.ForeignKey = true
		}
	}

	return attr, true
}
