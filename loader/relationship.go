package loader

import (
	"regexp"
	"strings"

	"mermdv/schema"
)

// relationshipRe captures "From <left><connector><right> To : label".
// Left symbol groups: || and |o mean the one side, }o and }| the many
// side. Right symbol groups mirror them: || and o| are one, o{ and |{
// are many. Both -- (identifying) and .. (non-identifying) connectors
// are accepted and treated the same.
var relationshipRe = regexp.MustCompile(
	`^([A-Za-z_][A-Za-z0-9_]*)\s*` +
		`(\|\||\|o|\}o|\}\|)(?:--|\.\.)(\|\||o\||o\{|\|\{)` +
		`\s*([A-Za-z_][A-Za-z0-9_]*)\s*` +
		`(?::\s*(.+))?$`)

func leftIsMany(sym string) bool  { return sym == "}o" || sym == "}|" }
func rightIsMany(sym string) bool { return sym == "o{" || sym == "|{" }

// ParseRelationship parses a relationship-classified line. The result
// is normalized so FromEntity is always the one side of a one-to-many.
// Many-to-many symbol sequences still parse (the validator needs the
// endpoints to report and rewrite them) but carry
// schema.ManyToMany and must never reach the relationship list.
//
// The parser never invents a label; an absent label stays empty and
// naming falls to the schema generator.
func ParseRelationship(text string, line int) (schema.Relationship, bool) {
	m := relationshipRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return schema.Relationship{}, false
	}

	from, left, right, to := m[1], m[2], m[3], m[4]
	label := strings.TrimSpace(m[5])
	label = strings.Trim(label, `"`)

	rel := schema.Relationship{
		FromEntity: from,
		ToEntity:   to,
		Label:      label,
		Line:       line,
	}

	switch {
	case leftIsMany(left) && rightIsMany(right):
		rel.Cardinality = schema.ManyToMany
	case !leftIsMany(left) && !rightIsMany(right):
		rel.Cardinality = schema.OneToOne
	case leftIsMany(left):
		// many-to-one: flip so the one side comes first
		rel.FromEntity, rel.ToEntity = to, from
		rel.Cardinality = schema.OneToMany
	default:
		rel.Cardinality = schema.OneToMany
	}

	return rel, true
}
