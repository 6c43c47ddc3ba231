package loader

import (
	"regexp"
	"strings"
)

// Kind classifies a single logical line of a Mermaid erDiagram document.
type Kind string

const (
	KindDiagramStart Kind = "diagram-start"
	KindEntityOpen   Kind = "entity-open"
	KindEntityClose  Kind = "entity-close"
	KindAttribute    Kind = "attribute"
	KindRelationship Kind = "relationship"
	KindComment      Kind = "comment"
	KindBlank        Kind = "blank"
	KindUnparsed     Kind = "unparsed"
)

// Line is one classified logical line. Raw keeps the physical line
// exactly as written (indentation included) so corrections can splice
// text without disturbing formatting. Text is the trimmed content the
// classification was made on.
type Line struct {
	Number int // physical line number, 1-based
	Kind   Kind
	Raw    string
	Text   string
	Entity string // owning entity for entity-open/attribute/unparsed/entity-close
}

var (
	diagramStartRe = regexp.MustCompile(`^erDiagram\b`)
	entityOpenRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\{$`)
	entityInlineRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*\{(.*)\}$`)

	// The connector token is the small fixed set of symbol sequences
	// Mermaid uses for cardinalities: a left group, -- or .., a right
	// group. Its presence outside an entity body decides "relationship"
	// before the attribute grammar ever runs.
	cardinalityTokenRe = regexp.MustCompile(`(\|\||\|o|\}o|\}\|)(--|\.\.)(\|\||o\||o\{|\|\{)`)
)

// scanState is the classifier's only state: the stack of open entity
// blocks and nothing else. A fresh value is built per Classify call so
// repeated calls never share anything.
type scanState struct {
	stack []string
}

func (s *scanState) push(name string) { s.stack = append(s.stack, name) }

func (s *scanState) pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func (s *scanState) current() string {
	if len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1]
}

func (s *scanState) inEntity() bool { return len(s.stack) > 0 }

// Classify splits raw diagram text into classified logical lines.
// It never fails: anything it cannot make sense of inside an entity
// body comes back as KindUnparsed, and anything else unrecognized is
// treated as a comment-like line and ignored by the model builder.
//
// A single-line entity such as "Customer { string id }" expands into
// three logical lines (open, attribute, close) sharing one physical
// line number.
func Classify(text string) []Line {
	var out []Line
	state := &scanState{}

	for i, raw := range strings.Split(text, "\n") {
		number := i + 1
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			out = append(out, Line{Number: number, Kind: KindBlank, Raw: raw})

		case strings.HasPrefix(trimmed, "%%"):
			out = append(out, Line{Number: number, Kind: KindComment, Raw: raw, Text: trimmed})

		case diagramStartRe.MatchString(trimmed):
			out = append(out, Line{Number: number, Kind: KindDiagramStart, Raw: raw, Text: trimmed})

		case entityOpenRe.MatchString(trimmed):
			name := entityOpenRe.FindStringSubmatch(trimmed)[1]
			out = append(out, Line{Number: number, Kind: KindEntityOpen, Raw: raw, Text: trimmed, Entity: name})
			state.push(name)

		case trimmed == "}":
			out = append(out, Line{Number: number, Kind: KindEntityClose, Raw: raw, Text: trimmed, Entity: state.current()})
			state.pop()

		case !state.inEntity() && entityInlineRe.MatchString(trimmed):
			m := entityInlineRe.FindStringSubmatch(trimmed)
			name, body := m[1], strings.TrimSpace(m[2])
			out = append(out, Line{Number: number, Kind: KindEntityOpen, Raw: raw, Text: name + " {", Entity: name})
			if body != "" {
				out = append(out, classifyBody(number, raw, body, name))
			}
			out = append(out, Line{Number: number, Kind: KindEntityClose, Raw: raw, Text: "}", Entity: name})

		// Cardinality detection must run before the attribute grammar:
		// outside an entity body a malformed attribute and a
		// relationship line can look alike.
		case !state.inEntity() && cardinalityTokenRe.MatchString(trimmed):
			out = append(out, Line{Number: number, Kind: KindRelationship, Raw: raw, Text: trimmed})

		case state.inEntity():
			out = append(out, classifyBody(number, raw, trimmed, state.current()))

		default:
			// Top-level line that is neither a relationship nor an
			// entity opener. Preserved verbatim, excluded from the model.
			out = append(out, Line{Number: number, Kind: KindComment, Raw: raw, Text: trimmed})
		}
	}

	return out
}

// classifyBody classifies a line inside an entity body: either it
// matches the attribute grammar or it is kept as unparsed.
func classifyBody(number int, raw, trimmed, entity string) Line {
	if attributeRe.MatchString(trimmed) {
		return Line{Number: number, Kind: KindAttribute, Raw: raw, Text: trimmed, Entity: entity}
	}
	return Line{Number: number, Kind: KindUnparsed, Raw: raw, Text: trimmed, Entity: entity}
}
