package loader

import (
	"fmt"
	"os"

	"mermdv/schema"
)

// ParseDiagram builds the semantic model from raw Mermaid erDiagram
// text. Parsing is a pure function of the text: it allocates a fresh
// model every call and never fails. Malformed lines degrade to parse
// notes on the diagram instead of errors.
func ParseDiagram(text string) *schema.Diagram {
	d := &schema.Diagram{}
	index := map[string]int{} // entity name -> position in d.Entities

	for _, line := range Classify(text) {
		switch line.Kind {
		case KindEntityOpen:
			if _, seen := index[line.Entity]; !seen {
				index[line.Entity] = len(d.Entities)
				d.Entities = append(d.Entities, schema.Entity{
					Name:      line.Entity,
					StartLine: line.Number,
				})
			}

		case KindEntityClose:
			// Only the first block of an entity keeps its span; repeated
			// blocks merge attributes but corrections target the first.
			if i, ok := index[line.Entity]; ok && d.Entities[i].EndLine == 0 {
				d.Entities[i].EndLine = line.Number
			}

		case KindAttribute:
			attr, ok := ParseAttribute(line.Text, line.Number)
			if !ok {
				d.Notes = append(d.Notes, schema.ParseNote{Line: line.Number, Text: line.Text})
				continue
			}
			if i, ok := index[line.Entity]; ok {
				d.Entities[i].Attributes = append(d.Entities[i].Attributes, attr)
			}

		case KindRelationship:
			rel, ok := ParseRelationship(line.Text, line.Number)
			if !ok {
				d.Notes = append(d.Notes, schema.ParseNote{Line: line.Number, Text: line.Text})
				continue
			}
			if rel.Cardinality == schema.ManyToMany {
				d.ManyToMany = append(d.ManyToMany, rel)
			} else {
				d.Relationships = append(d.Relationships, rel)
			}

		case KindUnparsed:
			d.Notes = append(d.Notes, schema.ParseNote{Line: line.Number, Text: line.Text})
		}
	}

	return d
}

// LoadDiagramFromFile reads a diagram file and parses it. The raw text
// is returned alongside the model because the corrector operates on
// text, not on the model.
func LoadDiagramFromFile(filename string) (*schema.Diagram, string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", fmt.Errorf("reading diagram file: %w", err)
	}
	text := string(data)
	return ParseDiagram(text), text, nil
}

// MarkCDMEntities flags the named entities as CDM on the model. This is
// an explicit user choice (typically collected by the wizard); detection
// alone never sets the flag.
func MarkCDMEntities(d *schema.Diagram, names []string) {
	chosen := map[string]bool{}
	for _, n := range names {
		chosen[n] = true
	}
	for i := range d.Entities {
		if chosen[d.Entities[i].Name] && schema.IsCDMEntityName(d.Entities[i].Name) {
			d.Entities[i].IsCDM = true
		}
	}
}
