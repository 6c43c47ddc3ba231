package generator

import (
	"fmt"
	"strings"

	"mermdv/schema"
)

// Generator maps a validated diagram onto Dataverse metadata payloads.
// Every logical name it emits carries the publisher prefix; CDM
// entities keep their platform names and are never generated.
type Generator struct {
	prefix  string
	choices []schema.GlobalChoice
}

// Artifacts is everything a deployment needs, in creation order.
type Artifacts struct {
	Entities      []EntityMetadata
	Relationships []OneToManyRelationshipMetadata
	GlobalChoices []OptionSetMetadata
}

func New(prefix string, choices []schema.GlobalChoice) *Generator {
	return &Generator{
		prefix:  strings.ToLower(prefix),
		choices: choices,
	}
}

// LogicalName prepends the publisher prefix to a diagram identifier.
// CDM names pass through untouched; their schema is platform-owned.
func (g *Generator) LogicalName(name string) string {
	if schema.IsCDMEntityName(name) {
		return strings.ToLower(name)
	}
	return g.prefix + "_" + strings.ToLower(name)
}

// Generate builds the full artifact set for a diagram. It assumes the
// diagram has been validated; it still rejects invalid identifiers
// rather than emit payloads the Web API would refuse.
func (g *Generator) Generate(d *schema.Diagram) (*Artifacts, error) {
	artifacts := &Artifacts{}

	for _, c := range g.choices {
		artifacts.GlobalChoices = append(artifacts.GlobalChoices, g.GlobalChoiceDefinition(c))
	}

	for _, e := range d.Entities {
		if e.IsCDM {
			continue
		}
		entity, err := g.EntityDefinition(e)
		if err != nil {
			return nil, err
		}
		artifacts.Entities = append(artifacts.Entities, *entity)

		// lookup(...) attributes are relationships in disguise.
		for _, a := range e.Attributes {
			if a.Type == schema.TypeLookup && a.LookupTarget() != "" {
				artifacts.Relationships = append(artifacts.Relationships,
					g.relationshipMetadata(a.LookupTarget(), e.Name, a.Name))
			}
		}
	}

	for _, rel := range d.Relationships {
		artifacts.Relationships = append(artifacts.Relationships, g.RelationshipDefinition(rel))
	}

	return artifacts, nil
}

// EntityDefinition builds the table payload. The diagram's PK column
// becomes the primary-name attribute: Dataverse mints its own GUID key,
// so the declared key serves as the human-readable identifier. FK,
// lookup and choice columns are excluded here; foreign keys materialize
// through relationship lookups and choice columns need a global choice.
func (g *Generator) EntityDefinition(e schema.Entity) (*EntityMetadata, error) {
	if !schema.ValidIdentifier(e.Name) {
		return nil, fmt.Errorf("generating entity %q: not a valid identifier", e.Name)
	}

	meta := &EntityMetadata{
		SchemaName:            g.LogicalName(e.Name),
		DisplayName:           NewLabel(e.Name),
		DisplayCollectionName: NewLabel(e.Name + "s"),
		OwnershipType:         "UserOwned",
		HasNotes:              false,
		HasActivities:         false,
	}

	for _, a := range e.Attributes {
		if a.ForeignKey || a.Type == schema.TypeLookup ||
			a.Type == schema.TypeChoice || a.Type == schema.TypeCategory {
			continue
		}
		attr, err := g.AttributeDefinition(e.Name, a)
		if err != nil {
			return nil, err
		}
		meta.Attributes = append(meta.Attributes, *attr)
	}

	// Dataverse refuses a table without a primary-name column. When the
	// declared PK is not a string (or there is none), synthesize one.
	if !hasPrimaryName(meta.Attributes) {
		meta.Attributes = append([]AttributeMetadata{{
			ODataType:     "Microsoft.Dynamics.CRM.StringAttributeMetadata",
			SchemaName:    g.LogicalName(e.Name + "_name"),
			DisplayName:   NewLabel(e.Name + " Name"),
			RequiredLevel: RequiredLevel{Value: "ApplicationRequired"},
			IsPrimaryName: true,
			MaxLength:     100,
			FormatName:    &StringFormatName{Value: "Text"},
		}}, meta.Attributes...)
	}

	return meta, nil
}

func hasPrimaryName(attrs []AttributeMetadata) bool {
	for _, a := range attrs {
		if a.IsPrimaryName {
			return true
		}
	}
	return false
}

// AttributeDefinition builds one column payload.
func (g *Generator) AttributeDefinition(entity string, a schema.Attribute) (*AttributeMetadata, error) {
	if !schema.ValidIdentifier(a.Name) {
		return nil, fmt.Errorf("generating attribute %q on %q: not a valid identifier", a.Name, entity)
	}

	meta := &AttributeMetadata{
		SchemaName:    g.LogicalName(a.Name),
		DisplayName:   NewLabel(a.Name),
		RequiredLevel: RequiredLevel{Value: "None"},
	}
	if a.Description != "" {
		desc := NewLabel(a.Description)
		meta.Description = &desc
	}

	switch a.Type {
	case schema.TypeString:
		meta.ODataType = "Microsoft.Dynamics.CRM.StringAttributeMetadata"
		meta.MaxLength = 100
		meta.FormatName = &StringFormatName{Value: "Text"}
		if a.PrimaryKey {
			meta.IsPrimaryName = true
			meta.RequiredLevel = RequiredLevel{Value: "ApplicationRequired"}
		}
	case schema.TypeInt:
		meta.ODataType = "Microsoft.Dynamics.CRM.IntegerAttributeMetadata"
		meta.Format = "None"
	case schema.TypeDecimal:
		meta.ODataType = "Microsoft.Dynamics.CRM.DecimalAttributeMetadata"
		meta.Precision = 2
	case schema.TypeDateTime:
		meta.ODataType = "Microsoft.Dynamics.CRM.DateTimeAttributeMetadata"
		meta.Format = "DateAndTime"
	case schema.TypeDate:
		meta.ODataType = "Microsoft.Dynamics.CRM.DateTimeAttributeMetadata"
		meta.Format = "DateOnly"
	case schema.TypeBool:
		meta.ODataType = "Microsoft.Dynamics.CRM.BooleanAttributeMetadata"
		meta.OptionSet = &OptionSetMetadata{
			ODataType:     "Microsoft.Dynamics.CRM.BooleanOptionSetMetadata",
			DisplayName:   NewLabel(a.Name),
			OptionSetType: "Boolean",
			TrueOption:    &OptionMetadata{Value: 1, Label: NewLabel("Yes")},
			FalseOption:   &OptionMetadata{Value: 0, Label: NewLabel("No")},
		}
	default:
		return nil, fmt.Errorf("generating attribute %q on %q: unsupported type %q", a.Name, entity, a.Type)
	}

	return meta, nil
}

// RelationshipDefinition builds the 1:N payload with its lookup column.
// One-to-one relationships also deploy as 1:N: Dataverse has no native
// 1:1 table relationship, so cardinality is enforced by convention.
func (g *Generator) RelationshipDefinition(rel schema.Relationship) OneToManyRelationshipMetadata {
	return g.relationshipMetadata(rel.FromEntity, rel.ToEntity, strings.ToLower(rel.FromEntity)+"_id")
}

func (g *Generator) relationshipMetadata(referenced, referencing, lookupName string) OneToManyRelationshipMetadata {
	return OneToManyRelationshipMetadata{
		ODataType:         "Microsoft.Dynamics.CRM.OneToManyRelationshipMetadata",
		SchemaName:        fmt.Sprintf("%s_%s_%s", g.prefix, strings.ToLower(referenced), strings.ToLower(referencing)),
		ReferencedEntity:  g.LogicalName(referenced),
		ReferencingEntity: g.LogicalName(referencing),
		Lookup: LookupAttributeMetadata{
			ODataType:     "Microsoft.Dynamics.CRM.LookupAttributeMetadata",
			SchemaName:    g.LogicalName(lookupName),
			DisplayName:   NewLabel(referenced),
			RequiredLevel: RequiredLevel{Value: "None"},
		},
	}
}

// GlobalChoiceDefinition builds a global option set payload.
func (g *Generator) GlobalChoiceDefinition(c schema.GlobalChoice) OptionSetMetadata {
	meta := OptionSetMetadata{
		ODataType:     "Microsoft.Dynamics.CRM.OptionSetMetadata",
		Name:          g.LogicalName(c.Name),
		DisplayName:   NewLabel(c.DisplayName),
		IsGlobal:      true,
		OptionSetType: "Picklist",
	}
	for _, opt := range c.Options {
		meta.Options = append(meta.Options, OptionMetadata{Value: opt.Value, Label: NewLabel(opt.Label)})
	}
	return meta
}

// PublisherDefinition builds the publisher record carrying the prefix.
func (g *Generator) PublisherDefinition(uniqueName, friendlyName string) Publisher {
	return Publisher{
		UniqueName:                     uniqueName,
		FriendlyName:                   friendlyName,
		CustomizationPrefix:            g.prefix,
		CustomizationOptionValuePrefix: 10000,
	}
}

// SolutionDefinition builds the solution record. publisherRef is the
// OData bind path of an existing publisher, e.g. "/publishers(<id>)".
func (g *Generator) SolutionDefinition(uniqueName, friendlyName, publisherRef string) Solution {
	return Solution{
		UniqueName:   uniqueName,
		FriendlyName: friendlyName,
		Version:      "1.0.0.0",
		PublisherRef: publisherRef,
	}
}
