package schema

import "strings"

// Diagram is the parsed form of a Mermaid erDiagram document.
// Entities and relationships keep their declaration order so that
// validation output and text rewrites are deterministic.
type Diagram struct {
	Entities      []Entity
	Relationships []Relationship

	// ManyToMany holds relationship lines written with many-to-many
	// symbols. They never become real relationships; the validator
	// reports them and the corrector rewrites them through a junction
	// entity.
	ManyToMany []Relationship

	Notes []ParseNote
}

type Entity struct {
	Name       string
	Attributes []Attribute
	IsCDM      bool
	StartLine  int // line of "Name {" (1-based)
	EndLine    int // line of the closing "}"
}

type Attribute struct {
	Name        string
	Type        AttributeType
	TypeArgs    []string // choice options, or the lookup target entity
	PrimaryKey  bool
	ForeignKey  bool
	Description string
	Line        int // source line (1-based)
}

type Relationship struct {
	FromEntity  string
	ToEntity    string
	Cardinality Cardinality
	Label       string // empty when the diagram carries no label
	Line        int
}

// ParseNote records a line inside an entity body that did not match the
// attribute grammar. Parsing never fails on such lines; they are kept
// here so the validator can surface them.
type ParseNote struct {
	Line int
	Text string
}

type AttributeType string

const (
	TypeString   AttributeType = "string"
	TypeInt      AttributeType = "int"
	TypeDecimal  AttributeType = "decimal"
	TypeDateTime AttributeType = "datetime"
	TypeDate     AttributeType = "date"
	TypeBool     AttributeType = "bool"
	TypeChoice   AttributeType = "choice"
	TypeCategory AttributeType = "category"
	TypeLookup   AttributeType = "lookup"
)

type Cardinality string

const (
	OneToOne   Cardinality = "one-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToMany Cardinality = "many-to-many"
)

// GlobalChoice is a reusable option set supplied alongside the diagram.
// Choice columns in the diagram reference these by name; the diagram
// itself never carries option values.
type GlobalChoice struct {
	Name        string
	DisplayName string
	Options     []ChoiceOption
}

type ChoiceOption struct {
	Value int
	Label string
}

// LookupTarget returns the target entity of a lookup attribute.
func (a Attribute) LookupTarget() string {
	if a.Type == TypeLookup && len(a.TypeArgs) > 0 {
		return a.TypeArgs[0]
	}
	return ""
}

// PrimaryKeys returns the attributes marked PK, in declaration order.
func (e Entity) PrimaryKeys() []Attribute {
	var pks []Attribute
	for _, a := range e.Attributes {
		if a.PrimaryKey {
			pks = append(pks, a)
		}
	}
	return pks
}

// ForeignKeys returns the attributes marked FK, in declaration order.
func (e Entity) ForeignKeys() []Attribute {
	var fks []Attribute
	for _, a := range e.Attributes {
		if a.ForeignKey {
			fks = append(fks, a)
		}
	}
	return fks
}

// Attribute looks up an attribute by exact name.
func (e Entity) Attribute(name string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// IsJunction reports whether the entity looks like a junction table:
// at least two foreign keys, and no primary key that is not also a
// foreign key. Junction tables are the one place a composite PK+FK
// column is legal.
func (e Entity) IsJunction() bool {
	fks := 0
	for _, a := range e.Attributes {
		if a.ForeignKey {
			fks++
		}
		if a.PrimaryKey && !a.ForeignKey {
			return false
		}
	}
	return fks >= 2
}

// Entity looks up an entity by exact name.
func (d Diagram) Entity(name string) (Entity, bool) {
	for _, e := range d.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// ValidIdentifier reports whether s is usable as an entity or attribute
// name: letters, digits and underscores, not starting with a digit.
func ValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// cdmEntities is the set of well-known Common Data Model entities this
// tool recognizes. Matching a name only produces an informational
// finding; an entity is never treated as CDM without the user opting in.
var cdmEntities = map[string]bool{
	"account":          true,
	"contact":          true,
	"lead":             true,
	"opportunity":      true,
	"incident":         true,
	"case":             true,
	"task":             true,
	"email":            true,
	"appointment":      true,
	"phonecall":        true,
	"letter":           true,
	"campaign":         true,
	"contract":         true,
	"invoice":          true,
	"quote":            true,
	"salesorder":       true,
	"product":          true,
	"pricelevel":       true,
	"competitor":       true,
	"systemuser":       true,
	"team":             true,
	"businessunit":     true,
	"currency":         true,
	"feedback":         true,
	"knowledgearticle": true,
}

// IsCDMEntityName reports whether name matches a well-known CDM entity.
func IsCDMEntityName(name string) bool {
	return cdmEntities[strings.ToLower(name)]
}

// reservedColumns are column names Dataverse creates implicitly on every
// table. Declaring them in a diagram collides with the platform schema.
// "name" is special-cased by the validator because it collides with the
// implicit primary-name column and can be promoted instead of renamed.
var reservedColumns = map[string]bool{
	"name":                 true,
	"createdon":            true,
	"createdby":            true,
	"modifiedon":           true,
	"modifiedby":           true,
	"ownerid":              true,
	"owningbusinessunit":   true,
	"statecode":            true,
	"statuscode":           true,
	"versionnumber":        true,
	"importsequencenumber": true,
	"overriddencreatedon":  true,
}

// IsReservedColumnName reports whether name collides with a column
// Dataverse owns on every table.
func IsReservedColumnName(name string) bool {
	return reservedColumns[strings.ToLower(name)]
}
