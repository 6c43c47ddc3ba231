package diff

import (
	"strings"

	"mermdv/generator"
	"mermdv/introspect"
)

type OperationType string

const (
	CreateGlobalChoice OperationType = "CREATE_GLOBAL_CHOICE"
	CreateEntity       OperationType = "CREATE_ENTITY"
	CreateRelationship OperationType = "CREATE_RELATIONSHIP"
)

// Operation is one pending metadata creation. Exactly one payload field
// is set, matching Type.
type Operation struct {
	Type         OperationType
	Entity       *generator.EntityMetadata
	Relationship *generator.OneToManyRelationshipMetadata
	Choice       *generator.OptionSetMetadata
}

// Target names what the operation creates, for logs and history rows.
func (op Operation) Target() string {
	switch op.Type {
	case CreateGlobalChoice:
		return op.Choice.Name
	case CreateEntity:
		return op.Entity.SchemaName
	case CreateRelationship:
		return op.Relationship.SchemaName
	}
	return ""
}

// DiffArtifacts compares generated artifacts against the environment
// state and returns the operations still needed, in dependency order:
// global choices, then entities, then relationships (relationships
// reference entity metadata on both ends).
//
// A relationship is skipped only when both of its endpoints already
// existed before this deployment; relationships between freshly created
// entities always deploy.
func DiffArtifacts(artifacts *generator.Artifacts, existing *introspect.ExistingSchema) []Operation {
	var ops []Operation

	for i := range artifacts.GlobalChoices {
		choice := &artifacts.GlobalChoices[i]
		if existing.HasGlobalChoice(choice.Name) {
			continue
		}
		ops = append(ops, Operation{Type: CreateGlobalChoice, Choice: choice})
	}

	created := map[string]bool{}
	for i := range artifacts.Entities {
		entity := &artifacts.Entities[i]
		if existing.HasEntity(entity.SchemaName) {
			continue
		}
		created[strings.ToLower(entity.SchemaName)] = true
		ops = append(ops, Operation{Type: CreateEntity, Entity: entity})
	}

	for i := range artifacts.Relationships {
		rel := &artifacts.Relationships[i]
		fresh := created[strings.ToLower(rel.ReferencedEntity)] || created[strings.ToLower(rel.ReferencingEntity)]
		if !fresh && existing.HasEntity(rel.ReferencedEntity) && existing.HasEntity(rel.ReferencingEntity) {
			// Both ends pre-date this run; assume the relationship does too.
			continue
		}
		ops = append(ops, Operation{Type: CreateRelationship, Relationship: rel})
	}

	return ops
}
