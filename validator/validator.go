package validator

import (
	"fmt"
	"strings"

	"mermdv/schema"
)

// Validate runs the full rule battery against a parsed diagram and
// returns every finding. It is a pure function: identical input yields
// an identical warning list, in deterministic order (entity declaration
// order first, rule order within an entity, then relationship findings,
// many-to-many findings and parse notes).
func Validate(d *schema.Diagram) []Warning {
	var warnings []Warning

	for _, entity := range d.Entities {
		warnings = append(warnings, validateEntity(entity)...)
	}

	for _, rel := range d.Relationships {
		warnings = append(warnings, validateRelationship(d, rel)...)
	}

	for _, rel := range d.ManyToMany {
		warnings = append(warnings, manyToManyWarning(rel))
	}

	for _, note := range d.Notes {
		warnings = append(warnings, Warning{
			ID:       fmt.Sprintf("%s:%d", UnparseableLine, note.Line),
			Type:     UnparseableLine,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("Line %d could not be parsed and will be ignored: %q", note.Line, note.Text),
			Fix:      &FixData{Line: note.Line},
		})
	}

	return warnings
}

// validateEntity runs the per-entity rules. CDM entities are exempt
// from primary-key, foreign-key and naming rules because the platform
// owns their schema; structural problems still get reported.
func validateEntity(e schema.Entity) []Warning {
	var warnings []Warning

	if !e.IsCDM {
		warnings = append(warnings, checkPrimaryKeys(e)...)
		warnings = append(warnings, checkCompositeKeys(e)...)
		warnings = append(warnings, checkNamingConflict(e)...)
		warnings = append(warnings, checkReservedColumns(e)...)
	}
	warnings = append(warnings, checkDuplicateColumns(e)...)
	warnings = append(warnings, checkChoiceColumns(e)...)

	if !e.IsCDM && schema.IsCDMEntityName(e.Name) {
		warnings = append(warnings, Warning{
			ID:       entityID(CDMEntityDetected, e.Name),
			Type:     CDMEntityDetected,
			Severity: SeverityInfo,
			Entity:   e.Name,
			Message:  fmt.Sprintf("Entity '%s' matches a well-known Common Data Model entity", e.Name),
			Suggestion: fmt.Sprintf(
				"Select 'use CDM entity' for '%s' to reuse the platform table instead of creating a new one", e.Name),
		})
	}

	return warnings
}

func checkPrimaryKeys(e schema.Entity) []Warning {
	pks := e.PrimaryKeys()

	if len(pks) == 0 {
		// Junction tables carry a composite key made of their foreign
		// keys; they are the one shape allowed to declare no PK.
		if e.IsJunction() {
			return nil
		}
		idName := strings.ToLower(e.Name) + "_id"
		return []Warning{{
			ID:          entityID(MissingPrimaryKey, e.Name),
			Type:        MissingPrimaryKey,
			Severity:    SeverityWarning,
			Entity:      e.Name,
			Message:     fmt.Sprintf("Entity '%s' has no primary key", e.Name),
			Suggestion:  fmt.Sprintf("Add a 'string %s PK' attribute", idName),
			AutoFixable: true,
			Fix:         &FixData{Entity: e.Name, NewName: idName},
		}}
	}

	if len(pks) > 1 && !e.IsJunction() {
		var names []string
		for _, a := range pks {
			names = append(names, a.Name)
		}
		return []Warning{{
			ID:          entityID(MultiplePrimaryKeys, e.Name),
			Type:        MultiplePrimaryKeys,
			Severity:    SeverityWarning,
			Entity:      e.Name,
			Column:      strings.Join(names, ", "),
			Message:     fmt.Sprintf("Entity '%s' declares %d primary keys", e.Name, len(pks)),
			Suggestion:  fmt.Sprintf("Keep '%s' as the primary key and demote the others", pks[0].Name),
			AutoFixable: true,
			Fix:         &FixData{Entity: e.Name, Keep: pks[0].Name},
		}}
	}

	return nil
}

func checkCompositeKeys(e schema.Entity) []Warning {
	if e.IsJunction() {
		return nil
	}
	var warnings []Warning
	for _, a := range e.Attributes {
		if a.PrimaryKey && a.ForeignKey {
			warnings = append(warnings, Warning{
				ID:          columnID(CompositeKey, e.Name, a.Name),
				Type:        CompositeKey,
				Severity:    SeverityWarning,
				Entity:      e.Name,
				Column:      a.Name,
				Message:     fmt.Sprintf("Attribute '%s.%s' is marked both PK and FK outside a junction table", e.Name, a.Name),
				Suggestion:  "Composite PK+FK keys are only valid in junction tables; the FK marker will be dropped",
				AutoFixable: true,
				Fix:         &FixData{Entity: e.Name, Column: a.Name},
			})
		}
	}
	return warnings
}

func checkNamingConflict(e schema.Entity) []Warning {
	attr, ok := e.Attribute("name")
	if !ok || attr.PrimaryKey {
		return nil
	}

	if len(e.PrimaryKeys()) == 0 {
		return []Warning{{
			ID:          columnID(NamingConflict, e.Name, "name"),
			Type:        NamingConflict,
			Severity:    SeverityInfo,
			Entity:      e.Name,
			Column:      "name",
			Message:     fmt.Sprintf("Entity '%s' has a column 'name', which collides with the implicit Dataverse primary-name column", e.Name),
			Suggestion:  "Promote 'name' to the primary key so it becomes the primary-name column",
			AutoFixable: true,
			Fix:         &FixData{Entity: e.Name, Column: "name"},
		}}
	}

	renamed := strings.ToLower(e.Name) + "_name"
	return []Warning{{
		ID:          columnID(NamingConflict, e.Name, "name"),
		Type:        NamingConflict,
		Severity:    SeverityWarning,
		Entity:      e.Name,
		Column:      "name",
		Message:     fmt.Sprintf("Entity '%s' has a column 'name', which collides with the implicit Dataverse primary-name column", e.Name),
		Suggestion:  fmt.Sprintf("Rename the column to '%s'", renamed),
		AutoFixable: true,
		Fix:         &FixData{Entity: e.Name, Column: "name", NewName: renamed},
	}}
}

func checkReservedColumns(e schema.Entity) []Warning {
	var warnings []Warning
	for _, a := range e.Attributes {
		if a.Name == "name" || !schema.IsReservedColumnName(a.Name) {
			continue
		}
		renamed := strings.ToLower(e.Name) + "_" + strings.ToLower(a.Name)
		warnings = append(warnings, Warning{
			ID:          columnID(ReservedColumn, e.Name, a.Name),
			Type:        ReservedColumn,
			Severity:    SeverityWarning,
			Entity:      e.Name,
			Column:      a.Name,
			Message:     fmt.Sprintf("Attribute '%s.%s' collides with a column Dataverse creates on every table", e.Name, a.Name),
			Suggestion:  fmt.Sprintf("Rename the column to '%s'", renamed),
			AutoFixable: true,
			Fix:         &FixData{Entity: e.Name, Column: a.Name, NewName: renamed},
		})
	}
	return warnings
}

func checkDuplicateColumns(e schema.Entity) []Warning {
	seen := map[string]bool{}
	reported := map[string]bool{}
	var warnings []Warning
	for _, a := range e.Attributes {
		if seen[a.Name] && !reported[a.Name] {
			reported[a.Name] = true
			warnings = append(warnings, Warning{
				ID:          columnID(DuplicateColumns, e.Name, a.Name),
				Type:        DuplicateColumns,
				Severity:    SeverityWarning,
				Entity:      e.Name,
				Column:      a.Name,
				Message:     fmt.Sprintf("Attribute '%s' is declared more than once in entity '%s'", a.Name, e.Name),
				Suggestion:  "Remove the duplicate declarations; the first one wins",
				AutoFixable: true,
				Fix:         &FixData{Entity: e.Name, Column: a.Name},
			})
		}
		seen[a.Name] = true
	}
	return warnings
}

func checkChoiceColumns(e schema.Entity) []Warning {
	var warnings []Warning
	for _, a := range e.Attributes {
		if a.Type != schema.TypeChoice && a.Type != schema.TypeCategory {
			continue
		}
		warnings = append(warnings, Warning{
			ID:       columnID(ChoiceIssue, e.Name, a.Name),
			Type:     ChoiceIssue,
			Severity: SeverityWarning,
			Entity:   e.Name,
			Column:   a.Name,
			Message: fmt.Sprintf("Attribute '%s.%s' uses a %s type, which cannot be created from diagram text alone",
				e.Name, a.Name, a.Type),
			Suggestion: "Define the options as a global choice in the choices JSON file and reference it there",
		})
	}
	return warnings
}

// validateRelationship checks the FK conventions a one-to-many or
// one-to-one relationship implies on its to-entity.
func validateRelationship(d *schema.Diagram, rel schema.Relationship) []Warning {
	var warnings []Warning

	for _, name := range []string{rel.FromEntity, rel.ToEntity} {
		if _, ok := d.Entity(name); !ok {
			warnings = append(warnings, Warning{
				ID:           columnID(UnknownEntity, name, rel.FromEntity+"-"+rel.ToEntity),
				Type:         UnknownEntity,
				Severity:     SeverityError,
				Entity:       name,
				Relationship: relationshipLabel(rel.FromEntity, rel.ToEntity),
				Message:      fmt.Sprintf("Relationship references entity '%s', which is not declared in the diagram", name),
				Suggestion:   fmt.Sprintf("Declare '%s { ... }' or remove the relationship", name),
			})
		}
	}
	if len(warnings) > 0 {
		return warnings
	}

	to, _ := d.Entity(rel.ToEntity)
	if to.IsCDM {
		return nil
	}

	expected := strings.ToLower(rel.FromEntity) + "_id"
	fk, found := foreignKeyFor(to, rel.FromEntity)

	if !found {
		return []Warning{{
			ID:           relationshipID(MissingForeignKey, rel.FromEntity, rel.ToEntity),
			Type:         MissingForeignKey,
			Severity:     SeverityWarning,
			Entity:       rel.ToEntity,
			Relationship: relationshipLabel(rel.FromEntity, rel.ToEntity),
			Message: fmt.Sprintf("Entity '%s' has no foreign key for its relationship with '%s'",
				rel.ToEntity, rel.FromEntity),
			Suggestion:  fmt.Sprintf("Add a 'string %s FK' attribute to '%s'", expected, rel.ToEntity),
			AutoFixable: true,
			Fix:         &FixData{Entity: rel.ToEntity, From: rel.FromEntity, NewName: expected},
		}}
	}

	if fk.Name != expected {
		return []Warning{{
			ID:           columnID(ForeignKeyNaming, rel.ToEntity, fk.Name),
			Type:         ForeignKeyNaming,
			Severity:     SeverityInfo,
			Entity:       rel.ToEntity,
			Column:       fk.Name,
			Relationship: relationshipLabel(rel.FromEntity, rel.ToEntity),
			Message: fmt.Sprintf("Foreign key '%s.%s' does not follow the '%s' naming convention",
				rel.ToEntity, fk.Name, expected),
			Suggestion:  fmt.Sprintf("Rename the column to '%s'", expected),
			AutoFixable: true,
			Fix:         &FixData{Entity: rel.ToEntity, Column: fk.Name, NewName: expected},
		}}
	}

	return nil
}

// foreignKeyFor finds an attribute that plausibly represents `from` as
// a foreign key: it carries FK and its name contains the lowercased
// entity name.
func foreignKeyFor(e schema.Entity, from string) (schema.Attribute, bool) {
	needle := strings.ToLower(from)
	for _, a := range e.Attributes {
		if a.ForeignKey && strings.Contains(strings.ToLower(a.Name), needle) {
			return a, true
		}
	}
	return schema.Attribute{}, false
}

func manyToManyWarning(rel schema.Relationship) Warning {
	junction := rel.FromEntity + rel.ToEntity
	return Warning{
		ID:           relationshipID(ManyToManyCorrected, rel.FromEntity, rel.ToEntity),
		Type:         ManyToManyCorrected,
		Severity:     SeverityWarning,
		Relationship: relationshipLabel(rel.FromEntity, rel.ToEntity),
		Message: fmt.Sprintf("Many-to-many relationship between '%s' and '%s' is not supported directly",
			rel.FromEntity, rel.ToEntity),
		Suggestion: fmt.Sprintf("Rewrite it as two one-to-many relationships through a '%s' junction entity", junction),
		AutoFixable: true,
		Fix: &FixData{
			Entity: junction,
			From:   rel.FromEntity,
			To:     rel.ToEntity,
			Label:  rel.Label,
			Line:   rel.Line,
		},
	}
}
