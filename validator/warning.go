package validator

import "fmt"

// WarningType identifies a validation rule.
type WarningType string

const (
	MissingPrimaryKey   WarningType = "missing_primary_key"
	MultiplePrimaryKeys WarningType = "multiple_primary_keys"
	MissingForeignKey   WarningType = "missing_foreign_key"
	ForeignKeyNaming    WarningType = "foreign_key_naming"
	NamingConflict      WarningType = "naming_conflict"
	ReservedColumn      WarningType = "reserved_column"
	DuplicateColumns    WarningType = "duplicate_columns"
	ChoiceIssue         WarningType = "choice_issue"
	CompositeKey        WarningType = "composite_key"
	ManyToManyCorrected WarningType = "many_to_many_auto_corrected"
	CDMEntityDetected   WarningType = "cdm_entity_detected"
	UnknownEntity       WarningType = "unknown_entity"
	UnparseableLine     WarningType = "unparseable_line"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Warning is a single validation finding. Its ID is derived from the
// rule type plus the entity/column (or relationship endpoints) it
// concerns, so repeated validation of unchanged text yields identical
// ids and a fixed issue stops producing its id altogether. Callers key
// "already handled" bookkeeping on the ID.
type Warning struct {
	ID           string      `json:"id"`
	Type         WarningType `json:"type"`
	Severity     Severity    `json:"severity"`
	Entity       string      `json:"entity,omitempty"`
	Column       string      `json:"column,omitempty"`
	Relationship string      `json:"relationship,omitempty"` // "From → To"
	Message      string      `json:"message"`
	Suggestion   string      `json:"suggestion,omitempty"`
	AutoFixable  bool        `json:"autoFixable"`
	AutoFixed    bool        `json:"autoFixed"`

	// Fix carries everything the corrector needs to rewrite the text.
	// Nothing else reads it.
	Fix *FixData `json:"-"`
}

// FixData is the corrector's payload. Field use depends on the warning
// type; unused fields stay zero.
type FixData struct {
	Entity  string // entity whose block is rewritten
	Column  string // offending attribute, when column-scoped
	NewName string // rename target for naming fixes
	Keep    string // attribute that keeps PK for multiple_primary_keys
	From    string // relationship endpoints for FK and junction fixes
	To      string
	Label   string
	Line    int // offending relationship or unparsed line
}

func entityID(t WarningType, entity string) string {
	return fmt.Sprintf("%s:%s", t, entity)
}

func columnID(t WarningType, entity, column string) string {
	return fmt.Sprintf("%s:%s:%s", t, entity, column)
}

func relationshipID(t WarningType, from, to string) string {
	return fmt.Sprintf("%s:%s:%s", t, from, to)
}

func relationshipLabel(from, to string) string {
	return fmt.Sprintf("%s → %s", from, to)
}

// ValidationResult wraps the warning list for JSON output. Valid means
// no error-severity findings; warnings and infos alone do not block a
// deployment.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Warnings []Warning `json:"warnings"`
}

// NewResult builds a ValidationResult from a warning list.
func NewResult(warnings []Warning) *ValidationResult {
	result := &ValidationResult{Valid: true, Warnings: warnings}
	if warnings == nil {
		result.Warnings = []Warning{}
	}
	for _, w := range warnings {
		if w.Severity == SeverityError {
			result.Valid = false
		}
	}
	return result
}

// Find returns the warning with the given id, if present.
func Find(warnings []Warning, id string) (Warning, bool) {
	for _, w := range warnings {
		if w.ID == id {
			return w, true
		}
	}
	return Warning{}, false
}

// MarkFixed flags the warnings whose ids appear in resolved.
func MarkFixed(warnings []Warning, resolved []string) []Warning {
	fixed := map[string]bool{}
	for _, id := range resolved {
		fixed[id] = true
	}
	out := make([]Warning, len(warnings))
	for i, w := range warnings {
		w.AutoFixed = w.AutoFixed || fixed[w.ID]
		out[i] = w
	}
	return out
}
