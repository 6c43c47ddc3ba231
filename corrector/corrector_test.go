package corrector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mermdv/loader"
	"mermdv/validator"
)

func warningsFor(text string) []validator.Warning {
	return validator.Validate(loader.ParseDiagram(text))
}

func TestFixMissingPrimaryKey(t *testing.T) {
	text := `erDiagram
    Customer {
        string full_name
    }
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"missing_primary_key:Customer"}, result.Resolved)
	assert.Equal(t, `erDiagram
    Customer {
        string customer_id PK
        string full_name
    }
`, result.Text)
}

func TestFixMissingForeignKey(t *testing.T) {
	text := `erDiagram
    Customer {
        string customer_id PK
    }
    Order {
        string order_id PK
    }
    Customer ||--o{ Order : places
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"missing_foreign_key:Customer:Order"}, result.Resolved)
	assert.Equal(t, `erDiagram
    Customer {
        string customer_id PK
    }
    Order {
        string order_id PK
        string customer_id FK
    }
    Customer ||--o{ Order : places
`, result.Text)

	assert.Empty(t, warningsFor(result.Text))
}

func TestFixForeignKeyNaming(t *testing.T) {
	text := `erDiagram
    Customer {
        string customer_id PK
    }
    Order {
        string order_id PK
        string the_customer_ref FK "legacy name"
    }
    Customer ||--o{ Order : places
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"foreign_key_naming:Order:the_customer_ref"}, result.Resolved)
	assert.Contains(t, result.Text, `        string customer_id FK "legacy name"`)
	assert.NotContains(t, result.Text, "the_customer_ref")
}

func TestFixRenameReservedColumn(t *testing.T) {
	text := `erDiagram
    Ticket {
        string ticket_id PK
        datetime createdon
    }
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"reserved_column:Ticket:createdon"}, result.Resolved)
	assert.Contains(t, result.Text, "        datetime ticket_createdon")
}

func TestFixNamingConflictRenames(t *testing.T) {
	text := `erDiagram
    Product {
        string product_id PK
        string name
    }
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"naming_conflict:Product:name"}, result.Resolved)
	assert.Contains(t, result.Text, "        string product_name")
}

func TestFixNamingConflictPromotes(t *testing.T) {
	text := `erDiagram
    Product {
        string name
    }
`
	// Applied alone, the conflict fix promotes the column to PK.
	result := FixOne(text, "naming_conflict:Product:name", warningsFor(text))
	require.Equal(t, []string{"naming_conflict:Product:name"}, result.Resolved)
	assert.Contains(t, result.Text, "        string name PK")
	assert.Empty(t, warningsFor(result.Text))
}

func TestFixMultiplePrimaryKeys(t *testing.T) {
	text := `erDiagram
    Order {
        string order_id PK
        string order_number PK
        string legacy_id PK
    }
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"multiple_primary_keys:Order"}, result.Resolved)
	assert.Contains(t, result.Text, "        string order_id PK\n")
	assert.Contains(t, result.Text, "        string order_number\n")
	assert.Contains(t, result.Text, "        string legacy_id\n")
	assert.Empty(t, warningsFor(result.Text))
}

func TestFixCompositeKey(t *testing.T) {
	text := `erDiagram
    Order {
        string order_id PK FK
        string total
    }
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"composite_key:Order:order_id"}, result.Resolved)
	assert.Contains(t, result.Text, "        string order_id PK\n")
	assert.NotContains(t, result.Text, "FK")
}

func TestFixDuplicateColumns(t *testing.T) {
	text := `erDiagram
    Customer {
        string customer_id PK
        string email "kept"
        string email
    }
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"duplicate_columns:Customer:email"}, result.Resolved)
	assert.Equal(t, `erDiagram
    Customer {
        string customer_id PK
        string email "kept"
    }
`, result.Text)
}

func TestFixDuplicateColumnsInlineEntity(t *testing.T) {
	text := `erDiagram
    Customer { string customer_id PK }
    Customer {
        string customer_id
        string email
    }
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"duplicate_columns:Customer:customer_id"}, result.Resolved)
	assert.Equal(t, `erDiagram
    Customer { string customer_id PK }
    Customer {
        string email
    }
`, result.Text)
}

func TestFixManyToMany(t *testing.T) {
	text := `erDiagram
    Student {
        string student_id PK
    }
    Course {
        string course_id PK
    }
    Student }o--o{ Course : enrolls
`
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"many_to_many_auto_corrected:Student:Course"}, result.Resolved)
	assert.Equal(t, `erDiagram
    Student {
        string student_id PK
    }
    Course {
        string course_id PK
    }
    Student ||--o{ StudentCourse : enrolls
    Course ||--o{ StudentCourse : enrolls
    StudentCourse {
        string student_id PK FK
        string course_id PK FK
    }
`, result.Text)

	// The synthesized junction must survive re-validation untouched.
	assert.Empty(t, warningsFor(result.Text))
}

func TestFixInlineEntityExpands(t *testing.T) {
	text := "erDiagram\nCustomer { string full_name }\n"
	result := FixAll(text, warningsFor(text))
	require.Equal(t, []string{"missing_primary_key:Customer"}, result.Resolved)
	assert.Equal(t, `erDiagram
Customer {
    string customer_id PK
    string full_name
}
`, result.Text)
}

func TestFixingIsIdempotent(t *testing.T) {
	text := `erDiagram
    Customer {
        string full_name
        datetime createdon
    }
    Order {
        string order_id PK
    }
    Customer ||--o{ Order : places
    Student }o--o{ Course : enrolls
    Student {
        string student_id PK
    }
    Course {
        string course_id PK
    }
`
	first := FixAll(text, warningsFor(text))
	require.NotEmpty(t, first.Resolved)

	second := FixAll(first.Text, warningsFor(first.Text))
	assert.Empty(t, second.Resolved)
	assert.Equal(t, first.Text, second.Text)
}

func TestFixesPreserveUnrelatedText(t *testing.T) {
	text := `erDiagram
    %% hand-written comment

    Customer {
        string full_name
    }
`
	result := FixAll(text, warningsFor(text))
	assert.Contains(t, result.Text, "%% hand-written comment\n")
	assert.Contains(t, result.Text, "comment\n\n    Customer")
}

func TestFixOneUnknownID(t *testing.T) {
	text := "erDiagram\n    Customer {\n        string full_name\n    }\n"
	warnings := warningsFor(text)

	result := FixOne(text, "no_such:warning", warnings)
	assert.Equal(t, text, result.Text)
	assert.Empty(t, result.Resolved)
}

func TestStaleFixIsSilentNoOp(t *testing.T) {
	text := `erDiagram
    Customer {
        string full_name
    }
`
	warnings := warningsFor(text)
	fixed := FixOne(text, "missing_primary_key:Customer", warnings)
	require.NotEmpty(t, fixed.Resolved)

	// Applying the same stale warning against the corrected text does
	// nothing: the offending pattern is already gone.
	again := FixOne(fixed.Text, "missing_primary_key:Customer", warnings)
	assert.Equal(t, fixed.Text, again.Text)
	assert.Empty(t, again.Resolved)
}

func TestFixOrderIndependence(t *testing.T) {
	text := `erDiagram
    Alpha {
        string a_name
    }
    Beta {
        string b_name
    }
`
	warnings := warningsFor(text)
	require.Len(t, warnings, 2)

	// Apply the later entity's fix first; the earlier one still lands
	// because each application re-parses the current text.
	step1 := FixOne(text, "missing_primary_key:Beta", warnings)
	step2 := FixOne(step1.Text, "missing_primary_key:Alpha", warnings)

	forward := FixAll(text, warnings)
	assert.Equal(t, forward.Text, step2.Text)
}
