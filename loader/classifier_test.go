package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	text := `erDiagram
    %% customer master data
    Customer {
        string customer_id PK
        totally not an attribute
    }

    Customer ||--o{ Order : places
    stray top-level text`

	lines := Classify(text)
	require.Len(t, lines, 9)

	assert.Equal(t, KindDiagramStart, lines[0].Kind)
	assert.Equal(t, KindComment, lines[1].Kind)

	assert.Equal(t, KindEntityOpen, lines[2].Kind)
	assert.Equal(t, "Customer", lines[2].Entity)

	assert.Equal(t, KindAttribute, lines[3].Kind)
	assert.Equal(t, "Customer", lines[3].Entity)
	assert.Equal(t, "        string customer_id PK", lines[3].Raw)

	assert.Equal(t, KindUnparsed, lines[4].Kind)
	assert.Equal(t, "Customer", lines[4].Entity)

	assert.Equal(t, KindEntityClose, lines[5].Kind)
	assert.Equal(t, "Customer", lines[5].Entity)

	assert.Equal(t, KindBlank, lines[6].Kind)
	assert.Equal(t, KindRelationship, lines[7].Kind)
	assert.Equal(t, KindComment, lines[8].Kind)
}

func TestClassifyInlineEntity(t *testing.T) {
	lines := Classify("erDiagram\nCustomer { string id }")
	require.Len(t, lines, 4)

	open, attr, closing := lines[1], lines[2], lines[3]
	assert.Equal(t, KindEntityOpen, open.Kind)
	assert.Equal(t, KindAttribute, attr.Kind)
	assert.Equal(t, KindEntityClose, closing.Kind)

	// All three logical lines share the single physical line.
	assert.Equal(t, 2, open.Number)
	assert.Equal(t, 2, attr.Number)
	assert.Equal(t, 2, closing.Number)
	assert.Equal(t, "Customer", attr.Entity)
	assert.Equal(t, "string id", attr.Text)
}

func TestClassifyEmptyInlineEntity(t *testing.T) {
	lines := Classify("Customer { }")
	require.Len(t, lines, 2)
	assert.Equal(t, KindEntityOpen, lines[0].Kind)
	assert.Equal(t, KindEntityClose, lines[1].Kind)
}

func TestClassifyRelationshipBeforeAttributeGrammar(t *testing.T) {
	// Outside an entity body a cardinality token wins even though the
	// line would not match the attribute grammar anyway.
	lines := Classify("Customer ||--o{ Order : places")
	require.Len(t, lines, 1)
	assert.Equal(t, KindRelationship, lines[0].Kind)

	// Inside a body the same text is just an unparseable line.
	lines = Classify("Customer {\nOrder ||--o{ Line : x\n}")
	require.Len(t, lines, 3)
	assert.Equal(t, KindUnparsed, lines[1].Kind)
}

func TestClassifyCardinalityVariants(t *testing.T) {
	variants := []string{
		"A ||--o{ B",
		"A |o..o| B",
		"A }o--|| B",
		"A }|..|{ B",
	}
	for _, v := range variants {
		lines := Classify(v)
		require.Len(t, lines, 1, v)
		assert.Equal(t, KindRelationship, lines[0].Kind, v)
	}
}

func TestClassifyIsStateless(t *testing.T) {
	text := "Customer {\nstring id PK\n}"
	first := Classify(text)
	second := Classify(text)
	assert.Equal(t, first, second)
}
