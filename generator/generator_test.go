package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mermdv/loader"
	"mermdv/schema"
)

func TestLogicalName(t *testing.T) {
	g := New("CTO", nil)
	assert.Equal(t, "cto_customer", g.LogicalName("Customer"))
	assert.Equal(t, "cto_order_line", g.LogicalName("Order_Line"))

	// CDM names are platform-owned and never get the prefix.
	assert.Equal(t, "account", g.LogicalName("Account"))
}

func TestEntityDefinition(t *testing.T) {
	g := New("cto", nil)
	e := schema.Entity{
		Name: "Customer",
		Attributes: []schema.Attribute{
			{Name: "customer_id", Type: schema.TypeString, PrimaryKey: true, Description: "Customer number"},
			{Name: "age", Type: schema.TypeInt},
			{Name: "balance", Type: schema.TypeDecimal},
			{Name: "created", Type: schema.TypeDateTime},
			{Name: "birthday", Type: schema.TypeDate},
			{Name: "active", Type: schema.TypeBool},
			{Name: "region_id", Type: schema.TypeString, ForeignKey: true},
			{Name: "status", Type: schema.TypeChoice},
			{Name: "owner_ref", Type: schema.TypeLookup, TypeArgs: []string{"Account"}},
		},
	}

	meta, err := g.EntityDefinition(e)
	require.NoError(t, err)
	assert.Equal(t, "cto_customer", meta.SchemaName)
	assert.Equal(t, "UserOwned", meta.OwnershipType)

	// FK, lookup and choice columns never become plain attributes.
	require.Len(t, meta.Attributes, 6)

	pk := meta.Attributes[0]
	assert.Equal(t, "Microsoft.Dynamics.CRM.StringAttributeMetadata", pk.ODataType)
	assert.True(t, pk.IsPrimaryName)
	assert.Equal(t, "ApplicationRequired", pk.RequiredLevel.Value)
	require.NotNil(t, pk.Description)

	assert.Equal(t, "Microsoft.Dynamics.CRM.IntegerAttributeMetadata", meta.Attributes[1].ODataType)
	assert.Equal(t, 2, meta.Attributes[2].Precision)
	assert.Equal(t, "DateAndTime", meta.Attributes[3].Format)
	assert.Equal(t, "DateOnly", meta.Attributes[4].Format)

	boolAttr := meta.Attributes[5]
	require.NotNil(t, boolAttr.OptionSet)
	assert.Equal(t, "Boolean", boolAttr.OptionSet.OptionSetType)
	require.NotNil(t, boolAttr.OptionSet.TrueOption)
	assert.Equal(t, 1, boolAttr.OptionSet.TrueOption.Value)
}

func TestEntityDefinitionSynthesizesPrimaryName(t *testing.T) {
	g := New("cto", nil)
	e := schema.Entity{
		Name: "Counter",
		Attributes: []schema.Attribute{
			{Name: "value", Type: schema.TypeInt, PrimaryKey: true},
		},
	}

	meta, err := g.EntityDefinition(e)
	require.NoError(t, err)
	require.Len(t, meta.Attributes, 2)

	synth := meta.Attributes[0]
	assert.Equal(t, "cto_counter_name", synth.SchemaName)
	assert.True(t, synth.IsPrimaryName)
	assert.Equal(t, "Microsoft.Dynamics.CRM.StringAttributeMetadata", synth.ODataType)
}

func TestEntityDefinitionRejectsInvalidIdentifier(t *testing.T) {
	g := New("cto", nil)
	_, err := g.EntityDefinition(schema.Entity{Name: "bad-name"})
	assert.Error(t, err)

	_, err = g.EntityDefinition(schema.Entity{
		Name:       "Fine",
		Attributes: []schema.Attribute{{Name: "1bad", Type: schema.TypeString}},
	})
	assert.Error(t, err)
}

func TestRelationshipDefinition(t *testing.T) {
	g := New("cto", nil)
	rel := g.RelationshipDefinition(schema.Relationship{
		FromEntity:  "Customer",
		ToEntity:    "Order",
		Cardinality: schema.OneToMany,
	})

	assert.Equal(t, "cto_customer_order", rel.SchemaName)
	assert.Equal(t, "cto_customer", rel.ReferencedEntity)
	assert.Equal(t, "cto_order", rel.ReferencingEntity)
	assert.Equal(t, "cto_customer_id", rel.Lookup.SchemaName)
}

func TestGenerate(t *testing.T) {
	text := `erDiagram
    Account {
        string account_number
    }
    Customer {
        string customer_id PK
        lookup(Account) account_ref
    }
    Order {
        string order_id PK
        string customer_id FK
    }
    Customer ||--o{ Order : places
`
	d := loader.ParseDiagram(text)
	loader.MarkCDMEntities(d, []string{"Account"})

	choices := []schema.GlobalChoice{{
		Name:        "order_status",
		DisplayName: "Order Status",
		Options:     []schema.ChoiceOption{{Value: 100000000, Label: "Draft"}},
	}}

	artifacts, err := New("cto", choices).Generate(d)
	require.NoError(t, err)

	// CDM entities are referenced, never generated.
	require.Len(t, artifacts.Entities, 2)
	assert.Equal(t, "cto_customer", artifacts.Entities[0].SchemaName)
	assert.Equal(t, "cto_order", artifacts.Entities[1].SchemaName)

	// One relationship from the diagram, one from the lookup column.
	require.Len(t, artifacts.Relationships, 2)
	assert.Equal(t, "cto_account_customer", artifacts.Relationships[0].SchemaName)
	assert.Equal(t, "account", artifacts.Relationships[0].ReferencedEntity)
	assert.Equal(t, "cto_customer_order", artifacts.Relationships[1].SchemaName)

	require.Len(t, artifacts.GlobalChoices, 1)
	gc := artifacts.GlobalChoices[0]
	assert.Equal(t, "cto_order_status", gc.Name)
	assert.True(t, gc.IsGlobal)
	assert.Equal(t, "Picklist", gc.OptionSetType)
}

func TestGenerateIsDeterministic(t *testing.T) {
	text := `erDiagram
    Customer {
        string customer_id PK
    }
    Order {
        string order_id PK
        string customer_id FK
    }
    Customer ||--o{ Order : places
`
	d := loader.ParseDiagram(text)
	g := New("cto", nil)

	first, err := g.Generate(d)
	require.NoError(t, err)
	second, err := g.Generate(d)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPublisherAndSolutionDefinitions(t *testing.T) {
	g := New("cto", nil)

	p := g.PublisherDefinition("ctopublisher", "Contoso Publisher")
	assert.Equal(t, "cto", p.CustomizationPrefix)
	assert.Equal(t, 10000, p.CustomizationOptionValuePrefix)

	s := g.SolutionDefinition("ctosolution", "Contoso Solution", "/publishers(abc)")
	assert.Equal(t, "1.0.0.0", s.Version)
	assert.Equal(t, "/publishers(abc)", s.PublisherRef)
}
