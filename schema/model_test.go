package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsJunction(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   bool
	}{
		{
			name: "two plain foreign keys",
			entity: Entity{Attributes: []Attribute{
				{Name: "student_id", ForeignKey: true},
				{Name: "course_id", ForeignKey: true},
			}},
			want: true,
		},
		{
			name: "composite PK+FK pair",
			entity: Entity{Attributes: []Attribute{
				{Name: "student_id", PrimaryKey: true, ForeignKey: true},
				{Name: "course_id", PrimaryKey: true, ForeignKey: true},
			}},
			want: true,
		},
		{
			name: "own primary key disqualifies",
			entity: Entity{Attributes: []Attribute{
				{Name: "id", PrimaryKey: true},
				{Name: "student_id", ForeignKey: true},
				{Name: "course_id", ForeignKey: true},
			}},
			want: false,
		},
		{
			name: "single foreign key is not enough",
			entity: Entity{Attributes: []Attribute{
				{Name: "customer_id", ForeignKey: true},
			}},
			want: false,
		},
		{
			name:   "no attributes",
			entity: Entity{},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entity.IsJunction())
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	valid := []string{"Customer", "order_line", "_private", "a1", "X"}
	for _, s := range valid {
		assert.True(t, ValidIdentifier(s), s)
	}

	invalid := []string{"", "1abc", "order-line", "with space", "naïve"}
	for _, s := range invalid {
		assert.False(t, ValidIdentifier(s), s)
	}
}

func TestIsCDMEntityName(t *testing.T) {
	assert.True(t, IsCDMEntityName("Account"))
	assert.True(t, IsCDMEntityName("contact"))
	assert.True(t, IsCDMEntityName("SystemUser"))
	assert.False(t, IsCDMEntityName("Customer"))
	assert.False(t, IsCDMEntityName(""))
}

func TestIsReservedColumnName(t *testing.T) {
	assert.True(t, IsReservedColumnName("createdon"))
	assert.True(t, IsReservedColumnName("CreatedOn"))
	assert.True(t, IsReservedColumnName("statecode"))
	assert.False(t, IsReservedColumnName("customer_id"))
}

func TestLookupTarget(t *testing.T) {
	a := Attribute{Type: TypeLookup, TypeArgs: []string{"Account"}}
	assert.Equal(t, "Account", a.LookupTarget())

	assert.Empty(t, Attribute{Type: TypeLookup}.LookupTarget())
	assert.Empty(t, Attribute{Type: TypeString, TypeArgs: []string{"x"}}.LookupTarget())
}

func TestEntityHelpers(t *testing.T) {
	e := Entity{Attributes: []Attribute{
		{Name: "id", PrimaryKey: true},
		{Name: "customer_id", ForeignKey: true},
		{Name: "total"},
	}}

	assert.Len(t, e.PrimaryKeys(), 1)
	assert.Len(t, e.ForeignKeys(), 1)

	a, ok := e.Attribute("total")
	assert.True(t, ok)
	assert.Equal(t, "total", a.Name)

	_, ok = e.Attribute("missing")
	assert.False(t, ok)
}
