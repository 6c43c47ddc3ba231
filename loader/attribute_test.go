package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mermdv/schema"
)

func TestParseAttribute(t *testing.T) {
	tests := []struct {
		name string
		text string
		want schema.Attribute
	}{
		{
			name: "plain column",
			text: "string full_name",
			want: schema.Attribute{Name: "full_name", Type: schema.TypeString},
		},
		{
			name: "primary key with description",
			text: `string customer_id PK "Customer number"`,
			want: schema.Attribute{Name: "customer_id", Type: schema.TypeString, PrimaryKey: true, Description: "Customer number"},
		},
		{
			name: "composite key markers in either order",
			text: "string order_id FK PK",
			want: schema.Attribute{Name: "order_id", Type: schema.TypeString, PrimaryKey: true, ForeignKey: true},
		},
		{
			name: "lookup with target",
			text: "lookup(Account) account_ref",
			want: schema.Attribute{Name: "account_ref", Type: schema.TypeLookup, TypeArgs: []string{"Account"}},
		},
		{
			name: "choice with option list",
			text: "choice(draft, sent, paid) status",
			want: schema.Attribute{Name: "status", Type: schema.TypeChoice, TypeArgs: []string{"draft", "sent", "paid"}},
		},
		{
			name: "leading whitespace tolerated",
			text: "    int quantity",
			want: schema.Attribute{Name: "quantity", Type: schema.TypeInt},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAttribute(tt.text, 7)
			require.True(t, ok)
			tt.want.Line = 7
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAttributeRejects(t *testing.T) {
	bad := []string{
		"",
		"varchar name",            // unknown type keyword
		"string",                  // missing name
		"string 1name",            // name starts with digit
		"string name PRIMARY",     // unknown constraint keyword
		`string name "unclosed`,   // broken description quoting
		"string name PK trailing", // junk after constraints
	}
	for _, text := range bad {
		_, ok := ParseAttribute(text, 1)
		assert.False(t, ok, text)
	}
}
