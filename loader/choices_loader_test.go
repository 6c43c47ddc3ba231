package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mermdv/schema"
)

func TestParseGlobalChoicesWrapper(t *testing.T) {
	data := []byte(`{
		"globalChoices": [
			{
				"name": "order_status",
				"displayName": "Order Status",
				"options": [
					{"label": "Draft", "value": 100000000},
					{"label": "Sent", "value": 100000001}
				]
			}
		]
	}`)

	choices, err := ParseGlobalChoices(data)
	require.NoError(t, err)
	require.Len(t, choices, 1)
	assert.Equal(t, "order_status", choices[0].Name)
	assert.Equal(t, "Order Status", choices[0].DisplayName)
	require.Len(t, choices[0].Options, 2)
	assert.Equal(t, schema.ChoiceOption{Value: 100000001, Label: "Sent"}, choices[0].Options[1])
}

func TestParseGlobalChoicesBareArray(t *testing.T) {
	data := []byte(`[{"name": "priority", "displayName": "Priority", "options": [{"label": "High"}]}]`)

	choices, err := ParseGlobalChoices(data)
	require.NoError(t, err)
	require.Len(t, choices, 1)
	assert.Equal(t, "priority", choices[0].Name)
}

func TestParseGlobalChoicesKeyedObject(t *testing.T) {
	data := []byte(`{
		"priority": {"displayName": "Priority", "options": [{"label": "High"}]},
		"category": {"displayName": "Category", "options": [{"label": "Hardware"}]}
	}`)

	choices, err := ParseGlobalChoices(data)
	require.NoError(t, err)
	require.Len(t, choices, 2)

	// Keyed objects come back sorted by key for determinism.
	assert.Equal(t, "category", choices[0].Name)
	assert.Equal(t, "priority", choices[1].Name)
}

func TestParseGlobalChoicesOptionValues(t *testing.T) {
	data := []byte(`{
		"globalChoices": [{
			"name": "mixed",
			"displayName": "Mixed",
			"options": [
				{"label": "Number", "value": 42},
				{"label": "NumericString", "value": "77"},
				{"label": "Unset"}
			]
		}]
	}`)

	choices, err := ParseGlobalChoices(data)
	require.NoError(t, err)
	opts := choices[0].Options
	require.Len(t, opts, 3)
	assert.Equal(t, 42, opts[0].Value)
	assert.Equal(t, 77, opts[1].Value)
	// Auto-assigned values start at the Dataverse base plus position.
	assert.Equal(t, 100000002, opts[2].Value)
}

func TestParseGlobalChoicesInvalid(t *testing.T) {
	_, err := ParseGlobalChoices([]byte(`not json`))
	assert.Error(t, err)
}
