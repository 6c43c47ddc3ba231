package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"mermdv/schema"
)

// Global choice files arrive in three historical shapes:
//
//	{"globalChoices": [ {...}, {...} ]}   current wrapper object
//	[ {...}, {...} ]                      bare array
//	{"priority": {"displayName": ...}}    legacy object keyed by name
//
// Each shape has its own decoder and all of them normalize immediately
// to []schema.GlobalChoice. Option values may be numbers or numeric
// strings; non-numeric values get sequential Dataverse-style values.

type choiceJSON struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Options     []optionJSON `json:"options"`
}

type optionJSON struct {
	Value json.RawMessage `json:"value"`
	Label string          `json:"label"`
}

type wrapperJSON struct {
	GlobalChoices []choiceJSON `json:"globalChoices"`
}

// optionValueBase is where auto-assigned option values start, matching
// the value range Dataverse picks for new option sets.
const optionValueBase = 100000000

// LoadGlobalChoicesFromJSON reads and normalizes a global choice file.
func LoadGlobalChoicesFromJSON(filename string) ([]schema.GlobalChoice, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading global choices file: %w", err)
	}
	return ParseGlobalChoices(data)
}

// ParseGlobalChoices decodes any of the three accepted JSON shapes.
func ParseGlobalChoices(data []byte) ([]schema.GlobalChoice, error) {
	if choices, ok := parseWrapper(data); ok {
		return choices, nil
	}
	if choices, ok := parseArray(data); ok {
		return choices, nil
	}
	if choices, ok := parseKeyed(data); ok {
		return choices, nil
	}
	return nil, fmt.Errorf("unmarshalling global choices: unrecognized JSON shape")
}

func parseWrapper(data []byte) ([]schema.GlobalChoice, bool) {
	var w wrapperJSON
	if err := json.Unmarshal(data, &w); err != nil || w.GlobalChoices == nil {
		return nil, false
	}
	return normalize(w.GlobalChoices), true
}

func parseArray(data []byte) ([]schema.GlobalChoice, bool) {
	var arr []choiceJSON
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, false
	}
	return normalize(arr), true
}

func parseKeyed(data []byte) ([]schema.GlobalChoice, bool) {
	var keyed map[string]choiceJSON
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, false
	}
	names := make([]string, 0, len(keyed))
	for name := range keyed {
		names = append(names, name)
	}
	sort.Strings(names)

	var arr []choiceJSON
	for _, name := range names {
		c := keyed[name]
		c.Name = name
		arr = append(arr, c)
	}
	return normalize(arr), true
}

func normalize(raw []choiceJSON) []schema.GlobalChoice {
	var out []schema.GlobalChoice
	for _, c := range raw {
		choice := schema.GlobalChoice{
			Name:        c.Name,
			DisplayName: c.DisplayName,
		}
		if choice.DisplayName == "" {
			choice.DisplayName = c.Name
		}
		for i, opt := range c.Options {
			choice.Options = append(choice.Options, schema.ChoiceOption{
				Value: optionValue(opt.Value, i),
				Label: opt.Label,
			})
		}
		out = append(out, choice)
	}
	return out
}

func optionValue(raw json.RawMessage, index int) int {
	if len(raw) > 0 {
		var n int
		if err := json.Unmarshal(raw, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if n, err := strconv.Atoi(s); err == nil {
				return n
			}
		}
	}
	return optionValueBase + index
}
