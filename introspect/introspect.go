package introspect

import (
	"context"
	"fmt"
	"strings"

	"mermdv/dataverse"
)

// ExistingSchema is the already-deployed state of a Dataverse
// environment, reduced to what the diff needs: which logical names are
// taken. Lookups are case-insensitive because Dataverse lowercases
// logical names.
type ExistingSchema struct {
	Entities      map[string]bool
	GlobalChoices map[string]bool
}

// Empty returns a state with nothing deployed, used for first-time
// deployments and dry runs without an environment.
func Empty() *ExistingSchema {
	return &ExistingSchema{
		Entities:      map[string]bool{},
		GlobalChoices: map[string]bool{},
	}
}

func (s *ExistingSchema) HasEntity(logicalName string) bool {
	return s.Entities[strings.ToLower(logicalName)]
}

func (s *ExistingSchema) HasGlobalChoice(name string) bool {
	return s.GlobalChoices[strings.ToLower(name)]
}

// IntrospectEnvironment reads the deployed metadata through the client
// so repeated deploys only create what is missing.
func IntrospectEnvironment(ctx context.Context, client dataverse.Client) (*ExistingSchema, error) {
	state := Empty()

	entities, err := client.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspecting entities: %w", err)
	}
	for _, e := range entities {
		state.Entities[strings.ToLower(e.LogicalName)] = true
	}

	choices, err := client.ListGlobalChoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspecting global choices: %w", err)
	}
	for _, c := range choices {
		state.GlobalChoices[strings.ToLower(c.Name)] = true
	}

	return state, nil
}
