// Package deployer pushes diffed operations into a Dataverse
// environment in dependency order and records the outcome in the
// deployment history store.
package deployer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mermdv/dataverse"
	"mermdv/diff"
	"mermdv/generator"
	"mermdv/history"
)

type Deployer struct {
	client dataverse.Client
	store  *history.Store // nil disables history tracking
	logger *zap.Logger
}

type Option func(*Deployer)

// WithHistory enables run recording in the history database.
func WithHistory(store *history.Store) Option {
	return func(d *Deployer) { d.store = store }
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Deployer) { d.logger = logger }
}

func New(client dataverse.Client, opts ...Option) *Deployer {
	d := &Deployer{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Options names the publisher and solution a deployment targets.
type Options struct {
	PublisherUniqueName   string
	PublisherFriendlyName string
	SolutionUniqueName    string
	SolutionFriendlyName  string
	DiagramFile           string
	Environment           string
}

// Summary reports what one deployment created.
type Summary struct {
	RunID         string
	GlobalChoices int
	Entities      int
	Attributes    int
	Relationships int
}

// Deploy ensures the publisher and solution exist, then executes the
// operations in order, stopping at the first failure. Entities deploy
// as a create carrying only the primary-name column followed by one
// attribute create per remaining column; that keeps each Web API call
// small enough to attribute failures to a single column.
func (d *Deployer) Deploy(ctx context.Context, gen *generator.Generator, ops []diff.Operation, opts Options) (*Summary, error) {
	if err := d.ensurePublisherAndSolution(ctx, gen, opts); err != nil {
		return nil, err
	}

	summary := &Summary{}
	if d.store != nil {
		runID, err := d.store.StartRun(ctx, opts.DiagramFile, opts.SolutionUniqueName, opts.Environment)
		if err != nil {
			return nil, err
		}
		summary.RunID = runID
	}

	for _, op := range ops {
		if err := d.execute(ctx, op, opts.SolutionUniqueName, summary); err != nil {
			d.record(ctx, summary.RunID, op, "failed", err.Error())
			d.finish(ctx, summary.RunID, "failed", err.Error())
			return summary, err
		}
		d.record(ctx, summary.RunID, op, "success", "")
	}

	d.finish(ctx, summary.RunID, "success", "")
	return summary, nil
}

func (d *Deployer) ensurePublisherAndSolution(ctx context.Context, gen *generator.Generator, opts Options) error {
	publisherID, found, err := d.client.FindPublisher(ctx, opts.PublisherUniqueName)
	if err != nil {
		return fmt.Errorf("looking up publisher: %w", err)
	}
	if !found {
		d.logger.Info("creating publisher", zap.String("publisher", opts.PublisherUniqueName))
		publisherID, err = d.client.CreatePublisher(ctx,
			gen.PublisherDefinition(opts.PublisherUniqueName, opts.PublisherFriendlyName))
		if err != nil {
			return err
		}
	}

	_, found, err = d.client.FindSolution(ctx, opts.SolutionUniqueName)
	if err != nil {
		return fmt.Errorf("looking up solution: %w", err)
	}
	if !found {
		d.logger.Info("creating solution",
			zap.String("solution", opts.SolutionUniqueName),
			zap.String("publisher", opts.PublisherUniqueName))
		ref := fmt.Sprintf("/publishers(%s)", publisherID)
		if _, err := d.client.CreateSolution(ctx,
			gen.SolutionDefinition(opts.SolutionUniqueName, opts.SolutionFriendlyName, ref)); err != nil {
			return err
		}
	}

	return nil
}

func (d *Deployer) execute(ctx context.Context, op diff.Operation, solution string, summary *Summary) error {
	switch op.Type {
	case diff.CreateGlobalChoice:
		d.logger.Info("creating global choice", zap.String("choice", op.Choice.Name))
		if err := d.client.CreateGlobalChoice(ctx, *op.Choice, solution); err != nil {
			return err
		}
		summary.GlobalChoices++

	case diff.CreateEntity:
		return d.createEntity(ctx, op.Entity, solution, summary)

	case diff.CreateRelationship:
		d.logger.Info("creating relationship", zap.String("relationship", op.Relationship.SchemaName))
		if err := d.client.CreateRelationship(ctx, *op.Relationship, solution); err != nil {
			return err
		}
		summary.Relationships++

	default:
		return fmt.Errorf("unsupported operation: %s", op.Type)
	}
	return nil
}

func (d *Deployer) createEntity(ctx context.Context, entity *generator.EntityMetadata, solution string, summary *Summary) error {
	primaryOnly := *entity
	primaryOnly.Attributes = nil
	var rest []generator.AttributeMetadata
	for _, a := range entity.Attributes {
		if a.IsPrimaryName {
			primaryOnly.Attributes = append(primaryOnly.Attributes, a)
		} else {
			rest = append(rest, a)
		}
	}

	d.logger.Info("creating entity",
		zap.String("entity", entity.SchemaName),
		zap.Int("attributes", len(rest)))
	if err := d.client.CreateEntity(ctx, primaryOnly, solution); err != nil {
		return err
	}
	summary.Entities++

	logicalName := strings.ToLower(entity.SchemaName)
	for _, a := range rest {
		d.logger.Info("creating attribute",
			zap.String("entity", logicalName),
			zap.String("attribute", a.SchemaName))
		if err := d.client.CreateAttribute(ctx, logicalName, a, solution); err != nil {
			return err
		}
		summary.Attributes++
	}

	return nil
}

func (d *Deployer) record(ctx context.Context, runID string, op diff.Operation, status, errorMessage string) {
	if d.store == nil || runID == "" {
		return
	}
	if err := d.store.RecordOperation(ctx, runID, string(op.Type), op.Target(), status, errorMessage); err != nil {
		d.logger.Warn("failed to record operation", zap.Error(err))
	}
}

func (d *Deployer) finish(ctx context.Context, runID, status, errorMessage string) {
	if d.store == nil || runID == "" {
		return
	}
	if err := d.store.FinishRun(ctx, runID, status, errorMessage); err != nil {
		d.logger.Warn("failed to finish deployment run", zap.Error(err))
	}
}
