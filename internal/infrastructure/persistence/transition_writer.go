package persistence

import (
	"context"
	"sort"

	"github.com/lotledger/backend/internal/domain/fulfillment"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
	"go.uber.org/zap"
)

// RowTransitionWriter implements fulfillment.TransitionWriter. Every field of
// a transition lands in one UpdateCells call.
type RowTransitionWriter struct {
	store  rowstore.Store
	schema rowstore.Schema
	logger *zap.Logger
}

// NewRowTransitionWriter creates a new RowTransitionWriter
func NewRowTransitionWriter(store rowstore.Store, schema rowstore.Schema, logger *zap.Logger) *RowTransitionWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RowTransitionWriter{store: store, schema: schema, logger: logger}
}

// Apply writes the transition. Optional fields the table has no column for
// are skipped with a warning; a missing required column fails column resolution.
func (w *RowTransitionWriter) Apply(ctx context.Context, t fulfillment.Transition) error {
	if t.IsEmpty() {
		return nil
	}
	rt, err := newRowTable(w.store, w.schema, t.Table)
	if err != nil {
		return err
	}
	_, cm, err := rt.read(ctx)
	if err != nil {
		return err
	}

	fields := make(map[string]string, len(t.Fields))
	for _, f := range t.Fields {
		fields[f.Field] = f.Value
	}
	updates, missing := cm.Updates(fields)
	if len(missing) > 0 {
		sort.Strings(missing)
		w.logger.Warn("Transition fields have no column",
			zap.String("table", rt.schema.Name),
			zap.Int("row", t.Row),
			zap.Strings("fields", missing),
		)
	}
	if len(updates) == 0 {
		return nil
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Column < updates[j].Column })

	return w.store.UpdateCells(ctx, rt.schema.Name, t.Row, updates)
}
