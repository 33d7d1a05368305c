package fulfillment

import (
	"context"
	"strings"
	"time"

	"github.com/lotledger/backend/internal/domain/fulfillment"
	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/domain/shared"
	"github.com/lotledger/backend/internal/infrastructure/logger"
	"github.com/lotledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultIdempotencyTTL is how long a client request key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// Movement locations written by fulfillment
const (
	LocationCustomer  = "Customer"
	LocationWarehouse = "Warehouse"
)

// EventPublisher publishes ledger events and the pending events of the
// records a request wrote
type EventPublisher interface {
	shared.EventPublisher
	PublishFrom(ctx context.Context, sources ...shared.EventSource) error
}

// FulfillmentService records dispatches against order lines and warehouse
// deliveries against cutting items. Quantities already fulfilled are always
// read from the movement ledger; status fields are written after the ledger
// and only mirror it.
type FulfillmentService struct {
	lotRepo      inventory.LotRepository
	movementRepo inventory.MovementRepository
	lineRepo     fulfillment.OrderLineRepository
	cuttingRepo  fulfillment.CuttingOrderRepository
	writer       fulfillment.TransitionWriter
	projection   *inventory.BalanceProjection
	dispatches   *fulfillment.DispatchTracker
	deliveries   *fulfillment.WarehouseTracker
	guard        *fulfillment.IntegrityGuard
	locker       shared.KeyedLocker

	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	eventPublisher EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger

	now func() time.Time
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	lotRepo inventory.LotRepository,
	movementRepo inventory.MovementRepository,
	lineRepo fulfillment.OrderLineRepository,
	cuttingRepo fulfillment.CuttingOrderRepository,
	writer fulfillment.TransitionWriter,
	projection *inventory.BalanceProjection,
	locker shared.KeyedLocker,
	logger *zap.Logger,
) *FulfillmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if projection == nil {
		projection = inventory.NewBalanceProjection()
	}
	return &FulfillmentService{
		lotRepo:        lotRepo,
		movementRepo:   movementRepo,
		lineRepo:       lineRepo,
		cuttingRepo:    cuttingRepo,
		writer:         writer,
		projection:     projection,
		dispatches:     fulfillment.NewDispatchTracker(),
		deliveries:     fulfillment.NewWarehouseTracker(),
		guard:          fulfillment.NewIntegrityGuard(),
		locker:         locker,
		idempotencyTTL: DefaultIdempotencyTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// SetIdempotencyStore enables request keys on ledger writes
func (s *FulfillmentService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *FulfillmentService) SetEventPublisher(publisher EventPublisher) {
	s.eventPublisher = publisher
}

// SetLedgerMetrics sets the operation metrics recorder
func (s *FulfillmentService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// Dispatch records stock shipped against an order line. The line must still
// hold the order id the request names, and the dispatched total must not pass
// the requested quantity. Outstanding reservations on the lot are released
// in the same ledger batch.
func (s *FulfillmentService) Dispatch(ctx context.Context, req DispatchRequest) (resp *DispatchResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "dispatch",
		telemetry.SpanAttrOrderKey, req.OrderID,
		telemetry.SpanAttrRow, req.Row,
		telemetry.SpanAttrLotID, req.LotID,
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)
	defer func(start time.Time) {
		s.metrics.Observe(ctx, "dispatch", start, err)
		telemetry.EndSpan(span, err)
	}(time.Now())

	if err := fulfillment.ValidateRow(req.Row); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, shared.NewValidationError("order id is required")
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity must be greater than zero")
	}

	err = shared.RunOnce(ctx, s.idempotency, "dispatch", req.IdempotencyKey, s.idempotencyTTL, func() error {
		var runErr error
		resp, runErr = s.dispatch(ctx, req)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *FulfillmentService) dispatch(ctx context.Context, req DispatchRequest) (*DispatchResponse, error) {
	release, err := s.locker.Acquire(ctx, fulfillment.OrderLineLockKey(req.OrderID, req.Row))
	if err != nil {
		return nil, err
	}
	defer release()

	line, err := s.verifiedLine(ctx, req.OrderID, req.Row)
	if err != nil {
		return nil, err
	}
	ref := line.Ref()

	ledger, err := s.movementRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	already := inventory.FulfilledByRef(ledger, ref, inventory.TypeIs(inventory.MovementTypeDispatch))
	decision, err := s.dispatches.Decide(line, already, req.Quantity)
	if err != nil {
		return nil, err
	}

	lotID := strings.TrimSpace(req.LotID)
	if lotID == "" {
		latest, ok := inventory.LatestByRef(ledger, inventory.TypeIs(inventory.MovementTypeReservation))[ref.Key()]
		if !ok {
			return nil, shared.NewValidationError("lot id is required when the line has no reservation")
		}
		lotID = latest.LotID
	}
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	dispatched, err := inventory.NewMovement(lot.ID, inventory.MovementTypeDispatch, lot.PrimaryMeasure(), req.Quantity)
	if err != nil {
		return nil, err
	}
	dispatched.WithReference(ref).
		WithLocations(lot.Warehouse, LocationCustomer).
		WithActor(req.Actor).
		WithTimestamp(at)
	batch := []inventory.Movement{*dispatched}

	released, err := s.releaseFor(ledger, ref, lot, req.Quantity, req.Actor, at)
	if err != nil {
		return nil, err
	}
	if released != nil {
		batch = append(batch, *released)
	}

	written, err := s.movementRepo.Append(ctx, batch...)
	if err != nil {
		return nil, err
	}
	s.projection.Apply(written...)

	shipment := req.Shipment.toDomain()
	if !shipment.IsZero() {
		_ = line.UpdateShipment(shipment)
	}
	line.ApplyDispatch(decision, lot.ID, at)

	resp := &DispatchResponse{
		ProgressResponse: toProgressResponse(decision.Progress),
		OrderID:          line.OrderID,
		Row:              line.Row,
		Status:           line.Status.String(),
		LotID:            lot.ID,
		MovementID:       written[0].ID,
		Released:         decimal.Zero,
	}
	if released != nil {
		resp.Released = written[1].Quantity.Magnitude()
	}
	if warning := s.applyTransition(ctx, fulfillment.DispatchTransition(line, decision)); warning != "" {
		resp.Warnings = append(resp.Warnings, warning)
	}

	s.log(ctx).Info("dispatch recorded",
		zap.String("reference", ref.String()),
		zap.String("lot_id", lot.ID),
		zap.String("quantity", req.Quantity.String()),
		zap.String("total", decision.Progress.Total.String()),
		zap.String("status", line.Status.String()),
		zap.String("released", resp.Released.String()),
		zap.String("actor", req.Actor),
	)
	s.publishMovements(ctx, written)
	s.publishFrom(ctx, line)
	return resp, nil
}

// DeliverToWarehouse records cut material of a cutting item reaching the
// warehouse. The origin lot is drawn down, the order is closed when its last
// item completes, and a completed item moves its linked order line to
// Warehouse.
func (s *FulfillmentService) DeliverToWarehouse(ctx context.Context, req WarehouseDeliveryRequest) (resp *WarehouseDeliveryResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "deliver_to_warehouse",
		telemetry.SpanAttrOrderKey, req.CuttingOrderID,
		telemetry.SpanAttrRow, req.Row,
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)
	defer func(start time.Time) {
		s.metrics.Observe(ctx, "deliver_to_warehouse", start, err)
		telemetry.EndSpan(span, err)
	}(time.Now())

	if err := fulfillment.ValidateRow(req.Row); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CuttingOrderID) == "" {
		return nil, shared.NewValidationError("cutting order id is required")
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity must be greater than zero")
	}

	err = shared.RunOnce(ctx, s.idempotency, "warehouse_delivery", req.IdempotencyKey, s.idempotencyTTL, func() error {
		var runErr error
		resp, runErr = s.deliverToWarehouse(ctx, req)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *FulfillmentService) deliverToWarehouse(ctx context.Context, req WarehouseDeliveryRequest) (*WarehouseDeliveryResponse, error) {
	release, err := s.locker.Acquire(ctx, fulfillment.CuttingItemLockKey(req.CuttingOrderID, req.Row))
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := s.cuttingRepo.FindItemByRow(ctx, req.Row)
	if err != nil {
		return nil, err
	}
	expected := fulfillment.RowIdentity{Table: fulfillment.TableCuttingItems, Row: req.Row, Key: req.CuttingOrderID}
	if _, err := s.guard.Verify(expected, item.Identity(), fulfillment.GuardStrict); err != nil {
		return nil, err
	}
	ref := item.Ref()

	ledger, err := s.movementRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	already := inventory.FulfilledByRef(ledger, ref, inventory.TypeIs(inventory.MovementTypeCuttingDelivery))
	decision, err := s.deliveries.Decide(item, already, req.Quantity)
	if err != nil {
		return nil, err
	}

	if !inventory.IsValidLotID(item.OriginLotID) {
		return nil, shared.NewInvalidStateError("cutting item has no origin lot")
	}
	lot, err := s.lotRepo.FindByID(ctx, item.OriginLotID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	delivered, err := inventory.NewMovement(lot.ID, inventory.MovementTypeCuttingDelivery, lot.PrimaryMeasure(), req.Quantity)
	if err != nil {
		return nil, err
	}
	delivered.WithReference(ref).
		WithLocations(lot.Warehouse, LocationWarehouse).
		WithActor(req.Actor).
		WithTimestamp(at)
	batch := []inventory.Movement{*delivered}

	released, err := s.releaseFor(ledger, ref, lot, req.Quantity, req.Actor, at)
	if err != nil {
		return nil, err
	}
	if released != nil {
		batch = append(batch, *released)
	}

	written, err := s.movementRepo.Append(ctx, batch...)
	if err != nil {
		return nil, err
	}
	s.projection.Apply(written...)

	item.ApplyDelivery(decision, at)
	resp := &WarehouseDeliveryResponse{
		ProgressResponse: toProgressResponse(decision.Progress),
		CuttingOrderID:   item.CuttingOrderID,
		Row:              item.Row,
		Status:           item.Status.String(),
		MovementID:       written[0].ID,
	}
	if warning := s.applyTransition(ctx, fulfillment.WarehouseTransition(item)); warning != "" {
		resp.Warnings = append(resp.Warnings, warning)
	}

	order, closed, warning := s.rollup(ctx, item, at)
	resp.OrderClosed = closed
	if warning != "" {
		resp.Warnings = append(resp.Warnings, warning)
	}

	var line *fulfillment.OrderLine
	if decision.Progress.Complete {
		line, warning = s.markLinkedLineReady(ctx, item)
		resp.LinkedLineReady = line != nil
		if warning != "" {
			resp.Warnings = append(resp.Warnings, warning)
		}
	}

	s.log(ctx).Info("warehouse delivery recorded",
		zap.String("reference", ref.String()),
		zap.String("lot_id", lot.ID),
		zap.String("quantity", req.Quantity.String()),
		zap.String("total", decision.Progress.Total.String()),
		zap.String("status", item.Status.String()),
		zap.Bool("order_closed", closed),
		zap.String("actor", req.Actor),
	)
	s.publishMovements(ctx, written)
	aggregates := []shared.EventSource{item}
	if order != nil {
		aggregates = append(aggregates, order)
	}
	if line != nil {
		aggregates = append(aggregates, line)
	}
	s.publishFrom(ctx, aggregates...)
	return resp, nil
}

// rollup closes the item's cutting order once every item is in the
// warehouse. The item just written replaces its stored copy, since the
// status write may have failed.
func (s *FulfillmentService) rollup(ctx context.Context, item *fulfillment.CuttingItem, at time.Time) (*fulfillment.CuttingOrder, bool, string) {
	if item.Status != fulfillment.ItemStatusWarehouse {
		return nil, false, ""
	}
	order, err := s.cuttingRepo.FindOrder(ctx, item.CuttingOrderID)
	if err != nil {
		return nil, false, "cutting order not checked for closure: " + err.Error()
	}
	items, err := s.cuttingRepo.FindItems(ctx, order.ID)
	if err != nil {
		return nil, false, "cutting order not checked for closure: " + err.Error()
	}
	for i := range items {
		if items[i].Row == item.Row {
			items[i].Status = item.Status
		}
	}
	if !fulfillment.RollupCuttingOrder(order, items, at) {
		return nil, false, ""
	}
	return order, true, s.applyTransition(ctx, fulfillment.CuttingOrderClosure(order))
}

// markLinkedLineReady moves the order line a completed item produces for to
// Warehouse. A line that no longer holds the linked order is left alone.
func (s *FulfillmentService) markLinkedLineReady(ctx context.Context, item *fulfillment.CuttingItem) (*fulfillment.OrderLine, string) {
	linked, ok := item.LinkedLine()
	if !ok {
		return nil, ""
	}
	release, err := s.locker.Acquire(ctx, fulfillment.OrderLineLockKey(linked.Key, linked.Row))
	if err != nil {
		return nil, "linked order line not updated: " + err.Error()
	}
	defer release()

	line, err := s.lineRepo.FindByRow(ctx, linked.Row)
	if err != nil {
		return nil, "linked order line not updated: " + err.Error()
	}
	if warning, _ := s.guard.Verify(linked, line.Identity(), fulfillment.GuardLenient); warning != "" {
		return nil, "linked order line not updated: " + warning
	}
	if !line.MarkReady() {
		return nil, ""
	}
	if warning := s.applyTransition(ctx, fulfillment.LineReadyTransition(line)); warning != "" {
		return line, warning
	}
	return line, ""
}

// ConfirmDelivery records customer receipt of a dispatched line. It happens
// once; a delivered line cannot be confirmed again.
func (s *FulfillmentService) ConfirmDelivery(ctx context.Context, req ConfirmDeliveryRequest) (resp *OrderLineResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "confirm_delivery",
		telemetry.SpanAttrOrderKey, req.OrderID,
		telemetry.SpanAttrRow, req.Row,
	)
	defer func(start time.Time) {
		s.metrics.Observe(ctx, "confirm_delivery", start, err)
		telemetry.EndSpan(span, err)
	}(time.Now())

	if err := fulfillment.ValidateRow(req.Row); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Date) == "" {
		return nil, shared.NewValidationError("delivery date is required")
	}

	err = shared.RunOnce(ctx, s.idempotency, "confirm_delivery", req.IdempotencyKey, s.idempotencyTTL, func() error {
		release, err := s.locker.Acquire(ctx, fulfillment.OrderLineLockKey(req.OrderID, req.Row))
		if err != nil {
			return err
		}
		defer release()

		line, err := s.verifiedLine(ctx, req.OrderID, req.Row)
		if err != nil {
			return err
		}
		if err := fulfillment.ConfirmDelivery(line, req.Date); err != nil {
			return err
		}
		if err := s.writer.Apply(ctx, fulfillment.DeliveryTransition(line)); err != nil {
			return err
		}
		s.log(ctx).Info("delivery confirmed",
			zap.String("reference", line.Ref().String()),
			zap.String("delivered_at", line.DeliveredAt),
			zap.String("actor", req.Actor),
		)
		s.publishFrom(ctx, line)
		resp = toOrderLineResponse(line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateShipment writes carrier and document metadata to a line. The row is
// written even when it no longer holds the named order; the response then
// carries a warning.
func (s *FulfillmentService) UpdateShipment(ctx context.Context, req ShipmentUpdateRequest) (resp *OrderLineResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "update_shipment",
		telemetry.SpanAttrOrderKey, req.OrderID,
		telemetry.SpanAttrRow, req.Row,
	)
	defer func(start time.Time) {
		s.metrics.Observe(ctx, "update_shipment", start, err)
		telemetry.EndSpan(span, err)
	}(time.Now())

	if err := fulfillment.ValidateRow(req.Row); err != nil {
		return nil, err
	}
	shipment := req.Shipment.toDomain()
	if shipment.IsZero() {
		return nil, shared.NewValidationError("at least one shipment field is required")
	}

	release, err := s.locker.Acquire(ctx, fulfillment.OrderLineLockKey(req.OrderID, req.Row))
	if err != nil {
		return nil, err
	}
	defer release()

	line, err := s.lineRepo.FindByRow(ctx, req.Row)
	if err != nil {
		return nil, err
	}
	expected := fulfillment.RowIdentity{Table: fulfillment.TableOrderLines, Row: req.Row, Key: req.OrderID}
	warning, err := s.guard.Verify(expected, line.Identity(), fulfillment.GuardLenient)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		s.log(ctx).Warn("shipment written to a row holding another order",
			zap.Int("row", req.Row),
			zap.String("expected", req.OrderID),
			zap.String("actual", line.OrderID),
		)
	}
	if err := line.UpdateShipment(shipment); err != nil {
		return nil, err
	}
	if err := s.writer.Apply(ctx, fulfillment.ShipmentTransition(line)); err != nil {
		return nil, err
	}

	resp = toOrderLineResponse(line)
	if warning != "" {
		resp.Warnings = append(resp.Warnings, warning)
	}
	return resp, nil
}

// GetOrderLine returns a line with the dispatched and reserved quantities the
// ledger shows for it
func (s *FulfillmentService) GetOrderLine(ctx context.Context, orderID string, row int) (resp *OrderLineResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fulfillment", "get_order_line",
		telemetry.SpanAttrOrderKey, orderID,
		telemetry.SpanAttrRow, row,
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := fulfillment.ValidateRow(row); err != nil {
		return nil, err
	}
	line, err := s.verifiedLine(ctx, orderID, row)
	if err != nil {
		return nil, err
	}
	ledger, err := s.movementRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	ref := line.Ref()

	resp = toOrderLineResponse(line)
	resp.Dispatched = inventory.FulfilledByRef(ledger, ref, inventory.TypeIs(inventory.MovementTypeDispatch))
	resp.Remaining = decimal.Max(line.Requested.Sub(resp.Dispatched), decimal.Zero)
	resp.Reserved = inventory.OutstandingReservation(ledger, ref, "")
	return resp, nil
}

// verifiedLine reads the line at row and requires it to hold orderID
func (s *FulfillmentService) verifiedLine(ctx context.Context, orderID string, row int) (*fulfillment.OrderLine, error) {
	line, err := s.lineRepo.FindByRow(ctx, row)
	if err != nil {
		return nil, err
	}
	expected := fulfillment.RowIdentity{Table: fulfillment.TableOrderLines, Row: row, Key: orderID}
	if _, err := s.guard.Verify(expected, line.Identity(), fulfillment.GuardStrict); err != nil {
		return nil, err
	}
	return line, nil
}

// releaseFor builds the release of what ref still holds reserved on lot, up
// to the fulfilled quantity. It returns nil when nothing is held.
func (s *FulfillmentService) releaseFor(ledger []inventory.Movement, ref inventory.OperationRef, lot *inventory.Lot, fulfilled decimal.Decimal, actor string, at time.Time) (*inventory.Movement, error) {
	held := inventory.OutstandingReservation(ledger, ref, lot.ID)
	qty := decimal.Min(held, fulfilled)
	if !qty.IsPositive() {
		return nil, nil
	}
	m, err := inventory.NewMovement(lot.ID, inventory.MovementTypeRelease, lot.PrimaryMeasure(), qty)
	if err != nil {
		return nil, err
	}
	m.WithReference(ref).WithActor(actor).WithTimestamp(at)
	return m, nil
}

// applyTransition writes a status transition after its ledger rows. The
// ledger is already committed, so a failed write is reported as a warning
// and the next request for the record rewrites the status from the ledger.
func (s *FulfillmentService) applyTransition(ctx context.Context, t fulfillment.Transition) string {
	if t.IsEmpty() {
		return ""
	}
	if err := s.writer.Apply(ctx, t); err != nil {
		s.log(ctx).Error("status not written after ledger append",
			zap.String("table", t.Table),
			zap.Int("row", t.Row),
			zap.Error(err),
		)
		return "status not written: " + err.Error()
	}
	return ""
}

func (s *FulfillmentService) publishMovements(ctx context.Context, movements []inventory.Movement) {
	if s.eventPublisher == nil {
		return
	}
	events := make([]shared.DomainEvent, 0, len(movements))
	for i := range movements {
		events = append(events, inventory.NewMovementRecordedEvent(&movements[i]))
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *FulfillmentService) publishFrom(ctx context.Context, sources ...shared.EventSource) {
	if s.eventPublisher == nil {
		return
	}
	_ = s.eventPublisher.PublishFrom(ctx, sources...)
}

// log returns the service logger tagged with the request id and actor of ctx
func (s *FulfillmentService) log(ctx context.Context) *zap.Logger {
	return logger.For(ctx, s.logger)
}
