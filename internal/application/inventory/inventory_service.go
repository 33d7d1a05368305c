package inventory

import (
	"context"
	"strings"
	"sync/atomic"
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

// LotLockKey is the serialization key for writes checked against a lot's balance
func LotLockKey(lotID string) string {
	return "lot:" + inventory.LotKey(lotID)
}

// InventoryService answers availability and allocation queries and appends
// reservations to the movement ledger
type InventoryService struct {
	lotRepo      inventory.LotRepository
	movementRepo inventory.MovementRepository
	lineRepo     fulfillment.OrderLineRepository
	projection   *inventory.BalanceProjection
	calculator   *inventory.AvailabilityCalculator
	engine       *inventory.AllocationEngine
	guard        *fulfillment.IntegrityGuard
	locker       shared.KeyedLocker

	policy         fulfillment.ReservationPolicy
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger

	built atomic.Bool
	now   func() time.Time
}

// NewInventoryService creates a new InventoryService with the advisory
// reservation policy
func NewInventoryService(
	lotRepo inventory.LotRepository,
	movementRepo inventory.MovementRepository,
	lineRepo fulfillment.OrderLineRepository,
	projection *inventory.BalanceProjection,
	locker shared.KeyedLocker,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if projection == nil {
		projection = inventory.NewBalanceProjection()
	}
	return &InventoryService{
		lotRepo:        lotRepo,
		movementRepo:   movementRepo,
		lineRepo:       lineRepo,
		projection:     projection,
		calculator:     inventory.NewAvailabilityCalculator(),
		engine:         inventory.NewAllocationEngine(),
		guard:          fulfillment.NewIntegrityGuard(),
		locker:         locker,
		policy:         fulfillment.ReservationAdvisory,
		idempotencyTTL: DefaultIdempotencyTTL,
		logger:         logger,
		now:            time.Now,
	}
}

// SetReservationPolicy sets how firmly reservations commit stock
func (s *InventoryService) SetReservationPolicy(policy fulfillment.ReservationPolicy) {
	s.policy = policy
}

// SetIdempotencyStore enables request keys on reservations
func (s *InventoryService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLedgerMetrics sets the operation metrics recorder
func (s *InventoryService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// Policy returns the reservation policy in force
func (s *InventoryService) Policy() fulfillment.ReservationPolicy {
	return s.policy
}

// QueryAvailability returns available quantity per lot, per product key and
// in total for the lots passing the query's filters
func (s *InventoryService) QueryAvailability(ctx context.Context, q AvailabilityQuery) (resp *AvailabilityResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "query_availability",
		"product_key", q.ProductKey,
		"warehouse", q.Warehouse,
	)
	defer func(start time.Time) {
		s.metrics.Observe(ctx, "query_availability", start, err)
		telemetry.EndSpan(span, err)
	}(time.Now())

	report, err := s.availability(ctx, q.filter())
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, "lots", len(report.Lots))
	return ToAvailabilityResponse(report), nil
}

// Availability returns the domain report for a query; the stock export renders it
func (s *InventoryService) Availability(ctx context.Context, q AvailabilityQuery) (inventory.AvailabilityReport, error) {
	return s.availability(ctx, q.filter())
}

func (s *InventoryService) availability(ctx context.Context, filter inventory.AvailabilityFilter) (inventory.AvailabilityReport, error) {
	if err := s.syncProjection(ctx); err != nil {
		return inventory.AvailabilityReport{}, err
	}
	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return inventory.AvailabilityReport{}, err
	}
	return s.calculator.Compute(lots, s.projection.Balances(), filter), nil
}

// AllocationOptions ranks the lots able to serve each request, best first.
// It only recommends; nothing is reserved.
func (s *InventoryService) AllocationOptions(ctx context.Context, req AllocationOptionsRequest) (resp []AllocationOptionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "allocation_options",
		"requests", len(req.Requests),
	)
	defer func(start time.Time) {
		s.metrics.Observe(ctx, "allocation_options", start, err)
		telemetry.EndSpan(span, err)
	}(time.Now())

	if len(req.Requests) == 0 {
		return nil, shared.NewValidationError("at least one allocation request is required")
	}
	requests := make([]inventory.AllocationRequest, 0, len(req.Requests))
	for _, r := range req.Requests {
		dest, err := inventory.ParseDestinationClass(r.Destination)
		if err != nil {
			return nil, err
		}
		ar := inventory.AllocationRequest{Descriptor: r.descriptor(), Destination: dest}
		if err := ar.Validate(); err != nil {
			return nil, err
		}
		requests = append(requests, ar)
	}

	report, err := s.availability(ctx, inventory.AvailabilityFilter{})
	if err != nil {
		return nil, err
	}

	resp = make([]AllocationOptionResponse, 0, len(requests))
	for _, ar := range requests {
		candidates, err := s.engine.Rank(ar, report.Lots)
		if err != nil {
			return nil, err
		}
		resp = append(resp, toAllocationOptionResponse(ar, candidates))
	}
	return resp, nil
}

// Reserve appends a reservation of a lot's stock for an order line. Under
// the advisory policy only the quantity and the lot are checked; under the
// hard policy the line must still need the quantity and the lot must have it.
func (s *InventoryService) Reserve(ctx context.Context, req ReserveRequest) (resp *ReserveResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "reserve",
		telemetry.SpanAttrOrderKey, req.OrderID,
		telemetry.SpanAttrRow, req.Row,
		telemetry.SpanAttrLotID, req.LotID,
		telemetry.SpanAttrQuantity, req.Quantity.String(),
		telemetry.SpanAttrPolicy, s.policy.String(),
	)
	defer func(start time.Time) {
		s.metrics.Observe(ctx, "reserve", start, err)
		telemetry.EndSpan(span, err)
	}(time.Now())

	if err := fulfillment.ValidateRow(req.Row); err != nil {
		return nil, err
	}
	ref, err := inventory.NewOperationRef(req.OrderID, req.Row)
	if err != nil {
		return nil, err
	}
	if !inventory.IsValidLotID(req.LotID) {
		return nil, shared.NewValidationError("lot id is required")
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity must be greater than zero")
	}

	err = shared.RunOnce(ctx, s.idempotency, "reserve", req.IdempotencyKey, s.idempotencyTTL, func() error {
		var runErr error
		resp, runErr = s.reserve(ctx, req, ref)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *InventoryService) reserve(ctx context.Context, req ReserveRequest, ref inventory.OperationRef) (*ReserveResponse, error) {
	keys := []string{fulfillment.OrderLineLockKey(req.OrderID, req.Row)}
	if s.policy.RequiresLine() {
		keys = append(keys, LotLockKey(req.LotID))
	}
	release, err := shared.AcquireAll(ctx, s.locker, keys...)
	if err != nil {
		return nil, err
	}
	defer release()

	lot, err := s.lotRepo.FindByID(ctx, req.LotID)
	if err != nil {
		return nil, err
	}

	if s.policy.RequiresLine() {
		if ref, err = s.checkHardReservation(ctx, req, lot); err != nil {
			return nil, err
		}
	}

	m, err := inventory.NewMovement(lot.ID, inventory.MovementTypeReservation, lot.PrimaryMeasure(), req.Quantity)
	if err != nil {
		return nil, err
	}
	m.WithReference(ref).
		WithReason(strings.TrimSpace(req.Reason)).
		WithActor(req.Actor).
		WithTimestamp(s.now())

	written, err := s.movementRepo.Append(ctx, *m)
	if err != nil {
		return nil, err
	}
	s.projection.Apply(written...)

	stored := written[0]
	s.log(ctx).Info("reservation recorded",
		zap.String("movement_id", stored.ID),
		zap.String("lot_id", stored.LotID),
		zap.String("reference", stored.Reference),
		zap.String("quantity", req.Quantity.String()),
		zap.String("policy", s.policy.String()),
		zap.String("actor", req.Actor),
	)
	s.publish(ctx,
		inventory.NewMovementRecordedEvent(&stored),
		inventory.NewReservationRecordedEvent(&stored, s.policy.String()),
	)

	return &ReserveResponse{
		MovementID: stored.ID,
		LotID:      stored.LotID,
		Reference:  stored.Reference,
		Quantity:   ToQuantityResponse(stored.Quantity),
		Policy:     s.policy.String(),
		LedgerRow:  stored.Row,
	}, nil
}

// checkHardReservation verifies the line and the lot balance from a fresh
// ledger read and returns the reference of the line as stored
func (s *InventoryService) checkHardReservation(ctx context.Context, req ReserveRequest, lot *inventory.Lot) (inventory.OperationRef, error) {
	line, err := s.lineRepo.FindByRow(ctx, req.Row)
	if err != nil {
		return inventory.OperationRef{}, err
	}
	expected := fulfillment.RowIdentity{Table: fulfillment.TableOrderLines, Row: req.Row, Key: req.OrderID}
	if _, err := s.guard.Verify(expected, line.Identity(), fulfillment.GuardStrict); err != nil {
		return inventory.OperationRef{}, err
	}
	ref := line.Ref()

	ledger, err := s.movementRepo.FindAll(ctx)
	if err != nil {
		return inventory.OperationRef{}, err
	}
	report := s.calculator.Compute([]inventory.Lot{*lot}, inventory.SumByLot(ledger, inventory.AllMovements), inventory.AvailabilityFilter{})
	available := decimal.Zero
	if la, ok := report.FindLot(lot.ID); ok {
		available = la.Primary().Of(lot.PrimaryMeasure())
	}

	check := fulfillment.ReservationCheck{
		Requested:    line.Requested,
		Dispatched:   inventory.FulfilledByRef(ledger, ref, inventory.TypeIs(inventory.MovementTypeDispatch)),
		Reserved:     inventory.OutstandingReservation(ledger, ref, ""),
		LotID:        lot.ID,
		LotAvailable: available,
		Delta:        req.Quantity,
	}
	return ref, s.policy.Check(check)
}

// ListMovements returns a lot with its ledger entries and derived balance
func (s *InventoryService) ListMovements(ctx context.Context, lotID string) (resp *LotLedgerResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "list_movements",
		telemetry.SpanAttrLotID, lotID,
	)
	defer func() { telemetry.EndSpan(span, err) }()

	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	movements, err := s.movementRepo.FindByLot(ctx, lot.ID)
	if err != nil {
		return nil, err
	}

	var balance inventory.Amount
	resp = &LotLedgerResponse{
		LotID:     lot.ID,
		Initial:   ToQuantityResponse(lot.Initial),
		Excluded:  lot.Excluded(),
		Movements: make([]MovementResponse, 0, len(movements)),
	}
	for _, m := range movements {
		balance = balance.Add(m.Quantity)
		resp.Movements = append(resp.Movements, ToMovementResponse(m))
	}
	resp.Balance = ToQuantityResponse(balance)
	if !lot.Excluded() {
		resp.Available = ToQuantityResponse(lot.Initial.Add(balance))
	}
	return resp, nil
}

// RebuildProjection replaces the balance projection with the sums of the
// full ledger, picking up rows appended outside this service
func (s *InventoryService) RebuildProjection(ctx context.Context) (resp *RebuildResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "rebuild_projection")
	start := time.Now()
	defer func() {
		s.metrics.Observe(ctx, "rebuild_projection", start, err)
		telemetry.EndSpan(span, err)
	}()

	movements, err := s.movementRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	before := s.projection.Applied()
	s.projection.Rebuild(movements)
	s.built.Store(true)

	lots := len(s.projection.Balances())
	s.log(ctx).Debug("projection rebuilt",
		zap.Int("movements", len(movements)),
		zap.Int("new_rows", len(movements)-before),
		zap.Int("lots", lots),
	)
	return &RebuildResponse{
		Movements: len(movements),
		Lots:      lots,
		Duration:  time.Since(start).String(),
	}, nil
}

// syncProjection builds the projection on first use and afterwards folds in
// the ledger rows appended since the last read, including rows written
// straight to the store
func (s *InventoryService) syncProjection(ctx context.Context) error {
	if !s.built.Load() {
		_, err := s.RebuildProjection(ctx)
		return err
	}
	movements, err := s.movementRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	if n := s.projection.Sync(movements); n > 0 {
		s.log(ctx).Debug("projection caught up with the ledger", zap.Int("rows", n))
	}
	return nil
}

func (s *InventoryService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	// handler failures are logged by the bus and never undo the ledger write
	_ = s.eventPublisher.Publish(ctx, events...)
}

// log returns the service logger tagged with the request id and actor of ctx
func (s *InventoryService) log(ctx context.Context) *zap.Logger {
	return logger.For(ctx, s.logger)
}
