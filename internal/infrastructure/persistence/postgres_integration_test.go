//go:build integration

package persistence_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	fulfillmentapp "github.com/lotledger/backend/internal/application/fulfillment"
	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/infrastructure/lock"
	"github.com/lotledger/backend/internal/infrastructure/migration"
	"github.com/lotledger/backend/internal/infrastructure/persistence"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const migrationsPath = "../../../migrations"

// startPostgres runs a throwaway postgres container and applies the migrations
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("lotledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrationsPath, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	st, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, uint(2), st.Version)
	assert.False(t, st.Dirty)
	assert.Empty(t, st.Pending)
	assert.NotEmpty(t, st.Applied)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestPostgres_MigrationsSeedHeaders(t *testing.T) {
	store := rowstore.NewSQLStore(startPostgres(t))
	schema := rowstore.DefaultSchema()

	for _, logical := range []string{
		rowstore.TableLots,
		rowstore.TableMovements,
		rowstore.TableOrderLines,
		rowstore.TableCuttingOrders,
		rowstore.TableCuttingItems,
	} {
		ts, err := schema.Table(logical)
		require.NoError(t, err)

		table, err := store.ReadAll(t.Context(), ts.Name)
		require.NoError(t, err, logical)
		assert.Equal(t, ts.Headers(), table.Headers, logical)
		assert.Zero(t, table.Len(), logical)

		_, err = ts.Resolve(table)
		assert.NoError(t, err, logical)
	}
}

func TestPostgres_ReserveThenDispatch(t *testing.T) {
	ctx := t.Context()
	store := rowstore.NewSQLStore(startPostgres(t))
	schema := rowstore.DefaultSchema()

	_, err := store.AppendRow(ctx, "Lots",
		[]string{"L-1", "Canvas|Red|1,5|50|Matte", "finished_good", "Main", "500", "", "available"})
	require.NoError(t, err)
	row, err := store.AppendRow(ctx, "Order Lines",
		[]string{"K1", "Canvas|Red|1,5|50|Matte", "100", "Pending", "", "", "", "", "", ""})
	require.NoError(t, err)
	require.Equal(t, 2, row)

	lots, err := persistence.NewRowLotRepository(store, schema)
	require.NoError(t, err)
	movements, err := persistence.NewRowMovementRepository(store, schema)
	require.NoError(t, err)
	lines, err := persistence.NewRowOrderLineRepository(store, schema)
	require.NoError(t, err)
	cutting, err := persistence.NewRowCuttingOrderRepository(store, schema)
	require.NoError(t, err)
	writer := persistence.NewRowTransitionWriter(store, schema, zap.NewNop())

	projection := inventory.NewBalanceProjection()
	locker := lock.NewLocalLocker(time.Second)
	inventorySvc := inventoryapp.NewInventoryService(lots, movements, lines, projection, locker, zap.NewNop())
	fulfillmentSvc := fulfillmentapp.NewFulfillmentService(lots, movements, lines, cutting, writer, projection, locker, zap.NewNop())

	reserved, err := inventorySvc.Reserve(ctx, inventoryapp.ReserveRequest{
		OrderID:  "K1",
		Row:      2,
		LotID:    "L-1",
		Quantity: decimal.NewFromInt(30),
		Actor:    "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "K1-R2", reserved.Reference)
	assert.Equal(t, 2, reserved.LedgerRow)

	dispatched, err := fulfillmentSvc.Dispatch(ctx, fulfillmentapp.DispatchRequest{
		OrderID:  "K1",
		Row:      2,
		Quantity: decimal.NewFromInt(20),
		Actor:    "ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "L-1", dispatched.LotID)
	assert.Equal(t, "PartialDispatch", dispatched.Status)
	assert.True(t, dispatched.Released.Equal(decimal.NewFromInt(20)))
	assert.True(t, dispatched.Remaining.Equal(decimal.NewFromInt(80)))
	assert.Empty(t, dispatched.Warnings)

	ledger, err := movements.FindByLot(ctx, "L-1")
	require.NoError(t, err)
	require.Len(t, ledger, 3)
	assert.Equal(t, inventory.MovementTypeReservation, ledger[0].Type)
	assert.Equal(t, inventory.MovementTypeDispatch, ledger[1].Type)
	assert.Equal(t, inventory.MovementTypeRelease, ledger[2].Type)

	// 500 - 30 reserved - 20 dispatched + 20 released
	report, err := inventorySvc.Availability(ctx, inventoryapp.AvailabilityQuery{})
	require.NoError(t, err)
	require.Len(t, report.Lots, 1)
	assert.True(t, report.Lots[0].Available.Units.Equal(decimal.NewFromInt(470)), report.Lots[0].Available.Units.String())

	line, err := lines.FindByRow(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "PartialDispatch", line.Status.String())
	assert.NotEmpty(t, line.FirstDispatchAt)
}
