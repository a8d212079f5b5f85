package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/stock-ledger/internal/application/ledger"
	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/invorya/stock-ledger/internal/domain/entity"
)

func newQueryFixture() (*memStore, *ledger.StockQueryUseCase, *ledger.ReservationUseCase, *ledger.StockStoreUseCase) {
	store := newMemStore()
	tx := &memTxRunner{s: store}
	queries := ledger.NewStockQueryUseCase(&memStockRepo{s: store}, &memResRepo{s: store}, &memMovRepo{s: store})
	manager := ledger.NewReservationUseCase(tx, &memStockRepo{s: store}, &memResRepo{s: store})
	stockUC := ledger.NewStockStoreUseCase(tx)
	return store, queries, manager, stockUC
}

func TestOverview_AgregaLotesYReservasVivas(t *testing.T) {
	store, queries, manager, _ := newQueryFixture()
	lotA, lotB := "lote-a", "lote-b"
	store.seedStock("rec-1", "prod-1", "bodega-1", &lotA, 10)
	store.seedStock("rec-2", "prod-1", "bodega-1", &lotB, 5)

	res, err := manager.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:   "prod-1",
		WarehouseID: "bodega-1",
		LotID:       &lotA,
		Quantity:    decimal.NewFromInt(4),
		Kind:        entity.ReservationKindSALE,
		ActorID:     "vendedor-1",
	})
	require.NoError(t, err)

	// Una reserva liberada no debe aparecer en la vista.
	released, err := manager.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:   "prod-1",
		WarehouseID: "bodega-1",
		LotID:       &lotB,
		Quantity:    decimal.NewFromInt(2),
		Kind:        entity.ReservationKindORDER,
		ActorID:     "vendedor-1",
	})
	require.NoError(t, err)
	_, err = manager.Release(context.Background(), released.ID, "vendedor-1", "")
	require.NoError(t, err)

	overview, err := queries.Overview(context.Background(), "prod-1", "bodega-1")
	require.NoError(t, err)

	assert.True(t, overview.Quantity.Equal(decimal.NewFromInt(15)))
	assert.True(t, overview.Available.Equal(decimal.NewFromInt(11)))
	assert.True(t, overview.Reserved.Equal(decimal.NewFromInt(4)))
	assert.Len(t, overview.Lots, 2)
	require.Len(t, overview.Reservations, 1, "solo las reservas no terminales retienen stock")
	assert.Equal(t, res.ID, overview.Reservations[0].ID)
}

func TestOverview_TripletaSinHistoriaEsNotFound(t *testing.T) {
	_, queries, _, _ := newQueryFixture()

	_, err := queries.Overview(context.Background(), "prod-x", "bodega-x")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMovements_FiltraPorFechas(t *testing.T) {
	_, queries, _, stockUC := newQueryFixture()

	for i := 0; i < 3; i++ {
		_, err := stockUC.ApplyPhysicalDelta(context.Background(), ledger.PhysicalDeltaInput{
			ProductID:    "prod-1",
			WarehouseID:  "bodega-1",
			Delta:        decimal.NewFromInt(10),
			MovementType: entity.MovementTypeIN,
		})
		require.NoError(t, err)
	}

	all, err := queries.Movements(context.Background(), "prod-1", "bodega-1", nil, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Un rango en el pasado lejano no debe traer nada.
	from := time.Now().Add(-2 * time.Hour)
	to := time.Now().Add(-time.Hour)
	none, err := queries.Movements(context.Background(), "prod-1", "bodega-1", &from, &to, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMovements_Paginacion(t *testing.T) {
	_, queries, _, stockUC := newQueryFixture()

	for i := 0; i < 5; i++ {
		_, err := stockUC.ApplyPhysicalDelta(context.Background(), ledger.PhysicalDeltaInput{
			ProductID:    "prod-1",
			WarehouseID:  "bodega-1",
			Delta:        decimal.NewFromInt(1),
			MovementType: entity.MovementTypeADJUSTMENT,
		})
		require.NoError(t, err)
	}

	page1, err := queries.Movements(context.Background(), "prod-1", "bodega-1", nil, nil, 2, 0)
	require.NoError(t, err)
	page2, err := queries.Movements(context.Background(), "prod-1", "bodega-1", nil, nil, 2, 2)
	require.NoError(t, err)
	page3, err := queries.Movements(context.Background(), "prod-1", "bodega-1", nil, nil, 2, 4)
	require.NoError(t, err)

	assert.Len(t, page1, 2)
	assert.Len(t, page2, 2)
	assert.Len(t, page3, 1)
	assert.NotEqual(t, page1[0].ID, page2[0].ID)
}
