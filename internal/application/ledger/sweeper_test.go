package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/stock-ledger/internal/application/ledger"
	"github.com/invorya/stock-ledger/internal/domain/entity"
)

func newSweeperFixture(batchSize int) (*memStore, *ledger.ReservationUseCase, *ledger.Sweeper) {
	store := newMemStore()
	manager := ledger.NewReservationUseCase(&memTxRunner{s: store}, &memStockRepo{s: store}, &memResRepo{s: store})
	sweeper := ledger.NewSweeper(&memResRepo{s: store}, manager, time.Minute, batchSize, testLogger())
	return store, manager, sweeper
}

// reserveExpiring crea una reserva con el vencimiento indicado.
func reserveExpiring(t *testing.T, manager *ledger.ReservationUseCase, qty int64, expiresAt time.Time) *entity.Reservation {
	t.Helper()
	res, err := manager.Reserve(context.Background(), ledger.ReserveInput{
		ProductID:   "prod-1",
		WarehouseID: "bodega-1",
		Quantity:    decimal.NewFromInt(qty),
		Kind:        entity.ReservationKindSALE,
		ActorID:     "vendedor-1",
		ExpiresAt:   &expiresAt,
	})
	require.NoError(t, err)
	return res
}

func TestSweepOnce_ExpiraVencidasYDevuelveElRemanente(t *testing.T) {
	store, manager, sweeper := newSweeperFixture(10)
	store.seedStock("rec-1", "prod-1", "bodega-1", nil, 20)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	vencida := reserveExpiring(t, manager, 5, past)
	vigente := reserveExpiring(t, manager, 3, future)

	expired, failed := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, failed)

	got := store.getReservation(vencida.ID)
	assert.Equal(t, entity.ReservationStateEXPIRED, got.State)
	assert.Equal(t, "sweeper", got.ReleasedBy)

	assert.Equal(t, entity.ReservationStateACTIVE, store.getReservation(vigente.ID).State,
		"las reservas vigentes no se tocan")

	rec := store.getStock("prod-1", "bodega-1", nil)
	assert.True(t, rec.Reserved.Equal(decimal.NewFromInt(3)), "solo queda retenida la vigente")
	assert.True(t, rec.Available.Equal(decimal.NewFromInt(17)))
}

func TestSweepOnce_ConservaLoYaConsumidoAlExpirar(t *testing.T) {
	store, manager, sweeper := newSweeperFixture(10)
	store.seedStock("rec-1", "prod-1", "bodega-1", nil, 10)

	past := time.Now().Add(-time.Minute)
	res := reserveExpiring(t, manager, 6, past)
	_, err := manager.Consume(context.Background(), res.ID, decimal.NewFromInt(2), "bodeguero-1", "")
	require.NoError(t, err)

	expired, failed := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, failed)

	got := store.getReservation(res.ID)
	assert.Equal(t, entity.ReservationStateEXPIRED, got.State)
	assert.True(t, got.ConsumedQuantity.Equal(decimal.NewFromInt(2)))

	rec := store.getStock("prod-1", "bodega-1", nil)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(8)), "lo consumido no vuelve")
	assert.True(t, rec.Available.Equal(decimal.NewFromInt(8)), "el remanente (4) sí vuelve")
	assert.True(t, rec.Reserved.IsZero())
}

func TestSweepOnce_FalloIndividualNoBloqueaAlResto(t *testing.T) {
	store, manager, sweeper := newSweeperFixture(10)
	store.seedStock("rec-1", "prod-1", "bodega-1", nil, 20)

	past := time.Now().Add(-time.Minute)
	problematica := reserveExpiring(t, manager, 4, past)
	sana := reserveExpiring(t, manager, 5, past)
	store.failSaveReservation[problematica.ID] = true

	expired, failed := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 1, expired, "la reserva sana debe expirar aunque otra falle")
	assert.Equal(t, 1, failed)

	assert.Equal(t, entity.ReservationStateEXPIRED, store.getReservation(sana.ID).State)
	assert.Equal(t, entity.ReservationStateACTIVE, store.getReservation(problematica.ID).State,
		"la fallida queda intacta para el próximo tick")

	rec := store.getStock("prod-1", "bodega-1", nil)
	assert.True(t, rec.Reserved.Equal(decimal.NewFromInt(4)),
		"la transacción fallida revierte: sus unidades siguen retenidas")
}

func TestSweepOnce_ProcesaVariosLotesDeBatch(t *testing.T) {
	store, manager, sweeper := newSweeperFixture(2) // batch chico para forzar varias vueltas
	store.seedStock("rec-1", "prod-1", "bodega-1", nil, 50)

	past := time.Now().Add(-time.Minute)
	for i := 0; i < 5; i++ {
		reserveExpiring(t, manager, 1, past.Add(time.Duration(i)*time.Second))
	}

	expired, failed := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 5, expired, "debe iterar lotes hasta agotar las vencidas")
	assert.Equal(t, 0, failed)

	rec := store.getStock("prod-1", "bodega-1", nil)
	assert.True(t, rec.Reserved.IsZero())
	assert.True(t, rec.Available.Equal(decimal.NewFromInt(50)))
}

func TestSweepOnce_SinVencidasNoHaceNada(t *testing.T) {
	store, manager, sweeper := newSweeperFixture(10)
	store.seedStock("rec-1", "prod-1", "bodega-1", nil, 10)
	reserveExpiring(t, manager, 3, time.Now().Add(time.Hour))

	expired, failed := sweeper.SweepOnce(context.Background())

	assert.Equal(t, 0, expired)
	assert.Equal(t, 0, failed)
}

func TestRun_SeDetieneAlCancelarContexto(t *testing.T) {
	_, _, sweeper := newSweeperFixture(10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("el sweeper no se detuvo al cancelar el contexto")
	}
}
