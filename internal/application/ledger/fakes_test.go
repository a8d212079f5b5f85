package ledger_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/invorya/stock-ledger/internal/domain/entity"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/invorya/stock-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de persistencia.
//
// memTxRunner serializa las "transacciones" con un mutex y hace snapshot/restore
// del estado al fallar fn, emulando commit/rollback. Los repositorios devuelven
// y almacenan copias: una entidad mutada sin Save no toca el store, igual que
// con filas reales.
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	txMu sync.Mutex // serializa transacciones completas (emula el lock de fila)
	mu   sync.Mutex // protege los mapas en lecturas fuera de transacción

	stocks       map[string]*entity.StockRecord // clave: tripleta
	reservations map[string]*entity.Reservation
	movements    []*entity.MovementEntry

	// failSaveReservation fuerza un error al guardar la reserva indicada,
	// para los tests de aislamiento de fallos del sweeper.
	failSaveReservation map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		stocks:              make(map[string]*entity.StockRecord),
		reservations:        make(map[string]*entity.Reservation),
		failSaveReservation: make(map[string]bool),
	}
}

func tripleKey(productID, warehouseID string, lotID *string) string {
	lot := ""
	if lotID != nil {
		lot = *lotID
	}
	return productID + "|" + warehouseID + "|" + lot
}

func cloneStock(rec *entity.StockRecord) *entity.StockRecord {
	if rec == nil {
		return nil
	}
	c := *rec
	if rec.LotID != nil {
		v := *rec.LotID
		c.LotID = &v
	}
	if rec.ExpirationDate != nil {
		v := *rec.ExpirationDate
		c.ExpirationDate = &v
	}
	return &c
}

func cloneReservation(res *entity.Reservation) *entity.Reservation {
	if res == nil {
		return nil
	}
	c := *res
	if res.LotID != nil {
		v := *res.LotID
		c.LotID = &v
	}
	if res.ExpiresAt != nil {
		v := *res.ExpiresAt
		c.ExpiresAt = &v
	}
	if res.ReleasedAt != nil {
		v := *res.ReleasedAt
		c.ReleasedAt = &v
	}
	return &c
}

func cloneMovement(m *entity.MovementEntry) *entity.MovementEntry {
	if m == nil {
		return nil
	}
	c := *m
	if m.LotID != nil {
		v := *m.LotID
		c.LotID = &v
	}
	return &c
}

type storeSnapshot struct {
	stocks       map[string]*entity.StockRecord
	reservations map[string]*entity.Reservation
	movements    []*entity.MovementEntry
}

func (s *memStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := storeSnapshot{
		stocks:       make(map[string]*entity.StockRecord, len(s.stocks)),
		reservations: make(map[string]*entity.Reservation, len(s.reservations)),
		movements:    make([]*entity.MovementEntry, len(s.movements)),
	}
	for k, v := range s.stocks {
		snap.stocks[k] = cloneStock(v)
	}
	for k, v := range s.reservations {
		snap.reservations[k] = cloneReservation(v)
	}
	copy(snap.movements, s.movements)
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks = snap.stocks
	s.reservations = snap.reservations
	s.movements = snap.movements
}

// seedStock inserta directamente un registro con quantity = available = qty.
func (s *memStore) seedStock(id, productID, warehouseID string, lotID *string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := decimal.NewFromInt(qty)
	s.stocks[tripleKey(productID, warehouseID, lotID)] = &entity.StockRecord{
		ID:          id,
		ProductID:   productID,
		WarehouseID: warehouseID,
		LotID:       lotID,
		Quantity:    q,
		Available:   q,
		Reserved:    decimal.Zero,
	}
}

func (s *memStore) getStock(productID, warehouseID string, lotID *string) *entity.StockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStock(s.stocks[tripleKey(productID, warehouseID, lotID)])
}

func (s *memStore) getReservation(id string) *entity.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReservation(s.reservations[id])
}

func (s *memStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

type memTxRunner struct{ s *memStore }

func (r *memTxRunner) Run(_ context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.MovementRepository,
	resRepo repository.ReservationRepository,
) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	snap := r.s.snapshot()
	err := fn(&memStockRepo{s: r.s}, &memMovRepo{s: r.s}, &memResRepo{s: r.s})
	if err != nil {
		r.s.restore(snap)
	}
	return err
}

// ── StockRecordRepository ─────────────────────────────────────────────────────

type memStockRepo struct{ s *memStore }

func (r *memStockRepo) GetByTriple(_ context.Context, productID, warehouseID string, lotID *string) (*entity.StockRecord, error) {
	return r.s.getStock(productID, warehouseID, lotID), nil
}

func (r *memStockRepo) GetForUpdate(_ context.Context, productID, warehouseID string, lotID *string) (*entity.StockRecord, error) {
	// El "lock de fila" lo aporta el txMu del runner.
	return r.s.getStock(productID, warehouseID, lotID), nil
}

func (r *memStockRepo) Create(_ context.Context, record *entity.StockRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := tripleKey(record.ProductID, record.WarehouseID, record.LotID)
	if _, ok := r.s.stocks[key]; ok {
		return nil // ON CONFLICT DO NOTHING
	}
	r.s.stocks[key] = cloneStock(record)
	return nil
}

func (r *memStockRepo) Save(_ context.Context, record *entity.StockRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := tripleKey(record.ProductID, record.WarehouseID, record.LotID)
	if _, ok := r.s.stocks[key]; !ok {
		return errors.New("registro de stock inexistente")
	}
	r.s.stocks[key] = cloneStock(record)
	return nil
}

func (r *memStockRepo) ListByProductWarehouse(_ context.Context, productID, warehouseID string) ([]*entity.StockRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.StockRecord
	for _, rec := range r.s.stocks {
		if rec.ProductID == productID && rec.WarehouseID == warehouseID {
			out = append(out, cloneStock(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── ReservationRepository ─────────────────────────────────────────────────────

type memResRepo struct{ s *memStore }

func (r *memResRepo) Create(_ context.Context, reservation *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

func (r *memResRepo) GetByID(_ context.Context, id string) (*entity.Reservation, error) {
	return r.s.getReservation(id), nil
}

func (r *memResRepo) GetByIDForUpdate(_ context.Context, id string) (*entity.Reservation, error) {
	return r.s.getReservation(id), nil
}

func (r *memResRepo) Save(_ context.Context, reservation *entity.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSaveReservation[reservation.ID] {
		return errors.New("fallo forzado al guardar la reserva")
	}
	if _, ok := r.s.reservations[reservation.ID]; !ok {
		return errors.New("reserva inexistente")
	}
	r.s.reservations[reservation.ID] = cloneReservation(reservation)
	return nil
}

func (r *memResRepo) ListActiveByProductWarehouse(_ context.Context, productID, warehouseID string) ([]*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.ProductID != productID || res.WarehouseID != warehouseID {
			continue
		}
		if res.State == entity.ReservationStateACTIVE || res.State == entity.ReservationStatePARTIALLYCONSUMED {
			out = append(out, cloneReservation(res))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memResRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.IsTerminal() || !res.IsExpired(now) {
			continue
		}
		out = append(out, cloneReservation(res))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── MovementRepository ────────────────────────────────────────────────────────

type memMovRepo struct{ s *memStore }

func (r *memMovRepo) Create(_ context.Context, entry *entity.MovementEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, cloneMovement(entry))
	return nil
}

func (r *memMovRepo) ListByStockRecord(_ context.Context, stockRecordID string, limit, offset int) ([]*entity.MovementEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MovementEntry
	for _, m := range r.s.movements {
		if m.StockRecordID == stockRecordID {
			out = append(out, cloneMovement(m))
		}
	}
	return window(out, limit, offset), nil
}

func (r *memMovRepo) ListByProductWarehouse(_ context.Context, productID, warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.MovementEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MovementEntry
	for _, m := range r.s.movements {
		if m.ProductID != productID || m.WarehouseID != warehouseID {
			continue
		}
		if from != nil && m.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && m.OccurredAt.After(*to) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	return window(out, limit, offset), nil
}

func window(entries []*entity.MovementEntry, limit, offset int) []*entity.MovementEntry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// testLogger logger silencioso para los tests.
func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func testExpiration() time.Time {
	return time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
}
