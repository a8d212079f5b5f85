package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/invorya/stock-ledger/internal/domain"
	"github.com/invorya/stock-ledger/internal/domain/repository"
	"github.com/invorya/stock-ledger/pkg/logger"
)

// Sweeper es la tarea periódica que fuerza la liberación de reservas vencidas.
// Cada reserva expira en su propia transacción: un fallo individual se loguea y
// se reintenta en el siguiente tick, sin bloquear al resto del barrido.
type Sweeper struct {
	reservations repository.ReservationRepository // atado al pool, solo lectura
	manager      *ReservationUseCase
	interval     time.Duration
	batchSize    int
	log          *logger.Logger
}

// NewSweeper construye el sweeper. interval <= 0 usa 5 minutos; batchSize <= 0 usa 100.
func NewSweeper(reservations repository.ReservationRepository, manager *ReservationUseCase, interval time.Duration, batchSize int, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Sweeper{
		reservations: reservations,
		manager:      manager,
		interval:     interval,
		batchSize:    batchSize,
		log:          log,
	}
}

// Run ejecuta el barrido cada interval hasta que ctx se cancele.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("sweeper de reservas iniciado")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweeper de reservas detenido")
			return
		case <-ticker.C:
			expired, failed := s.SweepOnce(ctx)
			if expired > 0 || failed > 0 {
				s.log.Info().Int("expired", expired).Int("failed", failed).Msg("barrido de reservas vencidas")
			}
		}
	}
}

// SweepOnce procesa las reservas vencidas pendientes y devuelve cuántas expiró y
// cuántas fallaron. Los fallos quedan para el siguiente tick, nunca se descartan
// en silencio.
func (s *Sweeper) SweepOnce(ctx context.Context) (expired, failed int) {
	for {
		batch, err := s.reservations.ListExpired(ctx, time.Now(), s.batchSize)
		if err != nil {
			s.log.Error().Err(err).Msg("listar reservas vencidas")
			return expired, failed + 1
		}
		progressed := 0
		for _, res := range batch {
			if _, err := s.manager.Expire(ctx, res.ID); err != nil {
				if errors.Is(err, domain.ErrInvalidState) {
					// Alguien la consumió o liberó entre el listado y el lock; no es un fallo.
					progressed++
					continue
				}
				failed++
				s.log.Error().Err(err).
					Str("reservation_id", res.ID).
					Str("product_id", res.ProductID).
					Str("warehouse_id", res.WarehouseID).
					Msg("expirar reserva")
				continue
			}
			expired++
			progressed++
		}
		if len(batch) < s.batchSize || progressed == 0 {
			return expired, failed
		}
	}
}
