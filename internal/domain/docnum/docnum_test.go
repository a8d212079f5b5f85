package docnum_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/invorya/stock-ledger/internal/domain/docnum"
	"github.com/invorya/stock-ledger/internal/domain/entity"
)

var docnumAt = time.Date(2026, 1, 15, 23, 30, 0, 0, time.UTC)

func TestFor_FormatoYPrefijoPorTipo(t *testing.T) {
	cases := []struct {
		movementType string
		want         string
	}{
		{entity.MovementTypeINITIALLOAD, "CI-20260115-9f8e7d6c"},
		{entity.MovementTypeIN, "EN-20260115-9f8e7d6c"},
		{entity.MovementTypeADJUSTMENT, "AJ-20260115-9f8e7d6c"},
		{entity.MovementTypeCONSUMPTION, "CR-20260115-9f8e7d6c"},
	}
	for _, tc := range cases {
		got := docnum.For(tc.movementType, docnumAt, "9f8e7d6c-0000-0000-0000-000000000000")
		assert.Equal(t, tc.want, got)
	}
}

func TestFor_DeterministaParaElMismoEvento(t *testing.T) {
	a := docnum.For(entity.MovementTypeADJUSTMENT, docnumAt, "9f8e7d6c-0000-0000-0000-000000000000")
	b := docnum.For(entity.MovementTypeADJUSTMENT, docnumAt, "9f8e7d6c-0000-0000-0000-000000000000")

	assert.Equal(t, a, b, "el mismo evento siempre produce el mismo número de documento")
}

func TestFor_TipoDesconocidoUsaFallback(t *testing.T) {
	got := docnum.For("ALGO_RARO", docnumAt, "abcd1234")
	assert.Equal(t, "MV-20260115-abcd1234", got)
}

func TestFor_FechaEnUTC(t *testing.T) {
	// 23:30 del 15 en UTC-5 es madrugada del 16 en UTC: la fecha del documento
	// debe normalizarse a UTC para que dos nodos no discrepen.
	bogota := time.FixedZone("America/Bogota", -5*60*60)
	local := time.Date(2026, 1, 15, 23, 30, 0, 0, bogota)

	got := docnum.For(entity.MovementTypeIN, local, "abcd1234")
	assert.Equal(t, "EN-20260116-abcd1234", got)
}
