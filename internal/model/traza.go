package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TipoEvento classifies a trace entry by its source.
type TipoEvento string

const (
	EventoCreacion   TipoEvento = "creacion"
	EventoArchivo    TipoEvento = "archivo"
	EventoVenta      TipoEvento = "venta"
	EventoReproceso  TipoEvento = "reproceso"
	EventoDevolucion TipoEvento = "devolucion"
)

// EventoTraza is one normalized line of a lot's history. A zero Fecha means
// the source had no timestamp.
type EventoTraza struct {
	Fecha      time.Time
	Tipo       TipoEvento
	Titulo     string
	Subtitulo  string
	Peso       decimal.Decimal
	BigBags    []string
	Referencia string
}
