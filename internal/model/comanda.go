package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Comanda is a customer order. It references a lot by number once assigned,
// never owns it.
type Comanda struct {
	ID           string
	Numero       int64
	Material     string
	NumeroLote   string // blank until assigned
	FechaReserva time.Time
	Cliente      string
	PesoTotal    decimal.Decimal
	Observacion  string
	Vendida      bool
}

// Asignada reports whether a lot is linked to the order.
func (c *Comanda) Asignada() bool { return c.NumeroLote != "" }

// Abierta reports whether the order still takes part in double-booking checks.
func (c *Comanda) Abierta() bool { return !c.Vendida }
