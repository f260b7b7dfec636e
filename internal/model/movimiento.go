package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineaBigBag is the per-bag line stored in sale, return and reprocess journals.
type LineaBigBag struct {
	Numero string
	Peso   decimal.Decimal
}

// Devolucion is an append-only journal entry for a client return.
// The lot's bag array stays authoritative for stock.
type Devolucion struct {
	ID          string
	NumeroLote  string
	Cliente     string
	Descripcion string
	Fecha       time.Time
	BigBags     []LineaBigBag
	PesoTotal   decimal.Decimal
}

// Venta records which bags of a lot left to which client.
type Venta struct {
	ID          string
	NumeroLote  string
	Cliente     string
	Descripcion string
	Fecha       time.Time
	IDComanda   string
	BigBags     []LineaBigBag
	PesoTotal   decimal.Decimal
}

// Incluye reports whether the sale moved the given bag.
func (v *Venta) Incluye(numero string) bool {
	for _, l := range v.BigBags {
		if l.Numero == numero {
			return true
		}
	}
	return false
}

// Reproceso is written by the reprocessing line; this service only reads it.
type Reproceso struct {
	ID          string
	NumeroLote  string
	Descripcion string
	Fecha       time.Time
	BigBags     []LineaBigBag
	PesoTotal   decimal.Decimal
	Observacion string
}

// LineasDe builds journal lines for the given bags.
func LineasDe(bags []BigBag) []LineaBigBag {
	lineas := make([]LineaBigBag, 0, len(bags))
	for _, b := range bags {
		lineas = append(lineas, LineaBigBag{Numero: b.Numero, Peso: b.Peso})
	}
	return lineas
}

// SumarLineas adds line weights exactly.
func SumarLineas(lineas []LineaBigBag) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lineas {
		total = total.Add(l.Peso)
	}
	return total
}
