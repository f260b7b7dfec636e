package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrTransicionInvalida is returned when a big bag is moved to the state it is already in.
var ErrTransicionInvalida = errors.New("transicion de estado de big bag invalida")

// EstadoBigBag is the stock state of a single big bag.
type EstadoBigBag int

const (
	BigBagEnStock EstadoBigBag = iota // sellable / returnable
	BigBagFuera                       // sold or transferred
)

// Legacy short codes stored in bbStatus.
const (
	codigoEnStock = "s"
	codigoFuera   = "o"
)

// MarcaDevolucion is the bbRemark value that flags a returned bag.
const MarcaDevolucion = "DEVO"

func (e EstadoBigBag) String() string {
	switch e {
	case BigBagEnStock:
		return "en_stock"
	case BigBagFuera:
		return "fuera"
	default:
		return "desconocido"
	}
}

// Codigo returns the short code persisted in bbStatus.
func (e EstadoBigBag) Codigo() string {
	if e == BigBagFuera {
		return codigoFuera
	}
	return codigoEnStock
}

// ParseEstadoBigBag maps a bbStatus code back to the enum.
func ParseEstadoBigBag(codigo string) (EstadoBigBag, error) {
	switch codigo {
	case codigoEnStock, "":
		return BigBagEnStock, nil
	case codigoFuera:
		return BigBagFuera, nil
	default:
		return BigBagEnStock, fmt.Errorf("codigo de estado de big bag desconocido %q", codigo)
	}
}

// BigBag is one numbered physical unit of a lot.
type BigBag struct {
	Numero      string
	Peso        decimal.Decimal
	Ubicacion   string
	Estado      EstadoBigBag
	Devuelto    bool
	Observacion string
}

// MarcarSalida flips an in-stock bag to out (sale or transfer).
func MarcarSalida(b BigBag) (BigBag, error) {
	if b.Estado != BigBagEnStock {
		return b, fmt.Errorf("big bag %s: %w", b.Numero, ErrTransicionInvalida)
	}
	b.Estado = BigBagFuera
	return b, nil
}

// MarcarDevuelto brings a sold bag back into stock and tags it as returned.
func MarcarDevuelto(b BigBag) (BigBag, error) {
	if b.Estado != BigBagFuera {
		return b, fmt.Errorf("big bag %s: %w", b.Numero, ErrTransicionInvalida)
	}
	b.Estado = BigBagEnStock
	b.Devuelto = true
	return b, nil
}

// Remark is the value written to bbRemark.
func (b BigBag) Remark() string {
	if b.Devuelto {
		return MarcaDevolucion
	}
	return b.Observacion
}
