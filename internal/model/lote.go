package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrReservaNoAtomica rejects booking updates that set only some of the four booking fields.
var ErrReservaNoAtomica = errors.New("la reserva debe actualizarse completa (cliente, fecha, usuario y observacion)")

// EstadoLote is persisted in the lot's status field.
type EstadoLote string

const (
	LoteActivo    EstadoLote = "activo"
	LoteArchivado EstadoLote = "archivado"
)

// Almacen identifies which collection a lot was found in.
type Almacen string

const (
	AlmacenActivo    Almacen = "lotes"
	AlmacenHistorial Almacen = "historial"
)

// Reserva binds a lot to a client. A lot has at most one.
type Reserva struct {
	Cliente      string
	FechaReserva time.Time
	ReservadoPor string
	Observacion  string
}

// CamposReserva carries a full booking replacement. A nil field means null.
type CamposReserva struct {
	Cliente      *string
	FechaReserva *time.Time
	ReservadoPor *string
	Observacion  *string
}

// NuevaReserva validates a booking replacement. A nil result with nil error
// means the booking is cleared.
func NuevaReserva(c CamposReserva) (*Reserva, error) {
	cliente := ""
	if c.Cliente != nil {
		cliente = strings.TrimSpace(*c.Cliente)
	}
	if cliente == "" {
		if c.FechaReserva != nil || c.ReservadoPor != nil || c.Observacion != nil {
			return nil, ErrReservaNoAtomica
		}
		return nil, nil
	}
	if c.FechaReserva == nil || c.FechaReserva.IsZero() {
		return nil, ErrReservaNoAtomica
	}
	r := &Reserva{Cliente: cliente, FechaReserva: *c.FechaReserva}
	if c.ReservadoPor != nil {
		r.ReservadoPor = *c.ReservadoPor
	}
	if c.Observacion != nil {
		r.Observacion = *c.Observacion
	}
	return r, nil
}

// Lote is an inventory batch and the sole owner of its big bags.
type Lote struct {
	ID          string
	Numero      string
	Descripcion string
	Ubicacion   string
	BigBags     []BigBag
	Cantidad    int
	Peso        decimal.Decimal
	PesoTotal   decimal.Decimal
	Estado      EstadoLote
	Reserva     *Reserva
	Observacion string
	CreadoEn    time.Time
}

// IndiceBigBag returns the position of the bag with the given number.
func (l *Lote) IndiceBigBag(numero string) (int, bool) {
	for i := range l.BigBags {
		if l.BigBags[i].Numero == numero {
			return i, true
		}
	}
	return -1, false
}

// ReservadoPara reports whether the lot is booked for cliente.
func (l *Lote) ReservadoPara(cliente string) bool {
	return l.Reserva != nil && MismoCliente(l.Reserva.Cliente, cliente)
}

// PesoVisible is the lot weight used for display. Archived documents that
// lost their aggregate read as zero; the bag sum stands in for them.
func (l *Lote) PesoVisible() decimal.Decimal {
	if !l.PesoTotal.IsZero() {
		return l.PesoTotal
	}
	if !l.Peso.IsZero() {
		return l.Peso
	}
	return SumarPesos(l.BigBags)
}

// Clonar returns a deep copy so workflows can mutate without touching the caller's value.
func (l *Lote) Clonar() *Lote {
	c := *l
	c.BigBags = append([]BigBag(nil), l.BigBags...)
	if l.Reserva != nil {
		r := *l.Reserva
		c.Reserva = &r
	}
	return &c
}

// MismoCliente compares client names the way staff type them.
func MismoCliente(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// RecalcularAgregados refreshes the derived fields after a bag mutation.
// Count always follows the bag array. Returned bags add their weight back to
// the total; a sale leaves the total untouched.
func (l *Lote) RecalcularAgregados(devueltos ...BigBag) {
	l.Cantidad = len(l.BigBags)
	if len(devueltos) > 0 {
		l.PesoTotal = l.PesoTotal.Add(SumarPesos(devueltos))
	}
}
