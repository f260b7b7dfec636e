package dto

import (
	"time"

	"gmrstock/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearBigBagRequest struct {
	Numero    string `json:"bbNumber"   validate:"required,max=32"`
	Peso      string `json:"bbWeight"   validate:"required,max=32"` // "12,5" and "12.5" both parse
	Ubicacion string `json:"bbLocation" validate:"max=64"`
}

type CrearLoteRequest struct {
	Numero      string               `json:"number"      validate:"required,max=32"`
	Descripcion string               `json:"description" validate:"required,max=120"`
	Ubicacion   string               `json:"location"    validate:"max=64"`
	Observacion string               `json:"remark"      validate:"max=500"`
	BigBags     []CrearBigBagRequest `json:"bigBag"      validate:"required,min=1,dive"`
}

// ReservaRequest replaces the whole booking. Sending every field as null
// clears it.
type ReservaRequest struct {
	Cliente      *string    `json:"booked"       validate:"omitempty,max=120"`
	FechaReserva *time.Time `json:"dateBooked"`
	ReservadoPor *string    `json:"bookedByUser" validate:"omitempty,max=120"`
	Observacion  *string    `json:"bookedRemark" validate:"omitempty,max=500"`
}

func (r ReservaRequest) Campos() model.CamposReserva {
	return model.CamposReserva{
		Cliente:      r.Cliente,
		FechaReserva: r.FechaReserva,
		ReservadoPor: r.ReservadoPor,
		Observacion:  r.Observacion,
	}
}

type ObservacionRequest struct {
	Observacion string `json:"remark" validate:"max=500"`
}

// LoteFilter is bound from the query string of GET /v1/lotes.
type LoteFilter struct {
	Material  string `form:"material"`
	Historial bool   `form:"historial"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// BigBagResponse keeps the legacy document field names.
type BigBagResponse struct {
	Numero    string `json:"bbNumber"`
	Peso      string `json:"bbWeight"`
	Ubicacion string `json:"bbLocation"`
	Estado    string `json:"bbStatus"`
	Remark    string `json:"bbRemark"`
}

type LoteResponse struct {
	ID           string           `json:"id"`
	Almacen      string           `json:"almacen,omitempty"`
	Numero       string           `json:"number"`
	Descripcion  string           `json:"description"`
	Ubicacion    string           `json:"location"`
	Cantidad     int              `json:"count"`
	Peso         string           `json:"weight"`
	Estado       string           `json:"status"`
	PesoTotal    string           `json:"totalWeight"`
	BigBags      []BigBagResponse `json:"bigBag"`
	Reservado    *string          `json:"booked"`
	FechaReserva *time.Time       `json:"dateBooked"`
	ReservadoPor *string          `json:"bookedByUser"`
	ObsReserva   *string          `json:"bookedRemark"`
	Observacion  string           `json:"remark"`
	CreadoEn     *time.Time       `json:"createdAt,omitempty"`
}

func BigBagsFromModel(bags []model.BigBag) []BigBagResponse {
	out := make([]BigBagResponse, 0, len(bags))
	for _, b := range bags {
		out = append(out, BigBagResponse{
			Numero:    b.Numero,
			Peso:      model.FormatPeso(b.Peso),
			Ubicacion: b.Ubicacion,
			Estado:    b.Estado.Codigo(),
			Remark:    b.Remark(),
		})
	}
	return out
}

// LoteFromModel maps a lot; almacen may be empty when the caller did not locate it.
func LoteFromModel(l *model.Lote, almacen model.Almacen) *LoteResponse {
	if l == nil {
		return nil
	}
	resp := &LoteResponse{
		ID:          l.ID,
		Almacen:     string(almacen),
		Numero:      l.Numero,
		Descripcion: l.Descripcion,
		Ubicacion:   l.Ubicacion,
		Cantidad:    l.Cantidad,
		Peso:        model.FormatPeso(l.Peso),
		Estado:      string(l.Estado),
		PesoTotal:   model.FormatPeso(l.PesoTotal),
		BigBags:     BigBagsFromModel(l.BigBags),
		Observacion: l.Observacion,
	}
	if !l.CreadoEn.IsZero() {
		t := l.CreadoEn
		resp.CreadoEn = &t
	}
	if r := l.Reserva; r != nil {
		cliente, por, obs, fecha := r.Cliente, r.ReservadoPor, r.Observacion, r.FechaReserva
		resp.Reservado = &cliente
		resp.FechaReserva = &fecha
		resp.ReservadoPor = &por
		resp.ObsReserva = &obs
	}
	return resp
}

func LotesFromModel(lotes []model.Lote, almacen model.Almacen) []LoteResponse {
	out := make([]LoteResponse, 0, len(lotes))
	for i := range lotes {
		out = append(out, *LoteFromModel(&lotes[i], almacen))
	}
	return out
}

// EventoTrazaResponse is one row of GET /v1/lotes/:numero/traza.
type EventoTrazaResponse struct {
	Fecha      *time.Time `json:"fecha"`
	Tipo       string     `json:"tipo"`
	Titulo     string     `json:"titulo"`
	Subtitulo  string     `json:"subtitulo"`
	Peso       string     `json:"peso"`
	BigBags    []string   `json:"bigBags"`
	Referencia string     `json:"referencia,omitempty"`
}

func TrazaFromModel(eventos []model.EventoTraza) []EventoTrazaResponse {
	out := make([]EventoTrazaResponse, 0, len(eventos))
	for _, e := range eventos {
		item := EventoTrazaResponse{
			Tipo:       string(e.Tipo),
			Titulo:     e.Titulo,
			Subtitulo:  e.Subtitulo,
			Peso:       model.FormatPeso(e.Peso),
			BigBags:    e.BigBags,
			Referencia: e.Referencia,
		}
		if !e.Fecha.IsZero() {
			f := e.Fecha
			item.Fecha = &f
		}
		if item.BigBags == nil {
			item.BigBags = []string{}
		}
		out = append(out, item)
	}
	return out
}
