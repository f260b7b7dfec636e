package dto

import (
	"time"

	"gmrstock/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearComandaRequest struct {
	Material     string    `json:"descriptionLoteComanda" validate:"required,max=120"`
	Cliente      string    `json:"bookedClientComanda"    validate:"required,max=120"`
	FechaReserva time.Time `json:"dateBookedComanda"      validate:"required"`
	PesoTotal    string    `json:"totalWeightComanda"     validate:"max=32"`
	Observacion  string    `json:"remarkComanda"          validate:"max=500"`
}

type AsignarLoteRequest struct {
	NumeroLote   string `json:"numberLoteComanda" validate:"required,max=32"`
	ReservadoPor string `json:"bookedByUser"      validate:"max=120"`
}

type DesasignarLoteRequest struct {
	LiberarLote bool `json:"liberarLote"`
}

type ReprogramarComandaRequest struct {
	FechaReserva time.Time `json:"dateBookedComanda" validate:"required"`
}

// ComandaFilter is bound from the query string of GET /v1/comandas.
type ComandaFilter struct {
	Pendientes bool `form:"pendientes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ComandaResponse struct {
	ID           string     `json:"id"`
	Numero       int64      `json:"numeroDeComanda"`
	NumeroLote   string     `json:"numberLoteComanda"`
	Material     string     `json:"descriptionLoteComanda"`
	FechaReserva *time.Time `json:"dateBookedComanda"`
	PesoTotal    string     `json:"totalWeightComanda"`
	Cliente      string     `json:"bookedClientComanda"`
	Observacion  string     `json:"remarkComanda"`
	Vendida      bool       `json:"fueVendidoComanda"`
}

func ComandaFromModel(c *model.Comanda) *ComandaResponse {
	if c == nil {
		return nil
	}
	resp := &ComandaResponse{
		ID:          c.ID,
		Numero:      c.Numero,
		NumeroLote:  c.NumeroLote,
		Material:    c.Material,
		PesoTotal:   model.FormatPeso(c.PesoTotal),
		Cliente:     c.Cliente,
		Observacion: c.Observacion,
		Vendida:     c.Vendida,
	}
	if !c.FechaReserva.IsZero() {
		f := c.FechaReserva
		resp.FechaReserva = &f
	}
	return resp
}

func ComandasFromModel(comandas []model.Comanda) []ComandaResponse {
	out := make([]ComandaResponse, 0, len(comandas))
	for i := range comandas {
		out = append(out, *ComandaFromModel(&comandas[i]))
	}
	return out
}
