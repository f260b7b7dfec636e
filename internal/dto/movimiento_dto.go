package dto

import (
	"time"

	"gmrstock/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RegistrarVentaRequest struct {
	NumeroLote string     `json:"numeroLote" validate:"required,max=32"`
	Cliente    string     `json:"cliente"    validate:"max=120"` // defaults to the comanda's client
	IDComanda  string     `json:"idComanda"  validate:"max=64"`
	BigBags    []string   `json:"bigBags"    validate:"required,min=1,dive,required"`
	Fecha      *time.Time `json:"fecha"`
}

type RegistrarDevolucionRequest struct {
	NumeroLote string     `json:"numeroLote" validate:"required,max=32"`
	Cliente    string     `json:"cliente"    validate:"required,max=120"`
	BigBags    []string   `json:"bigBags"    validate:"required,min=1,dive,required"`
	Fecha      *time.Time `json:"fecha"`
}

// DevolviblesFilter is bound from the query string of GET /v1/lotes/:numero/devolvibles.
type DevolviblesFilter struct {
	Cliente string `form:"cliente" validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ResultadoResponse is returned by every multi-document workflow. HTTP 207
// is used when Exito is false.
type ResultadoResponse struct {
	Exito        bool             `json:"exito"`
	Advertencias []string         `json:"advertencias"`
	Lote         *LoteResponse    `json:"lote,omitempty"`
	Comanda      *ComandaResponse `json:"comanda,omitempty"`
}

func NewResultadoResponse(exito bool, advertencias []string, lote *model.Lote, comanda *model.Comanda) ResultadoResponse {
	if advertencias == nil {
		advertencias = []string{}
	}
	return ResultadoResponse{
		Exito:        exito,
		Advertencias: advertencias,
		Lote:         LoteFromModel(lote, ""),
		Comanda:      ComandaFromModel(comanda),
	}
}
