package model

import "time"

// TipoIncidencia classifies a cross-document inconsistency.
type TipoIncidencia string

const (
	// IncidenciaEscrituraParcial is a workflow that stopped after some writes.
	IncidenciaEscrituraParcial TipoIncidencia = "escritura_parcial"
	// IncidenciaReservaHuerfana is a booked lot no open comanda points at.
	IncidenciaReservaHuerfana TipoIncidencia = "reserva_huerfana"
	// IncidenciaLoteDuplicado is a lot number present in both stores.
	IncidenciaLoteDuplicado TipoIncidencia = "lote_duplicado"
	// IncidenciaParDesalineado is a comanda whose client or date differs from its lot's booking.
	IncidenciaParDesalineado TipoIncidencia = "par_desalineado"
)

// TiposIncidencia lists every kind, in report order.
var TiposIncidencia = []TipoIncidencia{
	IncidenciaEscrituraParcial,
	IncidenciaReservaHuerfana,
	IncidenciaLoteDuplicado,
	IncidenciaParDesalineado,
}

// Incidencia is queued for staff to reconcile by hand.
type Incidencia struct {
	Tipo       TipoIncidencia `json:"tipo"`
	Operacion  string         `json:"operacion,omitempty"`
	NumeroLote string         `json:"numero_lote,omitempty"`
	IDComanda  string         `json:"id_comanda,omitempty"`
	Detalle    string         `json:"detalle"`
	Fecha      time.Time      `json:"fecha"`
}
