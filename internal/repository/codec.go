package repository

import (
	"fmt"
	"strconv"
	"time"

	"gmrstock/internal/docstore"
	"gmrstock/internal/model"

	"github.com/shopspring/decimal"
)

// Collections.
const (
	ColeccionLotes        = "lotes"
	ColeccionHistorial    = "historial"
	ColeccionComandas     = "comandas"
	ColeccionDevoluciones = "devoluciones"
	ColeccionVentas       = "ventas"
	ColeccionReprocesos   = "reprocesos"
	ColeccionContadores   = "contadores"
)

// Lot document fields. These names are the contract with the presentation
// layer and must not change.
const (
	campoNumero       = "number"
	campoDescripcion  = "description"
	campoUbicacion    = "location"
	campoCantidad     = "count"
	campoPeso         = "weight"
	campoEstado       = "status"
	campoPesoTotal    = "totalWeight"
	campoBigBag       = "bigBag"
	campoReservado    = "booked"
	campoFechaReserva = "dateBooked"
	campoReservadoPor = "bookedByUser"
	campoObsReserva   = "bookedRemark"
	campoObservacion  = "remark"
	campoCreadoEn     = "createdAt"

	campoBBNumero    = "bbNumber"
	campoBBPeso      = "bbWeight"
	campoBBUbicacion = "bbLocation"
	campoBBEstado    = "bbStatus"
	campoBBRemark    = "bbRemark"
)

// Comanda document fields.
const (
	campoCmdNumero    = "numeroDeComanda"
	campoCmdLote      = "numberLoteComanda"
	campoCmdMaterial  = "descriptionLoteComanda"
	campoCmdFecha     = "dateBookedComanda"
	campoCmdPesoTotal = "totalWeightComanda"
	campoCmdCliente   = "bookedClientComanda"
	campoCmdObs       = "remarkComanda"
	campoCmdVendida   = "fueVendidoComanda"
)

// Journal document fields (ventas, devoluciones, reprocesos).
const (
	campoMovLote        = "numeroLote"
	campoMovCliente     = "cliente"
	campoMovDescripcion = "descripcion"
	campoMovFecha       = "fecha"
	campoMovComanda     = "idComanda"
	campoMovBigBags     = "bigBags"
	campoMovPesoTotal   = "pesoTotal"
	campoMovObs         = "observacion"
)

var camposReserva = []string{campoReservado, campoFechaReserva, campoReservadoPor, campoObsReserva}

func coleccionDe(almacen model.Almacen) string {
	if almacen == model.AlmacenHistorial {
		return ColeccionHistorial
	}
	return ColeccionLotes
}

// ── readers ──────────────────────────────────────────────────────────────────
// Documents written by older clients are loosely typed; the readers accept
// every representation seen in the collections.

func leerString(f docstore.Fields, k string) string {
	switch v := f[k].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

func leerInt(f docstore.Fields, k string) int64 {
	switch v := f[k].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func leerBool(f docstore.Fields, k string) bool {
	switch v := f[k].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func leerTiempo(f docstore.Fields, k string) time.Time {
	switch v := f[k].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func leerPeso(f docstore.Fields, k string) (decimal.Decimal, error) {
	return model.ParsePeso(leerString(f, k))
}

func leerMapas(f docstore.Fields, k string) []map[string]any {
	raw, ok := f[k].([]any)
	if !ok {
		if typed, ok := f[k].([]map[string]any); ok {
			return typed
		}
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		switch m := item.(type) {
		case map[string]any:
			out = append(out, m)
		case docstore.Fields:
			out = append(out, m)
		}
	}
	return out
}

// tiempoONil keeps zero times out of the document.
func tiempoONil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// ── lot codec ────────────────────────────────────────────────────────────────

func bigBagsAFields(bags []model.BigBag) []any {
	out := make([]any, 0, len(bags))
	for _, b := range bags {
		out = append(out, map[string]any{
			campoBBNumero:    b.Numero,
			campoBBPeso:      model.FormatPeso(b.Peso),
			campoBBUbicacion: b.Ubicacion,
			campoBBEstado:    b.Estado.Codigo(),
			campoBBRemark:    b.Remark(),
		})
	}
	return out
}

func bigBagsDesdeFields(f docstore.Fields) ([]model.BigBag, error) {
	raw := leerMapas(f, campoBigBag)
	bags := make([]model.BigBag, 0, len(raw))
	for _, m := range raw {
		bf := docstore.Fields(m)
		peso, err := leerPeso(bf, campoBBPeso)
		if err != nil {
			return nil, fmt.Errorf("big bag %s: %w", leerString(bf, campoBBNumero), err)
		}
		estado, err := model.ParseEstadoBigBag(leerString(bf, campoBBEstado))
		if err != nil {
			return nil, err
		}
		remark := leerString(bf, campoBBRemark)
		bag := model.BigBag{
			Numero:    leerString(bf, campoBBNumero),
			Peso:      peso,
			Ubicacion: leerString(bf, campoBBUbicacion),
			Estado:    estado,
		}
		if remark == model.MarcaDevolucion {
			bag.Devuelto = true
		} else {
			bag.Observacion = remark
		}
		bags = append(bags, bag)
	}
	return bags, nil
}

func reservaAFields(r *model.Reserva) docstore.Fields {
	if r == nil {
		return docstore.Fields{}
	}
	f := docstore.Fields{
		campoReservado:    r.Cliente,
		campoFechaReserva: tiempoONil(r.FechaReserva),
	}
	if r.ReservadoPor != "" {
		f[campoReservadoPor] = r.ReservadoPor
	}
	if r.Observacion != "" {
		f[campoObsReserva] = r.Observacion
	}
	return f
}

func loteAFields(l *model.Lote) docstore.Fields {
	f := docstore.Fields{
		campoNumero:      l.Numero,
		campoDescripcion: l.Descripcion,
		campoUbicacion:   l.Ubicacion,
		campoCantidad:    int64(l.Cantidad),
		campoPeso:        model.FormatPeso(l.Peso),
		campoEstado:      string(l.Estado),
		campoPesoTotal:   model.FormatPeso(l.PesoTotal),
		campoBigBag:      bigBagsAFields(l.BigBags),
		campoObservacion: l.Observacion,
		campoCreadoEn:    tiempoONil(l.CreadoEn),
	}
	for k, v := range reservaAFields(l.Reserva) {
		f[k] = v
	}
	return f
}

func loteDesdeDocumento(doc *docstore.Document) (*model.Lote, error) {
	f := doc.Fields
	bags, err := bigBagsDesdeFields(f)
	if err != nil {
		return nil, fmt.Errorf("lote %s: %w", doc.Key, err)
	}
	peso, err := leerPeso(f, campoPeso)
	if err != nil {
		return nil, fmt.Errorf("lote %s: %w", doc.Key, err)
	}
	pesoTotal, err := leerPeso(f, campoPesoTotal)
	if err != nil {
		return nil, fmt.Errorf("lote %s: %w", doc.Key, err)
	}
	l := &model.Lote{
		ID:          doc.Key,
		Numero:      leerString(f, campoNumero),
		Descripcion: leerString(f, campoDescripcion),
		Ubicacion:   leerString(f, campoUbicacion),
		BigBags:     bags,
		Cantidad:    int(leerInt(f, campoCantidad)),
		Peso:        peso,
		PesoTotal:   pesoTotal,
		Estado:      model.EstadoLote(leerString(f, campoEstado)),
		Observacion: leerString(f, campoObservacion),
		CreadoEn:    leerTiempo(f, campoCreadoEn),
	}
	if cliente := leerString(f, campoReservado); cliente != "" {
		l.Reserva = &model.Reserva{
			Cliente:      cliente,
			FechaReserva: leerTiempo(f, campoFechaReserva),
			ReservadoPor: leerString(f, campoReservadoPor),
			Observacion:  leerString(f, campoObsReserva),
		}
	}
	return l, nil
}

// ── comanda codec ────────────────────────────────────────────────────────────

func comandaAFields(c *model.Comanda) docstore.Fields {
	return docstore.Fields{
		campoCmdNumero:    c.Numero,
		campoCmdLote:      c.NumeroLote,
		campoCmdMaterial:  c.Material,
		campoCmdFecha:     tiempoONil(c.FechaReserva),
		campoCmdPesoTotal: model.FormatPeso(c.PesoTotal),
		campoCmdCliente:   c.Cliente,
		campoCmdObs:       c.Observacion,
		campoCmdVendida:   c.Vendida,
	}
}

func comandaDesdeDocumento(doc *docstore.Document) (*model.Comanda, error) {
	f := doc.Fields
	peso, err := leerPeso(f, campoCmdPesoTotal)
	if err != nil {
		return nil, fmt.Errorf("comanda %s: %w", doc.Key, err)
	}
	return &model.Comanda{
		ID:           doc.Key,
		Numero:       leerInt(f, campoCmdNumero),
		Material:     leerString(f, campoCmdMaterial),
		NumeroLote:   leerString(f, campoCmdLote),
		FechaReserva: leerTiempo(f, campoCmdFecha),
		Cliente:      leerString(f, campoCmdCliente),
		PesoTotal:    peso,
		Observacion:  leerString(f, campoCmdObs),
		Vendida:      leerBool(f, campoCmdVendida),
	}, nil
}

// ── journal codec ────────────────────────────────────────────────────────────

func lineasAFields(lineas []model.LineaBigBag) []any {
	out := make([]any, 0, len(lineas))
	for _, l := range lineas {
		out = append(out, map[string]any{
			campoBBNumero: l.Numero,
			campoBBPeso:   model.FormatPeso(l.Peso),
		})
	}
	return out
}

func lineasDesdeFields(f docstore.Fields) ([]model.LineaBigBag, error) {
	raw := leerMapas(f, campoMovBigBags)
	out := make([]model.LineaBigBag, 0, len(raw))
	for _, m := range raw {
		lf := docstore.Fields(m)
		peso, err := leerPeso(lf, campoBBPeso)
		if err != nil {
			return nil, err
		}
		out = append(out, model.LineaBigBag{Numero: leerString(lf, campoBBNumero), Peso: peso})
	}
	return out, nil
}
