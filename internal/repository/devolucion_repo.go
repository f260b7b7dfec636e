package repository

import (
	"context"
	"fmt"

	"gmrstock/internal/docstore"
	"gmrstock/internal/model"
)

type DevolucionRepository interface {
	Create(ctx context.Context, d *model.Devolucion) (string, error)
	ListByLote(ctx context.Context, numeroLote string) ([]model.Devolucion, error)
}

type devolucionRepo struct{ store docstore.Store }

func NewDevolucionRepository(store docstore.Store) DevolucionRepository {
	return &devolucionRepo{store: store}
}

func (r *devolucionRepo) Create(ctx context.Context, d *model.Devolucion) (string, error) {
	return r.store.Create(ctx, ColeccionDevoluciones, "", docstore.Fields{
		campoMovLote:        d.NumeroLote,
		campoMovCliente:     d.Cliente,
		campoMovDescripcion: d.Descripcion,
		campoMovFecha:       tiempoONil(d.Fecha),
		campoMovBigBags:     lineasAFields(d.BigBags),
		campoMovPesoTotal:   model.FormatPeso(d.PesoTotal),
	})
}

func (r *devolucionRepo) ListByLote(ctx context.Context, numeroLote string) ([]model.Devolucion, error) {
	docs, err := queryJournal(ctx, r.store, ColeccionDevoluciones, numeroLote)
	if err != nil {
		return nil, err
	}
	out := make([]model.Devolucion, 0, len(docs))
	for _, doc := range docs {
		lineas, err := lineasDesdeFields(doc.Fields)
		if err != nil {
			return nil, fmt.Errorf("devolucion %s: %w", doc.Key, err)
		}
		peso, err := leerPeso(doc.Fields, campoMovPesoTotal)
		if err != nil {
			return nil, fmt.Errorf("devolucion %s: %w", doc.Key, err)
		}
		out = append(out, model.Devolucion{
			ID:          doc.Key,
			NumeroLote:  leerString(doc.Fields, campoMovLote),
			Cliente:     leerString(doc.Fields, campoMovCliente),
			Descripcion: leerString(doc.Fields, campoMovDescripcion),
			Fecha:       leerTiempo(doc.Fields, campoMovFecha),
			BigBags:     lineas,
			PesoTotal:   peso,
		})
	}
	return out, nil
}
