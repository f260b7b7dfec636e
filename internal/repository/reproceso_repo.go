package repository

import (
	"context"
	"fmt"

	"gmrstock/internal/docstore"
	"gmrstock/internal/model"
)

// ReprocesoRepository reads the reprocessing journal. Entries are written by
// the reprocessing line; Create exists for seeding.
type ReprocesoRepository interface {
	Create(ctx context.Context, rp *model.Reproceso) (string, error)
	ListByLote(ctx context.Context, numeroLote string) ([]model.Reproceso, error)
}

type reprocesoRepo struct{ store docstore.Store }

func NewReprocesoRepository(store docstore.Store) ReprocesoRepository {
	return &reprocesoRepo{store: store}
}

func (r *reprocesoRepo) Create(ctx context.Context, rp *model.Reproceso) (string, error) {
	return r.store.Create(ctx, ColeccionReprocesos, "", docstore.Fields{
		campoMovLote:        rp.NumeroLote,
		campoMovDescripcion: rp.Descripcion,
		campoMovFecha:       tiempoONil(rp.Fecha),
		campoMovBigBags:     lineasAFields(rp.BigBags),
		campoMovPesoTotal:   model.FormatPeso(rp.PesoTotal),
		campoMovObs:         rp.Observacion,
	})
}

func (r *reprocesoRepo) ListByLote(ctx context.Context, numeroLote string) ([]model.Reproceso, error) {
	docs, err := queryJournal(ctx, r.store, ColeccionReprocesos, numeroLote)
	if err != nil {
		return nil, err
	}
	out := make([]model.Reproceso, 0, len(docs))
	for _, doc := range docs {
		lineas, err := lineasDesdeFields(doc.Fields)
		if err != nil {
			return nil, fmt.Errorf("reproceso %s: %w", doc.Key, err)
		}
		peso, err := leerPeso(doc.Fields, campoMovPesoTotal)
		if err != nil {
			return nil, fmt.Errorf("reproceso %s: %w", doc.Key, err)
		}
		out = append(out, model.Reproceso{
			ID:          doc.Key,
			NumeroLote:  leerString(doc.Fields, campoMovLote),
			Descripcion: leerString(doc.Fields, campoMovDescripcion),
			Fecha:       leerTiempo(doc.Fields, campoMovFecha),
			BigBags:     lineas,
			PesoTotal:   peso,
			Observacion: leerString(doc.Fields, campoMovObs),
		})
	}
	return out, nil
}
