package repository

import (
	"context"
	"fmt"

	"gmrstock/internal/docstore"
	"gmrstock/internal/model"
)

type VentaRepository interface {
	Create(ctx context.Context, v *model.Venta) (string, error)
	// ListByLote returns the lot's sales, newest first.
	ListByLote(ctx context.Context, numeroLote string) ([]model.Venta, error)
}

type ventaRepo struct{ store docstore.Store }

func NewVentaRepository(store docstore.Store) VentaRepository { return &ventaRepo{store: store} }

func (r *ventaRepo) Create(ctx context.Context, v *model.Venta) (string, error) {
	return r.store.Create(ctx, ColeccionVentas, "", docstore.Fields{
		campoMovLote:        v.NumeroLote,
		campoMovCliente:     v.Cliente,
		campoMovDescripcion: v.Descripcion,
		campoMovFecha:       tiempoONil(v.Fecha),
		campoMovComanda:     v.IDComanda,
		campoMovBigBags:     lineasAFields(v.BigBags),
		campoMovPesoTotal:   model.FormatPeso(v.PesoTotal),
	})
}

func (r *ventaRepo) ListByLote(ctx context.Context, numeroLote string) ([]model.Venta, error) {
	docs, err := queryJournal(ctx, r.store, ColeccionVentas, numeroLote)
	if err != nil {
		return nil, err
	}
	ventas := make([]model.Venta, 0, len(docs))
	for _, doc := range docs {
		lineas, err := lineasDesdeFields(doc.Fields)
		if err != nil {
			return nil, fmt.Errorf("venta %s: %w", doc.Key, err)
		}
		peso, err := leerPeso(doc.Fields, campoMovPesoTotal)
		if err != nil {
			return nil, fmt.Errorf("venta %s: %w", doc.Key, err)
		}
		ventas = append(ventas, model.Venta{
			ID:          doc.Key,
			NumeroLote:  leerString(doc.Fields, campoMovLote),
			Cliente:     leerString(doc.Fields, campoMovCliente),
			Descripcion: leerString(doc.Fields, campoMovDescripcion),
			Fecha:       leerTiempo(doc.Fields, campoMovFecha),
			IDComanda:   leerString(doc.Fields, campoMovComanda),
			BigBags:     lineas,
			PesoTotal:   peso,
		})
	}
	return ventas, nil
}

// queryJournal loads one lot's entries of a journal collection, newest first.
func queryJournal(ctx context.Context, store docstore.Store, coleccion, numeroLote string) ([]docstore.Document, error) {
	return store.Query(ctx, docstore.Query{
		Collection: coleccion,
		Where:      []docstore.Filter{docstore.Eq(campoMovLote, numeroLote)},
		OrderBy:    campoMovFecha,
		Descending: true,
	})
}
