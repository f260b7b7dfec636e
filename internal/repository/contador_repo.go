package repository

import (
	"context"

	"gmrstock/internal/docstore"
)

const campoUltimoNumero = "ultimoNumero"

// ContadorRepository stores named counters in the contadores collection.
type ContadorRepository interface {
	// Get returns the last issued value and whether the counter exists.
	Get(ctx context.Context, nombre string) (int64, bool, error)
	// Save writes value, creating the counter document when existe is false.
	Save(ctx context.Context, nombre string, valor int64, existe bool) error
}

type contadorRepo struct{ store docstore.Store }

func NewContadorRepository(store docstore.Store) ContadorRepository {
	return &contadorRepo{store: store}
}

func (r *contadorRepo) Get(ctx context.Context, nombre string) (int64, bool, error) {
	doc, err := r.store.Get(ctx, ColeccionContadores, nombre)
	if err != nil {
		if esNoEncontrado(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return leerInt(doc.Fields, campoUltimoNumero), true, nil
}

func (r *contadorRepo) Save(ctx context.Context, nombre string, valor int64, existe bool) error {
	fields := docstore.Fields{campoUltimoNumero: valor}
	if !existe {
		_, err := r.store.Create(ctx, ColeccionContadores, nombre, fields)
		return err
	}
	return r.store.Patch(ctx, docstore.Ref{Collection: ColeccionContadores, Key: nombre},
		[]string{campoUltimoNumero}, fields)
}
