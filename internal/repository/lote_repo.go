package repository

import (
	"context"
	"errors"
	"fmt"

	"gmrstock/internal/docstore"
	"gmrstock/internal/model"
)

// LoteRepository reads and writes lots in either store. Find* methods return
// nil, nil when nothing matches.
type LoteRepository interface {
	FindByNumero(ctx context.Context, almacen model.Almacen, numero string) (*model.Lote, error)
	FindAllByNumero(ctx context.Context, almacen model.Almacen, numero string) ([]model.Lote, error)
	List(ctx context.Context, almacen model.Almacen, material string) ([]model.Lote, error)
	Create(ctx context.Context, almacen model.Almacen, l *model.Lote) (string, error)
	UpdateReserva(ctx context.Context, almacen model.Almacen, l *model.Lote) error
	UpdateObservacion(ctx context.Context, almacen model.Almacen, l *model.Lote) error
	// UpdateBigBags writes the bag array together with count and totalWeight
	// in a single document patch.
	UpdateBigBags(ctx context.Context, almacen model.Almacen, l *model.Lote) error
	Delete(ctx context.Context, almacen model.Almacen, id string) error
}

type loteRepo struct{ store docstore.Store }

func NewLoteRepository(store docstore.Store) LoteRepository { return &loteRepo{store: store} }

func (r *loteRepo) FindByNumero(ctx context.Context, almacen model.Almacen, numero string) (*model.Lote, error) {
	docs, err := r.store.Query(ctx, docstore.Query{
		Collection: coleccionDe(almacen),
		Where:      []docstore.Filter{docstore.Eq(campoNumero, numero)},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return loteDesdeDocumento(&docs[0])
}

func (r *loteRepo) FindAllByNumero(ctx context.Context, almacen model.Almacen, numero string) ([]model.Lote, error) {
	docs, err := r.store.Query(ctx, docstore.Query{
		Collection: coleccionDe(almacen),
		Where:      []docstore.Filter{docstore.Eq(campoNumero, numero)},
	})
	if err != nil {
		return nil, err
	}
	return lotesDesdeDocumentos(docs)
}

func (r *loteRepo) List(ctx context.Context, almacen model.Almacen, material string) ([]model.Lote, error) {
	q := docstore.Query{Collection: coleccionDe(almacen), OrderBy: campoNumero}
	if material != "" {
		q.Where = []docstore.Filter{docstore.Eq(campoDescripcion, material)}
	}
	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return lotesDesdeDocumentos(docs)
}

func (r *loteRepo) Create(ctx context.Context, almacen model.Almacen, l *model.Lote) (string, error) {
	return r.store.Create(ctx, coleccionDe(almacen), "", loteAFields(l))
}

func (r *loteRepo) UpdateReserva(ctx context.Context, almacen model.Almacen, l *model.Lote) error {
	return r.patch(ctx, almacen, l.ID, camposReserva, reservaAFields(l.Reserva))
}

func (r *loteRepo) UpdateObservacion(ctx context.Context, almacen model.Almacen, l *model.Lote) error {
	return r.patch(ctx, almacen, l.ID, []string{campoObservacion}, docstore.Fields{campoObservacion: l.Observacion})
}

func (r *loteRepo) UpdateBigBags(ctx context.Context, almacen model.Almacen, l *model.Lote) error {
	return r.patch(ctx, almacen, l.ID,
		[]string{campoBigBag, campoCantidad, campoPesoTotal},
		docstore.Fields{
			campoBigBag:    bigBagsAFields(l.BigBags),
			campoCantidad:  int64(l.Cantidad),
			campoPesoTotal: model.FormatPeso(l.PesoTotal),
		})
}

func (r *loteRepo) Delete(ctx context.Context, almacen model.Almacen, id string) error {
	return r.store.Delete(ctx, docstore.Ref{Collection: coleccionDe(almacen), Key: id})
}

func (r *loteRepo) patch(ctx context.Context, almacen model.Almacen, id string, mask []string, fields docstore.Fields) error {
	if id == "" {
		return fmt.Errorf("lote sin id en %s", almacen)
	}
	return r.store.Patch(ctx, docstore.Ref{Collection: coleccionDe(almacen), Key: id}, mask, fields)
}

func lotesDesdeDocumentos(docs []docstore.Document) ([]model.Lote, error) {
	lotes := make([]model.Lote, 0, len(docs))
	for i := range docs {
		l, err := loteDesdeDocumento(&docs[i])
		if err != nil {
			return nil, err
		}
		lotes = append(lotes, *l)
	}
	return lotes, nil
}

// esNoEncontrado folds the store's not-found answer into nil, nil results.
func esNoEncontrado(err error) bool { return errors.Is(err, docstore.ErrNotFound) }
