package repository

import (
	"context"

	"gmrstock/internal/docstore"
	"gmrstock/internal/model"
)

type ComandaRepository interface {
	Create(ctx context.Context, c *model.Comanda) (string, error)
	FindByID(ctx context.Context, id string) (*model.Comanda, error)
	// List returns comandas ordered by number. soloAbiertas drops sold ones.
	List(ctx context.Context, soloAbiertas bool) ([]model.Comanda, error)
	FindByNumeroLote(ctx context.Context, numeroLote string) ([]model.Comanda, error)
	UpdateLote(ctx context.Context, id, numeroLote string) error
	UpdateFecha(ctx context.Context, c *model.Comanda) error
	MarkVendida(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type comandaRepo struct{ store docstore.Store }

func NewComandaRepository(store docstore.Store) ComandaRepository {
	return &comandaRepo{store: store}
}

func (r *comandaRepo) Create(ctx context.Context, c *model.Comanda) (string, error) {
	return r.store.Create(ctx, ColeccionComandas, "", comandaAFields(c))
}

func (r *comandaRepo) FindByID(ctx context.Context, id string) (*model.Comanda, error) {
	doc, err := r.store.Get(ctx, ColeccionComandas, id)
	if err != nil {
		if esNoEncontrado(err) {
			return nil, nil
		}
		return nil, err
	}
	return comandaDesdeDocumento(doc)
}

// List filters sold orders in Go: documents written before fueVendidoComanda
// existed lack the field and still count as open.
func (r *comandaRepo) List(ctx context.Context, soloAbiertas bool) ([]model.Comanda, error) {
	docs, err := r.store.Query(ctx, docstore.Query{Collection: ColeccionComandas, OrderBy: campoCmdNumero})
	if err != nil {
		return nil, err
	}
	comandas := make([]model.Comanda, 0, len(docs))
	for i := range docs {
		c, err := comandaDesdeDocumento(&docs[i])
		if err != nil {
			return nil, err
		}
		if soloAbiertas && !c.Abierta() {
			continue
		}
		comandas = append(comandas, *c)
	}
	return comandas, nil
}

func (r *comandaRepo) FindByNumeroLote(ctx context.Context, numeroLote string) ([]model.Comanda, error) {
	docs, err := r.store.Query(ctx, docstore.Query{
		Collection: ColeccionComandas,
		Where:      []docstore.Filter{docstore.Eq(campoCmdLote, numeroLote)},
		OrderBy:    campoCmdNumero,
	})
	if err != nil {
		return nil, err
	}
	comandas := make([]model.Comanda, 0, len(docs))
	for i := range docs {
		c, err := comandaDesdeDocumento(&docs[i])
		if err != nil {
			return nil, err
		}
		comandas = append(comandas, *c)
	}
	return comandas, nil
}

func (r *comandaRepo) UpdateLote(ctx context.Context, id, numeroLote string) error {
	return r.store.Patch(ctx, docstore.Ref{Collection: ColeccionComandas, Key: id},
		[]string{campoCmdLote}, docstore.Fields{campoCmdLote: numeroLote})
}

func (r *comandaRepo) UpdateFecha(ctx context.Context, c *model.Comanda) error {
	return r.store.Patch(ctx, docstore.Ref{Collection: ColeccionComandas, Key: c.ID},
		[]string{campoCmdFecha}, docstore.Fields{campoCmdFecha: tiempoONil(c.FechaReserva)})
}

func (r *comandaRepo) MarkVendida(ctx context.Context, id string) error {
	return r.store.Patch(ctx, docstore.Ref{Collection: ColeccionComandas, Key: id},
		[]string{campoCmdVendida}, docstore.Fields{campoCmdVendida: true})
}

func (r *comandaRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, docstore.Ref{Collection: ColeccionComandas, Key: id})
}
