package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gmrstock/internal/apierror"
	"gmrstock/internal/dto"
	"gmrstock/internal/model"
	"gmrstock/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comandaReq(material, cliente string, fecha time.Time) dto.CrearComandaRequest {
	return dto.CrearComandaRequest{Material: material, Cliente: cliente, FechaReserva: fecha, PesoTotal: "20"}
}

func numerosDeLotes(lotes []model.Lote) []string {
	out := make([]string, 0, len(lotes))
	for _, l := range lotes {
		out = append(out, l.Numero)
	}
	return out
}

func TestCrearComanda_NumeraConLaSecuencia(t *testing.T) {
	e := nuevoEntorno(t)

	a := e.crearComanda(t, "PET", "ACME", dia1)
	b := e.crearComanda(t, "PET", "Globex", dia1)

	assert.Equal(t, int64(1), a.Numero)
	assert.Equal(t, int64(2), b.Numero)
	assert.False(t, a.Asignada())
	assert.Equal(t, 0, e.store.contar(t, repository.ColeccionLotes))
}

func TestLotesCandidatos_FiltraMaterialYCliente(t *testing.T) {
	e := nuevoEntorno(t)
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L2", Descripcion: "PET", Reserva: &model.Reserva{Cliente: "acme ", FechaReserva: dia1}})
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L3", Descripcion: "PET", Reserva: &model.Reserva{Cliente: "Globex", FechaReserva: dia1}})
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L4", Descripcion: "PEAD"})
	c := e.crearComanda(t, "PET", "ACME", dia1)

	candidatos, err := e.reservas.LotesCandidatos(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, numerosDeLotes(candidatos))
}

func TestLotesCandidatos_ExcluyeLotesDeOtraComanda(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L2", Descripcion: "PET"})
	a := e.crearComanda(t, "PET", "ACME", dia1)
	b := e.crearComanda(t, "PET", "ACME", dia2)

	res, err := e.reservas.Asignar(ctx, a.ID, "L1", "ana")
	require.NoError(t, err)
	require.True(t, res.Exito)

	candidatos, err := e.reservas.LotesCandidatos(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"L2"}, numerosDeLotes(candidatos))

	// The comanda holding the lot still sees it.
	propios, err := e.reservas.LotesCandidatos(ctx, a.ID)
	require.NoError(t, err)
	assert.Contains(t, numerosDeLotes(propios), "L1")
}

func TestLotesCandidatos_ComandaVendidaLiberaElLote(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	a := e.crearComanda(t, "PET", "ACME", dia1)
	b := e.crearComanda(t, "PET", "ACME", dia2)
	_, err := e.reservas.Asignar(ctx, a.ID, "L1", "ana")
	require.NoError(t, err)
	require.NoError(t, e.reservas.MarcarVendida(ctx, a.ID))

	candidatos, err := e.reservas.LotesCandidatos(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, numerosDeLotes(candidatos))
}

func TestAsignar_ReservaLoteYComanda(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)

	res, err := e.reservas.Asignar(ctx, c.ID, "L1", "ana")
	require.NoError(t, err)
	assert.True(t, res.Exito)
	assert.Empty(t, res.Advertencias)

	l := e.lote(t, model.AlmacenActivo, "L1")
	require.NotNil(t, l.Reserva)
	assert.Equal(t, "ACME", l.Reserva.Cliente)
	assert.True(t, l.Reserva.FechaReserva.Equal(dia1))
	assert.Equal(t, "ana", l.Reserva.ReservadoPor)
	assert.Empty(t, l.Reserva.Observacion)

	stored, err := e.reservas.ObtenerComanda(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "L1", stored.NumeroLote)
}

func TestAsignar_FalloEnLoteNoEscribeNada(t *testing.T) {
	e := nuevoEntorno(t)
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)
	e.store.fallar("patch", repository.ColeccionLotes)

	_, err := e.reservas.Asignar(context.Background(), c.ID, "L1", "ana")
	require.Error(t, err)
	assert.Equal(t, apierror.CodeDependency, apierror.CodeOf(err))

	stored, err := e.reservas.ObtenerComanda(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, stored.Asignada())
	assert.Empty(t, e.notif.tipos())
}

func TestAsignar_FalloEnComandaDejaReservaHuerfana(t *testing.T) {
	e := nuevoEntorno(t)
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)
	e.store.fallar("patch", repository.ColeccionComandas)

	res, err := e.reservas.Asignar(context.Background(), c.ID, "L1", "ana")
	require.NoError(t, err)
	assert.False(t, res.Exito)
	require.Len(t, res.Advertencias, 1)
	assert.Contains(t, res.Advertencias[0], "L1")

	assert.True(t, e.lote(t, model.AlmacenActivo, "L1").ReservadoPara("ACME"))
	assert.Equal(t, []model.TipoIncidencia{model.IncidenciaReservaHuerfana}, e.notif.tipos())
}

// Assignment takes no lock and does not re-check candidacy: two orders
// assigned to the same lot both succeed and the second booking wins.
func TestAsignar_SinBloqueoGanaLaUltimaEscritura(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	a := e.crearComanda(t, "PET", "ACME", dia1)
	b := e.crearComanda(t, "PET", "Globex", dia2)

	resA, err := e.reservas.Asignar(ctx, a.ID, "L1", "ana")
	require.NoError(t, err)
	resB, err := e.reservas.Asignar(ctx, b.ID, "L1", "luis")
	require.NoError(t, err)
	assert.True(t, resA.Exito)
	assert.True(t, resB.Exito)

	l := e.lote(t, model.AlmacenActivo, "L1")
	assert.Equal(t, "Globex", l.Reserva.Cliente)
	assert.True(t, l.Reserva.FechaReserva.Equal(dia2))
}

func TestAsignar_ComandaVendida(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)
	require.NoError(t, e.reservas.MarcarVendida(ctx, c.ID))

	_, err := e.reservas.Asignar(ctx, c.ID, "L1", "ana")
	assert.Equal(t, apierror.CodeConflict, apierror.CodeOf(err))
}

func TestAsignar_LoteInexistente(t *testing.T) {
	e := nuevoEntorno(t)
	c := e.crearComanda(t, "PET", "ACME", dia1)

	_, err := e.reservas.Asignar(context.Background(), c.ID, "NOPE", "ana")
	assert.True(t, errors.Is(err, ErrLoteNoEncontrado))
}

func TestDesasignar_LiberaLote(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)
	_, err := e.reservas.Asignar(ctx, c.ID, "L1", "ana")
	require.NoError(t, err)

	res, err := e.reservas.Desasignar(ctx, c.ID, true)
	require.NoError(t, err)
	assert.True(t, res.Exito)
	assert.Nil(t, e.lote(t, model.AlmacenActivo, "L1").Reserva)

	stored, err := e.reservas.ObtenerComanda(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, stored.Asignada())
}

func TestDesasignar_SinLiberarConservaReserva(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)
	_, err := e.reservas.Asignar(ctx, c.ID, "L1", "ana")
	require.NoError(t, err)

	res, err := e.reservas.Desasignar(ctx, c.ID, false)
	require.NoError(t, err)
	assert.True(t, res.Exito)
	assert.True(t, e.lote(t, model.AlmacenActivo, "L1").ReservadoPara("ACME"))
}

func TestDesasignar_FalloAlLiberarEsParcial(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)
	_, err := e.reservas.Asignar(ctx, c.ID, "L1", "ana")
	require.NoError(t, err)
	e.store.fallar("patch", repository.ColeccionLotes)

	res, err := e.reservas.Desasignar(ctx, c.ID, true)
	require.NoError(t, err)
	assert.False(t, res.Exito)
	assert.Len(t, res.Advertencias, 1)
	assert.Equal(t, []model.TipoIncidencia{model.IncidenciaReservaHuerfana}, e.notif.tipos())
}

func TestDesasignar_ComandaSinLote(t *testing.T) {
	e := nuevoEntorno(t)
	c := e.crearComanda(t, "PET", "ACME", dia1)

	_, err := e.reservas.Desasignar(context.Background(), c.ID, true)
	assert.Equal(t, apierror.CodeConflict, apierror.CodeOf(err))
}

func TestReprogramarComanda_ActualizaLoteYComanda(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)
	_, err := e.reservas.Asignar(ctx, c.ID, "L1", "ana")
	require.NoError(t, err)

	res, err := e.reservas.ReprogramarComanda(ctx, c.ID, dia3)
	require.NoError(t, err)
	assert.True(t, res.Exito)

	l := e.lote(t, model.AlmacenActivo, "L1")
	assert.True(t, l.Reserva.FechaReserva.Equal(dia3))
	assert.Equal(t, "ana", l.Reserva.ReservadoPor)
	stored, err := e.reservas.ObtenerComanda(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.FechaReserva.Equal(dia3))
}

func TestReprogramarComanda_FalloEnComandaEsParcial(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	c := e.crearComanda(t, "PET", "ACME", dia1)
	_, err := e.reservas.Asignar(ctx, c.ID, "L1", "ana")
	require.NoError(t, err)
	e.store.fallar("patch", repository.ColeccionComandas)

	res, err := e.reservas.ReprogramarComanda(ctx, c.ID, dia3)
	require.NoError(t, err)
	assert.False(t, res.Exito)
	assert.Equal(t, []model.TipoIncidencia{model.IncidenciaParDesalineado}, e.notif.tipos())
}

func TestEliminarComanda(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	e.sembrarLote(t, model.AlmacenActivo, &model.Lote{Numero: "L1", Descripcion: "PET"})
	libre := e.crearComanda(t, "PET", "ACME", dia1)
	asignada := e.crearComanda(t, "PET", "ACME", dia1)
	_, err := e.reservas.Asignar(ctx, asignada.ID, "L1", "ana")
	require.NoError(t, err)

	require.NoError(t, e.reservas.EliminarComanda(ctx, libre.ID))
	_, err = e.reservas.ObtenerComanda(ctx, libre.ID)
	assert.True(t, errors.Is(err, ErrComandaNoEncontrada))

	err = e.reservas.EliminarComanda(ctx, asignada.ID)
	assert.Equal(t, apierror.CodeConflict, apierror.CodeOf(err))
}

func TestMarcarVendida_EsTerminal(t *testing.T) {
	e := nuevoEntorno(t)
	ctx := context.Background()
	c := e.crearComanda(t, "PET", "ACME", dia1)

	require.NoError(t, e.reservas.MarcarVendida(ctx, c.ID))
	err := e.reservas.MarcarVendida(ctx, c.ID)
	assert.Equal(t, apierror.CodeConflict, apierror.CodeOf(err))

	pendientes, err := e.reservas.ListarComandas(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, pendientes)
	todas, err := e.reservas.ListarComandas(ctx, false)
	require.NoError(t, err)
	assert.Len(t, todas, 1)
}
