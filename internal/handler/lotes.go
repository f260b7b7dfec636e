package handler

import (
	"net/http"

	"gmrstock/internal/apierror"
	"gmrstock/internal/dto"
	"gmrstock/internal/model"
	"gmrstock/internal/service"

	"github.com/gin-gonic/gin"
)

type LotesHandler struct {
	lotes        service.LoteService
	devoluciones service.DevolucionService
	traza        service.TrazaService
}

func NewLotesHandler(lotes service.LoteService, devoluciones service.DevolucionService, traza service.TrazaService) *LotesHandler {
	return &LotesHandler{lotes: lotes, devoluciones: devoluciones, traza: traza}
}

// Crear godoc
// @Summary      Dar de alta un lote
// @Description  El numero debe ser unico entre lotes e historial. count y totalWeight se calculan a partir de los big bags.
// @Tags         lotes
// @Accept       json
// @Produce      json
// @Param        body body dto.CrearLoteRequest true "Lote y big bags"
// @Success      201  {object} dto.LoteResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/lotes [post]
func (h *LotesHandler) Crear(c *gin.Context) {
	var req dto.CrearLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	l, err := h.lotes.Crear(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.LoteFromModel(l, model.AlmacenActivo))
}

// Listar godoc
// @Summary      Listar lotes en stock
// @Tags         lotes
// @Produce      json
// @Param        material query string false "Filtra por material (description)"
// @Success      200  {array}  dto.LoteResponse
// @Router       /v1/lotes [get]
func (h *LotesHandler) Listar(c *gin.Context) {
	var filter dto.LoteFilter
	if !bindQuery(c, &filter) {
		return
	}
	lotes, err := h.lotes.Listar(c.Request.Context(), filter.Material)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LotesFromModel(lotes, model.AlmacenActivo))
}

// Obtener godoc
// @Summary      Obtener un lote por numero
// @Tags         lotes
// @Produce      json
// @Param        numero    path  string true  "Numero de lote"
// @Param        historial query bool   false "Buscar tambien en historial"
// @Success      200  {object} dto.LoteResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/lotes/{numero} [get]
func (h *LotesHandler) Obtener(c *gin.Context) {
	var filter dto.LoteFilter
	if !bindQuery(c, &filter) {
		return
	}
	ctx := c.Request.Context()
	numero := c.Param("numero")

	var (
		l       *model.Lote
		almacen = model.AlmacenActivo
		err     error
	)
	if filter.Historial {
		l, almacen, err = h.lotes.Localizar(ctx, numero)
	} else {
		l, err = h.lotes.BuscarPorNumero(ctx, numero)
	}
	if err != nil {
		responderError(c, err)
		return
	}
	if l == nil {
		c.JSON(http.StatusNotFound, apierror.New("Lote no encontrado"))
		return
	}
	c.JSON(http.StatusOK, dto.LoteFromModel(l, almacen))
}

// ActualizarObservacion godoc
// @Summary      Cambiar la observacion de un lote
// @Tags         lotes
// @Accept       json
// @Produce      json
// @Param        numero path string                 true "Numero de lote"
// @Param        body   body dto.ObservacionRequest true "Observacion"
// @Success      200  {object} dto.LoteResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/lotes/{numero}/observacion [patch]
func (h *LotesHandler) ActualizarObservacion(c *gin.Context) {
	var req dto.ObservacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	l, ok := h.loteActivo(c)
	if !ok {
		return
	}
	if err := h.lotes.AplicarObservacion(c.Request.Context(), l, req.Observacion); err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoteFromModel(l, model.AlmacenActivo))
}

// ActualizarReserva godoc
// @Summary      Reemplazar la reserva de un lote
// @Description  Los cuatro campos se envian juntos. Todos en null libera el lote.
// @Tags         lotes
// @Accept       json
// @Produce      json
// @Param        numero path string             true "Numero de lote"
// @Param        body   body dto.ReservaRequest true "Reserva"
// @Success      200  {object} dto.LoteResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/lotes/{numero}/reserva [put]
func (h *LotesHandler) ActualizarReserva(c *gin.Context) {
	var req dto.ReservaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	l, ok := h.loteActivo(c)
	if !ok {
		return
	}
	if err := h.lotes.AplicarReserva(c.Request.Context(), l, req.Campos()); err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LoteFromModel(l, model.AlmacenActivo))
}

// Archivar godoc
// @Summary      Mover un lote al historial
// @Tags         lotes
// @Produce      json
// @Param        numero path string true "Numero de lote"
// @Success      200  {object} dto.ResultadoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/lotes/{numero}/archivar [post]
func (h *LotesHandler) Archivar(c *gin.Context) {
	res, err := h.lotes.Archivar(c.Request.Context(), c.Param("numero"))
	if err != nil {
		responderError(c, err)
		return
	}
	responderResultado(c, http.StatusOK, res)
}

// Traza godoc
// @Summary      Trazabilidad de un lote
// @Description  Alta, archivo, ventas, reprocesos y devoluciones, de la mas reciente a la mas antigua.
// @Tags         lotes
// @Produce      json
// @Param        numero path string true "Numero de lote"
// @Success      200  {array}  dto.EventoTrazaResponse
// @Failure      503  {object} apierror.APIError
// @Router       /v1/lotes/{numero}/traza [get]
func (h *LotesHandler) Traza(c *gin.Context) {
	eventos, err := h.traza.Trazar(c.Request.Context(), c.Param("numero"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TrazaFromModel(eventos))
}

// Devolvibles godoc
// @Summary      Big bags que un cliente puede devolver
// @Tags         lotes
// @Produce      json
// @Param        numero  path  string true "Numero de lote"
// @Param        cliente query string true "Cliente"
// @Success      200  {array}  dto.BigBagResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/lotes/{numero}/devolvibles [get]
func (h *LotesHandler) Devolvibles(c *gin.Context) {
	var filter dto.DevolviblesFilter
	if !bindQuery(c, &filter) {
		return
	}
	bags, err := h.devoluciones.BigBagsDevolvibles(c.Request.Context(), c.Param("numero"), filter.Cliente)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BigBagsFromModel(bags))
}

// loteActivo resolves :numero in the Active store, writing 404 when absent.
func (h *LotesHandler) loteActivo(c *gin.Context) (*model.Lote, bool) {
	l, err := h.lotes.BuscarPorNumero(c.Request.Context(), c.Param("numero"))
	if err != nil {
		responderError(c, err)
		return nil, false
	}
	if l == nil {
		c.JSON(http.StatusNotFound, apierror.New("Lote no encontrado"))
		return nil, false
	}
	return l, true
}
