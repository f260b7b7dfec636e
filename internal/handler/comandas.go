package handler

import (
	"net/http"

	"gmrstock/internal/dto"
	"gmrstock/internal/model"
	"gmrstock/internal/service"

	"github.com/gin-gonic/gin"
)

type ComandasHandler struct{ svc service.ReservaService }

func NewComandasHandler(svc service.ReservaService) *ComandasHandler {
	return &ComandasHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear una comanda
// @Description  Asigna el siguiente numero de comanda. El lote se asigna despues.
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Param        body body dto.CrearComandaRequest true "Comanda"
// @Success      201  {object} dto.ComandaResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/comandas [post]
func (h *ComandasHandler) Crear(c *gin.Context) {
	var req dto.CrearComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cmd, err := h.svc.CrearComanda(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ComandaFromModel(cmd))
}

// Listar godoc
// @Summary      Listar comandas
// @Tags         comandas
// @Produce      json
// @Param        pendientes query bool false "Solo comandas no vendidas"
// @Success      200  {array}  dto.ComandaResponse
// @Router       /v1/comandas [get]
func (h *ComandasHandler) Listar(c *gin.Context) {
	var filter dto.ComandaFilter
	if !bindQuery(c, &filter) {
		return
	}
	comandas, err := h.svc.ListarComandas(c.Request.Context(), filter.Pendientes)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ComandasFromModel(comandas))
}

// Obtener godoc
// @Summary      Obtener una comanda
// @Tags         comandas
// @Produce      json
// @Param        id path string true "ID de la comanda"
// @Success      200  {object} dto.ComandaResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/comandas/{id} [get]
func (h *ComandasHandler) Obtener(c *gin.Context) {
	cmd, err := h.svc.ObtenerComanda(c.Request.Context(), c.Param("id"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ComandaFromModel(cmd))
}

// Candidatos godoc
// @Summary      Lotes que se pueden asignar a la comanda
// @Description  Lotes en stock del mismo material que no esten asignados a otra comanda abierta.
// @Tags         comandas
// @Produce      json
// @Param        id path string true "ID de la comanda"
// @Success      200  {array}  dto.LoteResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/comandas/{id}/candidatos [get]
func (h *ComandasHandler) Candidatos(c *gin.Context) {
	lotes, err := h.svc.LotesCandidatos(c.Request.Context(), c.Param("id"))
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LotesFromModel(lotes, model.AlmacenActivo))
}

// Asignar godoc
// @Summary      Asignar un lote a la comanda
// @Description  Reserva el lote para el cliente y guarda el numero de lote en la comanda. 207 si la segunda escritura falla.
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Param        id   path string                 true "ID de la comanda"
// @Param        body body dto.AsignarLoteRequest true "Lote"
// @Success      200  {object} dto.ResultadoResponse
// @Success      207  {object} dto.ResultadoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/comandas/{id}/asignar [post]
func (h *ComandasHandler) Asignar(c *gin.Context) {
	var req dto.AsignarLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Asignar(c.Request.Context(), c.Param("id"), req.NumeroLote, req.ReservadoPor)
	if err != nil {
		responderError(c, err)
		return
	}
	responderResultado(c, http.StatusOK, res)
}

// Desasignar godoc
// @Summary      Quitar el lote de la comanda
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Param        id   path string                    true "ID de la comanda"
// @Param        body body dto.DesasignarLoteRequest true "Opciones"
// @Success      200  {object} dto.ResultadoResponse
// @Success      207  {object} dto.ResultadoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/comandas/{id}/desasignar [post]
func (h *ComandasHandler) Desasignar(c *gin.Context) {
	var req dto.DesasignarLoteRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Desasignar(c.Request.Context(), c.Param("id"), req.LiberarLote)
	if err != nil {
		responderError(c, err)
		return
	}
	responderResultado(c, http.StatusOK, res)
}

// Reprogramar godoc
// @Summary      Cambiar la fecha de reserva
// @Tags         comandas
// @Accept       json
// @Produce      json
// @Param        id   path string                        true "ID de la comanda"
// @Param        body body dto.ReprogramarComandaRequest true "Nueva fecha"
// @Success      200  {object} dto.ResultadoResponse
// @Success      207  {object} dto.ResultadoResponse
// @Router       /v1/comandas/{id}/fecha [patch]
func (h *ComandasHandler) Reprogramar(c *gin.Context) {
	var req dto.ReprogramarComandaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.ReprogramarComanda(c.Request.Context(), c.Param("id"), req.FechaReserva)
	if err != nil {
		responderError(c, err)
		return
	}
	responderResultado(c, http.StatusOK, res)
}

// Eliminar godoc
// @Summary      Eliminar una comanda sin lote
// @Tags         comandas
// @Param        id path string true "ID de la comanda"
// @Success      204
// @Failure      409  {object} apierror.APIError
// @Router       /v1/comandas/{id} [delete]
func (h *ComandasHandler) Eliminar(c *gin.Context) {
	if err := h.svc.EliminarComanda(c.Request.Context(), c.Param("id")); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarcarVendida godoc
// @Summary      Cerrar una comanda como vendida
// @Tags         comandas
// @Param        id path string true "ID de la comanda"
// @Success      204
// @Failure      409  {object} apierror.APIError
// @Router       /v1/comandas/{id}/vendida [post]
func (h *ComandasHandler) MarcarVendida(c *gin.Context) {
	if err := h.svc.MarcarVendida(c.Request.Context(), c.Param("id")); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
