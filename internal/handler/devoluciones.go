package handler

import (
	"net/http"

	"gmrstock/internal/dto"
	"gmrstock/internal/service"

	"github.com/gin-gonic/gin"
)

type DevolucionesHandler struct{ svc service.DevolucionService }

func NewDevolucionesHandler(svc service.DevolucionService) *DevolucionesHandler {
	return &DevolucionesHandler{svc: svc}
}

// RegistrarDevolucion godoc
// @Summary      Registrar la devolucion de big bags
// @Description  Si el lote esta en historial vuelve a lotes. Los big bags vuelven a stock marcados DEVO.
// @Tags         devoluciones
// @Accept       json
// @Produce      json
// @Param        body body dto.RegistrarDevolucionRequest true "Detalle de la devolucion"
// @Success      201  {object} dto.ResultadoResponse
// @Success      207  {object} dto.ResultadoResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/devoluciones [post]
func (h *DevolucionesHandler) RegistrarDevolucion(c *gin.Context) {
	var req dto.RegistrarDevolucionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.RegistrarDevolucion(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	responderResultado(c, http.StatusCreated, res)
}
