package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
)

// StockHandler consultas de la proyección de saldos (protegido).
type StockHandler struct {
	uc *stock.StockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.StockUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// GetStock godoc
// @Summary      Proyección de saldos por posición
// @Description  Saldo vigente por (ítem, bodega, dirección) con banderas de
//
//	stock crítico y divergencia. active=true excluye posiciones con saldo <= 0.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        active  query  bool  false  "solo posiciones con saldo > 0"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/stock [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	resp, err := h.uc.GetStock(c.Context(), activeOnly)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}

// RefreshStock godoc
// @Summary      Re-traer el libro y re-plegar la proyección
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/stock/refresh [post]
func (h *StockHandler) RefreshStock(c *fiber.Ctx) error {
	resp, err := h.uc.RefreshStock(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}
