package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// LedgerHandler maneja las peticiones HTTP del libro de movimientos (protegido).
type LedgerHandler struct {
	uc *ledger.LedgerUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{uc: uc}
}

// RegisterMovement godoc
// @Summary      Registrar entrada, salida o traslado
// @Description  Una salida con dest_warehouse es un traslado: la pata espejo IN
//
//	en el destino se escribe en la misma transacción.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "item_code, warehouse, direction, quantity (y dest_warehouse para traslados)"
// @Success      201   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [post]
func (h *LedgerHandler) RegisterMovement(c *fiber.Ctx) error {
	actor := GetUserName(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.RegisterMovement(c.Context(), actor, in); err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "movimiento registrado"})
}

// RegisterCount godoc
// @Summary      Registrar conteo físico puntual
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterCountRequest  true  "item_code, warehouse, quantity contada"
// @Success      201   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ledger/counts [post]
func (h *LedgerHandler) RegisterCount(c *fiber.Ctx) error {
	actor := GetUserName(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.RegisterCount(c.Context(), actor, in); err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "conteo registrado"})
}

// AttachMetadata godoc
// @Summary      Adjuntar fotos o declarar stock mínimo sin mover saldo
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AttachMetadataRequest  true  "item_code, warehouse y fotos o min_stock_hint"
// @Success      201   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ledger/metadata [post]
func (h *LedgerHandler) AttachMetadata(c *fiber.Ctx) error {
	var in dto.AttachMetadataRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.AttachMetadata(c.Context(), in); err != nil {
		return ledgerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "metadata registrada"})
}

// CorrectRecord godoc
// @Summary      Corregir un registro existente
// @Description  La corrección reemplaza el registro y avanza su posición en el
//
//	orden del libro; nunca se muta el pasado in-place.
//
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del registro"
// @Param        body  body  dto.CorrectRecordRequest  true  "campos a corregir (los omitidos no cambian)"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/ledger/records/{id} [put]
func (h *LedgerHandler) CorrectRecord(c *fiber.Ctx) error {
	var in dto.CorrectRecordRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.CorrectRecord(c.Context(), c.Params("id"), in); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "registro corregido"})
}

// DeleteRecord godoc
// @Summary      Eliminar un registro del libro
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del registro"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/records/{id} [delete]
func (h *LedgerHandler) DeleteRecord(c *fiber.Ctx) error {
	if err := h.uc.DeleteRecord(c.Context(), c.Params("id")); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "registro eliminado"})
}

// ListRecords godoc
// @Summary      Listar el libro de movimientos
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "tamaño de página (default 50)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.LedgerListResponse
// @Router       /api/ledger/records [get]
func (h *LedgerHandler) ListRecords(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	resp, err := h.uc.ListRecords(page.Limit, page.Offset)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(resp)
}

// GetRecord godoc
// @Summary      Consultar un registro por ID
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del registro"
// @Success      200  {object}  dto.MovementRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/records/{id} [get]
func (h *LedgerHandler) GetRecord(c *fiber.Ctx) error {
	rec, err := h.uc.GetRecord(c.Params("id"))
	if err != nil {
		return ledgerError(c, err)
	}
	if rec == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "registro no encontrado"})
	}
	return c.JSON(rec)
}

// ledgerError mapea errores de dominio a códigos HTTP.
func ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "registro no encontrado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de escritura"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
