package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Almacen-api/internal/application/audit"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/stock"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// SessionHandler maneja las sesiones de toma de inventario (protegido).
type SessionHandler struct {
	manager *audit.Manager
	stockUC *stock.StockUseCase
	reports audit.ReportGenerator
}

// NewSessionHandler construye el handler.
func NewSessionHandler(manager *audit.Manager, stockUC *stock.StockUseCase, reports audit.ReportGenerator) *SessionHandler {
	return &SessionHandler{manager: manager, stockUC: stockUC, reports: reports}
}

// Create godoc
// @Summary      Crear sesión de toma de inventario
// @Description  Congela el saldo del sistema por ítem al momento de crearla.
//
//	from_stock=true toma los ítems de la proyección activa actual.
//
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSessionRequest  true  "name y from_stock o items"
// @Success      201   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/audit/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	responsible := GetUserName(c)
	if responsible == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	items := in.Items
	if in.FromStock {
		fromStock, err := h.stockUC.BuildImportItems(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
		items = fromStock
	}
	imported := make([]audit.ImportedItem, 0, len(items))
	for _, it := range items {
		imported = append(imported, audit.ImportedItem{
			ItemCode:      it.ItemCode,
			ItemName:      it.ItemName,
			Warehouse:     it.Warehouse,
			Address:       it.Address,
			Unit:          it.Unit,
			SystemBalance: it.SystemBalance,
		})
	}

	session, err := h.manager.CreateSession(in.Name, responsible, imported)
	if err != nil {
		return sessionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(session, true))
}

// List godoc
// @Summary      Listar sesiones
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SessionListResponse
// @Router       /api/audit/sessions [get]
func (h *SessionHandler) List(c *fiber.Ctx) error {
	sessions, err := h.manager.ListSessions()
	if err != nil {
		return sessionError(c, err)
	}
	items := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, toSessionResponse(s, false))
	}
	return c.JSON(dto.SessionListResponse{Items: items, Total: len(items)})
}

// GetByID godoc
// @Summary      Consultar una sesión con sus ítems
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id} [get]
func (h *SessionHandler) GetByID(c *fiber.Ctx) error {
	session, err := h.manager.GetSession(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(toSessionResponse(session, true))
}

// Delete godoc
// @Summary      Eliminar una sesión
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.manager.DeleteSession(c.Context(), c.Params("id")); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "sesión eliminada"})
}

// AcquireLock godoc
// @Summary      Adquirir el bloqueo de edición exclusiva
// @Description  granted=false no es error: informa el titular actual y si el
//
//	bloqueo ya está obsoleto (candidato a force-unlock).
//
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.LockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id}/lock [post]
func (h *SessionHandler) AcquireLock(c *fiber.Ctx) error {
	holder := GetUserName(c)
	result, err := h.manager.AcquireLock(c.Context(), c.Params("id"), holder)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(dto.LockResponse{
		Granted:       result.Granted,
		CurrentHolder: result.CurrentHolder,
		Since:         result.Since,
		Stale:         result.Stale,
	})
}

// ReleaseLock godoc
// @Summary      Liberar el bloqueo de edición
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/audit/sessions/{id}/unlock [post]
func (h *SessionHandler) ReleaseLock(c *fiber.Ctx) error {
	if err := h.manager.ReleaseLock(c.Context(), c.Params("id")); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "bloqueo liberado"})
}

// ForceUnlock godoc
// @Summary      Forzar la liberación de un bloqueo obsoleto (solo admin)
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.MessageResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id}/force-unlock [post]
func (h *SessionHandler) ForceUnlock(c *fiber.Ctx) error {
	previous, err := h.manager.ForceUnlock(c.Context(), c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	msg := "bloqueo forzado"
	if previous != "" {
		msg = "bloqueo forzado; lo tenía " + previous
	}
	return c.JSON(dto.MessageResponse{Message: msg})
}

// RecordCount godoc
// @Summary      Fijar el conteo físico de un ítem de la sesión
// @Description  counted_balance null revierte el ítem a PENDING.
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string  true  "ID de la sesión"
// @Param        itemId  path  string  true  "ID del ítem"
// @Param        body    body  dto.SessionItemCountRequest  true  "conteo físico"
// @Success      200  {object}  dto.SessionItemResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id}/items/{itemId}/count [put]
func (h *SessionHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.SessionItemCountRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	session, err := h.lockedSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	itemID := c.Params("itemId")
	if err := h.manager.RecordCount(session, itemID, in.CountedBalance); err != nil {
		return sessionError(c, err)
	}
	if err := h.manager.PersistProgress(session); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(toItemResponse(session.Item(itemID)))
}

// ToggleChecked godoc
// @Summary      Alternar PENDING/CHECKED sin tocar el conteo
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID de la sesión"
// @Param        itemId  path  string  true  "ID del ítem"
// @Success      200  {object}  dto.SessionItemResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id}/items/{itemId}/toggle [post]
func (h *SessionHandler) ToggleChecked(c *fiber.Ctx) error {
	session, err := h.lockedSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	itemID := c.Params("itemId")
	if err := h.manager.ToggleChecked(session, itemID); err != nil {
		return sessionError(c, err)
	}
	if err := h.manager.PersistProgress(session); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(toItemResponse(session.Item(itemID)))
}

// Finalize godoc
// @Summary      Finalizar la sesión (transición terminal)
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id}/finalize [post]
func (h *SessionHandler) Finalize(c *fiber.Ctx) error {
	session, err := h.lockedSession(c)
	if err != nil {
		return sessionError(c, err)
	}
	if err := h.manager.Finalize(session); err != nil {
		return sessionError(c, err)
	}
	if err := h.manager.ReleaseLock(c.Context(), session.ID); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(toSessionResponse(session, true))
}

// Report godoc
// @Summary      Acta PDF de una sesión finalizada
// @Tags         audit
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200  {file}  binary
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/audit/sessions/{id}/report [get]
func (h *SessionHandler) Report(c *fiber.Ctx) error {
	session, err := h.manager.GetSession(c.Params("id"))
	if err != nil {
		return sessionError(c, err)
	}
	if !session.IsFinalized() {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SESSION_OPEN", Message: "el acta solo se genera sobre sesiones finalizadas"})
	}
	pdf, err := h.reports.GenerateSessionReport(c.Context(), session)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="toma-`+session.ID+`.pdf"`)
	return c.Send(pdf)
}

// lockedSession carga la sesión y verifica que quien edita sea el titular del
// bloqueo. El bloqueo es consultivo: protege a clientes honestos, no sustituye
// las validaciones de estado del gestor.
func (h *SessionHandler) lockedSession(c *fiber.Ctx) (*entity.InventorySession, error) {
	session, err := h.manager.GetSession(c.Params("id"))
	if err != nil {
		return nil, err
	}
	holder := GetUserName(c)
	if session.LockedBy != "" && session.LockedBy != holder {
		return nil, errLockedByOther
	}
	return session, nil
}

var errLockedByOther = errors.New("la sesión está bloqueada por otro usuario")

// sessionError mapea errores de dominio a códigos HTTP.
func sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "sesión no encontrada"})
	case errors.Is(err, domain.ErrItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "ITEM_NOT_FOUND", Message: "ítem no encontrado en la sesión"})
	case errors.Is(err, domain.ErrSessionFinalized):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SESSION_FINALIZED", Message: "la sesión ya fue finalizada"})
	case errors.Is(err, errLockedByOther):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOCKED", Message: "la sesión está bloqueada por otro usuario"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func toSessionResponse(s *entity.InventorySession, withItems bool) dto.SessionResponse {
	checked, total := s.Progress()
	resp := dto.SessionResponse{
		ID:           s.ID,
		Name:         s.Name,
		Responsible:  s.Responsible,
		Status:       s.Status,
		CreatedAt:    s.CreatedAt,
		ClosedAt:     s.ClosedAt,
		LockedBy:     s.LockedBy,
		LockedAt:     s.LockedAt,
		ItemsChecked: checked,
		ItemsTotal:   total,
	}
	if withItems {
		resp.Items = make([]dto.SessionItemResponse, 0, len(s.Items))
		for i := range s.Items {
			resp.Items = append(resp.Items, toItemResponse(&s.Items[i]))
		}
	}
	return resp
}

func toItemResponse(it *entity.InventorySessionItem) dto.SessionItemResponse {
	if it == nil {
		return dto.SessionItemResponse{}
	}
	var counted *decimal.Decimal
	if it.CountedBalance != nil {
		v := *it.CountedBalance
		counted = &v
	}
	return dto.SessionItemResponse{
		ID:             it.ID,
		ItemCode:       it.ItemCode,
		ItemName:       it.ItemName,
		Warehouse:      it.Warehouse,
		Address:        it.Address,
		Unit:           it.Unit,
		SystemBalance:  it.SystemBalance,
		CountedBalance: counted,
		Status:         it.Status,
		IsDivergent:    it.IsDivergent(),
	}
}
