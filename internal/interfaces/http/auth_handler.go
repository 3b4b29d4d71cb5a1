package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
)

// LogoutBroadcaster publica la orden de cierre de sesión para todos los
// clientes conectados (lo satisface el notificador redis).
type LogoutBroadcaster interface {
	NotifyLogout(ctx context.Context)
}

// AuthHandler maneja el cierre de sesión global.
type AuthHandler struct {
	broadcaster LogoutBroadcaster
}

// NewAuthHandler construye el handler.
func NewAuthHandler(broadcaster LogoutBroadcaster) *AuthHandler {
	return &AuthHandler{broadcaster: broadcaster}
}

// Logout godoc
// @Summary      Cerrar sesión en todos los clientes
// @Description  Publica la orden remota de logout: cada cliente descarta su
//
//	identidad y estado local y exige re-autenticación.
//
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MessageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.broadcaster.NotifyLogout(c.Context())
	return c.JSON(dto.MessageResponse{Message: "cierre de sesión publicado"})
}
