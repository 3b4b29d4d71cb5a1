package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrSessionFinalized = errors.New("la sesión de inventario está finalizada")
	ErrItemNotFound     = errors.New("ítem no encontrado en la sesión")
)
