package projection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Almacen-api/internal/domain/projection"
)

// TestNormalizeAddress cubre trim, colapso de espacios, tildes y mayúsculas.
func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  pasillo 3 ", "PASILLO 3"},
		{"pasíllo   3", "PASILLO 3"},
		{"Bódega  Única", "BODEGA UNICA"},
		{"A1", "A1"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, projection.NormalizeAddress(c.in), "entrada: %q", c.in)
	}
}
