package projection

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks descompone (NFD), elimina marcas diacríticas y recompone (NFC):
// "Bódega  1 " y "bodega 1" agrupan en la misma posición.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeAddress normaliza una dirección de bodega (texto libre) para usarla
// como parte de la llave de agrupación: trim, colapso de espacios internos,
// sin tildes y en mayúsculas.
func NormalizeAddress(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	return strings.ToUpper(s)
}
