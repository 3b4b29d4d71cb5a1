// Package pdf implementa el reporte imprimible de una toma de inventario
// finalizada: acta de cierre con el detalle de conteos y las divergencias
// contra el saldo congelado del sistema.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre de la toma │ Responsable + Fechas           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: ítems totales / contados / divergentes            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Código | Bodega/Dirección | Sistema | Conteo | Dif  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: leyenda del acta                                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Almacen-api/internal/application/audit"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa audit.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

var _ audit.ReportGenerator = (*MarotoReportGenerator)(nil)

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateSessionReport genera el acta PDF de la sesión y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateSessionReport(_ context.Context, session *entity.InventorySession) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de Toma de Inventario", true).
		WithAuthor(session.Responsible, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(session))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(session))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(session) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar acta: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre de la toma (izq) y responsable + fechas (der).
func headerRow(session *entity.InventorySession) core.Row {
	created := session.CreatedAt.Format("02/01/2006 15:04")
	closed := "—"
	if session.ClosedAt != nil {
		closed = session.ClosedAt.Format("02/01/2006 15:04")
	}

	return row.New(18).Add(
		col.New(7).Add(
			text.New(session.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Responsable: "+session.Responsible, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("ACTA DE TOMA DE INVENTARIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Apertura: "+created, props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Cierre: "+closed, props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

// summaryRow: ítems totales, contados y divergentes.
func summaryRow(session *entity.InventorySession) core.Row {
	checked, total := session.Progress()
	divergent := len(session.DivergentItems())

	cell := func(label, value string, c *props.Color) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Size: 8, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: c, Top: 6,
			}),
		)
	}

	divColor := colorPrimary
	if divergent > 0 {
		divColor = colorAlert
	}
	return row.New(14).Add(
		cell("Posiciones", fmt.Sprintf("%d", total), colorPrimary),
		cell("Contadas", fmt.Sprintf("%d", checked), colorPrimary),
		cell("Divergentes", fmt.Sprintf("%d", divergent), divColor),
	)
}

// tableHeaderRow: cabecera de la tabla de posiciones.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Código", 2, align.Left),
		h("Descripción", 3, align.Left),
		h("Bodega / Dirección", 3, align.Left),
		h("Sistema", 1, align.Right),
		h("Conteo", 1, align.Right),
		h("Diferencia", 2, align.Right),
	)
}

// tableItemRows: una fila por posición; diferencia resaltada si diverge.
func tableItemRows(session *entity.InventorySession) []core.Row {
	result := make([]core.Row, 0, len(session.Items))
	for _, it := range session.Items {
		counted := "—"
		diff := "—"
		diffColor := colorGray
		if it.CountedBalance != nil {
			counted = it.CountedBalance.String()
			d := it.CountedBalance.Sub(it.SystemBalance)
			diff = d.String()
			if it.IsDivergent() {
				diffColor = colorAlert
			}
		}
		location := it.Warehouse
		if it.Address != "" {
			location += " / " + it.Address
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(it.ItemCode, props.Text{
				Size: 8, Align: align.Left, Top: 1, Left: 1,
			})),
			col.New(3).Add(text.New(it.ItemName, props.Text{
				Size: 8, Align: align.Left, Top: 1, Left: 1,
			})),
			col.New(3).Add(text.New(location, props.Text{
				Size: 8, Align: align.Left, Top: 1, Left: 1,
			})),
			col.New(1).Add(text.New(it.SystemBalance.String(), props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1,
			})),
			col.New(1).Add(text.New(counted, props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1,
			})),
			col.New(2).Add(text.New(diff, props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1, Color: diffColor,
				Style: fontstyle.Bold,
			})),
		))
	}
	return result
}

// footerRow: leyenda del acta.
func footerRow() core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(
			"Los saldos del sistema corresponden a la foto congelada al momento de "+
				"abrir la toma. Las diferencias requieren ajuste mediante conteo "+
				"registrado en el libro de movimientos.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	))
}
