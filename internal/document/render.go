// render.go
package document

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"order-workflow-service/internal/model"
)

// renderOrderPDF genera el formulario a firmar. Es determinístico
// dado el mismo snapshot: usa la fecha de creación del pedido, nunca
// el reloj.
func renderOrderPDF(o *model.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// la fecha de creación del PDF sale del snapshot, no del reloj
	pdf.SetCreationDate(o.CreatedAt)
	pdf.SetModificationDate(o.CreatedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Pedido de papelería"))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Pedido: %s", o.OrderID)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Departamento: %s", o.DepartmentID)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Solicitante: %s", o.CreatedBy)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Fecha: %s", o.CreatedAt.Format("2006-01-02"))))
	pdf.Ln(12)

	// tabla de artículos
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(120, 8, tr("Artículo"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, tr("Cantidad"), "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, it := range o.Items {
		pdf.CellFormat(120, 8, tr(it.ProductID), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", it.Quantity), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(20)
	pdf.Cell(0, 7, tr("Firma del responsable: ______________________"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
