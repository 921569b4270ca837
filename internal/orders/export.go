package orders

import (
	"fmt"
	"io"
	"strings"

	"github.com/tealeg/xlsx"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

const exportTimeLayout = "2006-01-02 15:04:05"

var exportHeaders = []string{
	"Order ID", "Created At", "Status", "Delivered At",
	"Customer", "Phone", "Email", "Address", "Landmark", "Pincode",
	"Items", "Payment Method", "Currency", "Amount",
}

// WriteWorkbook renders orders as a single-sheet xlsx workbook.
func WriteWorkbook(w io.Writer, orders []domain.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()

		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.CreatedAt.Format(exportTimeLayout))
		row.AddCell().SetValue(string(o.Status))
		delivered := ""
		if o.DeliveredAt != nil {
			delivered = o.DeliveredAt.Format(exportTimeLayout)
		}
		row.AddCell().SetValue(delivered)
		row.AddCell().SetValue(o.Customer.Name)
		row.AddCell().SetValue(o.Customer.Phone)
		row.AddCell().SetValue(o.Customer.Email)
		row.AddCell().SetValue(o.Customer.Address)
		row.AddCell().SetValue(o.Customer.Landmark)
		row.AddCell().SetValue(o.Customer.Pincode)
		row.AddCell().SetValue(describeItems(o.Items))
		row.AddCell().SetValue(string(o.PaymentMethod))
		row.AddCell().SetValue(o.Currency)
		row.AddCell().SetValue(o.Amount.StringFixed(2))
	}

	return file.Write(w)
}

func describeItems(items []domain.OrderItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s x%d", item.Name, item.Quantity)
	}
	return strings.Join(parts, ", ")
}
