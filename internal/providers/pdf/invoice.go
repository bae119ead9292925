package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

type marotoRenderer struct{}

func New() Renderer {
	return &marotoRenderer{}
}

func (r *marotoRenderer) RenderInvoice(_ context.Context, doc Document) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := doc.Title
	if title == "" {
		title = "Invoice"
	}
	m.AddRow(14,
		text.NewCol(12, title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	metaHeight := float64(16)
	if doc.CancellationOf != "" {
		metaHeight = 20
	}
	meta := []struct {
		label string
		value string
	}{
		{"Invoice number: ", doc.InvoiceNumber},
		{"Date of issue: ", doc.IssueDate},
		{"Date due: ", doc.DueDate},
	}
	metaCol := col.New(6)
	top := float64(0)
	for _, row := range meta {
		if row.value == "" {
			continue
		}
		metaCol.Add(text.New(row.label+row.value, props.Text{Top: top, Size: 9}))
		top += 4
	}
	if doc.CancellationOf != "" {
		metaCol.Add(text.New("Cancels invoice: "+doc.CancellationOf, props.Text{
			Top:   top,
			Size:  9,
			Style: fontstyle.Bold,
		}))
	}
	m.AddRow(metaHeight, metaCol, col.New(6))

	m.AddRow(36,
		col.New(6).Add(
			text.New(doc.Seller.Name, props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(doc.Seller.Address, props.Text{Top: 5, Size: 9}),
			text.New(doc.Seller.Email, props.Text{Top: 16, Size: 9}),
			text.New(doc.Seller.VATID, props.Text{Top: 20, Size: 9}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(doc.Buyer.Name, props.Text{Top: 5, Size: 9}),
			text.New(doc.Buyer.Address, props.Text{Top: 9, Size: 9}),
			text.New(doc.Buyer.Email, props.Text{Top: 20, Size: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range doc.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	totals := []struct {
		label string
		value string
		bold  bool
	}{
		{"Subtotal", doc.Subtotal, false},
		{"VAT", doc.VATAmount, false},
		{"Total", doc.Total, false},
		{"Amount paid", doc.AmountPaid, false},
		{"Amount due", doc.AmountDue, true},
	}
	for _, row := range totals {
		if row.value == "" {
			continue
		}
		style := fontstyle.Normal
		if row.bold {
			style = fontstyle.Bold
		}
		m.AddRow(7,
			col.New(8),
			text.NewCol(2, row.label, props.Text{Size: 9, Style: style}),
			text.NewCol(2, row.value, props.Text{Size: 9, Style: style, Align: align.Right}),
		)
	}

	if doc.BankDetails != "" {
		m.AddRow(20,
			text.NewCol(12, doc.BankDetails, props.Text{Size: 8, Top: 6}),
		)
	}

	out, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(out.GetBytes()), nil
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
