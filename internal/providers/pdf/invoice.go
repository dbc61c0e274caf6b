package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoRenderer struct {
	dir string
}

// NewMarotoRenderer writes invoice PDFs under dir, creating it if needed.
func NewMarotoRenderer(dir string) (*MarotoRenderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create invoice dir: %w", err)
	}
	return &MarotoRenderer{dir: dir}, nil
}

func (p *MarotoRenderer) RenderInvoice(ctx context.Context, doc InvoiceDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(18,
		col.New(6).Add(
			text.New("Invoice number: "+doc.InvoiceNumber, props.Text{Top: 0}),
			text.New("Billing period: "+doc.PeriodStart+" to "+doc.PeriodEnd, props.Text{Top: 4}),
			text.New("Date due: "+doc.DueDate, props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New(doc.IssuerName, props.Text{Style: fontstyle.Bold}),
			text.New(doc.IssuerAddress, props.Text{Top: 5}),
			text.New(doc.IssuerPhone, props.Text{Top: 10}),
			text.New(doc.IssuerEmail, props.Text{Top: 15}),
			text.New(doc.IssuerWebsite, props.Text{Top: 20}),
		),
		col.New(6),
	)

	m.AddRow(12,
		text.NewCol(12, fmt.Sprintf("%.2f %s due %s", doc.TotalAmount, doc.Currency, doc.DueDate), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   3,
		}),
	)

	m.AddRow(8,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Session", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "kWh", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, s := range doc.Sessions {
		m.AddRow(8,
			text.NewCol(3, s.Date, props.Text{Size: 9}),
			text.NewCol(3, s.StartTime+" - "+s.EndTime, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%.2f", s.KWh), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, fmt.Sprintf("%.4f", s.Rate), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, fmt.Sprintf("%.2f", s.Amount), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total kWh", props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("%.2f", doc.TotalKWh), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, fmt.Sprintf("%.2f", doc.TotalAmount), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	generated, err := m.Generate()
	if err != nil {
		return "", err
	}

	path := filepath.Join(p.dir, fmt.Sprintf("invoice_%s.pdf", doc.InvoiceNumber))
	if err := generated.Save(path); err != nil {
		return "", err
	}
	return path, nil
}
