package pdf

import (
	"fmt"
	"strings"

	invoicedomain "github.com/comptaline/backoffice/internal/invoice/domain"
	orderdomain "github.com/comptaline/backoffice/internal/order/domain"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
)

const (
	sellerName    = "Comptaline SAS"
	sellerAddress = "12 avenue des Lilas, 69003 Lyon, France"
	sellerEmail   = "facturation@comptaline.fr"
	sellerSiret   = "SIRET 512 384 799 00031 - TVA FR 46 512384799"
	vatRate       = 20
)

type Renderer struct{}

func New() invoicedomain.Renderer {
	return &Renderer{}
}

// Render lays out the French invoice: seller block, buyer block, line
// items, then HT / TVA / TTC totals.
func (r *Renderer) Render(invoice *invoicedomain.Invoice, order *orderdomain.Order) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "FACTURE", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(18,
		col.New(6).Add(
			text.New("Facture n° "+invoice.Number, props.Text{Top: 0, Style: fontstyle.Bold}),
			text.New("Date d'émission : "+invoice.IssuedAt.Format("02/01/2006"), props.Text{Top: 5}),
			text.New("Commande n° "+order.OrderNumber, props.Text{Top: 10}),
		),
		col.New(6),
	)

	m.AddRow(38,
		col.New(6).Add(
			text.New(sellerName, props.Text{Style: fontstyle.Bold}),
			text.New(sellerAddress, props.Text{Top: 5}),
			text.New(sellerEmail, props.Text{Top: 10}),
			text.New(sellerSiret, props.Text{Top: 15, Size: 8}),
		),
		col.New(6).Add(
			text.New("Facturé à", props.Text{Style: fontstyle.Bold}),
			text.New(order.BillingName, props.Text{Top: 5}),
			text.New(order.BillingAddress, props.Text{Top: 10}),
			text.New(strings.TrimSpace(order.BillingZip+" "+order.BillingCity), props.Text{Top: 15}),
			text.New(order.BillingEmail, props.Text{Top: 20}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Désignation", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qté", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "PU TTC", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Montant TTC", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range order.Items {
		label := item.ProductName
		if item.ProductVersion != "" {
			label += " " + item.ProductVersion
		}
		if item.Platform != "" {
			label += " (" + item.Platform + ")"
		}
		m.AddRow(12,
			text.NewCol(6, label, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, FormatEuros(item.UnitAmountCents), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, FormatEuros(item.UnitAmountCents*int64(item.Quantity)), props.Text{Size: 9, Align: align.Right}),
		)
	}

	if order.DiscountCents > 0 {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Remise", props.Text{Size: 9}),
			text.NewCol(2, "-"+FormatEuros(order.DiscountCents), props.Text{Size: 9, Align: align.Right}),
		)
	}

	totalTTC := invoice.AmountCents
	totalHT := totalTTC * 100 / (100 + vatRate)
	tva := totalTTC - totalHT

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total HT", props.Text{Size: 9}),
		text.NewCol(2, FormatEuros(totalHT), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, fmt.Sprintf("TVA %d%%", vatRate), props.Text{Size: 9}),
		text.NewCol(2, FormatEuros(tva), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total TTC", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, FormatEuros(totalTTC), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	m.AddRow(15,
		text.NewCol(12, "Facture acquittée - paiement reçu par carte bancaire.", props.Text{Size: 8, Top: 5}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// FormatEuros renders cents as a French amount, "1 234,56 €".
func FormatEuros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	euros := cents / 100
	rest := cents % 100

	digits := fmt.Sprintf("%d", euros)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteRune(' ')
		}
		grouped.WriteRune(d)
	}
	return fmt.Sprintf("%s%s,%02d €", sign, grouped.String(), rest)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
