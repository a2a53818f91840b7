package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	debtdomain "github.com/smallbiznis/kiosk/internal/debt/domain"
)

const dateLayout = "02/01/2006 15:04"

type StatementData struct {
	Title       string
	Footer      string
	UserName    string
	UserEmail   string
	GeneratedAt string
	OpenSince   string

	Periods []StatementPeriod
	Items   []StatementItem

	UnpaidClosed string
	Open         string
	Total        string
}

type StatementPeriod struct {
	Window string
	Status string
	Amount string
}

type StatementItem struct {
	Name string
	Qty  int64
}

// NewStatementData renders a member balance for presentation in loc.
// Title and footer are filled by the provider when left empty.
func NewStatementData(summary debtdomain.UserDebtSummary, debts []debtdomain.DebtView, loc *time.Location, now time.Time) StatementData {
	if loc == nil {
		loc = time.UTC
	}

	data := StatementData{
		UserName:     summary.UserName,
		GeneratedAt:  now.In(loc).Format(dateLayout),
		OpenSince:    summary.OpenSince.In(loc).Format(dateLayout),
		UnpaidClosed: FormatCents(summary.UnpaidClosedCents),
		Open:         FormatCents(summary.OpenCents),
		Total:        FormatCents(summary.TotalCents),
	}
	if summary.UserEmail != nil {
		data.UserEmail = *summary.UserEmail
	}

	for _, debt := range debts {
		data.Periods = append(data.Periods, StatementPeriod{
			Window: debt.StartTs.In(loc).Format(dateLayout) + " - " + debt.EndTs.In(loc).Format(dateLayout),
			Status: string(debt.Status),
			Amount: FormatCents(debt.AmountCents),
		})
	}
	for _, item := range summary.Items {
		data.Items = append(data.Items, StatementItem{Name: item.Name, Qty: item.Qty})
	}
	return data
}

// FormatCents renders an amount of cents as euros.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d EUR", sign, cents/100, cents%100)
}

func (p *PDFProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	if strings.TrimSpace(data.UserName) == "" {
		return nil, fmt.Errorf("statement requires a member name")
	}
	defaults := p.statementConfig()
	if data.Title == "" {
		data.Title = defaults.Title
	}
	if data.Footer == "" {
		data.Footer = defaults.Footer
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(12, data.Title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New(data.UserName, props.Text{Style: fontstyle.Bold}),
			text.New(data.UserEmail, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Issued: "+data.GeneratedAt, props.Text{Align: align.Right}),
			text.New("Open since: "+data.OpenSince, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, "Balance due: "+data.Total, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	if len(data.Periods) > 0 {
		m.AddRow(10,
			text.NewCol(7, "Period", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(2, "Status", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.NewCol(3, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		)
		for _, period := range data.Periods {
			m.AddRow(8,
				text.NewCol(7, period.Window, props.Text{Size: 9}),
				text.NewCol(2, period.Status, props.Text{Size: 9}),
				text.NewCol(3, period.Amount, props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	if len(data.Items) > 0 {
		m.AddRow(12,
			text.NewCol(10, "Drinks", props.Text{Style: fontstyle.Bold, Size: 9, Top: 4}),
			text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Top: 4, Align: align.Right}),
		)
		for _, item := range data.Items {
			m.AddRow(8,
				text.NewCol(10, item.Name, props.Text{Size: 9}),
				text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Closed, unpaid", props.Text{Size: 9, Top: 4}),
		text.NewCol(2, data.UnpaidClosed, props.Text{Size: 9, Top: 4, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Open period", props.Text{Size: 9}),
		text.NewCol(2, data.Open, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, data.Total, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	m.AddRow(20,
		text.NewCol(12, data.Footer, props.Text{Size: 8, Top: 10}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
