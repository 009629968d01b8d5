// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/money"
)

// Service handles PDF generation
type Service struct {
	siteName string
	siteURL  string
	now      func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		siteName: cfg.App.Name,
		siteURL:  cfg.App.BaseURL,
		now:      time.Now,
	}
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	SiteName    string
	SiteURL     string
	IssuedAt    string
	OrderNumber string
	OrderDate   string
	Status      string
	Payment     string
	Customer    order.Customer
	Lines       []ReceiptLine
	Subtotal    string
	Shipping    string
	Discount    string
	CouponCode  string
	Total       string
	Notes       string
}

// ReceiptLine is one purchased product
type ReceiptLine struct {
	Name     string
	Quantity int
	Price    string
	Subtotal string
}

// GenerateReceipt renders the order receipt as PDF. It needs the
// wkhtmltopdf binary on PATH.
func (s *Service) GenerateReceipt(o *order.Order) ([]byte, error) {
	htmlContent, err := s.RenderHTML(o)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Title.Set("Receipt " + o.OrderNumber)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdfg.Bytes(), nil
}

// RenderHTML renders the receipt page fed to wkhtmltopdf.
func (s *Service) RenderHTML(o *order.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, s.receiptData(o)); err != nil {
		return nil, fmt.Errorf("failed to execute receipt template: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) receiptData(o *order.Order) ReceiptData {
	data := ReceiptData{
		SiteName:    s.siteName,
		SiteURL:     s.siteURL,
		IssuedAt:    s.now().Format("January 2, 2006 15:04"),
		OrderNumber: o.OrderNumber,
		OrderDate:   o.CreatedAt.Format("January 2, 2006"),
		Status:      string(o.Status),
		Payment:     fmt.Sprintf("%s (%s)", o.PaymentMethod, o.PaymentStatus),
		Customer:    o.Customer,
		Subtotal:    money.Format(o.Subtotal),
		Shipping:    money.Format(o.ShippingInfo.ShippingCost),
		CouponCode:  o.CouponCode,
		Total:       money.Format(o.Total),
		Notes:       o.Notes,
	}
	if o.Discount > 0 {
		data.Discount = money.Format(o.Discount)
	}
	for _, item := range o.Items {
		data.Lines = append(data.Lines, ReceiptLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    money.Format(item.Price),
			Subtotal: money.Format(item.Subtotal),
		})
	}
	return data
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Receipt {{.OrderNumber}}</title>
<style>
  body { font-family: Arial, sans-serif; margin: 0; padding: 24px; color: #333; }
  .header { display: flex; justify-content: space-between; border-bottom: 2px solid #615CF2; padding-bottom: 12px; }
  .brand { font-size: 26px; font-weight: bold; color: #615CF2; }
  table { width: 100%; border-collapse: collapse; margin-top: 24px; }
  th { background: #f3f3fb; text-align: left; padding: 8px; }
  td { padding: 8px; border-bottom: 1px solid #eee; }
  .num { text-align: right; }
  .totals { margin-top: 16px; width: 40%; margin-left: 60%; }
  .totals td { border: none; }
  .grand { font-weight: bold; font-size: 16px; border-top: 2px solid #333; }
</style>
</head>
<body>
<div class="header">
  <div class="brand">{{.SiteName}}</div>
  <div>
    <div><strong>Receipt</strong> {{.OrderNumber}}</div>
    <div>Order date: {{.OrderDate}}</div>
    <div>Issued: {{.IssuedAt}}</div>
  </div>
</div>

<h3>Bill to</h3>
<div>{{.Customer.Name}}</div>
<div>{{.Customer.Email}} · {{.Customer.Phone}}</div>
<div>{{.Customer.Address.Street}}, {{.Customer.Address.City}}{{if .Customer.Address.State}}, {{.Customer.Address.State}}{{end}} {{.Customer.Address.PostalCode}}</div>
<div>{{.Customer.Address.Country}}</div>

<table>
  <tr><th>Product</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Subtotal</th></tr>
  {{range .Lines}}
  <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.Price}}</td><td class="num">{{.Subtotal}}</td></tr>
  {{end}}
</table>

<table class="totals">
  <tr><td>Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
  <tr><td>Shipping</td><td class="num">{{.Shipping}}</td></tr>
  {{if .Discount}}<tr><td>Discount{{if .CouponCode}} ({{.CouponCode}}){{end}}</td><td class="num">-{{.Discount}}</td></tr>{{end}}
  <tr class="grand"><td>Total</td><td class="num">{{.Total}}</td></tr>
</table>

<p>Status: {{.Status}} · Payment: {{.Payment}}</p>
{{if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}
<p style="font-size: 11px; color: #888;">{{.SiteURL}}</p>
</body>
</html>`))
