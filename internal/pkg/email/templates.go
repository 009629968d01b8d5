package email

import "html/template"

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f5f5f5;">
<div style="max-width:600px;margin:0 auto;background-color:#ffffff;">
  <div style="background:#615CF2;padding:32px 20px;text-align:center;">
    <h1 style="color:#ffffff;margin:0;font-size:28px;">{{.SiteName}}</h1>
  </div>
  <div style="padding:32px 20px;color:#444444;line-height:1.6;font-size:15px;">
  {{template "content" .}}
  </div>
  <div style="background-color:#161C40;padding:20px;text-align:center;color:#ffffff;font-size:12px;">
    &copy; {{.Year}} {{.SiteName}}. All rights reserved.
  </div>
</div>
</body>
</html>`

const welcomeContent = `{{define "content"}}
<h2 style="color:#161C40;">Welcome to the {{.SiteName}} community!</h2>
<p>Thanks for subscribing to our newsletter. You will be the first to hear about:</p>
<ul>
  <li>Exclusive product launches</li>
  <li>Special offers and discounts</li>
  <li>New designs and collections</li>
</ul>
<p style="text-align:center;margin:32px 0;">
  <a href="{{.SiteURL}}/shop" style="background-color:#615CF2;color:#ffffff;text-decoration:none;padding:14px 28px;border-radius:8px;font-weight:bold;">Browse products</a>
</p>
<p style="font-size:12px;color:#888888;">You can unsubscribe at any time.</p>
{{end}}`

const orderConfirmationContent = `{{define "content"}}
<h2 style="color:#161C40;">Thanks for your order, {{.CustomerName}}!</h2>
<p>Order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}. Payment method: {{.PaymentMethod}}.</p>
<table style="width:100%;border-collapse:collapse;">
  <tr><th align="left">Product</th><th align="right">Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
  {{range .Items}}
  <tr><td>{{.Name}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.Price}}</td><td align="right">{{.Total}}</td></tr>
  {{end}}
</table>
<p style="text-align:right;">
  Subtotal: {{.Subtotal}}<br>
  Shipping: {{.Shipping}}<br>
  {{if .Discount}}Discount: -{{.Discount}}<br>{{end}}
  <strong>Total: {{.Total}}</strong>
</p>
<p>You can follow your order at <a href="{{.SiteURL}}/orders">{{.SiteURL}}/orders</a>.</p>
{{end}}`

const orderStatusContent = `{{define "content"}}
<h2 style="color:#161C40;">Your order {{.OrderNumber}} was updated</h2>
<p>Status: <strong>{{.Status}}</strong><br>Payment: <strong>{{.PaymentStatus}}</strong></p>
{{end}}`

func mustParseTemplates() map[EmailType]*template.Template {
	parse := func(name EmailType, content string) *template.Template {
		return template.Must(template.Must(template.New(string(name)).Parse(layout)).Parse(content))
	}
	return map[EmailType]*template.Template{
		EmailTypeWelcome:           parse(EmailTypeWelcome, welcomeContent),
		EmailTypeOrderConfirmation: parse(EmailTypeOrderConfirmation, orderConfirmationContent),
		EmailTypeOrderStatusUpdate: parse(EmailTypeOrderStatusUpdate, orderStatusContent),
	}
}
