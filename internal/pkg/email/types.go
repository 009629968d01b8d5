// internal/pkg/email/types.go
package email

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeWelcome           EmailType = "welcome"
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
	EmailTypeOrderStatusUpdate EmailType = "order_status_update"
)

// Email represents an email message
type Email struct {
	To          []string
	Subject     string
	HTMLContent string
	TextContent string
	Type        EmailType
}

// TemplateData contains common data for all email templates
type TemplateData struct {
	SiteName string
	SiteURL  string
	Year     int
}

// OrderConfirmationData contains data for order confirmation email
type OrderConfirmationData struct {
	TemplateData
	CustomerName  string
	CustomerEmail string
	OrderNumber   string
	OrderDate     string
	PaymentMethod string
	Items         []OrderItem
	Subtotal      string
	Shipping      string
	Discount      string
	Total         string
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

// OrderStatusData contains data for order status updates
type OrderStatusData struct {
	TemplateData
	CustomerEmail string
	OrderNumber   string
	Status        string
	PaymentStatus string
}
