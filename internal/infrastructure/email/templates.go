package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	contactEmail     = "info@pixelnextdigital.com"
	contactPhone     = "(734) 408-1791"
	contactPhoneE164 = "+17344081791"
	companyAddress   = "1725 Deerfield Pt, Alpharetta, GA 30096"
)

var nextSteps = []string{
	"Initial consultation to discuss your requirements in detail",
	"Design mockups for your approval",
	"Development phase",
	"Review and revisions",
	"Final approval and website launch",
}

type summaryRow struct {
	Label string
	Value string
}

var funcs = template.FuncMap{
	"row": func(label, value string) summaryRow { return summaryRow{Label: label, Value: value} },
}

var (
	customerTemplate = mustTemplate("templates/customer_confirmation.html")
	adminTemplate    = mustTemplate("templates/admin_alert.html")
)

func mustTemplate(name string) *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, name))
}

// CustomerConfirmation is the data behind the customer's order confirmation
type CustomerConfirmation struct {
	BusinessName  string
	OrderID       string
	OrderDate     string
	SelectedPlan  string
	PaymentMethod string
	TotalAmount   string
	Year          int

	NextSteps        []string
	ContactEmail     string
	ContactPhone     string
	ContactPhoneE164 string
	Address          string
}

// AdminAlert is the data behind the new order alert
type AdminAlert struct {
	OrderID      string
	OrderDate    string
	SelectedPlan string
	TotalAmount  string
	BusinessName string
	Email        string
	Phone        string
	OrderURL     string
	Year         int
}

func RenderCustomerConfirmation(data CustomerConfirmation) (string, error) {
	data.NextSteps = nextSteps
	data.ContactEmail = contactEmail
	data.ContactPhone = contactPhone
	data.ContactPhoneE164 = contactPhoneE164
	data.Address = companyAddress
	return render(customerTemplate, "customer_confirmation.html", data)
}

func RenderAdminAlert(data AdminAlert) (string, error) {
	return render(adminTemplate, "admin_alert.html", data)
}

func render(t *template.Template, name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
