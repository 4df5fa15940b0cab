package template

import (
	"strings"
)

// ContactData is the read-only projection of CRM fields used for auto-fill.
// It is supplied per send attempt and never persisted here.
type ContactData struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Position  string `json:"position"`
}

// fillRule maps parameter-name keywords to a contact field. Rules are checked
// in order; the first rule with a matching keyword wins. Keywords cover the
// English and Spanish parameter names seen in real templates.
type fillRule struct {
	keywords []string
	resolve  func(ContactData) string
}

var fillRules = []fillRule{
	{
		keywords: []string{"email", "correo", "mail"},
		resolve:  func(c ContactData) string { return c.Email },
	},
	{
		keywords: []string{"phone", "telefono", "teléfono", "celular", "movil", "móvil", "whatsapp"},
		resolve:  func(c ContactData) string { return c.Phone },
	},
	{
		keywords: []string{"company", "empresa", "negocio", "organizacion", "organización", "business"},
		resolve:  func(c ContactData) string { return c.Company },
	},
	{
		keywords: []string{"position", "cargo", "puesto", "title", "rol", "role"},
		resolve:  func(c ContactData) string { return c.Position },
	},
	{
		keywords: []string{"last", "apellido", "surname"},
		resolve:  func(c ContactData) string { return firstNonEmpty(c.LastName, lastToken(c.Name)) },
	},
	{
		keywords: []string{"name", "nombre", "first", "primer", "cliente", "customer", "lead"},
		resolve:  func(c ContactData) string { return firstNonEmpty(c.FirstName, firstToken(c.Name), c.Name) },
	},
}

// AutoFill resolves a parameter value from contact fields by keyword match on
// the lower-cased parameter name. Pure function; no match returns "" and the
// caller must prompt the user for a value.
func AutoFill(paramName string, contact ContactData) string {
	name := strings.ToLower(paramName)
	for _, rule := range fillRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.resolve(contact)
			}
		}
	}
	// The first positional slot is conventionally the customer name.
	if name == "param_1" {
		return firstNonEmpty(contact.FirstName, firstToken(contact.Name), contact.Name)
	}
	return ""
}

// AutoFillAll resolves every extracted parameter against the contact.
func AutoFillAll(params []ParameterInfo, contact ContactData) map[string]string {
	values := make(map[string]string, len(params))
	for _, param := range params {
		values[param.Name] = AutoFill(param.Name, contact)
	}
	return values
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func lastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return ""
	}
	return fields[len(fields)-1]
}
