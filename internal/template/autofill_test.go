package template

import (
	"testing"
)

func TestAutoFillNameVariants(t *testing.T) {
	contact := ContactData{FirstName: "Ana", LastName: "Lopez", Name: "Ana Lopez"}

	if got := AutoFill("customer_name", contact); got != "Ana" {
		t.Fatalf("customer_name: expected Ana, got %q", got)
	}
	if got := AutoFill("last_name", contact); got != "Lopez" {
		t.Fatalf("last_name: expected Lopez, got %q", got)
	}
	if got := AutoFill("apellido", contact); got != "Lopez" {
		t.Fatalf("apellido: expected Lopez, got %q", got)
	}
	// Falls back to splitting the full name when first name is absent.
	if got := AutoFill("nombre", ContactData{Name: "Luis Garcia"}); got != "Luis" {
		t.Fatalf("nombre: expected Luis, got %q", got)
	}
}

func TestAutoFillPrecedence(t *testing.T) {
	contact := ContactData{
		FirstName: "Ana",
		Email:     "ana@acme.test",
		Phone:     "+5215550001111",
		Company:   "Acme",
		Position:  "CTO",
	}

	// company wins over the name rule even though the token contains "name".
	if got := AutoFill("company_name", contact); got != "Acme" {
		t.Fatalf("company_name: expected Acme, got %q", got)
	}
	if got := AutoFill("correo", contact); got != "ana@acme.test" {
		t.Fatalf("correo: expected email, got %q", got)
	}
	if got := AutoFill("telefono", contact); got != "+5215550001111" {
		t.Fatalf("telefono: expected phone, got %q", got)
	}
	if got := AutoFill("cargo", contact); got != "CTO" {
		t.Fatalf("cargo: expected CTO, got %q", got)
	}
}

func TestAutoFillNoMatchOrMissingField(t *testing.T) {
	if got := AutoFill("customer_email", ContactData{FirstName: "Ana"}); got != "" {
		t.Fatalf("expected empty string for missing email, got %q", got)
	}
	if got := AutoFill("order_total", ContactData{FirstName: "Ana"}); got != "" {
		t.Fatalf("expected empty string for unknown keyword, got %q", got)
	}
}

func TestAutoFillAllScenario(t *testing.T) {
	comps := []Component{bodyComponent("Hi {{1}}, your order {{2}} shipped")}
	params := ExtractParameters(comps)

	values := AutoFillAll(params, ContactData{FirstName: "Lee"})
	if values["param_1"] != "Lee" {
		t.Fatalf("expected param_1 to default to the first name, got %q", values["param_1"])
	}
	if values["param_2"] != "" {
		t.Fatalf("expected param_2 to stay empty, got %q", values["param_2"])
	}
	if AllFilled(params, values) {
		t.Fatal("send must stay blocked until param_2 is filled")
	}

	preview := RenderPreview(comps, params, values)
	if preview.Body != "Hi Lee, your order {{2}} shipped" {
		t.Fatalf("unexpected preview: %q", preview.Body)
	}
}
