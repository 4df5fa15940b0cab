package template

import (
	"errors"
	"strings"
	"testing"
)

func bodyComponent(text string) Component {
	return Component{Type: "BODY", Text: text}
}

func TestExtractParametersNoPlaceholders(t *testing.T) {
	comps := []Component{
		{Type: "HEADER", Format: "TEXT", Text: "Welcome"},
		bodyComponent("Thanks for reaching out."),
		{Type: "FOOTER", Text: "Reply STOP to opt out"},
	}

	params := ExtractParameters(comps)
	if len(params) != 0 {
		t.Fatalf("expected no parameters, got %d", len(params))
	}
}

func TestExtractParametersPositional(t *testing.T) {
	params := ExtractParameters([]Component{bodyComponent("Hi {{1}}, your order {{2}} shipped")})
	if len(params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(params))
	}
	if params[0].Name != "param_1" || params[1].Name != "param_2" {
		t.Fatalf("unexpected names: %s, %s", params[0].Name, params[1].Name)
	}
	if !params[0].Positional || params[0].Index != 1 {
		t.Fatalf("expected positional index 1, got %+v", params[0])
	}
}

func TestExtractParametersOrderAndDedup(t *testing.T) {
	comps := []Component{
		bodyComponent("Hello {{name}}, {{name}} from {{company}}"),
		{Type: "HEADER", Format: "TEXT", Text: "Offer for {{name}}"},
		{Type: "BUTTONS", Buttons: []Button{
			{Type: "QUICK_REPLY", Text: "Stop"},
			{Type: "URL", Text: "View", URL: "https://example.com/deal/{{deal_id}}"},
		}},
	}

	params := ExtractParameters(comps)
	if len(params) != 3 {
		t.Fatalf("expected 3 parameters, got %d", len(params))
	}
	// Header is scanned before body, buttons last.
	if params[0].Name != "name" || params[0].Component != "header" {
		t.Fatalf("expected header name first, got %+v", params[0])
	}
	if params[1].Name != "company" || params[1].Component != "body" {
		t.Fatalf("expected body company second, got %+v", params[1])
	}
	if params[2].Name != "deal_id" || params[2].Component != "button" || params[2].ButtonIndex != 1 {
		t.Fatalf("expected button deal_id last, got %+v", params[2])
	}
}

func TestExtractParametersIgnoresMalformedTokens(t *testing.T) {
	params := ExtractParameters([]Component{bodyComponent("Hi {{ bad token }}, {{good}} and {{!}}")})
	if len(params) != 1 || params[0].Name != "good" {
		t.Fatalf("expected only 'good', got %+v", params)
	}
}

func TestExtractParametersSkipsMediaHeader(t *testing.T) {
	comps := []Component{
		{Type: "HEADER", Format: "IMAGE"},
		bodyComponent("Hello {{name}}"),
	}
	params := ExtractParameters(comps)
	if len(params) != 1 || params[0].Component != "body" {
		t.Fatalf("expected single body parameter, got %+v", params)
	}
}

func TestRenderPreviewLeavesUnfilled(t *testing.T) {
	comps := []Component{bodyComponent("Hi {{1}}, your order {{2}} shipped")}
	params := ExtractParameters(comps)

	preview := RenderPreview(comps, params, map[string]string{"param_1": "Lee"})
	if preview.Body != "Hi Lee, your order {{2}} shipped" {
		t.Fatalf("unexpected preview body: %q", preview.Body)
	}
	// Input component must not be mutated.
	if comps[0].Text != "Hi {{1}}, your order {{2}} shipped" {
		t.Fatalf("component text was mutated: %q", comps[0].Text)
	}
}

func TestRenderPreviewCaseInsensitiveFullFill(t *testing.T) {
	comps := []Component{
		{Type: "HEADER", Format: "TEXT", Text: "Hello {{Name}}"},
		bodyComponent("{{NAME}}, welcome to {{company}}"),
	}
	params := ExtractParameters(comps)
	values := map[string]string{"Name": "Ana", "NAME": "Ana", "company": "Acme"}

	preview := RenderPreview(comps, params, values)
	if strings.Contains(preview.Header, "{{") || strings.Contains(preview.Body, "{{") {
		t.Fatalf("expected no remaining placeholders, got header=%q body=%q", preview.Header, preview.Body)
	}
}

func TestFormatForSendRejectsEmptyValues(t *testing.T) {
	params := ExtractParameters([]Component{bodyComponent("Hi {{1}}, your order {{2}} shipped")})

	values := map[string]string{"param_1": "Lee", "param_2": "   "}
	if AllFilled(params, values) {
		t.Fatal("expected AllFilled to be false with blank value")
	}
	if _, err := FormatForSend(params, values); !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("expected ErrMissingParameter, got %v", err)
	}
}

func TestFormatForSendComponentPayload(t *testing.T) {
	comps := []Component{
		{Type: "HEADER", Format: "TEXT", Text: "Offer for {{name}}"},
		bodyComponent("Hi {{2}} from {{1}}"),
		{Type: "BUTTONS", Buttons: []Button{
			{Type: "URL", Text: "View", URL: "https://example.com/{{code}}"},
		}},
	}
	params := ExtractParameters(comps)
	values := map[string]string{
		"name":    "Ana",
		"param_1": "Acme",
		"param_2": "Lee",
		"code":    "xyz",
	}

	payload, err := FormatForSend(params, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload) != 3 {
		t.Fatalf("expected 3 components, got %d", len(payload))
	}
	if payload[0].Type != "header" || payload[0].Parameters[0].Text != "Ana" {
		t.Fatalf("unexpected header component: %+v", payload[0])
	}
	// Positional body parameters are delivered in numeric order.
	if payload[1].Type != "body" || payload[1].Parameters[0].Text != "Acme" || payload[1].Parameters[1].Text != "Lee" {
		t.Fatalf("unexpected body component: %+v", payload[1])
	}
	if payload[2].Type != "button" || payload[2].SubType != "url" || payload[2].Index != "0" {
		t.Fatalf("unexpected button component: %+v", payload[2])
	}
}

func TestParseComponentsLenient(t *testing.T) {
	comps, err := ParseComponents("")
	if err != nil || comps != nil {
		t.Fatalf("expected empty result for empty JSON, got %v, %v", comps, err)
	}
	if _, err := ParseComponents("{not json"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestFormatForSendOrdersPositionalsAroundNamed(t *testing.T) {
	params := ExtractParameters([]Component{bodyComponent("Hello {{2}} {{name}} {{1}}")})
	values := map[string]string{"param_1": "one", "param_2": "two", "name": "Ana"}

	payload, err := FormatForSend(params, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payload) != 1 || payload[0].Type != "body" {
		t.Fatalf("expected single body component, got %+v", payload)
	}

	got := make([]string, 0, len(payload[0].Parameters))
	for _, p := range payload[0].Parameters {
		got = append(got, p.Text)
	}
	want := []string{"one", "two", "Ana"}
	if len(got) != len(want) {
		t.Fatalf("expected %d parameters, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}
