package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Component types as returned by the Graph message_templates API.
const (
	ComponentHeader  = "HEADER"
	ComponentBody    = "BODY"
	ComponentFooter  = "FOOTER"
	ComponentButtons = "BUTTONS"
)

// Component mirrors one entry of a template's components JSON.
type Component struct {
	Type    string   `json:"type"`             // HEADER, BODY, FOOTER, BUTTONS
	Format  string   `json:"format,omitempty"` // TEXT, IMAGE, VIDEO, DOCUMENT
	Text    string   `json:"text,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
	Example *Example `json:"example,omitempty"`
}

type Button struct {
	Type string `json:"type"`
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

type Example struct {
	HeaderText []string   `json:"header_text,omitempty"`
	BodyText   [][]string `json:"body_text,omitempty"`
}

// ParameterInfo describes one placeholder discovered in a template.
type ParameterInfo struct {
	Name        string `json:"name"`      // display name; positional tokens become param_<n>
	Component   string `json:"component"` // "header", "body" or "button"
	ButtonIndex int    `json:"button_index,omitempty"`
	Positional  bool   `json:"positional,omitempty"`
	Index       int    `json:"index,omitempty"` // original 1-based index for positional tokens
	Example     string `json:"example,omitempty"`
}

// Token is alphanumeric/underscore or a bare integer. Anything else inside
// {{...}} is deliberately ignored: templates are provider-validated upstream,
// so an unparseable placeholder is dropped rather than reported.
var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// ParseComponents decodes a template's stored components JSON.
func ParseComponents(componentsJSON string) ([]Component, error) {
	if strings.TrimSpace(componentsJSON) == "" {
		return nil, nil
	}
	var comps []Component
	if err := json.Unmarshal([]byte(componentsJSON), &comps); err != nil {
		return nil, fmt.Errorf("invalid template components: %w", err)
	}
	return comps, nil
}

// ExtractParameters scans header text, body text and URL buttons for
// {{token}} placeholders. Order is first occurrence scanning header, then
// body, then buttons in button-index order. Duplicate tokens are collapsed
// into a single parameter.
func ExtractParameters(comps []Component) []ParameterInfo {
	var params []ParameterInfo
	seen := make(map[string]bool)

	add := func(token, component string, buttonIndex int, example string) {
		name := token
		positional := false
		index := 0
		if n, err := strconv.Atoi(token); err == nil {
			name = "param_" + token
			positional = true
			index = n
		}
		if seen[name] {
			return
		}
		seen[name] = true
		params = append(params, ParameterInfo{
			Name:        name,
			Component:   component,
			ButtonIndex: buttonIndex,
			Positional:  positional,
			Index:       index,
			Example:     example,
		})
	}

	for _, comp := range comps {
		switch strings.ToUpper(comp.Type) {
		case ComponentHeader:
			if comp.Format != "" && !strings.EqualFold(comp.Format, "TEXT") {
				continue
			}
			for i, m := range placeholderRe.FindAllStringSubmatch(comp.Text, -1) {
				example := ""
				if comp.Example != nil && i < len(comp.Example.HeaderText) {
					example = comp.Example.HeaderText[i]
				}
				add(m[1], "header", 0, example)
			}
		}
	}
	for _, comp := range comps {
		if !strings.EqualFold(comp.Type, ComponentBody) {
			continue
		}
		for i, m := range placeholderRe.FindAllStringSubmatch(comp.Text, -1) {
			example := ""
			if comp.Example != nil && len(comp.Example.BodyText) > 0 && i < len(comp.Example.BodyText[0]) {
				example = comp.Example.BodyText[0][i]
			}
			add(m[1], "body", 0, example)
		}
	}
	for _, comp := range comps {
		if !strings.EqualFold(comp.Type, ComponentButtons) {
			continue
		}
		for idx, btn := range comp.Buttons {
			if !strings.EqualFold(btn.Type, "URL") {
				continue
			}
			for _, m := range placeholderRe.FindAllStringSubmatch(btn.URL, -1) {
				add(m[1], "button", idx, "")
			}
		}
	}

	return params
}

// Preview is the rendered template shown in the dashboard before sending.
type Preview struct {
	Header string `json:"header"`
	Body   string `json:"body"`
	Footer string `json:"footer"`
}

// RenderPreview substitutes resolved parameter values into the template text
// for display. Unfilled parameters stay as their literal placeholder so the
// user can see what is missing. The components slice is not mutated.
func RenderPreview(comps []Component, params []ParameterInfo, values map[string]string) Preview {
	var p Preview
	for _, comp := range comps {
		switch strings.ToUpper(comp.Type) {
		case ComponentHeader:
			if comp.Format == "" || strings.EqualFold(comp.Format, "TEXT") {
				p.Header = substitute(comp.Text, params, values)
			}
		case ComponentBody:
			p.Body = substitute(comp.Text, params, values)
		case ComponentFooter:
			p.Footer = comp.Text
		}
	}
	return p
}

func substitute(text string, params []ParameterInfo, values map[string]string) string {
	out := text
	for _, param := range params {
		value := values[param.Name]
		if strings.TrimSpace(value) == "" {
			continue
		}
		patterns := []string{param.Name}
		if param.Positional {
			patterns = append(patterns, strconv.Itoa(param.Index))
		}
		for _, pat := range patterns {
			re := regexp.MustCompile(`(?i)\{\{` + regexp.QuoteMeta(pat) + `\}\}`)
			out = re.ReplaceAllLiteralString(out, value)
		}
	}
	return out
}

// AllFilled reports whether every parameter has a non-empty trimmed value.
// Sending must be blocked while this is false.
func AllFilled(params []ParameterInfo, values map[string]string) bool {
	for _, param := range params {
		if strings.TrimSpace(values[param.Name]) == "" {
			return false
		}
	}
	return true
}

// ErrMissingParameter is returned by FormatForSend when a required value is
// empty. It is a validation error, not a provider failure.
var ErrMissingParameter = fmt.Errorf("template parameter missing a value")

// SendComponent is the component-tagged parameter shape the template-send
// API expects.
type SendComponent struct {
	Type       string          `json:"type"`               // "header", "body", "button"
	SubType    string          `json:"sub_type,omitempty"` // "url" for buttons
	Index      string          `json:"index,omitempty"`    // button position
	Parameters []SendParameter `json:"parameters"`
}

type SendParameter struct {
	Type string `json:"type"` // always "text" here
	Text string `json:"text"`
}

// FormatForSend builds the provider payload from resolved parameter values.
// Every parameter must carry a non-empty trimmed value; otherwise the first
// missing parameter is reported and nothing is built.
func FormatForSend(params []ParameterInfo, values map[string]string) ([]SendComponent, error) {
	for _, param := range params {
		if strings.TrimSpace(values[param.Name]) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, param.Name)
		}
	}

	var header, body []ParameterInfo
	buttons := make(map[int][]ParameterInfo)
	for _, param := range params {
		switch param.Component {
		case "header":
			header = append(header, param)
		case "body":
			body = append(body, param)
		case "button":
			buttons[param.ButtonIndex] = append(buttons[param.ButtonIndex], param)
		}
	}

	// Positional parameters are delivered in their numeric order regardless
	// of where they first appear in the text, ahead of any named ones. Named
	// parameters keep their first-occurrence order.
	sort.SliceStable(body, func(i, j int) bool {
		if body[i].Positional != body[j].Positional {
			return body[i].Positional
		}
		if body[i].Positional {
			return body[i].Index < body[j].Index
		}
		return false
	})

	var out []SendComponent
	if len(header) > 0 {
		out = append(out, SendComponent{Type: "header", Parameters: textParams(header, values)})
	}
	if len(body) > 0 {
		out = append(out, SendComponent{Type: "body", Parameters: textParams(body, values)})
	}
	var btnIndexes []int
	for idx := range buttons {
		btnIndexes = append(btnIndexes, idx)
	}
	sort.Ints(btnIndexes)
	for _, idx := range btnIndexes {
		out = append(out, SendComponent{
			Type:       "button",
			SubType:    "url",
			Index:      strconv.Itoa(idx),
			Parameters: textParams(buttons[idx], values),
		})
	}

	return out, nil
}

func textParams(params []ParameterInfo, values map[string]string) []SendParameter {
	out := make([]SendParameter, 0, len(params))
	for _, param := range params {
		out = append(out, SendParameter{Type: "text", Text: strings.TrimSpace(values[param.Name])})
	}
	return out
}
