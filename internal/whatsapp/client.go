package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sales-inbox/internal/config"
	"sales-inbox/internal/template"

	"github.com/rs/zerolog"
)

const graphBaseURL = "https://graph.facebook.com/v19.0"

type Client struct {
	Config     *config.Config
	BaseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		Config:     cfg,
		BaseURL:    graphBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("component", "whatsapp").Logger(),
	}
}

// APIError is a decoded Graph API error envelope.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	FbtraceID  string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextObj     `json:"text,omitempty"`
	Image            *MediaObj    `json:"image,omitempty"`
	Document         *MediaObj    `json:"document,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type MediaObj struct {
	ID       string `json:"id,omitempty"`
	Link     string `json:"link,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type TemplateObj struct {
	Name       string                   `json:"name"`
	Language   LanguageObj              `json:"language"`
	Components []template.SendComponent `json:"components,omitempty"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

// SendResponse is the provider acknowledgment for a message send.
type SendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Contacts []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
}

// --- Helper Functions ---

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error APIError `json:"error"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Message != "" {
			envelope.Error.StatusCode = resp.StatusCode
			apiErr = &envelope.Error
		} else {
			apiErr.Message = string(respBody)
		}
		c.log.Error().Int("status", resp.StatusCode).Str("url", url).Msg(apiErr.Message)
		return respBody, apiErr
	}

	return respBody, nil
}

// --- Messaging Methods ---

func (c *Client) SendRawMessage(ctx context.Context, msg GenericMessage) (*SendResponse, error) {
	if msg.MessagingProduct == "" {
		msg.MessagingProduct = "whatsapp"
	}
	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.Config.PhoneNumberID)
	respBody, err := c.sendRequest(ctx, "POST", url, msg)
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	return &resp, nil
}

// SendText sends a free-form text message. Callers must check the 24h
// messaging window before using this.
func (c *Client) SendText(ctx context.Context, to, body string) (*SendResponse, error) {
	return c.SendRawMessage(ctx, GenericMessage{
		To:   to,
		Type: "text",
		Text: &TextObj{Body: body},
	})
}

// SendTemplate sends an approved template with resolved parameter components.
func (c *Client) SendTemplate(ctx context.Context, to, name, languageCode string, components []template.SendComponent) (*SendResponse, error) {
	return c.SendRawMessage(ctx, GenericMessage{
		To:   to,
		Type: "template",
		Template: &TemplateObj{
			Name:       name,
			Language:   LanguageObj{Code: languageCode},
			Components: components,
		},
	})
}

// --- Template Management Methods ---

// MetaTemplate is one record from the Graph message_templates listing.
type MetaTemplate struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Language   string               `json:"language"`
	Category   string               `json:"category"`
	Status     string               `json:"status"`
	Components []template.Component `json:"components"`
}

func (c *Client) GetTemplates(ctx context.Context) ([]MetaTemplate, error) {
	url := fmt.Sprintf("%s/%s/message_templates", c.BaseURL, c.Config.WhatsAppBusinessAccountID)
	respBody, err := c.sendRequest(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []MetaTemplate `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode templates response: %w", err)
	}
	return result.Data, nil
}

func (c *Client) CreateTemplate(ctx context.Context, templateData interface{}) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/%s/message_templates", c.BaseURL, c.Config.WhatsAppBusinessAccountID)
	respBody, err := c.sendRequest(ctx, "POST", url, templateData)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) DeleteTemplate(ctx context.Context, templateName string) error {
	url := fmt.Sprintf("%s/%s/message_templates?name=%s", c.BaseURL, c.Config.WhatsAppBusinessAccountID, templateName)
	_, err := c.sendRequest(ctx, "DELETE", url, nil)
	return err
}

// --- Media Methods ---

// RetrieveMediaURL resolves a media ID to its short-lived download URL.
func (c *Client) RetrieveMediaURL(ctx context.Context, mediaID string) (string, error) {
	url := fmt.Sprintf("%s/%s", c.BaseURL, mediaID)
	respBody, err := c.sendRequest(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}

	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &obj); err != nil {
		return "", err
	}
	return obj.URL, nil
}

// DownloadMedia fetches media bytes for the dashboard's media proxy. The
// Graph download URL requires the same bearer token.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	mediaURL, err := c.RetrieveMediaURL(ctx, mediaID)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Message: "media download failed"}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}
