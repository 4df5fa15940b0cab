package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sales-inbox/internal/cache"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// CacheTTL bounds how stale CRM data shown in the dashboard can be. A forced
// refresh bypasses the cache entirely.
const CacheTTL = 5 * time.Minute

// ErrContactNotFound is returned when no CRM contact matches the phone number.
var ErrContactNotFound = errors.New("contact not found")

// Contact is the HubSpot contact projection used by the dashboard and by
// template auto-fill.
type Contact struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	LifeCycle string `json:"lifecycle_stage"`
}

type Deal struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Stage     string `json:"stage"`
	Amount    string `json:"amount"`
	CloseDate string `json:"close_date"`
}

type Task struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
	DueDate string `json:"due_date"`
}

type ActivityEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        zerolog.Logger

	contacts *cache.Cache[Contact]
	deals    *cache.Cache[[]Deal]
	tasks    *cache.Cache[[]Task]
	activity *cache.Cache[[]ActivityEvent]
}

func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "hubspot",
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     1 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.TotalFailures >= 3
			},
		}),
		log:      log.With().Str("component", "crm").Logger(),
		contacts: cache.New[Contact](),
		deals:    cache.New[[]Deal](),
		tasks:    cache.New[[]Task](),
		activity: cache.New[[]ActivityEvent](),
	}
}

// Invalidate drops all cached CRM data for a phone number, e.g. after a
// write that changes what the dashboard should show.
func (c *Client) Invalidate(phone string) {
	c.contacts.Invalidate(phone)
	c.deals.Invalidate(phone)
	c.tasks.Invalidate(phone)
	c.activity.Invalidate(phone)
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var bodyReader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			bodyReader = bytes.NewBuffer(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
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
			return nil, fmt.Errorf("hubspot api error %d: %s", resp.StatusCode, string(respBody))
		}
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return nil, fmt.Errorf("decode hubspot response: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

type searchResponse struct {
	Results []struct {
		ID         string            `json:"id"`
		Properties map[string]string `json:"properties"`
	} `json:"results"`
}

// GetContactByPhone looks up the HubSpot contact for a phone number. Results
// are cached per phone; pass refresh to bypass the cache.
func (c *Client) GetContactByPhone(ctx context.Context, phone string, refresh bool) (Contact, error) {
	if !refresh {
		if contact, ok := c.contacts.Get(phone); ok {
			return contact, nil
		}
	}

	payload := map[string]interface{}{
		"filterGroups": []map[string]interface{}{
			{"filters": []map[string]string{
				{"propertyName": "phone", "operator": "EQ", "value": phone},
			}},
		},
		"properties": []string{"firstname", "lastname", "email", "phone", "company", "jobtitle", "lifecyclestage"},
		"limit":      1,
	}

	var resp searchResponse
	if err := c.request(ctx, "POST", "/crm/v3/objects/contacts/search", payload, &resp); err != nil {
		return Contact{}, err
	}
	if len(resp.Results) == 0 {
		return Contact{}, fmt.Errorf("%w: %s", ErrContactNotFound, phone)
	}

	props := resp.Results[0].Properties
	contact := Contact{
		ID:        resp.Results[0].ID,
		FirstName: props["firstname"],
		LastName:  props["lastname"],
		Email:     props["email"],
		Phone:     props["phone"],
		Company:   props["company"],
		Position:  props["jobtitle"],
		LifeCycle: props["lifecyclestage"],
	}
	c.contacts.Set(phone, contact, CacheTTL)
	return contact, nil
}

type associationsResponse struct {
	Results []struct {
		ToObjectID int64 `json:"toObjectId"`
	} `json:"results"`
}

func (c *Client) associatedIDs(ctx context.Context, contactID, objectType string) ([]string, error) {
	var resp associationsResponse
	path := fmt.Sprintf("/crm/v4/objects/contacts/%s/associations/%s", contactID, objectType)
	if err := c.request(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, fmt.Sprintf("%d", r.ToObjectID))
	}
	return ids, nil
}

func (c *Client) batchRead(ctx context.Context, objectType string, ids, properties []string, out interface{}) error {
	inputs := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		inputs = append(inputs, map[string]string{"id": id})
	}
	payload := map[string]interface{}{
		"inputs":     inputs,
		"properties": properties,
	}
	path := fmt.Sprintf("/crm/v3/objects/%s/batch/read", objectType)
	return c.request(ctx, "POST", path, payload, out)
}

// GetDeals returns the deals associated with the contact for this phone.
func (c *Client) GetDeals(ctx context.Context, phone string, refresh bool) ([]Deal, error) {
	if !refresh {
		if deals, ok := c.deals.Get(phone); ok {
			return deals, nil
		}
	}

	contact, err := c.GetContactByPhone(ctx, phone, refresh)
	if err != nil {
		return nil, err
	}
	ids, err := c.associatedIDs(ctx, contact.ID, "deals")
	if err != nil {
		return nil, err
	}

	deals := []Deal{}
	if len(ids) > 0 {
		var resp searchResponse
		if err := c.batchRead(ctx, "deals", ids, []string{"dealname", "dealstage", "amount", "closedate"}, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			deals = append(deals, Deal{
				ID:        r.ID,
				Name:      r.Properties["dealname"],
				Stage:     r.Properties["dealstage"],
				Amount:    r.Properties["amount"],
				CloseDate: r.Properties["closedate"],
			})
		}
	}

	c.deals.Set(phone, deals, CacheTTL)
	return deals, nil
}

// GetTasks returns open tasks associated with the contact for this phone.
func (c *Client) GetTasks(ctx context.Context, phone string, refresh bool) ([]Task, error) {
	if !refresh {
		if tasks, ok := c.tasks.Get(phone); ok {
			return tasks, nil
		}
	}

	contact, err := c.GetContactByPhone(ctx, phone, refresh)
	if err != nil {
		return nil, err
	}
	ids, err := c.associatedIDs(ctx, contact.ID, "tasks")
	if err != nil {
		return nil, err
	}

	tasks := []Task{}
	if len(ids) > 0 {
		var resp searchResponse
		if err := c.batchRead(ctx, "tasks", ids, []string{"hs_task_subject", "hs_task_status", "hs_timestamp"}, &resp); err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			tasks = append(tasks, Task{
				ID:      r.ID,
				Subject: r.Properties["hs_task_subject"],
				Status:  r.Properties["hs_task_status"],
				DueDate: r.Properties["hs_timestamp"],
			})
		}
	}

	c.tasks.Set(phone, tasks, CacheTTL)
	return tasks, nil
}

// CreateTask creates a follow-up task linked to the contact and invalidates
// the cached task list so the next read shows it.
func (c *Client) CreateTask(ctx context.Context, phone, subject, dueDate string) error {
	contact, err := c.GetContactByPhone(ctx, phone, false)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"properties": map[string]string{
			"hs_task_subject": subject,
			"hs_task_status":  "NOT_STARTED",
			"hs_timestamp":    dueDate,
		},
		"associations": []map[string]interface{}{
			{
				"to": map[string]string{"id": contact.ID},
				"types": []map[string]interface{}{
					{"associationCategory": "HUBSPOT_DEFINED", "associationTypeId": 204},
				},
			},
		},
	}
	if err := c.request(ctx, "POST", "/crm/v3/objects/tasks", payload, nil); err != nil {
		return err
	}

	c.tasks.Invalidate(phone)
	return nil
}

// GetActivity returns the recent engagement timeline for the contact.
func (c *Client) GetActivity(ctx context.Context, phone string, refresh bool) ([]ActivityEvent, error) {
	if !refresh {
		if events, ok := c.activity.Get(phone); ok {
			return events, nil
		}
	}

	contact, err := c.GetContactByPhone(ctx, phone, refresh)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []struct {
			Engagement struct {
				ID        int64  `json:"id"`
				Type      string `json:"type"`
				Timestamp int64  `json:"timestamp"`
			} `json:"engagement"`
			Metadata struct {
				Subject string `json:"subject"`
				Body    string `json:"body"`
			} `json:"metadata"`
		} `json:"results"`
	}
	path := fmt.Sprintf("/engagements/v1/engagements/associated/contact/%s/paged?limit=50", contact.ID)
	if err := c.request(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}

	events := make([]ActivityEvent, 0, len(resp.Results))
	for _, r := range resp.Results {
		events = append(events, ActivityEvent{
			ID:        fmt.Sprintf("%d", r.Engagement.ID),
			Type:      r.Engagement.Type,
			Title:     r.Metadata.Subject,
			Body:      r.Metadata.Body,
			Timestamp: r.Engagement.Timestamp,
		})
	}

	c.activity.Set(phone, events, CacheTTL)
	return events, nil
}
