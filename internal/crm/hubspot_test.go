package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm/v3/objects/contacts/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		*hits++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{
					"id": "101",
					"properties": map[string]string{
						"firstname": "Ana",
						"lastname":  "Lopez",
						"email":     "ana@example.com",
						"phone":     "+5215550001",
					},
				},
			},
		})
	}))
}

func TestGetContactByPhoneCachesResult(t *testing.T) {
	hits := 0
	srv := newTestServer(t, &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "test-token", zerolog.Nop())

	contact, err := client.GetContactByPhone(context.Background(), "+5215550001", false)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if contact.FirstName != "Ana" || contact.ID != "101" {
		t.Fatalf("unexpected contact %+v", contact)
	}

	if _, err := client.GetContactByPhone(context.Background(), "+5215550001", false); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}
}

func TestGetContactByPhoneRefreshBypassesCache(t *testing.T) {
	hits := 0
	srv := newTestServer(t, &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "test-token", zerolog.Nop())

	if _, err := client.GetContactByPhone(context.Background(), "+5215550001", false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := client.GetContactByPhone(context.Background(), "+5215550001", true); err != nil {
		t.Fatalf("refresh fetch: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", hits)
	}
}

func TestInvalidateDropsCachedContact(t *testing.T) {
	hits := 0
	srv := newTestServer(t, &hits)
	defer srv.Close()

	client := NewClient(srv.URL, "test-token", zerolog.Nop())

	if _, err := client.GetContactByPhone(context.Background(), "+5215550001", false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	client.Invalidate("+5215550001")
	if _, err := client.GetContactByPhone(context.Background(), "+5215550001", false); err != nil {
		t.Fatalf("fetch after invalidate: %v", err)
	}
	if hits != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", hits)
	}
}

func TestGetContactByPhoneNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"results": []interface{}{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token", zerolog.Nop())

	_, err := client.GetContactByPhone(context.Background(), "+000", false)
	if !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}
