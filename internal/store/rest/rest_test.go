package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"scadenze/internal/core"
)

// fakeJSONServer mimics the subset of json-server the client relies on.
type fakeJSONServer struct {
	mu       sync.Mutex
	accounts []core.AccountRecord
}

func (f *fakeJSONServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := strings.TrimPrefix(r.URL.Path, "/accounts")
	id = strings.TrimPrefix(id, "/")

	switch {
	case r.Method == http.MethodGet && id == "":
		_ = json.NewEncoder(w).Encode(f.accounts)
	case r.Method == http.MethodPost && id == "":
		var a core.AccountRecord
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, existing := range f.accounts {
			if existing.ID == a.ID {
				http.Error(w, "Insert failed, duplicate id", http.StatusInternalServerError)
				return
			}
		}
		f.accounts = append(f.accounts, a)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a)
	case r.Method == http.MethodPut && id != "":
		var a core.AccountRecord
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for i := range f.accounts {
			if f.accounts[i].ID == id {
				f.accounts[i] = a
				_ = json.NewEncoder(w).Encode(a)
				return
			}
		}
		http.Error(w, "{}", http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClientRoundTrip(t *testing.T) {
	fake := &fakeJSONServer{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	acc := core.AccountRecord{
		ID:   "A1",
		Name: "Loan",
		Details: []core.InstallmentDetail{
			{InstallmentNumber: 1, DueDate: "2024-01-05", Amount: core.MustMoney("100")},
			{InstallmentNumber: 2, DueDate: "2024-02-05", Amount: core.MustMoney("250.5")},
		},
	}
	created, err := c.Create(ctx, acc)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "A1" || len(created.Details) != 2 {
		t.Fatalf("unexpected created: %+v", created)
	}

	if _, err := c.Create(ctx, acc); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}

	acc.Name = "Loan v2"
	if _, err := c.Replace(ctx, "A1", acc); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := c.Replace(ctx, "nope", acc); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	all, err := c.FetchAll(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Loan v2" {
		t.Fatalf("unexpected list: %+v", all)
	}
	if !all[0].Details[1].Amount.Equal(core.MustMoney("250.5")) {
		t.Fatalf("amount lost in transit: %s", all[0].Details[1].Amount)
	}
}

func TestClientWireFormat(t *testing.T) {
	var body map[string]any
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})
	c := newTestClient(t, h)
	_, err := c.Create(context.Background(), core.AccountRecord{
		ID: "A1", Name: "N", Product: "P", Description: "D",
		Details: []core.InstallmentDetail{{InstallmentNumber: 1, DueDate: "2024-01-05", Amount: core.MustMoney("12.5")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, key := range []string{"id", "Name", "Product", "Description", "Details"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("missing wire field %q in %v", key, body)
		}
	}
	details := body["Details"].([]any)
	first := details[0].(map[string]any)
	if first["amount"] != 12.5 || first["dueDate"] != "2024-01-05" || first["installmentNumber"] != float64(1) {
		t.Fatalf("unexpected detail wire format: %v", first)
	}
}

func TestClientSurfacesServerErrors(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	c := newTestClient(t, h)
	_, err := c.FetchAll(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"ftp://host", "localhost:3000", "://bad"} {
		if _, err := New(raw, nil, 0); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
