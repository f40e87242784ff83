package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"drop_harvester/internal/config"
	"drop_harvester/internal/model"
	"drop_harvester/internal/store"
)

type memStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
}

func newMemStore(accs ...*model.Account) *memStore {
	m := &memStore{accounts: map[string]*model.Account{}}
	for _, a := range accs {
		m.accounts[a.Username] = a
	}
	return m
}

func (m *memStore) Load(_ context.Context, username string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func (m *memStore) Save(_ context.Context, acc *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.Username] = acc
	return nil
}

func (m *memStore) Delete(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; !ok {
		return store.ErrNotFound
	}
	delete(m.accounts, username)
	return nil
}

func (m *memStore) List(_ context.Context) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func TestSMSNotifySendsTwilioForm(t *testing.T) {
	var (
		mu   sync.Mutex
		gotP string
		gotF map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		mu.Lock()
		gotP = r.URL.Path
		gotF = map[string]string{
			"To":   r.PostFormValue("To"),
			"From": r.PostFormValue("From"),
			"Body": r.PostFormValue("Body"),
		}
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewSMSNotifier(config.SMSConfig{
		Enabled:    true,
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550100",
		BaseURL:    srv.URL,
	}, nil, nil)

	acc := &model.Account{Username: "alice", Phone: "+15550111"}
	n.Notify(context.Background(), acc, "a drop is ready to claim")

	mu.Lock()
	defer mu.Unlock()
	if want := "/2010-04-01/Accounts/AC123/Messages.json"; gotP != want {
		t.Fatalf("path = %q, want %q", gotP, want)
	}
	if gotF["To"] != "+15550111" || gotF["From"] != "+15550100" {
		t.Fatalf("unexpected numbers: %v", gotF)
	}
	if want := "alice a drop is ready to claim"; gotF["Body"] != want {
		t.Fatalf("body = %q, want %q", gotF["Body"], want)
	}
}

func TestSMSNotifySkipsAccountsWithoutPhone(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewSMSNotifier(config.SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550100",
		BaseURL:    srv.URL,
	}, nil, nil)

	n.Notify(context.Background(), &model.Account{Username: "bob"}, "hello")
	if hits != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
}

func TestSMSBroadcastFiltersAdmins(t *testing.T) {
	var (
		mu  sync.Mutex
		tos []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		mu.Lock()
		tos = append(tos, r.PostFormValue("To"))
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	st := newMemStore(
		&model.Account{Username: "alice", Phone: "+15550111", Admin: true},
		&model.Account{Username: "bob", Phone: "+15550122"},
	)
	n := NewSMSNotifier(config.SMSConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+15550100",
		BaseURL:    srv.URL,
	}, st, nil)

	n.Broadcast(context.Background(), true, "run finished")

	mu.Lock()
	defer mu.Unlock()
	if len(tos) != 1 || tos[0] != "+15550111" {
		t.Fatalf("admin-only broadcast reached %v", tos)
	}
}
