package domain

import (
	"testing"
	"time"
)

func TestDocument_NextUserID(t *testing.T) {
	doc := NewDocument()
	if got := doc.NextUserID(); got != 1 {
		t.Fatalf("expected 1 for empty document, got %d", got)
	}

	doc.Users = []User{{ID: 3}, {ID: 7}, {ID: 2}}
	if got := doc.NextUserID(); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
}

func TestDocument_FindUserByLogin(t *testing.T) {
	doc := &Document{Users: []User{
		{ID: 1, Username: "admin", Email: "admin@3dmarket.id"},
		{ID: 2, Username: "sarah", Email: "sarah@example.com"},
	}}

	if u := doc.FindUserByLogin("sarah"); u == nil || u.ID != 2 {
		t.Fatalf("lookup by username failed: %+v", u)
	}
	if u := doc.FindUserByLogin("admin@3dmarket.id"); u == nil || u.ID != 1 {
		t.Fatalf("lookup by email failed: %+v", u)
	}
	if u := doc.FindUserByLogin("ghost"); u != nil {
		t.Fatalf("expected nil, got %+v", u)
	}

	// The returned pointer aliases the stored record.
	doc.FindUserByLogin("sarah").FullName = "Sarah W."
	if doc.Users[1].FullName != "Sarah W." {
		t.Fatalf("expected in-place mutation")
	}
}

func TestDocument_HasUsernameOrEmail(t *testing.T) {
	doc := &Document{Users: []User{{Username: "alice", Email: "a@x.com"}}}

	cases := []struct {
		username, email string
		want            bool
	}{
		{"alice", "other@x.com", true},
		{"bob", "a@x.com", true},
		{"bob", "b@x.com", false},
	}
	for _, tc := range cases {
		if got := doc.HasUsernameOrEmail(tc.username, tc.email); got != tc.want {
			t.Errorf("HasUsernameOrEmail(%q, %q) = %v, want %v", tc.username, tc.email, got, tc.want)
		}
	}
}

func TestDocument_RemoveSessionsByToken(t *testing.T) {
	doc := &Document{Sessions: []Session{
		{ID: "1", Token: "a"},
		{ID: "2", Token: "b"},
		{ID: "3", Token: "a"},
	}}

	if n := doc.RemoveSessionsByToken("a"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if len(doc.Sessions) != 1 || doc.Sessions[0].ID != "2" {
		t.Fatalf("unexpected remaining sessions: %+v", doc.Sessions)
	}
	if n := doc.RemoveSessionsByToken("a"); n != 0 {
		t.Fatalf("expected second removal to be a no-op, got %d", n)
	}
}

func TestNewCustomer_Defaults(t *testing.T) {
	u := NewCustomer(4, "alice", "a@x.com", "hash", "Alice", time.Now())

	if u.Role != RoleCustomer || !u.IsActive || u.LastLogin != nil {
		t.Fatalf("unexpected defaults: %+v", u)
	}
	if u.Preferences.Theme != "dark" || u.Preferences.Language != "id" || !u.Preferences.Notifications {
		t.Fatalf("unexpected preferences: %+v", u.Preferences)
	}
	if u.Address.Country != "Indonesia" {
		t.Fatalf("unexpected address: %+v", u.Address)
	}
}
