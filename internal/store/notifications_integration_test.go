package store

import (
	"context"
	"testing"
)

// TestListNotificationsOrdersByTimestamp verifies newest-first ordering
// across fractional-second boundaries. A lexicographic sort of the
// RFC 3339 strings would put a whole-second timestamp ahead of a
// fractional one within the same second.
func TestListNotificationsOrdersByTimestamp(t *testing.T) {
	ctx := context.Background()
	db := openGuardTestDB(ctx, t)
	defer db.Close()

	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role)
		VALUES ('usr_notif', 'Notif Fixture', 'notif@ideagate.test', 'submitter')
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO ideas (id, title, domain, description, owner_id, owner_name, notifications)
		VALUES ('idea_notif_order', 'Notif fixture', 'other', 'fixture', 'usr_notif', 'Notif Fixture',
			'[{"id":"n_whole","recipient":"usr_notif","title":"a","message":"a","read":false,"createdAt":"2026-01-02T10:00:00Z"},
			  {"id":"n_frac","recipient":"usr_notif","title":"b","message":"b","read":false,"createdAt":"2026-01-02T10:00:00.25Z"}]'::jsonb)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		t.Fatalf("seed idea: %v", err)
	}

	items, err := NewPostgresStore(db).ListNotifications(ctx, "usr_notif")
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(items) < 2 {
		t.Fatalf("expected both notifications, got %d", len(items))
	}
	if items[0].ID != "n_frac" || items[1].ID != "n_whole" {
		t.Fatalf("expected newest first (n_frac, n_whole), got (%s, %s)", items[0].ID, items[1].ID)
	}
}
