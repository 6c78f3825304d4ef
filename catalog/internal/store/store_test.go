package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/scriptshelf/scriptshelf/dbopen"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return NewStore(db)
}

func sampleScript(key, language string) *Script {
	return &Script{
		Key:          key,
		Language:     language,
		Title:        "Title for " + key,
		Summary:      "Summary for " + key,
		Code:         "Write-Host 'hello'",
		Readme:       "# " + key,
		Author:       "ops-team",
		Version:      "1.0.0",
		CompatibleOS: "Windows Server 2019+",
	}
}

func TestCreateAndGetScript(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateScript(ctx, sampleScript("PS-01", LanguagePowerShell),
		[]string{"security", "baseline"}, []string{"Hardens TLS"}, "1.0.0", "Initial release")
	if err != nil {
		t.Fatalf("CreateScript: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if created.CreatedAt == 0 || created.UpdatedAt != created.CreatedAt {
		t.Fatalf("timestamps: created=%d updated=%d", created.CreatedAt, created.UpdatedAt)
	}
	if len(created.Versions) != 1 {
		t.Fatalf("expected exactly one version, got %d", len(created.Versions))
	}
	if created.Versions[0].Changes != "Initial release" {
		t.Fatalf("version changes = %q", created.Versions[0].Changes)
	}
	if len(created.Tags) != 2 || len(created.Highlights) != 1 {
		t.Fatalf("tags=%v highlights=%v", created.Tags, created.Highlights)
	}

	byKey, err := s.GetScriptByKey(ctx, "PS-01")
	if err != nil {
		t.Fatalf("GetScriptByKey: %v", err)
	}
	if byKey == nil || byKey.ID != created.ID {
		t.Fatalf("lookup by key mismatch: %+v", byKey)
	}

	byID, err := s.GetScriptByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetScriptByID: %v", err)
	}
	if byID == nil || byID.Key != "PS-01" {
		t.Fatalf("lookup by id mismatch: %+v", byID)
	}
}

func TestGetScript_Missing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.GetScriptByKey(ctx, "nope")
	if err != nil {
		t.Fatalf("GetScriptByKey: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing key, got %+v", got)
	}
	got, err = s.GetScriptByID(ctx, 999)
	if err != nil || got != nil {
		t.Fatalf("expected nil,nil for missing id, got %+v, %v", got, err)
	}
}

func TestCreateScript_EmptyCollections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateScript(ctx, sampleScript("SH-09", LanguageBash), nil, nil, "1.0.0", "Initial")
	if err != nil {
		t.Fatalf("CreateScript: %v", err)
	}
	if created.Tags == nil || created.Highlights == nil {
		t.Fatal("tags and highlights must be non-nil empty slices")
	}
	if len(created.Tags) != 0 || len(created.Highlights) != 0 {
		t.Fatalf("expected empty collections, got %v / %v", created.Tags, created.Highlights)
	}
}

func TestCreateScript_DuplicateLabelsCollapse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateScript(ctx, sampleScript("PS-09", LanguagePowerShell),
		[]string{"backup", "backup", "backup"}, []string{"Fast", "Fast"}, "1.0.0", "Initial")
	if err != nil {
		t.Fatalf("CreateScript: %v", err)
	}
	if len(created.Tags) != 1 {
		t.Fatalf("duplicate tags should collapse, got %v", created.Tags)
	}
	if len(created.Highlights) != 1 {
		t.Fatalf("duplicate highlights should collapse, got %v", created.Highlights)
	}
}

func TestCreateScript_DuplicateKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateScript(ctx, sampleScript("PS-02", LanguagePowerShell), nil, nil, "1.0.0", "Initial"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := s.CreateScript(ctx, sampleScript("PS-02", LanguagePowerShell), nil, nil, "1.0.0", "Initial"); err == nil {
		t.Fatal("expected unique constraint error for duplicate key")
	}
}

func TestListScripts_LanguageFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, lang := range []string{LanguagePowerShell, LanguagePowerShell, LanguageBash} {
		key := fmt.Sprintf("SC-%02d", i)
		if _, err := s.CreateScript(ctx, sampleScript(key, lang), nil, nil, "1.0.0", "Initial"); err != nil {
			t.Fatalf("create %s: %v", key, err)
		}
	}

	all, err := s.ListScripts(ctx, "")
	if err != nil {
		t.Fatalf("ListScripts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 scripts, got %d", len(all))
	}

	ps, err := s.ListScripts(ctx, LanguagePowerShell)
	if err != nil {
		t.Fatalf("ListScripts(PowerShell): %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 PowerShell scripts, got %d", len(ps))
	}

	// the store filters on whatever it is given; the route layer screens
	// unrecognized values before they reach here
	none, err := s.ListScripts(ctx, "Python")
	if err != nil {
		t.Fatalf("ListScripts(Python): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %d", len(none))
	}
}

func TestListScripts_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("ORD-%02d", i)
		if _, err := s.CreateScript(ctx, sampleScript(key, LanguageBash), nil, nil, "1.0.0", "Initial"); err != nil {
			t.Fatalf("create %s: %v", key, err)
		}
	}

	list, err := s.ListScripts(ctx, "")
	if err != nil {
		t.Fatalf("ListScripts: %v", err)
	}
	// same-millisecond inserts fall back to id ordering
	for i, want := range []string{"ORD-02", "ORD-01", "ORD-00"} {
		if list[i].Key != want {
			t.Fatalf("position %d: got %s, want %s", i, list[i].Key, want)
		}
	}
}

func TestUpdateScript(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateScript(ctx, sampleScript("UPD-01", LanguagePowerShell),
		[]string{"old-tag"}, []string{"old-highlight"}, "1.0.0", "Initial")
	if err != nil {
		t.Fatalf("CreateScript: %v", err)
	}

	title := "New Title"
	newTags := []string{"fresh", "tags"}
	updated, err := s.UpdateScript(ctx, created.ID, &ScriptPatch{Title: &title}, &newTags, nil)
	if err != nil {
		t.Fatalf("UpdateScript: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated script")
	}
	if updated.Title != "New Title" {
		t.Fatalf("title = %q", updated.Title)
	}
	if updated.Key != "UPD-01" {
		t.Fatalf("key must not change, got %q", updated.Key)
	}
	if len(updated.Tags) != 2 {
		t.Fatalf("tags should be replaced wholesale, got %v", updated.Tags)
	}
	// nil highlights pointer leaves the collection untouched
	if len(updated.Highlights) != 1 || updated.Highlights[0] != "old-highlight" {
		t.Fatalf("highlights should be untouched, got %v", updated.Highlights)
	}
	if updated.UpdatedAt < created.UpdatedAt {
		t.Fatalf("updated_at went backwards: %d < %d", updated.UpdatedAt, created.UpdatedAt)
	}
}

func TestUpdateScript_ClearTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateScript(ctx, sampleScript("UPD-02", LanguageBash),
		[]string{"a", "b"}, nil, "1.0.0", "Initial")
	if err != nil {
		t.Fatalf("CreateScript: %v", err)
	}

	empty := []string{}
	updated, err := s.UpdateScript(ctx, created.ID, nil, &empty, nil)
	if err != nil {
		t.Fatalf("UpdateScript: %v", err)
	}
	if len(updated.Tags) != 0 {
		t.Fatalf("expected tags cleared, got %v", updated.Tags)
	}
}

func TestUpdateScript_Missing(t *testing.T) {
	s := newTestStore(t)

	title := "x"
	updated, err := s.UpdateScript(context.Background(), 12345, &ScriptPatch{Title: &title}, nil, nil)
	if err != nil {
		t.Fatalf("UpdateScript: %v", err)
	}
	if updated != nil {
		t.Fatalf("expected nil for missing script, got %+v", updated)
	}
}

func TestDeleteScript_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateScript(ctx, sampleScript("DEL-01", LanguagePowerShell),
		[]string{"t1", "t2"}, []string{"h1"}, "1.0.0", "Initial")
	if err != nil {
		t.Fatalf("CreateScript: %v", err)
	}
	if _, err := s.AddVersion(ctx, created.ID, "1.1.0", "More"); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}

	ok, err := s.DeleteScript(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeleteScript: %v", err)
	}
	if !ok {
		t.Fatal("expected deletion to report true")
	}

	for _, table := range []string{"script_tags", "script_highlights", "script_versions"} {
		var n int
		if err := s.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Fatalf("%s should cascade to empty, got %d rows", table, n)
		}
	}
}

func TestDeleteScript_Missing(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.DeleteScript(context.Background(), 777)
	if err != nil {
		t.Fatalf("DeleteScript: %v", err)
	}
	if ok {
		t.Fatal("expected false for missing script")
	}
}

func TestAddVersion_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateScript(ctx, sampleScript("VER-01", LanguageBash), nil, nil, "1.0.0", "Initial")
	if err != nil {
		t.Fatalf("CreateScript: %v", err)
	}
	if _, err := s.AddVersion(ctx, created.ID, "1.1.0", "Second"); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	if _, err := s.AddVersion(ctx, created.ID, "1.2.0", "Third"); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}

	got, err := s.GetScriptByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetScriptByID: %v", err)
	}
	if len(got.Versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(got.Versions))
	}
	for i, want := range []string{"1.2.0", "1.1.0", "1.0.0"} {
		if got.Versions[i].Version != want {
			t.Fatalf("version %d = %s, want %s", i, got.Versions[i].Version, want)
		}
	}
	// appending history entries does not touch the summary version field
	if got.Version != "1.0.0" {
		t.Fatalf("script version field should be independent of history, got %s", got.Version)
	}
}

func TestAddVersion_MissingScript(t *testing.T) {
	s := newTestStore(t)

	v, err := s.AddVersion(context.Background(), 4242, "1.0.0", "Initial")
	if err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil for missing script, got %+v", v)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "admin", "s3cret-pass", "admin")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.PasswordHash == "s3cret-pass" {
		t.Fatal("password must be stored hashed")
	}

	got, err := s.Authenticate(ctx, "admin", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID || got.Role != "admin" {
		t.Fatalf("authenticated user mismatch: %+v", got)
	}

	if _, err := s.Authenticate(ctx, "admin", "wrong"); err != ErrBadCredentials {
		t.Fatalf("wrong password: got %v, want ErrBadCredentials", err)
	}
	if _, err := s.Authenticate(ctx, "ghost", "whatever"); err != ErrBadCredentials {
		t.Fatalf("unknown user: got %v, want ErrBadCredentials", err)
	}
}

type captureAudit struct {
	mu      sync.Mutex
	actions []string
}

func (c *captureAudit) Log(_ context.Context, action, details string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
}

func TestAuditHook(t *testing.T) {
	s := newTestStore(t)
	cap := &captureAudit{}
	s.Audit = cap
	ctx := context.Background()

	created, err := s.CreateScript(ctx, sampleScript("AUD-01", LanguagePowerShell), nil, nil, "1.0.0", "Initial")
	if err != nil {
		t.Fatalf("CreateScript: %v", err)
	}
	title := "renamed"
	if _, err := s.UpdateScript(ctx, created.ID, &ScriptPatch{Title: &title}, nil, nil); err != nil {
		t.Fatalf("UpdateScript: %v", err)
	}
	if _, err := s.AddVersion(ctx, created.ID, "1.1.0", "More"); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	if _, err := s.DeleteScript(ctx, created.ID); err != nil {
		t.Fatalf("DeleteScript: %v", err)
	}

	want := []string{"Created script", "Updated script", "Added version", "Deleted script"}
	if len(cap.actions) != len(want) {
		t.Fatalf("actions = %v", cap.actions)
	}
	for i := range want {
		if cap.actions[i] != want[i] {
			t.Fatalf("action %d = %q, want %q", i, cap.actions[i], want[i])
		}
	}
}
