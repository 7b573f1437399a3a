package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stagecms/stagecms/internal/content"
)

// newSQLStore creates a migrated temporary SQLite store.
func newSQLStore(t *testing.T) *Store {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "stagecms-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	_ = f.Close()

	db, err := NewDB(f.Name())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return New(db)
}

// forEachStore runs a test against both VersionStore implementations.
func forEachStore(t *testing.T, fn func(t *testing.T, s VersionStore)) {
	t.Run("sql", func(t *testing.T) { fn(t, newSQLStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func heroDoc(title string) content.Document {
	return content.Document{"hero": map[string]any{"title": title}}
}

func heroTitle(t *testing.T, doc content.Document) string {
	t.Helper()
	hero, ok := doc["hero"].(map[string]any)
	if !ok {
		t.Fatalf("document has no hero section: %#v", doc)
	}
	title, _ := hero["title"].(string)
	return title
}

func TestStore_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()

		if _, err := s.FetchForPublicRead(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FetchForPublicRead: expected ErrNotFound, got %v", err)
		}
		if _, err := s.FetchForAuthoring(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FetchForAuthoring: expected ErrNotFound, got %v", err)
		}
		if _, err := s.VersionToken(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("VersionToken: expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_DraftIsolation(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()

		if _, err := s.UpsertDraft(ctx, "careers", heroDoc("Draft Only")); err != nil {
			t.Fatalf("UpsertDraft: %v", err)
		}

		rec, err := s.FetchForAuthoring(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForAuthoring: %v", err)
		}
		if got := heroTitle(t, rec.Draft); got != "Draft Only" {
			t.Errorf("draft title = %q, want Draft Only", got)
		}
		if rec.IsPublished {
			t.Error("page should not be published after a draft save")
		}
		if rec.Published != nil {
			t.Errorf("published document should be nil, got %#v", rec.Published)
		}

		// The public view must not leak the draft.
		page, err := s.FetchForPublicRead(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForPublicRead: %v", err)
		}
		if page.Document != nil {
			t.Errorf("public view leaked draft content: %#v", page.Document)
		}
		if page.IsPublished {
			t.Error("public view claims published without a publish")
		}
	})
}

func TestStore_PublishOverwritesDraft(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()

		if _, err := s.UpsertDraft(ctx, "careers", heroDoc("Old Draft")); err != nil {
			t.Fatalf("UpsertDraft: %v", err)
		}
		if _, err := s.Publish(ctx, "careers", heroDoc("Live")); err != nil {
			t.Fatalf("Publish: %v", err)
		}

		rec, err := s.FetchForAuthoring(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForAuthoring: %v", err)
		}
		if got := heroTitle(t, rec.Draft); got != "Live" {
			t.Errorf("publish must overwrite the draft, draft title = %q", got)
		}
		if got := heroTitle(t, rec.Published); got != "Live" {
			t.Errorf("published title = %q, want Live", got)
		}
		if !rec.IsPublished {
			t.Error("record not marked published")
		}
		if rec.PublishedAt == nil {
			t.Fatal("publishedAt not set")
		}
		if rec.UpdatedAt.Before(*rec.PublishedAt) {
			t.Errorf("updatedAt %v < publishedAt %v", rec.UpdatedAt, *rec.PublishedAt)
		}
	})
}

func TestStore_PublishNilDocumentRejected(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()

		if _, err := s.Publish(ctx, "careers", nil); !errors.Is(err, ErrNilDocument) {
			t.Errorf("Publish(nil): expected ErrNilDocument, got %v", err)
		}
		// The refused publish must leave no trace.
		if _, err := s.FetchForAuthoring(ctx, "careers"); !errors.Is(err, ErrNotFound) {
			t.Errorf("record created by refused publish: %v", err)
		}
	})
}

func TestStore_IdempotentPublish(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()
		doc := heroDoc("Same")

		first, err := s.Publish(ctx, "careers", doc)
		if err != nil {
			t.Fatalf("first Publish: %v", err)
		}
		second, err := s.Publish(ctx, "careers", doc)
		if err != nil {
			t.Fatalf("second Publish: %v", err)
		}

		rec, err := s.FetchForAuthoring(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForAuthoring: %v", err)
		}
		if got := heroTitle(t, rec.Published); got != "Same" {
			t.Errorf("published title = %q, want Same", got)
		}
		if !second.PublishedAt.After(*first.PublishedAt) {
			t.Errorf("publishedAt must increase: first %v, second %v",
				*first.PublishedAt, *second.PublishedAt)
		}
		if first.VersionToken == second.VersionToken {
			t.Error("version token must change on every write")
		}
	})
}

func TestStore_TokenChangesOnDraftSave(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()

		first, err := s.UpsertDraft(ctx, "careers", heroDoc("V1"))
		if err != nil {
			t.Fatalf("UpsertDraft: %v", err)
		}
		token, err := s.VersionToken(ctx, "careers")
		if err != nil {
			t.Fatalf("VersionToken: %v", err)
		}
		if token != first.VersionToken {
			t.Errorf("VersionToken %q != receipt token %q", token, first.VersionToken)
		}

		second, err := s.UpsertDraft(ctx, "careers", heroDoc("V2"))
		if err != nil {
			t.Fatalf("UpsertDraft: %v", err)
		}
		if second.VersionToken == first.VersionToken {
			t.Error("token unchanged after a second draft save")
		}
		if second.UpdatedAt.Before(first.UpdatedAt) {
			t.Errorf("updatedAt decreased: %v -> %v", first.UpdatedAt, second.UpdatedAt)
		}
	})
}

func TestStore_DraftSaveEchoesPublishBookkeeping(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()

		if _, err := s.Publish(ctx, "careers", heroDoc("Live")); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		receipt, err := s.UpsertDraft(ctx, "careers", heroDoc("WIP"))
		if err != nil {
			t.Fatalf("UpsertDraft: %v", err)
		}
		if !receipt.IsPublished {
			t.Error("draft save must echo isPublished unchanged")
		}
		if receipt.PublishedAt == nil {
			t.Error("draft save must echo publishedAt unchanged")
		}
	})
}

// TestStore_EndToEnd walks the full draft/publish lifecycle for one slug.
func TestStore_EndToEnd(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()

		if _, err := s.FetchForAuthoring(ctx, "careers"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound before first save, got %v", err)
		}

		if _, err := s.UpsertDraft(ctx, "careers", heroDoc("V1")); err != nil {
			t.Fatalf("UpsertDraft V1: %v", err)
		}
		rec, err := s.FetchForAuthoring(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForAuthoring: %v", err)
		}
		if heroTitle(t, rec.Draft) != "V1" || rec.IsPublished {
			t.Fatalf("after draft save: draft=%q published=%v", heroTitle(t, rec.Draft), rec.IsPublished)
		}

		if _, err := s.Publish(ctx, "careers", heroDoc("V1")); err != nil {
			t.Fatalf("Publish V1: %v", err)
		}
		page, err := s.FetchForPublicRead(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForPublicRead: %v", err)
		}
		if heroTitle(t, page.Document) != "V1" || !page.IsPublished {
			t.Fatalf("after publish: doc=%q published=%v", heroTitle(t, page.Document), page.IsPublished)
		}

		if _, err := s.UpsertDraft(ctx, "careers", heroDoc("V2")); err != nil {
			t.Fatalf("UpsertDraft V2: %v", err)
		}
		page, err = s.FetchForPublicRead(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForPublicRead: %v", err)
		}
		if heroTitle(t, page.Document) != "V1" {
			t.Fatalf("draft save leaked to published view: %q", heroTitle(t, page.Document))
		}

		if _, err := s.Publish(ctx, "careers", heroDoc("V2")); err != nil {
			t.Fatalf("Publish V2: %v", err)
		}
		page, err = s.FetchForPublicRead(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForPublicRead: %v", err)
		}
		if heroTitle(t, page.Document) != "V2" {
			t.Fatalf("published view = %q, want V2", heroTitle(t, page.Document))
		}
	})
}

func TestStore_StoresRawPartialDocuments(t *testing.T) {
	forEachStore(t, func(t *testing.T, s VersionStore) {
		ctx := context.Background()
		partial := content.Document{"hero": map[string]any{"title": "Only This"}}

		if _, err := s.UpsertDraft(ctx, "careers", partial); err != nil {
			t.Fatalf("UpsertDraft: %v", err)
		}
		rec, err := s.FetchForAuthoring(ctx, "careers")
		if err != nil {
			t.Fatalf("FetchForAuthoring: %v", err)
		}
		// The store must hand back exactly what the writer sent, not a merged
		// document. Merging happens fresh on every read, above the store.
		if len(rec.Draft) != 1 {
			t.Errorf("store persisted more than the partial document: %#v", rec.Draft)
		}
	})
}

func TestMemoryStore_FailWrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	boom := errors.New("disk on fire")
	s.FailWrites(boom)
	if _, err := s.UpsertDraft(ctx, "careers", heroDoc("V1")); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}

	s.FailWrites(nil)
	if _, err := s.UpsertDraft(ctx, "careers", heroDoc("V1")); err != nil {
		t.Errorf("expected healed store to accept writes, got %v", err)
	}
}

func TestStore_Events(t *testing.T) {
	s := newSQLStore(t)
	ctx := context.Background()

	if err := s.CreateEvent(ctx, "info", "page", "draft saved", map[string]any{"slug": "careers"}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	events, err := s.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Message != "draft saved" {
		t.Errorf("unexpected event: %#v", events[0])
	}

	n, err := s.PruneEvents(ctx, events[0].CreatedAt.Add(time.Second))
	if err != nil {
		t.Fatalf("PruneEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned event, got %d", n)
	}
}
