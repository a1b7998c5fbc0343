package repositories

import (
	"database/sql"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func testDelta() models.ChannelDelta {
	return models.ChannelDelta{
		Add:    []models.ChannelRef{{URL: "https://www.youtube.com/@Foo", ChannelID: "UC1"}},
		Remove: []string{"https://www.youtube.com/@Bar"},
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "commits")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestCommitRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewCommitRepository(setupTestDB(t))
		c := models.NewCommit(0, "http://localhost:3087", testDelta(), "Channels updated successfully")

		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create commit: %v", err)
		}
		if c.ID() == "" || c.Sequence() != 1 {
			t.Errorf("expected ID and sequence to be set, got %q #%d", c.ID(), c.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewCommitRepository(setupTestDB(t))
		c := models.NewCommit(0, "http://localhost:3087", testDelta(), "saved")
		if err := repo.Create(c); err != nil {
			t.Fatal(err)
		}

		got, err := repo.Get(c.ID())
		if err != nil {
			t.Fatalf("failed to get commit: %v", err)
		}
		if got.BaseURL() != c.BaseURL() || got.Message() != "saved" {
			t.Errorf("unexpected commit %+v", got)
		}
		if !slices.Equal(got.Added(), c.Added()) || !slices.Equal(got.Removed(), c.Removed()) {
			t.Errorf("delta did not round trip: %+v", got.Delta())
		}
		if got.Summary() != "+1 -1" {
			t.Errorf("unexpected summary %q", got.Summary())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewCommitRepository(setupTestDB(t))
		c := models.NewCommit(0, "http://localhost:3087", testDelta(), "saved")
		if err := repo.Create(c); err != nil {
			t.Fatal(err)
		}

		c.SetMessage("renamed")
		if err := repo.Update(c); err != nil {
			t.Fatalf("failed to update: %v", err)
		}
		got, _ := repo.Get(c.ID())
		if got.Message() != "renamed" {
			t.Errorf("expected updated message, got %q", got.Message())
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewCommitRepository(setupTestDB(t))
		for _, base := range []string{"http://a", "http://b", "http://a"} {
			if err := repo.Create(models.NewCommit(0, base, testDelta(), "")); err != nil {
				t.Fatal(err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 || all[0].Sequence() != 3 {
			t.Errorf("expected newest first, got %d commits starting at #%d", len(all), all[0].Sequence())
		}

		onlyA, _ := repo.List(map[string]any{"base_url": "http://a"})
		if len(onlyA) != 2 {
			t.Errorf("expected 2 commits for http://a, got %d", len(onlyA))
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 {
			t.Errorf("expected 1 commit, got %d", len(limited))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewCommitRepository(setupTestDB(t))
		c := models.NewCommit(0, "http://a", testDelta(), "")
		if err := repo.Create(c); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(c.ID()); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(c.ID()); err == nil {
			t.Error("deleted commit should not be returned")
		}
		if all, _ := repo.List(nil); len(all) != 0 {
			t.Error("deleted commit should not be listed")
		}
	})
}

func TestCommitRepositoryErrors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		repo := NewCommitRepository(setupTestDB(t))
		if err := repo.Create(models.NewCommit(0, "", testDelta(), "")); err == nil {
			t.Error("expected validation error for empty base URL")
		}
		if err := repo.Create(models.NewCommit(0, "http://a", models.ChannelDelta{}, "")); err == nil {
			t.Error("expected validation error for empty delta")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewCommitRepository(setupTestDB(t))
		if _, err := repo.Get("nonexistent-id"); err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found, got %v", err)
		}

		c := models.NewCommit(0, "http://a", testDelta(), "")
		c.SetID("nonexistent-id")
		if err := repo.Update(c); err == nil {
			t.Error("expected error updating nonexistent commit")
		}
		if err := repo.Delete("nonexistent-id"); err == nil {
			t.Error("expected error deleting nonexistent commit")
		}
	})

	t.Run("AlreadyDeleted", func(t *testing.T) {
		repo := NewCommitRepository(setupTestDB(t))
		c := models.NewCommit(0, "http://a", testDelta(), "")
		if err := repo.Create(c); err != nil {
			t.Fatal(err)
		}
		if err := repo.Delete(c.ID()); err != nil {
			t.Fatal(err)
		}
		if err := repo.Delete(c.ID()); err == nil {
			t.Error("expected error deleting twice")
		}
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCommitRepository(db)
		db.Close()

		if err := repo.Create(models.NewCommit(0, "http://a", testDelta(), "")); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestCommitLog(t *testing.T) {
	log := NewCommitLog(NewCommitRepository(setupTestDB(t)))

	if err := log.RecordCommit("http://a", testDelta(), "Channels updated successfully"); err != nil {
		t.Fatalf("RecordCommit failed: %v", err)
	}
	if err := log.RecordCommit("", testDelta(), ""); err == nil {
		t.Error("expected error for invalid commit")
	}

	recent, err := log.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Message() != "Channels updated successfully" {
		t.Errorf("unexpected history %+v", recent)
	}
}

func TestChannelCacheRepository(t *testing.T) {
	foo := models.Channel{URL: "https://www.youtube.com/@Foo", Uploader: "Foo", ChannelID: "UC1", SubFolder: ptr("music"), MinDuration: ptr(30)}

	t.Run("Create and GetByURL", func(t *testing.T) {
		repo := NewChannelCacheRepository(setupTestDB(t))
		c := models.NewCachedChannel(0, foo)
		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create: %v", err)
		}

		got, err := repo.GetByURL(foo.URL)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		ch := got.Channel()
		if ch.Uploader != "Foo" || ch.SubFolder == nil || *ch.SubFolder != "music" || *ch.MinDuration != 30 {
			t.Errorf("channel did not round trip: %+v", ch)
		}
		if ch.MaxDuration != nil {
			t.Error("absent setting should stay absent")
		}

		byID, err := repo.Get(c.ID())
		if err != nil || byID.URL() != foo.URL {
			t.Errorf("Get by ID failed: %v", err)
		}
	})

	t.Run("DuplicateURL", func(t *testing.T) {
		repo := NewChannelCacheRepository(setupTestDB(t))
		if err := repo.Create(models.NewCachedChannel(0, foo)); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewCachedChannel(0, foo)); err == nil {
			t.Error("expected UNIQUE violation")
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		repo := NewChannelCacheRepository(setupTestDB(t))
		if err := repo.Create(models.NewCachedChannel(0, models.Channel{})); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewChannelCacheRepository(setupTestDB(t))
		for _, ch := range []models.Channel{
			{URL: "https://www.youtube.com/@zeta", Uploader: "zeta"},
			foo,
			{URL: "https://www.youtube.com/@Bar", Uploader: "Bar", SubFolder: ptr("music")},
		} {
			if err := repo.Create(models.NewCachedChannel(0, ch)); err != nil {
				t.Fatal(err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, c := range all {
			names = append(names, c.Channel().Uploader)
		}
		if !slices.Equal(names, []string{"Bar", "Foo", "zeta"}) {
			t.Errorf("expected case-insensitive uploader order, got %v", names)
		}

		if found, _ := repo.List(map[string]any{"search": "FOO"}); len(found) != 1 {
			t.Errorf("expected 1 search hit, got %d", len(found))
		}
		if music, _ := repo.List(map[string]any{"sub_folder": "music"}); len(music) != 2 {
			t.Errorf("expected 2 music channels, got %d", len(music))
		}
	})

	t.Run("Update and Delete", func(t *testing.T) {
		repo := NewChannelCacheRepository(setupTestDB(t))
		c := models.NewCachedChannel(0, foo)
		if err := repo.Create(c); err != nil {
			t.Fatal(err)
		}

		renamed := foo
		renamed.Uploader = "Foo Renamed"
		c.SetChannel(renamed)
		if err := repo.Update(c); err != nil {
			t.Fatalf("failed to update: %v", err)
		}
		got, _ := repo.GetByURL(foo.URL)
		if got.Channel().Uploader != "Foo Renamed" {
			t.Errorf("update not applied: %+v", got.Channel())
		}

		if err := repo.Delete(c.ID()); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.GetByURL(foo.URL); err == nil {
			t.Error("deleted channel should not be returned")
		}
		if err := repo.Update(c); err == nil {
			t.Error("expected error updating deleted channel")
		}
	})
}

func TestChannelCache(t *testing.T) {
	t.Run("upserts by URL", func(t *testing.T) {
		repo := NewChannelCacheRepository(setupTestDB(t))
		cache := NewChannelCache(repo)

		first := []models.Channel{{URL: "https://www.youtube.com/@Foo", Uploader: "Foo"}}
		if err := cache.CacheChannels(first); err != nil {
			t.Fatal(err)
		}
		second := []models.Channel{
			{URL: "https://www.youtube.com/@Foo", Uploader: "Foo v2"},
			{URL: "https://www.youtube.com/@Bar", Uploader: "Bar"},
		}
		if err := cache.CacheChannels(second); err != nil {
			t.Fatal(err)
		}

		all, _ := repo.List(nil)
		if len(all) != 2 {
			t.Fatalf("expected 2 cached channels, got %d", len(all))
		}

		found, err := cache.Search("foo")
		if err != nil {
			t.Fatal(err)
		}
		if len(found) != 1 || found[0].Channel().Uploader != "Foo v2" {
			t.Errorf("expected refreshed copy, got %+v", found)
		}
	})

	t.Run("re-caches a deleted channel", func(t *testing.T) {
		repo := NewChannelCacheRepository(setupTestDB(t))
		cache := NewChannelCache(repo)
		foo := []models.Channel{{URL: "https://www.youtube.com/@Foo", Uploader: "Foo"}}

		if err := cache.CacheChannels(foo); err != nil {
			t.Fatal(err)
		}
		stored, err := repo.GetByURL(foo[0].URL)
		if err != nil {
			t.Fatal(err)
		}
		if err := repo.Delete(stored.ID()); err != nil {
			t.Fatal(err)
		}

		if err := cache.CacheChannels(foo); err != nil {
			t.Fatalf("re-cache failed: %v", err)
		}
		found, err := cache.Search("foo")
		if err != nil {
			t.Fatal(err)
		}
		if len(found) != 1 || found[0].ID() != stored.ID() {
			t.Errorf("expected the original row to be revived, got %+v", found)
		}
	})

	t.Run("evicts removed channels", func(t *testing.T) {
		cache := NewChannelCache(NewChannelCacheRepository(setupTestDB(t)))
		if err := cache.CacheChannels([]models.Channel{
			{URL: "https://www.youtube.com/@Foo", Uploader: "Foo"},
			{URL: "https://www.youtube.com/@Bar", Uploader: "Bar"},
		}); err != nil {
			t.Fatal(err)
		}

		if err := cache.EvictChannels([]string{"https://www.youtube.com/@Foo", "https://www.youtube.com/@Missing"}); err != nil {
			t.Fatalf("evict failed: %v", err)
		}

		left, _ := cache.Search("")
		if len(left) != 1 || left[0].URL() != "https://www.youtube.com/@Bar" {
			t.Errorf("expected only @Bar to remain, got %+v", left)
		}
	})

	t.Run("reports first failure and continues", func(t *testing.T) {
		repo := NewChannelCacheRepository(setupTestDB(t))
		cache := NewChannelCache(repo)

		err := cache.CacheChannels([]models.Channel{{URL: ""}, {URL: "https://www.youtube.com/@Ok", Uploader: "Ok"}})
		if err == nil {
			t.Error("expected validation failure")
		}
		if all, _ := repo.List(nil); len(all) != 1 {
			t.Errorf("valid channel should still be cached, got %d", len(all))
		}
	})

	t.Run("concurrent writers", func(t *testing.T) {
		cache := NewChannelCache(NewChannelCacheRepository(setupTestDB(t)))
		ch := []models.Channel{{URL: "https://www.youtube.com/@Foo", Uploader: "Foo"}}

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := cache.CacheChannels(ch); err != nil {
					t.Errorf("CacheChannels failed: %v", err)
				}
			}()
		}
		wg.Wait()
	})
}
