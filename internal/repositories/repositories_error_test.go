package repositories

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
)

func setupMock(t *testing.T) (sqlmock.Sqlmock, func() *StateRepository, func() *VideoRepository) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return mock,
		func() *StateRepository { return NewStateRepository(db) },
		func() *VideoRepository { return NewVideoRepository(db) }
}

func TestStateRepositoryErrors(t *testing.T) {
	t.Run("Load Query Error", func(t *testing.T) {
		mock, state, _ := setupMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM local_state WHERE key = ?")).
			WithArgs(shared.KeyWatchedVideos).
			WillReturnError(errors.New("disk I/O error"))

		var ids []models.VideoID
		if _, err := state().Load(shared.KeyWatchedVideos, &ids); err == nil {
			t.Error("expected error, got nil")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("Save Exec Error", func(t *testing.T) {
		mock, state, _ := setupMock(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO local_state")).
			WillReturnError(errors.New("database is locked"))

		if err := state().Save(shared.KeyWatchedVideos, []int{1}); err == nil {
			t.Error("expected error, got nil")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("Save Unencodable Value", func(t *testing.T) {
		_, state, _ := setupMock(t)
		if err := state().Save("bad", make(chan int)); err == nil {
			t.Error("expected encode error, got nil")
		}
	})
}

func TestVideoRepositoryErrors(t *testing.T) {
	t.Run("SetWatched Exec Error", func(t *testing.T) {
		mock, _, videos := setupMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET watched = ?")).
			WillReturnError(errors.New("database is locked"))

		if err := videos().SetWatched(1, true); err == nil {
			t.Error("expected error, got nil")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("ResetWatched Exec Error", func(t *testing.T) {
		mock, _, videos := setupMock(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET watched = 0")).
			WillReturnError(errors.New("database is locked"))

		if _, err := videos().ResetWatched(); err == nil {
			t.Error("expected error, got nil")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("Page Count Error", func(t *testing.T) {
		mock, _, videos := setupMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM videos v")).
			WillReturnError(errors.New("no such table: videos"))

		if _, err := videos().Page(nil, 1, 12); err == nil {
			t.Error("expected error, got nil")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
	})

	t.Run("List Scan Error", func(t *testing.T) {
		mock, _, videos := setupMock(t)
		mock.ExpectQuery("(?s)SELECT .* FROM videos v").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		if _, err := videos().List(nil); err == nil {
			t.Error("expected scan error, got nil")
		}
	})

	t.Run("Create Validation", func(t *testing.T) {
		_, _, videos := setupMock(t)
		if err := videos().Create(&models.Video{Title: "   "}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestCreatorRepositoryErrors(t *testing.T) {
	t.Run("Empty Name", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewCreatorRepository(db).Create(&models.Creator{Name: " "}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Duplicate Slug", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCreatorRepository(db)
		if err := repo.Create(&models.Creator{Name: "Alpha"}); err != nil {
			t.Fatalf("failed to create creator: %v", err)
		}
		if err := repo.Create(&models.Creator{Name: "ALPHA"}); !errors.Is(err, shared.ErrDuplicateName) {
			t.Errorf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("Delete Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewCreatorRepository(db).DeleteBySlug("nobody"); !errors.Is(err, shared.ErrCreatorNotFound) {
			t.Errorf("expected ErrCreatorNotFound, got %v", err)
		}
	})

	t.Run("Get Non Numeric ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewCreatorRepository(db).Get("abc"); !errors.Is(err, shared.ErrCreatorNotFound) {
			t.Errorf("expected ErrCreatorNotFound, got %v", err)
		}
	})
}

func TestTaxonomyRepositoryErrors(t *testing.T) {
	t.Run("Duplicate Slug", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaxonomyRepository(db, KindTag)
		if err := repo.Create(&models.TaxonomyItem{Name: "Beginner"}); err != nil {
			t.Fatalf("failed to create tag: %v", err)
		}
		if err := repo.Create(&models.TaxonomyItem{Name: "beginner"}); !errors.Is(err, shared.ErrDuplicateName) {
			t.Errorf("expected ErrDuplicateName, got %v", err)
		}
	})

	t.Run("Delete Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewTaxonomyRepository(db, KindTag).DeleteBySlug("nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Category Not Found", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewTaxonomyRepository(db, KindCategory).GetBySlug("nope"); !errors.Is(err, shared.ErrCategoryNotFound) {
			t.Errorf("expected ErrCategoryNotFound, got %v", err)
		}
	})
}
