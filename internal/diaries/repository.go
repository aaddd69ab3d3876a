package diaries

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/keywords"
)

// DiaryRepository defines the data access contract for diaries.
type DiaryRepository interface {
	// CreateWithKeywords inserts a diary, its keyword links, and freezes
	// its source events, all in one transaction. A second diary for the
	// same (user, date) fails with a conflict and leaves nothing behind.
	CreateWithKeywords(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error

	// FindByID retrieves a diary by its UUID.
	FindByID(ctx context.Context, id string) (*Diary, error)

	// FindByUserAndDate retrieves a user's diary for one calendar day.
	FindByUserAndDate(ctx context.Context, userID int64, date string) (*Diary, error)

	// ListByMonth returns a user's diaries for one month, oldest first.
	ListByMonth(ctx context.Context, userID int64, year, month int) ([]Diary, error)

	// Update modifies a diary's editable fields.
	Update(ctx context.Context, diary *Diary) error

	// Delete removes a diary and unfreezes its events in one transaction.
	Delete(ctx context.Context, id string) error
}

// diaryRepository implements DiaryRepository using MariaDB.
type diaryRepository struct {
	db     *sql.DB
	kwRepo keywords.KeywordRepository
}

// NewDiaryRepository creates a new DiaryRepository. The keyword repository
// supplies the in-transaction upsert and link operations.
func NewDiaryRepository(db *sql.DB, kwRepo keywords.KeywordRepository) DiaryRepository {
	return &diaryRepository{db: db, kwRepo: kwRepo}
}

const diaryColumns = `id, user_id, date, title, content, emotion, created_at, updated_at`

// CreateWithKeywords inserts a diary, its keyword links, and the diary_id
// marker on its source events, atomically. Rolls back everything on any
// failure so a half-written diary can never be observed.
func (r *diaryRepository) CreateWithKeywords(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning diary transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO diaries (id, user_id, date, title, content, emotion)
	            VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert,
		diary.ID, diary.UserID, diary.Date, diary.Title, diary.Content, diary.Emotion,
	); err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("a diary already exists for this date")
		}
		return fmt.Errorf("inserting diary: %w", err)
	}

	for _, link := range links {
		keywordID, err := r.kwRepo.GetOrCreateTx(ctx, tx, link.Content, link.Source)
		if err != nil {
			return err
		}
		if err := r.kwRepo.LinkDiaryTx(ctx, tx, diary.ID, keywordID, link.IsSelected, link.IsAutoGenerated); err != nil {
			return err
		}
	}

	if len(eventIDs) > 0 {
		placeholders := strings.Repeat("?,", len(eventIDs)-1) + "?"
		args := make([]any, 0, len(eventIDs)+2)
		args = append(args, diary.ID, diary.UserID)
		for _, id := range eventIDs {
			args = append(args, id)
		}

		freeze := `UPDATE events SET diary_id = ? WHERE user_id = ? AND id IN (` + placeholders + `)`
		if _, err := tx.ExecContext(ctx, freeze, args...); err != nil {
			return fmt.Errorf("freezing diary events: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing diary transaction: %w", err)
	}
	return nil
}

// FindByID retrieves a diary by its UUID.
func (r *diaryRepository) FindByID(ctx context.Context, id string) (*Diary, error) {
	query := `SELECT ` + diaryColumns + ` FROM diaries WHERE id = ?`
	return r.scanDiary(r.db.QueryRowContext(ctx, query, id))
}

// FindByUserAndDate retrieves a user's diary for one calendar day.
func (r *diaryRepository) FindByUserAndDate(ctx context.Context, userID int64, date string) (*Diary, error) {
	query := `SELECT ` + diaryColumns + ` FROM diaries WHERE user_id = ? AND date = ?`
	return r.scanDiary(r.db.QueryRowContext(ctx, query, userID, date))
}

// ListByMonth returns a user's diaries for one month, oldest first.
func (r *diaryRepository) ListByMonth(ctx context.Context, userID int64, year, month int) ([]Diary, error) {
	query := `SELECT ` + diaryColumns + `
	           FROM diaries
	           WHERE user_id = ? AND YEAR(date) = ? AND MONTH(date) = ?
	           ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("listing diaries by month: %w", err)
	}
	defer rows.Close()

	var diaries []Diary
	for rows.Next() {
		var d Diary
		if err := rows.Scan(&d.ID, &d.UserID, &d.Date, &d.Title, &d.Content, &d.Emotion, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning diary row: %w", err)
		}
		diaries = append(diaries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating diary rows: %w", err)
	}
	return diaries, nil
}

// Update modifies a diary's editable fields.
func (r *diaryRepository) Update(ctx context.Context, diary *Diary) error {
	query := `UPDATE diaries SET title = ?, content = ?, emotion = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, diary.Title, diary.Content, diary.Emotion, diary.ID)
	if err != nil {
		return fmt.Errorf("updating diary: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("diary not found")
	}
	return nil
}

// Delete removes a diary and unfreezes its events in one transaction.
// Keyword links go with it via the foreign key cascade.
func (r *diaryRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning diary delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE events SET diary_id = NULL WHERE diary_id = ?`, id); err != nil {
		return fmt.Errorf("unfreezing diary events: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM diaries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting diary: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("diary not found")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing diary delete: %w", err)
	}
	return nil
}

// scanDiary scans a single diary row.
func (r *diaryRepository) scanDiary(row *sql.Row) (*Diary, error) {
	var d Diary
	err := row.Scan(&d.ID, &d.UserID, &d.Date, &d.Title, &d.Content, &d.Emotion, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("diary not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying diary: %w", err)
	}
	return &d, nil
}

// isDuplicateEntry reports whether err is a MariaDB unique constraint
// violation.
func isDuplicateEntry(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
