package keywords

import (
	"context"
	"database/sql"
	"fmt"
)

// KeywordRepository defines the data access contract for keywords, the
// diary_keywords join table, and search logs. All SQL lives here.
//
// The Tx variants run inside a caller-owned transaction so the diaries
// package can create a diary row and its keyword links atomically.
type KeywordRepository interface {
	// GetOrCreate resolves a content string to a keyword row, inserting it
	// if absent. Safe under concurrent callers: the same content never
	// produces two rows.
	GetOrCreate(ctx context.Context, content, source string) (*Keyword, error)

	// GetOrCreateTx is GetOrCreate inside an existing transaction.
	GetOrCreateTx(ctx context.Context, tx *sql.Tx, content, source string) (int64, error)

	// LinkDiaryTx creates one diary_keywords row inside an existing
	// transaction. Re-linking an existing pair is a no-op.
	LinkDiaryTx(ctx context.Context, tx *sql.Tx, diaryID string, keywordID int64, isSelected, isAutoGenerated bool) error

	// ListByDiary returns the keywords linked to a diary with their link flags.
	ListByDiary(ctx context.Context, diaryID string) ([]DiaryKeywordView, error)

	// Search returns keywords whose content matches the query prefix.
	Search(ctx context.Context, query string, limit int) ([]Keyword, error)

	// LogSearch records one keyword search by a user.
	LogSearch(ctx context.Context, userID int64, keyword string) error
}

// DiaryKeywordView is a keyword joined with its per-diary link flags.
type DiaryKeywordView struct {
	Keyword
	IsSelected      bool `json:"is_selected"`
	IsAutoGenerated bool `json:"is_auto_generated"`
}

// keywordRepository implements KeywordRepository using MariaDB with
// hand-written SQL.
type keywordRepository struct {
	db *sql.DB
}

// NewKeywordRepository creates a new KeywordRepository backed by the given
// database connection.
func NewKeywordRepository(db *sql.DB) KeywordRepository {
	return &keywordRepository{db: db}
}

// getOrCreateSQL resolves content to an id in one statement. The
// LAST_INSERT_ID(id) trick makes the duplicate path report the existing
// row's id through result.LastInsertId(), so concurrent pipelines racing
// on the same content all converge on one row without a retry loop.
const getOrCreateSQL = `INSERT INTO keywords (content, source)
	VALUES (?, ?)
	ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`

// GetOrCreate resolves a content string to a keyword row, inserting if absent.
func (r *keywordRepository) GetOrCreate(ctx context.Context, content, source string) (*Keyword, error) {
	result, err := r.db.ExecContext(ctx, getOrCreateSQL, content, source)
	if err != nil {
		return nil, fmt.Errorf("upserting keyword: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting keyword id: %w", err)
	}

	return r.findByID(ctx, id)
}

// GetOrCreateTx is GetOrCreate inside an existing transaction, returning
// only the id (the caller is mid-batch and doesn't need the full row).
func (r *keywordRepository) GetOrCreateTx(ctx context.Context, tx *sql.Tx, content, source string) (int64, error) {
	result, err := tx.ExecContext(ctx, getOrCreateSQL, content, source)
	if err != nil {
		return 0, fmt.Errorf("upserting keyword in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting keyword id in tx: %w", err)
	}
	return id, nil
}

// LinkDiaryTx creates one diary_keywords row. Uses INSERT IGNORE so
// re-linking an existing (diary, keyword) pair is a no-op, which keeps the
// pipeline's retry path idempotent.
func (r *keywordRepository) LinkDiaryTx(ctx context.Context, tx *sql.Tx, diaryID string, keywordID int64, isSelected, isAutoGenerated bool) error {
	query := `INSERT IGNORE INTO diary_keywords (diary_id, keyword_id, is_selected, is_auto_generated)
	           VALUES (?, ?, ?, ?)`

	if _, err := tx.ExecContext(ctx, query, diaryID, keywordID, isSelected, isAutoGenerated); err != nil {
		return fmt.Errorf("linking keyword to diary: %w", err)
	}
	return nil
}

// findByID retrieves a single keyword by primary key.
func (r *keywordRepository) findByID(ctx context.Context, id int64) (*Keyword, error) {
	query := `SELECT id, content, source, created_at FROM keywords WHERE id = ?`

	var k Keyword
	err := r.db.QueryRowContext(ctx, query, id).Scan(&k.ID, &k.Content, &k.Source, &k.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("querying keyword by id: %w", err)
	}
	return &k, nil
}

// ListByDiary returns the keywords linked to a diary with their link flags,
// ordered alphabetically by content.
func (r *keywordRepository) ListByDiary(ctx context.Context, diaryID string) ([]DiaryKeywordView, error) {
	query := `SELECT k.id, k.content, k.source, k.created_at, dk.is_selected, dk.is_auto_generated
	           FROM keywords k
	           INNER JOIN diary_keywords dk ON dk.keyword_id = k.id
	           WHERE dk.diary_id = ?
	           ORDER BY k.content ASC`

	rows, err := r.db.QueryContext(ctx, query, diaryID)
	if err != nil {
		return nil, fmt.Errorf("listing diary keywords: %w", err)
	}
	defer rows.Close()

	var views []DiaryKeywordView
	for rows.Next() {
		var v DiaryKeywordView
		if err := rows.Scan(&v.ID, &v.Content, &v.Source, &v.CreatedAt, &v.IsSelected, &v.IsAutoGenerated); err != nil {
			return nil, fmt.Errorf("scanning diary keyword row: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating diary keyword rows: %w", err)
	}

	return views, nil
}

// Search returns keywords whose content starts with the query string,
// ordered alphabetically.
func (r *keywordRepository) Search(ctx context.Context, query string, limit int) ([]Keyword, error) {
	sqlQuery := `SELECT id, content, source, created_at
	              FROM keywords
	              WHERE content LIKE CONCAT(?, '%')
	              ORDER BY content ASC
	              LIMIT ?`

	rows, err := r.db.QueryContext(ctx, sqlQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching keywords: %w", err)
	}
	defer rows.Close()

	var kws []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.ID, &k.Content, &k.Source, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning keyword row: %w", err)
		}
		kws = append(kws, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keyword rows: %w", err)
	}

	return kws, nil
}

// LogSearch records one keyword search by a user.
func (r *keywordRepository) LogSearch(ctx context.Context, userID int64, keyword string) error {
	query := `INSERT INTO search_logs (user_id, keyword) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, userID, keyword); err != nil {
		return fmt.Errorf("inserting search log: %w", err)
	}
	return nil
}
