package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uguis/meibo/internal/model"
)

// postUpdatableColumns はPartialUpdateで書き換えを許可する列。
// post_idとuser_id（所有者）は不変。
var postUpdatableColumns = []string{"title", "body", "category_id"}

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT post_id, user_id, title, body, category_id, created_at, updated_at
		 FROM posts WHERE post_id = $1`,
		id,
	).Scan(&post.PostID, &post.UserID, &post.Title, &post.Body, &post.CategoryID,
		&post.CreatedAt, &post.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", classify(err))
	}

	return post, nil
}

// Create は投稿を新規作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (post_id, user_id, title, body, category_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.PostID, post.UserID, post.Title, post.Body, post.CategoryID,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", classify(err))
	}

	return nil
}

// PartialUpdate は指定フィールドのみを上書きし、updated_atを常に更新する。
func (r *PostgresPostRepo) PartialUpdate(ctx context.Context, id string, fields map[string]any) error {
	query, args, err := buildPartialUpdate("posts", "post_id", id, fields, postUpdatableColumns)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", classify(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: post %s", ErrNotFound, id)
	}

	return nil
}

// DeleteByID は指定IDの投稿を削除する。
func (r *PostgresPostRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE post_id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", classify(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: post %s", ErrNotFound, id)
	}

	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
