package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uguis/meibo/internal/model"
)

// userColumns はSELECT句の列並び。scanUserと対で維持する。
const userColumns = `user_id, display_name, user_name, furigana, email, password_hash,
	gender, date_of_birth, post_code, address, phone, organization, administrator,
	created_at, updated_at`

// userUpdatableColumns はPartialUpdateで書き換えを許可する列。
// user_id（不変）とcreated_at、updated_at（常に自動設定）は含めない。
var userUpdatableColumns = []string{
	"display_name", "user_name", "furigana", "email", "password_hash",
	"gender", "date_of_birth", "post_code", "address", "phone",
	"organization", "administrator",
}

// PostgresUserRepo はPostgreSQLを使用した会員リポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDの会員を取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`,
		id,
	)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", classify(err))
	}

	return user, nil
}

// FindByEmail はemailインデックスで会員を検索する。
// 該当なしはエラーではなく空スライスを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by email: %w", classify(err))
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", classify(err))
	}

	return users, nil
}

// ListAll は全会員を返す。小規模データ前提のフルスキャン。
func (r *PostgresUserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", classify(err))
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", classify(err))
	}

	return users, nil
}

// Create は会員を新規作成する。
// emailの一意インデックス違反はErrDuplicateに分類される。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, display_name, user_name, furigana, email, password_hash,
			gender, date_of_birth, post_code, address, phone, organization, administrator,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		user.UserID, user.DisplayName, user.UserName, user.Furigana, user.Email,
		user.PasswordHash, user.Gender, user.DateOfBirth, user.PostCode, user.Address,
		user.Phone, string(user.Organization), user.Administrator,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", classify(err))
	}

	return nil
}

// PartialUpdate は指定フィールドのみを上書きし、updated_atを常に更新する。
// fieldsのキーは列名。許可リスト外のキーはエラーになる。
func (r *PostgresUserRepo) PartialUpdate(ctx context.Context, id string, fields map[string]any) error {
	query, args, err := buildPartialUpdate("users", "user_id", id, fields, userUpdatableColumns)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", classify(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}

	return nil
}

// scanUser は1行分の会員レコードを読み取る。
func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	user := &model.User{}
	var org string
	err := row.Scan(
		&user.UserID, &user.DisplayName, &user.UserName, &user.Furigana, &user.Email,
		&user.PasswordHash, &user.Gender, &user.DateOfBirth, &user.PostCode,
		&user.Address, &user.Phone, &org, &user.Administrator,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Organization = model.Organization(org)
	return user, nil
}

// buildPartialUpdate は許可リスト内の列だけでSET句を組み立てる。
// updated_atは供給の有無に関わらず常に更新される。
func buildPartialUpdate(table, keyColumn, id string, fields map[string]any, allowed []string) (string, []any, error) {
	for name := range fields {
		if !contains(allowed, name) {
			return "", nil, fmt.Errorf("%w: column %q is not updatable", ErrInvalidData, name)
		}
	}

	var sets []string
	var args []any
	// 許可リスト順で組み立ててクエリ文字列を決定的にする
	for _, col := range allowed {
		v, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	args = append(args, time.Now())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(sets, ", "), keyColumn, len(args))

	return query, args, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
