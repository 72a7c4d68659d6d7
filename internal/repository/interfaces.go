// Package repository はデータ永続化のインターフェースを定義する。
//
// ストアはキー・バリュー的に扱う: 主キーによる点取得、セカンダリ
// インデックス（users.email）による等値検索、全件スキャン、条件付き
// 書き込みのみを使い、結合や複数アイテムのトランザクションは使わない。
// リトライは行わず、失敗はそのまま呼び出し側に返す。
package repository

import (
	"context"

	"github.com/uguis/meibo/internal/model"
)

// UserRepository は会員データの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDの会員を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はemailインデックスで会員を検索する。
	// 該当なしはエラーではなく空スライスを返す。
	FindByEmail(ctx context.Context, email string) ([]*model.User, error)

	// ListAll は全会員を返す。件数が小規模である前提のフルスキャンで、
	// ページネーションは行わない（スケーラビリティは非目標）。
	ListAll(ctx context.Context) ([]*model.User, error)

	// Create は会員を新規作成する。email重複はErrDuplicateに分類される。
	Create(ctx context.Context, user *model.User) error

	// PartialUpdate は指定フィールドのみを上書きし、updated_atを常に更新する。
	// fieldsのキーは列名。許可リスト外のキーはエラーになる。
	PartialUpdate(ctx context.Context, id string, fields map[string]any) error
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// Create は投稿を新規作成する。作成経路はシードのみ。
	Create(ctx context.Context, post *model.Post) error

	// PartialUpdate は指定フィールドのみを上書きし、updated_atを常に更新する。
	PartialUpdate(ctx context.Context, id string, fields map[string]any) error

	// DeleteByID は指定IDの投稿を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
