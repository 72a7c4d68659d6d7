package model

import "time"

// Post は投稿レコードを表す。
// 作成経路は管理用シードのみで、本人または管理者のみ編集・削除できる。
type Post struct {
	PostID     string
	UserID     string
	Title      string
	Body       string
	CategoryID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
