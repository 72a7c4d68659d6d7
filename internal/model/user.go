// Package model はドメインモデルを定義する。
package model

import "time"

// Organization は会員の所属を表す。
type Organization string

const (
	// OrganizationUguis は鶯（デフォルト所属）を示す。
	OrganizationUguis Organization = "uguis"
	// OrganizationOther はその他の所属を示す。
	OrganizationOther Organization = "other"
)

// User は登録会員を表す。
// UserIDは登録時に生成され、以後変更されない。
// PasswordHashはcredentialパッケージが生成したハッシュのみを保持し、
// 平文パスワードがここに入ることはない。
type User struct {
	UserID        string
	DisplayName   string
	UserName      string
	Furigana      string
	Email         string
	PasswordHash  string
	Gender        string
	DateOfBirth   string // YYYY-MM-DD
	PostCode      string
	Address       string
	Phone         string
	Organization  Organization
	Administrator bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session は会員のログインセッションを表す。
// Remember選択時はExpiresAtが長期に設定される。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Principal はリクエストに束縛された認証済み主体を表す。
// 未認証の場合はゼロ値（Anonymous）として扱う。
type Principal struct {
	UserID        string
	DisplayName   string
	Administrator bool
}

// IsAnonymous は未認証の主体かどうかを返す。
func (p Principal) IsAnonymous() bool {
	return p.UserID == ""
}

// CanEdit は対象会員のレコードを編集できるかを返す。
// 本人または管理者のみ編集できる。
func (p Principal) CanEdit(ownerID string) bool {
	if p.IsAnonymous() {
		return false
	}
	return p.UserID == ownerID || p.Administrator
}
