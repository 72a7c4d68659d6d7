package form

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// AccountForm は会員情報更新フォームの送信値を保持する。
// UserIDは編集対象レコードのIDで、email一意性チェックの除外に使う。
type AccountForm struct {
	UserID       string
	Organization string
	DisplayName  string
	UserName     string
	Furigana     string
	Phone        string
	PostCode     string
	Address      string
	Email        string
	Password     string
	PassConfirm  string
	Gender       string
	DateOfBirth  string
}

// NewAccountForm はPOSTされたフォーム値からAccountFormを組み立てる。
func NewAccountForm(userID string, v url.Values) *AccountForm {
	return &AccountForm{
		UserID:       userID,
		Organization: v.Get("organization"),
		DisplayName:  strings.TrimSpace(v.Get("display_name")),
		UserName:     strings.TrimSpace(v.Get("user_name")),
		Furigana:     strings.TrimSpace(v.Get("furigana")),
		Phone:        strings.TrimSpace(v.Get("phone")),
		PostCode:     strings.TrimSpace(v.Get("post_code")),
		Address:      strings.TrimSpace(v.Get("address")),
		Email:        strings.ToLower(strings.TrimSpace(v.Get("email"))),
		Password:     v.Get("password"),
		PassConfirm:  v.Get("pass_confirm"),
		Gender:       v.Get("gender"),
		DateOfBirth:  strings.TrimSpace(v.Get("date_of_birth")),
	}
}

// Validate は全バリデータを実行し、フィールド別メッセージを集約して返す。
// パスワードは任意（空なら変更なし）。email一意性は自分自身のレコードを
// 除外して判定する。
func (f *AccountForm) Validate(ctx context.Context, users EmailFinder) Errors {
	e := Errors{}

	checkProfileFields(e, f.Organization, f.DisplayName, f.UserName, f.Furigana,
		f.Phone, f.PostCode, f.Address, f.Gender, f.DateOfBirth)

	if f.Email == "" {
		e.Add("email", "メールアドレスを入力してください")
	} else if !validEmail(f.Email) {
		e.Add("email", "正しいメールアドレスを入力してください")
	}

	// パスワード変更は任意
	if f.Password != "" {
		if len(f.Password) < 8 {
			e.Add("password", "パスワードは8文字以上で入力してください")
		}
		if f.PassConfirm != f.Password {
			e.Add("password", "パスワードが一致していません")
		}
	}

	// ストア依存: 自分以外に同じemailを持つ会員がいないか
	if validEmail(f.Email) {
		existing, err := users.FindByEmail(ctx, f.Email)
		if err != nil {
			slog.Error("email uniqueness check failed",
				slog.String("error", err.Error()),
				slog.String("user_id", f.UserID),
			)
			e.Add("email", "メールアドレスの確認中にエラーが発生しました。")
		} else {
			for _, u := range existing {
				if u.UserID != f.UserID {
					e.Add("email", "このメールアドレスは既に使用されています。")
					break
				}
			}
		}
	}

	return e
}
