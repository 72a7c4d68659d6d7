package form

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/uguis/meibo/internal/model"
)

// EmailFinder はemail一意性チェックに必要なリポジトリの部分集合。
type EmailFinder interface {
	FindByEmail(ctx context.Context, email string) ([]*model.User, error)
}

// SignupForm は会員登録フォームの送信値を保持する。
type SignupForm struct {
	Organization string
	DisplayName  string
	UserName     string
	Furigana     string
	Phone        string
	PostCode     string
	Address      string
	Email        string
	EmailConfirm string
	Password     string
	PassConfirm  string
	Gender       string
	DateOfBirth  string
}

// NewSignupForm はPOSTされたフォーム値からSignupFormを組み立てる。
// emailは小文字化して扱う。
func NewSignupForm(v url.Values) *SignupForm {
	return &SignupForm{
		Organization: v.Get("organization"),
		DisplayName:  strings.TrimSpace(v.Get("display_name")),
		UserName:     strings.TrimSpace(v.Get("user_name")),
		Furigana:     strings.TrimSpace(v.Get("furigana")),
		Phone:        strings.TrimSpace(v.Get("phone")),
		PostCode:     strings.TrimSpace(v.Get("post_code")),
		Address:      strings.TrimSpace(v.Get("address")),
		Email:        strings.ToLower(strings.TrimSpace(v.Get("email"))),
		EmailConfirm: strings.ToLower(strings.TrimSpace(v.Get("email_confirm"))),
		Password:     v.Get("password"),
		PassConfirm:  v.Get("pass_confirm"),
		Gender:       v.Get("gender"),
		DateOfBirth:  strings.TrimSpace(v.Get("date_of_birth")),
	}
}

// Validate は全バリデータを実行し、フィールド別メッセージを集約して返す。
// email一意性チェックのストア障害はフィールドメッセージとして表面化し、
// 詳細はログにのみ残す。
func (f *SignupForm) Validate(ctx context.Context, users EmailFinder) Errors {
	e := Errors{}

	checkProfileFields(e, f.Organization, f.DisplayName, f.UserName, f.Furigana,
		f.Phone, f.PostCode, f.Address, f.Gender, f.DateOfBirth)

	if f.Email == "" {
		e.Add("email", "メールアドレスを入力してください")
	} else if !validEmail(f.Email) {
		e.Add("email", "正しいメールアドレスを入力してください")
	}

	if f.EmailConfirm == "" {
		e.Add("email_confirm", "メールアドレス確認を入力してください")
	} else if f.EmailConfirm != f.Email {
		e.Add("email_confirm", "メールアドレスが一致していません")
	}

	if f.Password == "" {
		e.Add("password", "パスワードを入力してください")
	} else if len(f.Password) < 8 {
		e.Add("password", "パスワードは8文字以上で入力してください")
	}

	if f.PassConfirm != f.Password {
		e.Add("password", "パスワードが一致していません")
	}

	// ストア依存: email一意性（読み取り→書き込みのベストエフォート検査）
	if validEmail(f.Email) {
		existing, err := users.FindByEmail(ctx, f.Email)
		if err != nil {
			slog.Error("email uniqueness check failed",
				slog.String("error", err.Error()),
			)
			e.Add("email", "メールアドレスの確認中にエラーが発生しました。")
		} else if len(existing) > 0 {
			e.Add("email", "入力されたメールアドレスは既に登録されています。")
		}
	}

	return e
}
