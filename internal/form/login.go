package form

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/uguis/meibo/internal/credential"
	"github.com/uguis/meibo/internal/model"
)

// LoginForm はログインフォームの送信値を保持する。
// バリデーション成功後はUser()で照合済み会員を取り出せる。
type LoginForm struct {
	Email    string
	Password string
	Remember bool

	user *model.User
}

// NewLoginForm はPOSTされたフォーム値からLoginFormを組み立てる。
// emailは小文字化して検索する。
func NewLoginForm(v url.Values) *LoginForm {
	return &LoginForm{
		Email:    strings.ToLower(strings.TrimSpace(v.Get("email"))),
		Password: v.Get("password"),
		Remember: v.Get("remember") != "",
	}
}

// Validate はemail→passwordの順でバリデータを実行する。
// パスワード照合はemailバリデータが会員を解決できた場合にのみ行い、
// 未解決のまま到達した場合は「先にメールアドレスを確認」の別メッセージを出す。
// どのフィールドで失敗したかはハンドラ側で汎用メッセージに畳み込まれ、
// ユーザーには区別が見えない。
func (f *LoginForm) Validate(ctx context.Context, users EmailFinder) Errors {
	e := Errors{}

	if f.Email == "" {
		e.Add("email", "メールアドレスを入力してください")
	} else if !validEmail(f.Email) {
		e.Add("email", "正しいメールアドレスの形式で入力してください")
	} else {
		found, err := users.FindByEmail(ctx, f.Email)
		if err != nil {
			slog.Error("login email lookup failed",
				slog.String("error", err.Error()),
			)
			e.Add("email", "ログイン処理中にエラーが発生しました")
		} else if len(found) == 0 {
			e.Add("email", "このメールアドレスは登録されていません")
		} else {
			f.user = found[0]
		}
	}

	if f.Password == "" {
		e.Add("password", "パスワードを入力してください")
	} else if f.user == nil {
		e.Add("password", "先にメールアドレスを確認してください")
	} else if !credential.Verify(f.Password, f.user.PasswordHash) {
		e.Add("password", "パスワードが正しくありません")
	}

	return e
}

// User はバリデーション成功時に照合済みの会員を返す。
// Validate前、または失敗後はnil。
func (f *LoginForm) User() *model.User {
	return f.user
}
