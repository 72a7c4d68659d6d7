package model

import "fmt"

// AppError はユーザー提示用のエラーを表す。
// 画面に表示する原因カテゴリと対処方法を含み、内部詳細はログ側にのみ残す。
type AppError struct {
	Code     string // エラーコード
	Message  string // ユーザー向けメッセージ
	Category string // カテゴリ: auth, validation, store, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmailTaken        = "EMAIL_TAKEN"
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodePostNotFound      = "POST_NOT_FOUND"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeStoreUnavailable  = "STORE_UNAVAILABLE"
	ErrCodeTableMissing      = "TABLE_MISSING"
	ErrCodeUnexpected        = "UNEXPECTED"
)

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *AppError {
	return &AppError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスで登録するか、ログインしてください。",
	}
}

// NewInvalidCredentialError は認証失敗エラーを生成する。
// メールアドレス不明・パスワード不一致のどちらでも同一内容を返し、
// どちらの入力が誤っていたかを外部から区別できないようにする。
func NewInvalidCredentialError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidCredential,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError は会員未検出エラーを生成する。
func NewUserNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodeUserNotFound,
		Message:  "会員が見つかりません。",
		Category: "store",
		Action:   "会員IDを確認してください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError() *AppError {
	return &AppError{
		Code:     ErrCodePostNotFound,
		Message:  "投稿が見つかりません。",
		Category: "store",
		Action:   "投稿IDを確認してください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *AppError {
	return &AppError{
		Code:     ErrCodeForbidden,
		Message:  "編集権限がありません。",
		Category: "auth",
		Action:   "本人または管理者のアカウントでログインしてください。",
	}
}

// NewInvalidInputError は入力不正エラーを生成する。
// ストア側バリデーションで弾かれた場合に使う。
func NewInvalidInputError() *AppError {
	return &AppError{
		Code:     ErrCodeInvalidInput,
		Message:  "入力データが無効です。",
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewStoreUnavailableError はストア一時障害エラーを生成する。
func NewStoreUnavailableError() *AppError {
	return &AppError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データベースエラーが発生しました。",
		Category: "store",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewTableMissingError はテーブル未作成エラーを生成する。
// 一時障害ではなく構成ミスを示すため、呼び出し側はErrorレベルでログする。
func NewTableMissingError() *AppError {
	return &AppError{
		Code:     ErrCodeTableMissing,
		Message:  "システムエラーが発生しました。",
		Category: "system",
		Action:   "管理者に連絡してください。",
	}
}

// NewUnexpectedError は分類不能エラーを生成する。
func NewUnexpectedError() *AppError {
	return &AppError{
		Code:     ErrCodeUnexpected,
		Message:  "予期せぬエラーが発生しました。",
		Category: "system",
		Action:   "時間をおいて再度お試しください。",
	}
}
