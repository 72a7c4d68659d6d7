// Package form は各ユースケースのフォームバリデーションを提供する。
//
// バリデータは固定順で全件実行し、最初の失敗で打ち切らない。
// 失敗はフィールド単位のメッセージとしてErrorsに集約され、ハンドラが
// まとめて表示する。ストア依存のチェック（email一意性・存在確認）は
// 小さなリポジトリインターフェース越しに行う。
package form

import (
	"net/mail"
	"regexp"
	"time"
	"unicode/utf8"
)

// Errors はフィールド名→メッセージ列の集約。
type Errors map[string][]string

// Add はフィールドにメッセージを追記する。
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Valid はエラーが1件もないことを返す。
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Field はフィールドのメッセージ列を返す。
func (e Errors) Field(name string) []string {
	return e[name]
}

var (
	reDigits7    = regexp.MustCompile(`^[0-9]{7}$`)
	reDigits1015 = regexp.MustCompile(`^[0-9]{10,15}$`)
)

// validEmail はメールアドレス形式を判定する。
func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// runeLen は文字数（バイト数ではない）を返す。表示名や住所は日本語前提。
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// checkProfileFields は登録・更新で共通のプロフィール項目を検証する。
func checkProfileFields(e Errors, organization, displayName, userName, furigana, phone, postCode, address, gender, dateOfBirth string) {
	if organization != "uguis" && organization != "other" {
		e.Add("organization", "所属を選択してください")
	}

	if displayName == "" {
		e.Add("display_name", "表示名を入力してください")
	} else if l := runeLen(displayName); l < 3 || l > 30 {
		e.Add("display_name", "表示名は3文字以上30文字以下で入力してください")
	}

	if userName == "" {
		e.Add("user_name", "ユーザー名を入力してください")
	}

	if furigana == "" {
		e.Add("furigana", "フリガナを入力してください")
	}

	if phone == "" {
		e.Add("phone", "電話番号を入力してください")
	} else if !reDigits1015.MatchString(phone) {
		e.Add("phone", "正しい電話番号を入力してください")
	}

	if postCode == "" {
		e.Add("post_code", "郵便番号を入力してください")
	} else if !reDigits7.MatchString(postCode) {
		e.Add("post_code", "ハイフン無しで７桁で入力してください")
	}

	if address == "" {
		e.Add("address", "住所を入力してください")
	} else if runeLen(address) > 100 {
		e.Add("address", "住所は100文字以内で入力してください")
	}

	if gender != "male" && gender != "female" && gender != "other" {
		e.Add("gender", "性別を選択してください")
	}

	if dateOfBirth == "" {
		e.Add("date_of_birth", "生年月日を入力してください")
	} else if !validDate(dateOfBirth) {
		e.Add("date_of_birth", "生年月日はYYYY-MM-DD形式で入力してください")
	}
}

// validDate はYYYY-MM-DD形式の実在する日付かどうかを判定する。
// 正規表現では"2024-13-45"のような存在しない日付を通してしまう。
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
