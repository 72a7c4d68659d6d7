package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ストア障害の分類。ハンドラはerrors.Isでこれらに分岐し、
// ユーザーには理由別の汎用メッセージだけを見せる。
var (
	// ErrDuplicate は一意制約違反（email重複など）。
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrTableMissing はテーブル未作成。一時障害ではなく構成ミス。
	ErrTableMissing = errors.New("repository: table missing")
	// ErrUnavailable は接続断・リソース枯渇などの一時障害。
	ErrUnavailable = errors.New("repository: store unavailable")
	// ErrInvalidData はストア側バリデーションで弾かれた書き込み。
	ErrInvalidData = errors.New("repository: invalid data")
	// ErrNotFound は更新・削除対象のレコード不在。
	ErrNotFound = errors.New("repository: record not found")
)

// classify はドライバエラーを上記の分類にマップする。
// 分類できないエラーはそのまま返し、呼び出し側で「不明」として扱う。
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch string(pqErr.Code) {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case "42P01": // undefined_table
		return fmt.Errorf("%w: %v", ErrTableMissing, err)
	}

	switch pqErr.Code.Class() {
	case "08", "53", "57": // connection / insufficient resources / operator intervention
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case "22", "23": // data exception / その他の整合性違反
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	return err
}
