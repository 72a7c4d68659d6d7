package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open は会員名簿のPostgreSQL接続を開き、接続プールを設定して返す。
// 想定負荷はフォーム送信程度なのでプールは小さめに抑える。
// sql.Openは接続を試行しないため、起動時の疎通確認は呼び出し側の
// db.PingContext()で行うこと。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
