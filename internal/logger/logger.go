package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// envが空でなければ全レコードにenvironment属性を付与する。
func Setup(w io.Writer, env string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)
	if env != "" {
		logger = logger.With(slog.String("environment", env))
	}
	return logger
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer, env string) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w, env))
}
