// Package credential はパスワードのハッシュ化と検証を提供する。
//
// ハッシュ形式は method:iterations$salt$hexdigest
// （例: pbkdf2:sha256:600000$abcdef$0123...）で、既存レコードが
// 保持しているハッシュと互換性がある。saltと反復回数はハッシュ文字列に
// 埋め込まれ、検証時はそこから再計算する。
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	method     = "pbkdf2:sha256"
	iterations = 600000
	saltLength = 16
	keyLength  = 32
)

// ErrEmptyPassword は空パスワードのハッシュ化を拒否するエラー。
var ErrEmptyPassword = errors.New("credential: password must not be empty")

// Hash はパスワードをソルト付き反復ハッシュに変換する。
// 同じパスワードでもソルトが毎回異なるため出力は非決定的だが、
// 形式は常に method:iterations$salt$hexdigest となる。
// 空パスワードと乱数生成失敗以外では失敗しない。
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hexSalt := hex.EncodeToString(salt)

	key := pbkdf2.Key([]byte(password), []byte(hexSalt), iterations, keyLength, sha256.New)

	return fmt.Sprintf("%s:%d$%s$%s", method, iterations, hexSalt, hex.EncodeToString(key)), nil
}

// Verify はパスワードをハッシュに埋め込まれたパラメータで再計算し、
// 定数時間比較で照合する。不一致・形式不正のいずれもfalseを返し、
// panicやエラーにはしない（「パスワード違い」は例外ではない）。
func Verify(password, encoded string) bool {
	if password == "" || encoded == "" {
		return false
	}

	m, iters, hexSalt, expected, ok := parse(encoded)
	if !ok || m != method {
		return false
	}

	computed := pbkdf2.Key([]byte(password), []byte(hexSalt), iters, len(expected), sha256.New)

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// parse は method:iterations$salt$hexdigest 形式を分解する。
func parse(encoded string) (m string, iters int, hexSalt string, digest []byte, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 {
		return "", 0, "", nil, false
	}

	head := parts[0] // method:iterations
	idx := strings.LastIndex(head, ":")
	if idx <= 0 || idx == len(head)-1 {
		return "", 0, "", nil, false
	}
	m = head[:idx]

	iters, err := strconv.Atoi(head[idx+1:])
	if err != nil || iters <= 0 {
		return "", 0, "", nil, false
	}

	hexSalt = parts[1]
	if hexSalt == "" {
		return "", 0, "", nil, false
	}

	digest, err = hex.DecodeString(parts[2])
	if err != nil || len(digest) == 0 {
		return "", 0, "", nil, false
	}

	return m, iters, hexSalt, digest, true
}
