package post

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer は投稿本文からスクリプト等の危険なHTMLを除去する。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer はUGCポリシーのSanitizerを生成する。
// 一般的な整形タグは残し、script/iframe/イベント属性などを落とす。
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// Sanitize は本文をサニタイズして返す。前後の空白も落とす。
func (s *Sanitizer) Sanitize(body string) string {
	return strings.TrimSpace(s.policy.Sanitize(body))
}
