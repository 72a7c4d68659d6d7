package form

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/uguis/meibo/internal/model"
)

// --- モック ---

type mockEmailFinder struct {
	findByEmailFn func(ctx context.Context, email string) ([]*model.User, error)
}

func (m *mockEmailFinder) FindByEmail(ctx context.Context, email string) ([]*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func validSignupValues() url.Values {
	return url.Values{
		"organization":  {"uguis"},
		"display_name":  {"うぐいす一号"},
		"user_name":     {"uguis1"},
		"furigana":      {"ウグイスイチゴウ"},
		"phone":         {"09012345678"},
		"post_code":     {"1234567"},
		"address":       {"東京都どこか区1-2-3"},
		"email":         {"a@example.com"},
		"email_confirm": {"a@example.com"},
		"password":      {"password123"},
		"pass_confirm":  {"password123"},
		"gender":        {"female"},
		"date_of_birth": {"1990-04-01"},
	}
}

// --- テスト ---

// TestSignupForm_Validate_AllValid は有効な入力がエラーなしで通ることを検証する。
func TestSignupForm_Validate_AllValid(t *testing.T) {
	f := NewSignupForm(validSignupValues())
	e := f.Validate(context.Background(), &mockEmailFinder{})
	if !e.Valid() {
		t.Fatalf("expected valid form, got errors: %v", e)
	}
}

// TestSignupForm_Validate_FieldConstraints はフィールド単位の制約を検証する。
func TestSignupForm_Validate_FieldConstraints(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(v url.Values)
		wantField string
	}{
		{"organization invalid", func(v url.Values) { v.Set("organization", "nightingale") }, "organization"},
		{"display name too short", func(v url.Values) { v.Set("display_name", "ab") }, "display_name"},
		{"display name too long", func(v url.Values) { v.Set("display_name", strings.Repeat("あ", 31)) }, "display_name"},
		{"user name missing", func(v url.Values) { v.Set("user_name", "") }, "user_name"},
		{"furigana missing", func(v url.Values) { v.Set("furigana", "") }, "furigana"},
		{"phone too short", func(v url.Values) { v.Set("phone", "090123") }, "phone"},
		{"phone non-digit", func(v url.Values) { v.Set("phone", "090-1234-5678") }, "phone"},
		{"post code not 7 digits", func(v url.Values) { v.Set("post_code", "123-4567") }, "post_code"},
		{"address too long", func(v url.Values) { v.Set("address", strings.Repeat("東", 101)) }, "address"},
		{"email malformed", func(v url.Values) { v.Set("email", "not-an-email"); v.Set("email_confirm", "not-an-email") }, "email"},
		{"email confirm mismatch", func(v url.Values) { v.Set("email_confirm", "b@example.com") }, "email_confirm"},
		{"password too short", func(v url.Values) { v.Set("password", "short1"); v.Set("pass_confirm", "short1") }, "password"},
		{"password confirm mismatch", func(v url.Values) { v.Set("pass_confirm", "different123") }, "password"},
		{"gender missing", func(v url.Values) { v.Set("gender", "") }, "gender"},
		{"date of birth malformed", func(v url.Values) { v.Set("date_of_birth", "1990/04/01") }, "date_of_birth"},
		{"date of birth nonexistent", func(v url.Values) { v.Set("date_of_birth", "2024-13-45") }, "date_of_birth"},
		{"date of birth leap day off year", func(v url.Values) { v.Set("date_of_birth", "2023-02-29") }, "date_of_birth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validSignupValues()
			tt.mutate(v)
			f := NewSignupForm(v)
			e := f.Validate(context.Background(), &mockEmailFinder{})
			if e.Valid() {
				t.Fatal("expected validation errors, got none")
			}
			if len(e.Field(tt.wantField)) == 0 {
				t.Errorf("expected error on field %q, got errors: %v", tt.wantField, e)
			}
		})
	}
}

// TestSignupForm_Validate_RunsAllValidators は最初の失敗で打ち切らず、
// 全フィールドのメッセージが集約されることを検証する。
func TestSignupForm_Validate_RunsAllValidators(t *testing.T) {
	v := validSignupValues()
	v.Set("display_name", "")
	v.Set("phone", "abc")
	v.Set("post_code", "12")

	f := NewSignupForm(v)
	e := f.Validate(context.Background(), &mockEmailFinder{})

	for _, field := range []string{"display_name", "phone", "post_code"} {
		if len(e.Field(field)) == 0 {
			t.Errorf("expected error on field %q, got errors: %v", field, e)
		}
	}
}

// TestSignupForm_Validate_EmailTaken は登録済みemailが拒否されることを検証する。
func TestSignupForm_Validate_EmailTaken(t *testing.T) {
	finder := &mockEmailFinder{
		findByEmailFn: func(ctx context.Context, email string) ([]*model.User, error) {
			return []*model.User{{UserID: "u-1", Email: email}}, nil
		},
	}

	f := NewSignupForm(validSignupValues())
	e := f.Validate(context.Background(), finder)
	if e.Valid() {
		t.Fatal("expected duplicate email error")
	}
	if len(e.Field("email")) == 0 {
		t.Errorf("expected error on email, got errors: %v", e)
	}
}

// TestSignupForm_Validate_StoreErrorSurfacesAsFieldMessage は
// 一意性チェックのストア障害がフィールドメッセージになることを検証する。
func TestSignupForm_Validate_StoreErrorSurfacesAsFieldMessage(t *testing.T) {
	finder := &mockEmailFinder{
		findByEmailFn: func(ctx context.Context, email string) ([]*model.User, error) {
			return nil, errors.New("store unavailable")
		},
	}

	f := NewSignupForm(validSignupValues())
	e := f.Validate(context.Background(), finder)
	if len(e.Field("email")) == 0 {
		t.Errorf("expected store error to surface on email field, got errors: %v", e)
	}
}

// TestNewSignupForm_LowercasesEmail はemailが小文字化されることを検証する。
func TestNewSignupForm_LowercasesEmail(t *testing.T) {
	v := validSignupValues()
	v.Set("email", "Upper@Example.COM")
	v.Set("email_confirm", "upper@example.com")

	f := NewSignupForm(v)
	if f.Email != "upper@example.com" {
		t.Errorf("Email = %q, want lowercased", f.Email)
	}

	e := f.Validate(context.Background(), &mockEmailFinder{})
	if len(e.Field("email_confirm")) != 0 {
		t.Errorf("confirm should match after lowercasing, got errors: %v", e)
	}
}
