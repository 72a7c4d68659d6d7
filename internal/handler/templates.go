// Package handler はHTTPハンドラーとHTML描画を提供する。
package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/uguis/meibo/internal/form"
	"github.com/uguis/meibo/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticHandler は埋め込み静的ファイル（CSS等）を配信するハンドラーを返す。
// /static/ プレフィックスでマウントする。
func StaticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// ページテンプレートの一覧。各ページはlayout.htmlと組で解析される。
var pageNames = []string{
	"index.html",
	"signup.html",
	"login.html",
	"user_maintenance.html",
	"account.html",
	"edit_post.html",
}

// Renderer は埋め込みテンプレートを解析し、レイアウト込みでページを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は全ページテンプレートを解析したRendererを返す。
// テンプレートが壊れている場合は起動時に落とす。
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// PageData は全ページ共通のテンプレートデータ。
type PageData struct {
	Title     string
	Principal model.Principal
	CSRFToken string
	Flashes   []string
	Errors    form.Errors
	Form      any
	Data      any
}

// Render はページをレイアウト込みで描画する。
func (r *Renderer) Render(w io.Writer, page string, data PageData) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown template: %s", page)
	}
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}

// renderPage はページを描画し、失敗時は500を返す。
// 描画途中のエラーで中途半端なHTMLを返さないよう、一旦バッファに描画する。
func renderPage(w http.ResponseWriter, renderer *Renderer, page string, data PageData) {
	renderPageStatus(w, renderer, page, data, http.StatusOK)
}

// renderPageStatus は任意のステータスコードでページを描画する。
func renderPageStatus(w http.ResponseWriter, renderer *Renderer, page string, data PageData, status int) {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, page, data); err != nil {
		slog.Error("failed to render template",
			slog.String("template", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
