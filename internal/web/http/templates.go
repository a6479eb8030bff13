package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/aussiebroadwan/zuul/internal/web/domain"
	"github.com/aussiebroadwan/zuul/pkg/httpx"
	"github.com/aussiebroadwan/zuul/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = map[string]*template.Template{
	"index": parsePage("index"),
	"user":  parsePage("user"),
}

func parsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
}

// pageData is shared by every page template.
type pageData struct {
	User             domain.UserIdentity
	Error            string
	TokenFingerprint string
	Profile          string
}

// render executes the page into a buffer first so a template error does not
// leave a half written response.
func render(w http.ResponseWriter, r *http.Request, code int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render page", "page", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	httpx.WriteBody(w, code, "text/html; charset=utf-8", buf.Bytes())
}
