// Package web holds the storefront's embedded templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	html "github.com/gofiber/template/html/v2"

	"storefront/internal/money"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// Engine parses the embedded templates with the storefront's helpers.
func Engine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("price", money.Format)
	engine.AddFunc("dollars", money.Dollars)
	return engine
}

func Static() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
