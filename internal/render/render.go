package render

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gofiber/template/html/v2"
	"github.com/valyala/bytebufferpool"
)

//go:embed templates/mail/*.html
var embedFS embed.FS
var embedEngine *html.Engine
var dirEngine *html.Engine
var globalVars map[string]interface{}

// Initialize loads the embedded templates. When tmplDir is set, templates
// found there take precedence over the embedded ones.
func Initialize(gVars map[string]interface{}, tmplDir string) error {
	globalVars = gVars
	dirEngine = nil
	if tmplDir != "" {
		info, err := os.Stat(tmplDir)
		if err != nil {
			return fmt.Errorf("template directory does not exist: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("template path is not a directory: %s", tmplDir)
		}
		dirEngine = html.NewFileSystem(http.Dir(tmplDir), ".html")
	}

	sub, err := fs.Sub(embedFS, "templates")
	if err != nil {
		return err
	}
	embedEngine = html.NewFileSystem(http.FS(sub), ".html")
	if err := embedEngine.Load(); err != nil {
		return fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return nil
}

func RenderHTML(templateName string, vars map[string]interface{}) (string, error) {
	if embedEngine == nil {
		return "", fmt.Errorf("render: templates not initialized")
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	mergedVars := make(map[string]interface{})
	for k, v := range globalVars {
		mergedVars[k] = v
	}
	for k, v := range vars {
		mergedVars[k] = v
	}

	templateName = strings.TrimSuffix(templateName, ".html")

	if dirEngine != nil {
		err := dirEngine.Render(buf, templateName, mergedVars)
		if err == nil {
			return buf.String(), nil
		}
		slog.Warn("Render template failed, falling back to embedded", "template", templateName, "error", err)
		buf.Reset()
	}

	if err := embedEngine.Render(buf, templateName, mergedVars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
