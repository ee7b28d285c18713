package web

import (
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-bbdiversity/internal/config"
)

// fallbackIndex is served when no index.html template is installed
var fallbackIndex = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<ul>
<li><a href="/names">/names</a></li>
<li><a href="/otu">/otu</a></li>
<li>/metadata/&lt;sample&gt;</li>
<li>/wfreq/&lt;sample&gt;</li>
<li>/samples/&lt;sample&gt;</li>
</ul>
<p>version {{.AppVersion}} - {{.CurrentTime}}</p>
</body></html>
`))

// homePage handles "/" by rendering the dashboard template
func (s *WebServer) homePage(c *gin.Context) {
	data := TemplateData{
		Title:       "Belly Button Biodiversity",
		CurrentTime: time.Now().Format("2006-01-02 15:04:05"),
		AppVersion:  config.AppVersion,
	}

	tmpl := fallbackIndex
	indexPath := filepath.Join(s.Config.TemplatesDir, "index.html")
	if _, err := os.Stat(indexPath); err == nil {
		// parsed per request so the page can be edited without a restart
		parsed, err := template.ParseFiles(indexPath)
		if err != nil {
			log.Printf("[WEB]: Template error in %s: %v", indexPath, err)
			c.String(http.StatusInternalServerError, "Template error")
			return
		}
		tmpl = parsed
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := tmpl.Execute(c.Writer, data); err != nil {
		log.Printf("[WEB]: Failed to render index page: %v", err)
	}
}
