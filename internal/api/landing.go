package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const landingPage = `<!doctype html>
<html>
<head><title>qwenbridge</title></head>
<body>
<h1>qwenbridge</h1>
<p>An OpenAI-compatible chat completions gateway. See <code>/v1/models</code> and <code>/v1/chat/completions</code>.</p>
<p>Operational status: <a href="/health">/health</a></p>
</body>
</html>`

// Landing handles GET /: a static page, mostly so hitting the bare
// gateway URL in a browser doesn't just 404.
func (s *Server) Landing(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(landingPage))
}
