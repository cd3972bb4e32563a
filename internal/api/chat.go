package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tingly-dev/qwenbridge/internal/apierr"
	"github.com/tingly-dev/qwenbridge/internal/openai"
)

const maxRequestBody = 50 << 20 // 50MB, covers base64 image attachments in the request body

// ChatCompletions handles POST /v1/chat/completions: the gateway's only
// translation-bearing endpoint. It decodes the OpenAI-shaped request
// body and hands everything else to the orchestrator, which decides
// stream vs non-stream dispatch from req.WantsStream().
func (s *Server) ChatCompletions(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

	var req openai.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		status, body := apierr.ToBody(apierr.Wrap(apierr.KindBadRequest, "invalid request body", err), requestID(c))
		c.JSON(status, body)
		return
	}

	if creds, ok := clientCredentials(c); ok {
		s.Orchestrator.Execute(c, req, &creds)
		return
	}
	s.Orchestrator.Execute(c, req, nil)
}
