package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/qwenbridge/internal/identity"
	"github.com/tingly-dev/qwenbridge/internal/upstream"
)

// staticModels is served when the upstream catalogue call fails or
// returns nothing, so /v1/models always responds with something a
// client can select from.
var staticModels = []upstream.Model{
	{ID: "qwen-max", ChatTypes: []string{"t2t", "search", "t2i", "image_edit"}, SupportsThinking: true},
	{ID: "qwen-plus", ChatTypes: []string{"t2t", "search"}, SupportsThinking: true},
	{ID: "qwen-vl-max", ChatTypes: []string{"t2t"}},
}

type modelsResponse struct {
	Object string        `json:"object"`
	Data   []modelRecord `json:"data"`
}

type modelRecord struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// Models handles GET /v1/models: it fetches the upstream catalogue and
// expands each entry into its suffix-bearing OpenAI-visible variants
// (-thinking, -search, -image, -image_edit, -video) according to the
// capabilities the upstream advertises, falling back to a static list
// when the upstream is unreachable or returns nothing.
func (s *Server) Models(c *gin.Context) {
	var upstreamModels []upstream.Model
	if id := s.acquireForCatalogue(); id != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		models, err := s.Upstream.ListModels(ctx, id.Token, id.Cookie)
		if err != nil {
			logrus.WithError(err).Warn("failed to list upstream models, falling back to static list")
		} else {
			upstreamModels = models
		}
	}
	if len(upstreamModels) == 0 {
		upstreamModels = staticModels
	}

	now := time.Now().Unix()
	var records []modelRecord
	for _, m := range upstreamModels {
		records = append(records, modelRecord{ID: m.ID, Object: "model", Created: now, OwnedBy: "qwenbridge"})
		for _, variant := range expandVariants(m) {
			records = append(records, modelRecord{ID: variant, Object: "model", Created: now, OwnedBy: "qwenbridge"})
		}
	}

	c.JSON(http.StatusOK, modelsResponse{Object: "list", Data: records})
}

func expandVariants(m upstream.Model) []string {
	var variants []string
	if m.SupportsThinking {
		variants = append(variants, m.ID+"-thinking")
	}

	var hasSearch, hasT2I, hasImageEdit, hasT2V bool
	for _, ct := range m.ChatTypes {
		switch ct {
		case "search":
			hasSearch = true
		case "t2i":
			hasT2I = true
		case "image_edit":
			hasImageEdit = true
		case "t2v":
			hasT2V = true
		}
	}

	if hasSearch {
		variants = append(variants, m.ID+"-search")
	}
	if hasT2I {
		variants = append(variants, m.ID+"-image")
	}
	if hasT2I || hasImageEdit {
		variants = append(variants, m.ID+"-image_edit")
	}
	if hasT2V {
		variants = append(variants, m.ID+"-video")
	}
	return variants
}

func (s *Server) acquireForCatalogue() *identity.Identity {
	if s.Pool == nil {
		return nil
	}
	return s.Pool.Acquire()
}
