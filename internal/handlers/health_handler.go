package handlers

import (
	"sort"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	ping func() error
}

func NewHealthHandler(ping func() error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}

type routeDoc struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Docs lists every registered route.
func (h *HealthHandler) Docs(c *fiber.Ctx) error {
	var docs []routeDoc
	for _, r := range c.App().GetRoutes(true) {
		if r.Method == fiber.MethodHead || r.Method == fiber.MethodOptions || r.Method == "USE" {
			continue
		}
		docs = append(docs, routeDoc{Method: r.Method, Path: r.Path})
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Path == docs[j].Path {
			return docs[i].Method < docs[j].Method
		}
		return docs[i].Path < docs[j].Path
	})

	return c.JSON(fiber.Map{
		"name":   "YouVoice API",
		"routes": docs,
	})
}
