package handler

import (
	"github.com/gofiber/fiber/v2"
)

type AnalyzeRequest struct {
	Keyword   string `json:"keyword"`
	Location  string `json:"location"`
	Timeframe string `json:"timeframe"`
}

// CreateSession starts a new dashboard.
// POST /api/sessions
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	snap := h.dashboard.CreateSession()
	return c.Status(fiber.StatusCreated).JSON(snap)
}

// GET /api/sessions/:sid
func (h *Handler) GetSession(c *fiber.Ctx) error {
	snap, err := h.dashboard.Snapshot(c.Params("sid"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// GET /api/sessions/:sid/keywords
func (h *Handler) GetKeywords(c *fiber.Ctx) error {
	snap, err := h.dashboard.Keywords(c.Params("sid"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// AnalyzeKeyword runs an analysis and answers with the keyword workspace once the main call is
// done. Tips may land later and show up in GET /keywords.
// POST /api/sessions/:sid/keywords/analyze
func (h *Handler) AnalyzeKeyword(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	snap, err := h.dashboard.Analyze(c.UserContext(), c.Params("sid"), req.Keyword, req.Location, req.Timeframe)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// POST /api/sessions/:sid/keywords/reset
func (h *Handler) ResetKeywords(c *fiber.Ctx) error {
	snap, err := h.dashboard.ResetKeywords(c.Params("sid"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}
