package handler

import (
	"github.com/gofiber/fiber/v2"
)

type ChatRequest struct {
	Message string `json:"message"`
}

// GET /api/sessions/:sid/chat
func (h *Handler) GetChat(c *fiber.Ctx) error {
	snap, err := h.dashboard.Chat(c.Params("sid"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// SendChat answers with the bot message that was appended. A failed provider call still
// answers 200 with the fallback text.
// POST /api/sessions/:sid/chat
func (h *Handler) SendChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	sid := c.Params("sid")
	reply, err := h.dashboard.SendChat(c.UserContext(), sid, req.Message)
	if err != nil {
		return err
	}
	snap, err := h.dashboard.Chat(sid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reply": reply, "chat": snap})
}
