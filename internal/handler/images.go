package handler

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"keywordpulse/pkg/imageedit"
)

type UploadRequest struct {
	DataURI string `json:"dataUri"`
}

type EditRequest struct {
	Instruction string `json:"instruction"`
}

// GET /api/sessions/:sid/images
func (h *Handler) GetImages(c *fiber.Ctx) error {
	snap, err := h.dashboard.Images(c.Params("sid"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// UploadImage accepts either a multipart form with an "image" file or a JSON {dataUri}.
// POST /api/sessions/:sid/images
func (h *Handler) UploadImage(c *fiber.Ctx) error {
	asset, err := h.readUpload(c)
	if err != nil {
		return err
	}
	snap, err := h.dashboard.Upload(c.Params("sid"), asset)
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (h *Handler) readUpload(c *fiber.Ctx) (imageedit.Asset, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fh, err := c.FormFile("image")
		if err != nil {
			return imageedit.Asset{}, fiber.NewError(fiber.StatusBadRequest, "multipart field \"image\" is required")
		}
		if fh.Size > int64(h.maxUpload) {
			return imageedit.Asset{}, fiber.NewError(fiber.StatusRequestEntityTooLarge, "image is too large")
		}
		f, err := fh.Open()
		if err != nil {
			return imageedit.Asset{}, fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
		}
		defer f.Close()

		raw, err := io.ReadAll(io.LimitReader(f, int64(h.maxUpload)+1))
		if err != nil {
			return imageedit.Asset{}, fiber.NewError(fiber.StatusBadRequest, "cannot read uploaded file")
		}
		return imageedit.NewAsset(raw, h.maxUpload)
	}

	var req UploadRequest
	if err := c.BodyParser(&req); err != nil {
		return imageedit.Asset{}, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return imageedit.NewAssetFromDataURI(req.DataURI, h.maxUpload)
}

// EditImage applies the instruction to the current image.
// POST /api/sessions/:sid/images/edit
func (h *Handler) EditImage(c *fiber.Ctx) error {
	var req EditRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	sid := c.Params("sid")
	entry, err := h.dashboard.Edit(c.UserContext(), sid, req.Instruction)
	if err != nil {
		return err
	}
	snap, err := h.dashboard.Images(sid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entry": entry, "images": snap})
}

// POST /api/sessions/:sid/images/history/:eid/select
func (h *Handler) SelectHistory(c *fiber.Ctx) error {
	snap, err := h.dashboard.SelectHistory(c.Params("sid"), c.Params("eid"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

// DownloadHistory sends the decoded image of one history entry as an attachment.
// GET /api/sessions/:sid/images/history/:eid/download
func (h *Handler) DownloadHistory(c *fiber.Ctx) error {
	entry, err := h.dashboard.HistoryEntry(c.Params("sid"), c.Params("eid"))
	if err != nil {
		return err
	}
	asset, err := entry.Asset()
	if err != nil {
		return err
	}
	raw, err := asset.Bytes()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "stored image is corrupt")
	}

	c.Attachment(entry.Filename())
	c.Set(fiber.HeaderContentType, asset.MIMEType)
	return c.Send(raw)
}
