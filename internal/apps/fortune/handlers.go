package fortune

import (
	"errors"
	"io"
	"strings"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FortuneHandler struct {
	service        *FortuneService
	validator      *validation.Validator
	maxUploadBytes int64
}

func NewFortuneHandler(service *FortuneService, v *validation.Validator, maxUploadBytes int64) *FortuneHandler {
	return &FortuneHandler{service: service, validator: v, maxUploadBytes: maxUploadBytes}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

// Create handles POST /readings. JSON bodies carry type and question;
// multipart bodies carry the same as form values plus an optional image file.
func (h *FortuneHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req CreateRequest
	var img *Upload
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req.Type = c.FormValue("type")
		req.Question = c.FormValue("question")
		if err := h.validator.Validate(&req); err != nil {
			return handlers.RespondError(c, err)
		}
		if img, err = h.readImage(c); err != nil {
			return err
		}
	} else if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}

	f, err := h.service.Create(c.UserContext(), userID, &req, img)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

// readImage returns nil when the form has no image. On a bad image it writes
// the response itself and returns the write error.
func (h *FortuneHandler) readImage(c *fiber.Ctx) (*Upload, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		return nil, c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: true, Message: "Image too large",
		})
	}
	contentType := file.Header.Get(fiber.HeaderContentType)
	if _, ok := imageExt[strings.ToLower(contentType)]; !ok {
		return nil, handlers.RespondError(c, ErrUnsupportedImage)
	}

	f, err := file.Open()
	if err != nil {
		return nil, handlers.RespondError(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, handlers.RespondError(c, err)
	}
	return &Upload{Data: data, ContentType: contentType}, nil
}

// List handles GET /readings?page=&limit=&order_by=&desc=.
func (h *FortuneHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	page, limit, offset := handlers.Paging(c)
	orderBy := c.Query("order_by")
	desc := c.QueryBool("desc", true)

	items, total, err := h.service.List(c.UserContext(), userID, orderBy, desc, limit, offset)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	if items == nil {
		items = []*Fortune{}
	}
	return c.JSON(ListResponse{Fortunes: items, Total: total, Page: page, Limit: limit})
}

func (h *FortuneHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid fortune ID")
	}

	f, err := h.service.Get(c.UserContext(), userID, id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.JSON(f)
}

func (h *FortuneHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid fortune ID")
	}

	var req UpdateRequest
	if err := handlers.Bind(c, h.validator, &req); err != nil {
		return handlers.RespondError(c, err)
	}
	f, err := h.service.Update(c.UserContext(), userID, id, &req)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.JSON(f)
}

// ToggleFavorite handles POST /readings/:id/favorite.
func (h *FortuneHandler) ToggleFavorite(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid fortune ID")
	}

	fav, err := h.service.ToggleFavorite(c.UserContext(), userID, id)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"is_favorite": fav})
}

func (h *FortuneHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid fortune ID")
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return handlers.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FortuneHandler) Share(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid fortune ID")
	}

	var req ShareRequest
	if len(c.Body()) > 0 {
		if err := handlers.Bind(c, h.validator, &req); err != nil {
			return handlers.RespondError(c, err)
		}
	}
	f, err := h.service.Share(c.UserContext(), userID, id, req.Note)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.JSON(f)
}

func (h *FortuneHandler) Unshare(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid fortune ID")
	}

	if err := h.service.Unshare(c.UserContext(), userID, id); err != nil {
		return handlers.RespondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Feed handles GET /feed.
func (h *FortuneHandler) Feed(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	page, limit, offset := handlers.Paging(c)
	items, err := h.service.Feed(c.UserContext(), userID, limit, offset)
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"fortunes": items, "page": page, "limit": limit})
}

// Like handles POST /feed/:id/like. A repeated like is a 409.
func (h *FortuneHandler) Like(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid fortune ID")
	}

	count, err := h.service.Like(c.UserContext(), userID, id)
	if errors.Is(err, ErrAlreadyLiked) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"like_count": count})
}

// Costs handles GET /costs.
func (h *FortuneHandler) Costs(c *fiber.Ctx) error {
	return c.JSON(CostsResponse{Costs: h.service.Costs(c.UserContext())})
}

// Shared handles the public GET /shared/:code.
func (h *FortuneHandler) Shared(c *fiber.Ctx) error {
	out, err := h.service.GetShared(c.UserContext(), c.Params("code"))
	if err != nil {
		return handlers.RespondError(c, err)
	}
	return c.JSON(out)
}
