package handlers

import (
	"encoding/json"

	"formflow/internal/pagination"
	"formflow/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SubmissionHandler handles HTTP requests for form submissions.
type SubmissionHandler struct {
	service *services.SubmissionService
	log     *logrus.Logger
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(service *services.SubmissionService, log *logrus.Logger) *SubmissionHandler {
	return &SubmissionHandler{service: service, log: log}
}

// RegisterRoutes registers the submission routes. Listing is guarded by
// admin and submitting by limit; either may be nil.
func (h *SubmissionHandler) RegisterRoutes(router fiber.Router, admin, limit fiber.Handler) {
	subRoutes := router.Group("/submissions")
	subRoutes.Get("/", chain(admin, h.HandleListAll)...)
	subRoutes.Get("/:idOrSlug", chain(admin, h.HandleListByForm)...)
	subRoutes.Post("/:idOrSlug", chain(limit, h.HandleSubmit)...)
}

func listParams(c *fiber.Ctx) pagination.Params {
	return pagination.Normalize(c.Query("page"), c.Query("limit"), c.Query("sortOrder"))
}

// HandleListAll pages through submissions across every form.
func (h *SubmissionHandler) HandleListAll(c *fiber.Ctx) error {
	return h.list(c, "")
}

// HandleListByForm pages through one form's submissions.
func (h *SubmissionHandler) HandleListByForm(c *fiber.Ctx) error {
	return h.list(c, c.Params("idOrSlug"))
}

func (h *SubmissionHandler) list(c *fiber.Ctx, token string) error {
	subs, meta, err := h.service.List(c.UserContext(), token, listParams(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       newSubmissionViews(subs),
		"pagination": meta,
	})
}

type submitRequest struct {
	Data json.RawMessage `json:"data"`
}

// HandleSubmit records a response to a published form.
func (h *SubmissionHandler) HandleSubmit(c *fiber.Ctx) error {
	var req submitRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		h.log.WithError(err).WithField("form", c.Params("idOrSlug")).Debug("undecodable submission body")
		return badRequest(c, "data object is required")
	}
	var data map[string]any
	if err := json.Unmarshal(req.Data, &data); err != nil || data == nil {
		h.log.WithField("form", c.Params("idOrSlug")).Debug("submission without data object")
		return badRequest(c, "data object is required")
	}

	submission, err := h.service.Submit(c.UserContext(), c.Params("idOrSlug"), data)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Submission received",
		"data": fiber.Map{
			"submissionId": submission.ID,
			"formId":       submission.FormID,
			"submittedAt":  iso(submission.SubmittedAt),
		},
	})
}
