package handlers

import (
	"formflow/internal/schema"
	"formflow/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// FormHandler handles HTTP requests for form definitions.
type FormHandler struct {
	service *services.FormService
	log     *logrus.Logger
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(service *services.FormService, log *logrus.Logger) *FormHandler {
	return &FormHandler{service: service, log: log}
}

// RegisterRoutes registers the form routes under /forms and its
// /form-schema alias. admin guards every route except the public read and
// may be nil.
func (h *FormHandler) RegisterRoutes(router fiber.Router, admin fiber.Handler) {
	for _, prefix := range []string{"/forms", "/form-schema"} {
		formRoutes := router.Group(prefix)
		formRoutes.Get("/", chain(admin, h.HandleGetForms)...)
		formRoutes.Post("/", chain(admin, h.HandleUpsertForm)...)
		formRoutes.Get("/:idOrSlug", h.HandleGetForm)
		formRoutes.Delete("/:idOrSlug", chain(admin, h.HandleDeleteForm)...)
	}
}

// HandleGetForms lists every form.
func (h *FormHandler) HandleGetForms(c *fiber.Ctx) error {
	forms, err := h.service.GetAll(c.UserContext())
	if err != nil {
		return err
	}

	data := make([]formView, 0, len(forms))
	for i := range forms {
		data = append(data, newFormView(&forms[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}

// HandleGetForm returns one form by id or slug.
func (h *FormHandler) HandleGetForm(c *fiber.Ctx) error {
	form, err := h.service.GetByIDOrSlug(c.UserContext(), c.Params("idOrSlug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": newFormView(form)})
}

// HandleUpsertForm creates or fully replaces a form.
func (h *FormHandler) HandleUpsertForm(c *fiber.Ctx) error {
	payload, err := schema.ParsePayload(c.Body())
	if err != nil {
		h.log.WithError(err).WithField("path", c.Path()).Debug("rejected form payload")
		return err
	}
	if payload.FormID == "" {
		return badRequest(c, "formId is required")
	}

	form, isNew, err := h.service.Upsert(c.UserContext(), payload.FormID, payload)
	if err != nil {
		return err
	}

	status, message := fiber.StatusOK, "Form updated successfully"
	if isNew {
		status, message = fiber.StatusCreated, "Form created successfully"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data": fiber.Map{
			"formId":    form.ID,
			"createdAt": iso(form.CreatedAt),
			"updatedAt": iso(form.UpdatedAt),
		},
	})
}

// HandleDeleteForm removes a form and all of its submissions.
func (h *FormHandler) HandleDeleteForm(c *fiber.Ctx) error {
	formID, err := h.service.Delete(c.UserContext(), c.Params("idOrSlug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Form deleted successfully",
		"data":    fiber.Map{"formId": formID},
	})
}
