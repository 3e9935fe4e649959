package handlers

import (
	"fmt"
	"net/url"

	"roadmaptracker/internal/models"
	"roadmaptracker/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RoadmapHandler handles the roadmap REST endpoints
type RoadmapHandler struct {
	roadmaps *services.RoadmapService
	exports  *services.ExportService
}

// NewRoadmapHandler creates a new roadmap handler
func NewRoadmapHandler(roadmaps *services.RoadmapService, exports *services.ExportService) *RoadmapHandler {
	return &RoadmapHandler{roadmaps: roadmaps, exports: exports}
}

// Register mounts the roadmap routes on router
func (h *RoadmapHandler) Register(router fiber.Router) {
	r := router.Group("/roadmaps")
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/:id", h.Get)
	r.Delete("/:id", h.Delete)
	r.Post("/:id/categories", h.AddCategory)
	r.Delete("/:id/categories/:categoryId", h.DeleteCategory)
	r.Post("/:id/categories/:categoryId/items", h.AddItem)
	r.Patch("/:id/categories/:categoryId/items/:itemId", h.UpdateItem)
	r.Delete("/:id/categories/:categoryId/items/:itemId", h.DeleteItem)
	r.Post("/:id/members", h.Invite)
	r.Delete("/:id/members/:email", h.RemoveMember)
	r.Post("/:id/migrate", h.Migrate)
	r.Get("/:id/export", h.Export)
}

// List returns every roadmap the caller owns or was invited to
// GET /api/roadmaps
func (h *RoadmapHandler) List(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	list, err := h.roadmaps.ListForUser(c.UserContext(), email)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}

// Create creates a roadmap owned by the caller
// POST /api/roadmaps
func (h *RoadmapHandler) Create(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.CreateRoadmapRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	roadmap, err := h.roadmaps.CreateRoadmap(c.UserContext(), email, req.Name)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusCreated, roadmap)
}

// Get returns one roadmap with member profiles and progress
// GET /api/roadmaps/:id
func (h *RoadmapHandler) Get(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	detail, err := h.roadmaps.GetDetail(c.UserContext(), email, c.Params("id"))
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, detail)
}

// Delete removes a roadmap (owner only)
// DELETE /api/roadmaps/:id
func (h *RoadmapHandler) Delete(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.roadmaps.DeleteRoadmap(c.UserContext(), email, c.Params("id")); err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// AddCategory appends a category
// POST /api/roadmaps/:id/categories
func (h *RoadmapHandler) AddCategory(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.AddCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	roadmap, err := h.roadmaps.AddCategory(c.UserContext(), email, c.Params("id"), req)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusCreated, roadmap)
}

// DeleteCategory removes a category with its items
// DELETE /api/roadmaps/:id/categories/:categoryId
func (h *RoadmapHandler) DeleteCategory(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	roadmap, err := h.roadmaps.DeleteCategory(c.UserContext(), email, c.Params("id"), c.Params("categoryId"))
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, roadmap)
}

// AddItem appends an item to a category
// POST /api/roadmaps/:id/categories/:categoryId/items
func (h *RoadmapHandler) AddItem(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	roadmap, err := h.roadmaps.AddItem(c.UserContext(), email, c.Params("id"), c.Params("categoryId"), req)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusCreated, roadmap)
}

// UpdateItem applies a partial item update
// PATCH /api/roadmaps/:id/categories/:categoryId/items/:itemId
func (h *RoadmapHandler) UpdateItem(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	var patch models.ItemPatch
	if err := c.BodyParser(&patch); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	roadmap, err := h.roadmaps.UpdateItem(c.UserContext(), email, c.Params("id"), c.Params("categoryId"), c.Params("itemId"), patch)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, roadmap)
}

// DeleteItem removes an item
// DELETE /api/roadmaps/:id/categories/:categoryId/items/:itemId
func (h *RoadmapHandler) DeleteItem(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	roadmap, err := h.roadmaps.DeleteItem(c.UserContext(), email, c.Params("id"), c.Params("categoryId"), c.Params("itemId"))
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, roadmap)
}

// Invite shares the roadmap with another email
// POST /api/roadmaps/:id/members
func (h *RoadmapHandler) Invite(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	roadmap, err := h.roadmaps.InviteUser(c.UserContext(), email, c.Params("id"), req.Email)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, roadmap)
}

// RemoveMember revokes an invited user's access (owner only)
// DELETE /api/roadmaps/:id/members/:email
func (h *RoadmapHandler) RemoveMember(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	// Path parameters arrive still escaped; member emails are decoded exactly once here
	target, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid email")
	}

	roadmap, err := h.roadmaps.RemoveUser(c.UserContext(), email, c.Params("id"), target)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, roadmap)
}

// Migrate copies the legacy categories into the roadmap (owner only)
// POST /api/roadmaps/:id/migrate
func (h *RoadmapHandler) Migrate(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	count, err := h.roadmaps.MigrateLegacy(c.UserContext(), email, c.Params("id"))
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, models.MigrateResponse{Migrated: count})
}

// Export downloads the roadmap as a spreadsheet or HTML checklist
// GET /api/roadmaps/:id/export?format=xlsx|html
func (h *RoadmapHandler) Export(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	res, err := h.exports.Export(c.UserContext(), email, c.Params("id"), c.Query("format"))
	if err != nil {
		return failWith(c, err)
	}

	c.Set(fiber.HeaderContentType, res.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return c.Status(fiber.StatusOK).Send(res.Data)
}
