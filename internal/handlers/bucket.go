package handlers

import (
	"fmt"

	"roadmaptracker/internal/models"
	"roadmaptracker/internal/services"

	"github.com/gofiber/fiber/v2"
)

// BucketHandler serves the single-endpoint API the original web client talks to.
// Every action maps onto the same service operations as the REST routes.
type BucketHandler struct {
	roadmaps *services.RoadmapService
}

// NewBucketHandler creates a new bucket handler
func NewBucketHandler(roadmaps *services.RoadmapService) *BucketHandler {
	return &BucketHandler{roadmaps: roadmaps}
}

// Register mounts /bucket on router
func (h *BucketHandler) Register(router fiber.Router) {
	router.Get("/bucket", h.List)
	router.Post("/bucket", h.Action)
	router.Patch("/bucket", h.Patch)
	router.Delete("/bucket", h.Delete)
}

// List returns the caller's roadmaps, or one roadmap's detail when id is given
// GET /api/bucket
// GET /api/bucket?id=<roadmapId>
func (h *BucketHandler) List(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	if id := c.Query("id"); id != "" {
		detail, err := h.roadmaps.GetDetail(c.UserContext(), email, id)
		if err != nil {
			return failWith(c, err)
		}
		return respond(c, fiber.StatusOK, detail)
	}

	list, err := h.roadmaps.ListForUser(c.UserContext(), email)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, list)
}

// Action dispatches on the body's action field
// POST /api/bucket
func (h *BucketHandler) Action(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.BucketActionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	ctx := c.UserContext()
	var (
		roadmap *models.Roadmap
		err     error
	)
	switch req.Action {
	case "createRoadmap":
		roadmap, err = h.roadmaps.CreateRoadmap(ctx, email, req.Name)
	case "addCategory":
		roadmap, err = h.roadmaps.AddCategory(ctx, email, req.RoadmapID, models.AddCategoryRequest{
			Name:  req.Name,
			Icon:  req.Icon,
			Color: req.Color,
		})
	case "addItem":
		roadmap, err = h.roadmaps.AddItem(ctx, email, req.RoadmapID, req.CategoryID, models.AddItemRequest{
			Name: req.Name,
			Desc: req.Desc,
			Link: req.Link,
		})
	case "inviteUser":
		roadmap, err = h.roadmaps.InviteUser(ctx, email, req.RoadmapID, req.EmailToInvite)
	case "removeUser":
		roadmap, err = h.roadmaps.RemoveUser(ctx, email, req.RoadmapID, req.EmailToRemove)
	default:
		return fail(c, fiber.StatusBadRequest, fmt.Sprintf("Unknown action %q", req.Action))
	}

	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, roadmap)
}

// Patch updates one item
// PATCH /api/bucket
func (h *BucketHandler) Patch(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.BucketPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	roadmap, err := h.roadmaps.UpdateItem(c.UserContext(), email, req.RoadmapID, req.CategoryID, req.ItemID, req.ItemPatch)
	if err != nil {
		return failWith(c, err)
	}
	return respond(c, fiber.StatusOK, roadmap)
}

// Delete removes a roadmap, category or item depending on type
// DELETE /api/bucket
func (h *BucketHandler) Delete(c *fiber.Ctx) error {
	email, ok := callerEmail(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.DeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	roadmap, err := h.roadmaps.Delete(c.UserContext(), email, req)
	if err != nil {
		return failWith(c, err)
	}
	if roadmap == nil {
		return respond(c, fiber.StatusOK, fiber.Map{"deleted": true})
	}
	return respond(c, fiber.StatusOK, roadmap)
}
