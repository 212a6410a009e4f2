package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/metrics"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/storage"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

const defaultPerPage = 20

// MeetingsHandler serves the /api/meetings resource
type MeetingsHandler struct {
	store   MeetingStore
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewMeetingsHandler creates a new meetings handler
func NewMeetingsHandler(store MeetingStore, log logrus.FieldLogger, m *metrics.Metrics) *MeetingsHandler {
	return &MeetingsHandler{
		store:   store,
		log:     log,
		metrics: m,
	}
}

// Register mounts the meeting routes on r
func (h *MeetingsHandler) Register(r fiber.Router) {
	r.Get("/api/meetings", h.List)
	r.Post("/api/meetings", h.Create)
	r.Get("/api/meetings/:id", h.Get)
	r.Put("/api/meetings/:id", h.Update)
	r.Delete("/api/meetings/:id", h.Delete)
}

// List returns one page of meetings, optionally filtered by search
func (h *MeetingsHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", defaultPerPage)
	if page < 1 || perPage < 1 {
		return errorJSON(c, fiber.StatusBadRequest, "page and per_page must be positive integers")
	}

	res, err := h.store.ListMeetings(c.UserContext(), storage.ListOptions{
		Search:  c.Query("search"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.log.WithError(err).Error("Failed to list meetings")
		return errorJSON(c, fiber.StatusInternalServerError, fmt.Sprintf("Error: %v", err))
	}

	return c.JSON(types.MeetingList{
		Meetings:    res.Meetings,
		Total:       res.Total,
		Pages:       res.Pages,
		CurrentPage: res.Page,
	})
}

// Get returns a single meeting
func (h *MeetingsHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, storage.ErrNotFound.Error())
	}

	m, err := h.store.GetMeeting(c.UserContext(), id)
	if err != nil {
		return h.storeError(c, err, "Error")
	}
	return c.JSON(m)
}

// Create saves a new meeting
func (h *MeetingsHandler) Create(c *fiber.Ctx) error {
	var in types.MeetingInput
	if err := parseBody(c, &in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	m, err := h.store.CreateMeeting(c.UserContext(), in)
	if err != nil {
		return h.storeError(c, err, "Error saving meeting")
	}
	h.recordOp("create")
	h.log.WithField("meeting_id", m.ID).Info("Meeting created")

	return c.Status(fiber.StatusCreated).JSON(types.MeetingResponse{
		Success: true,
		Meeting: m,
		Message: "Meeting saved successfully",
	})
}

// Update overwrites an existing meeting
func (h *MeetingsHandler) Update(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, storage.ErrNotFound.Error())
	}

	var in types.MeetingInput
	if err := parseBody(c, &in); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	m, err := h.store.UpdateMeeting(c.UserContext(), id, in)
	if err != nil {
		return h.storeError(c, err, "Error updating meeting")
	}
	h.recordOp("update")
	h.log.WithField("meeting_id", id).Info("Meeting updated")

	return c.JSON(types.MeetingResponse{
		Success: true,
		Meeting: m,
		Message: "Meeting updated successfully",
	})
}

// Delete removes a meeting
func (h *MeetingsHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, storage.ErrNotFound.Error())
	}

	if err := h.store.DeleteMeeting(c.UserContext(), id); err != nil {
		return h.storeError(c, err, "Error deleting meeting")
	}
	h.recordOp("delete")
	h.log.WithField("meeting_id", id).Info("Meeting deleted")

	return c.JSON(types.MeetingResponse{
		Success: true,
		Message: "Meeting deleted successfully",
	})
}

func (h *MeetingsHandler) storeError(c *fiber.Ctx, err error, prefix string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return errorJSON(c, fiber.StatusNotFound, storage.ErrNotFound.Error())
	}
	h.log.WithError(err).Error(prefix)
	return errorJSON(c, fiber.StatusInternalServerError, fmt.Sprintf("%s: %v", prefix, err))
}

func (h *MeetingsHandler) recordOp(op string) {
	if h.metrics != nil {
		h.metrics.RecordMeetingOp(op)
	}
}
