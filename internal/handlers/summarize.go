package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/metrics"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/middleware"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/summarizer"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

const errAPIKeyRequired = "API key required. Please define OPENAI_API_KEY in .env file or enter in interface."

// SummarizeHandler generates a summary and auto-saves the meeting
type SummarizeHandler struct {
	store         MeetingStore
	newSummarizer summarizer.Factory
	defaultAPIKey string
	log           logrus.FieldLogger
	metrics       *metrics.Metrics
}

// NewSummarizeHandler creates a new summarize handler. defaultAPIKey is
// used when the request carries none.
func NewSummarizeHandler(
	store MeetingStore,
	factory summarizer.Factory,
	defaultAPIKey string,
	log logrus.FieldLogger,
	m *metrics.Metrics,
) *SummarizeHandler {
	return &SummarizeHandler{
		store:         store,
		newSummarizer: factory,
		defaultAPIKey: defaultAPIKey,
		log:           log,
		metrics:       m,
	}
}

// Handle processes POST /summarize
func (h *SummarizeHandler) Handle(c *fiber.Ctx) error {
	var req types.SummarizeRequest
	if err := parseBody(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = h.defaultAPIKey
	}
	if apiKey == "" {
		return errorJSON(c, fiber.StatusBadRequest, errAPIKeyRequired)
	}
	if strings.TrimSpace(req.MeetingText) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Meeting text required")
	}

	ctx := c.UserContext()
	model := h.newSummarizer(apiKey)
	title := strings.TrimSpace(req.MeetingTitle)
	log := h.log.WithField("request_id", c.Locals(middleware.RequestIDKey))

	start := time.Now()
	var generatedTitle string
	if title == "" {
		t, err := model.GenerateTitle(ctx, req.MeetingText)
		if err != nil {
			return h.modelError(c, log, err)
		}
		generatedTitle = t
	}

	contextTitle := title
	if contextTitle == "" {
		contextTitle = generatedTitle
	}
	summary, err := model.Summarize(ctx, req.MeetingText, contextTitle, req.MeetingDate)
	if err != nil {
		return h.modelError(c, log, err)
	}
	elapsed := time.Since(start)

	resp := types.SummarizeResponse{
		Summary:        summary,
		GeneratedTitle: generatedTitle,
	}

	meeting, err := h.store.CreateMeeting(ctx, types.MeetingInput{
		Title:      contextTitle,
		Date:       req.MeetingDate,
		Language:   req.MeetingLanguage,
		Transcript: req.MeetingText,
		Summary:    summary,
	})
	if err != nil {
		log.WithError(err).Warn("Summary generated but not saved")
		resp.DatabaseError = fmt.Sprintf("Could not save to database: %v", err)
		h.record(metrics.OutcomeUnsaved, elapsed)
		return c.JSON(resp)
	}

	resp.SavedToDatabase = true
	resp.MeetingID = meeting.ID
	h.record(metrics.OutcomeSaved, elapsed)
	log.WithFields(logrus.Fields{
		"meeting_id":      meeting.ID,
		"generated_title": generatedTitle != "",
		"elapsed_ms":      elapsed.Milliseconds(),
	}).Info("Meeting summarized")

	return c.JSON(resp)
}

func (h *SummarizeHandler) modelError(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	log.WithError(err).Error("Summarization failed")
	h.record(metrics.OutcomeFailed, 0)
	return errorJSON(c, fiber.StatusInternalServerError, fmt.Sprintf("Error: %v", err))
}

func (h *SummarizeHandler) record(outcome string, d time.Duration) {
	if h.metrics != nil {
		h.metrics.RecordSummary(outcome, d)
	}
}
