package handlers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/storage"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

// MeetingStore is the persistence the handlers need
type MeetingStore interface {
	CreateMeeting(ctx context.Context, in types.MeetingInput) (*types.Meeting, error)
	UpdateMeeting(ctx context.Context, id int64, in types.MeetingInput) (*types.Meeting, error)
	GetMeeting(ctx context.Context, id int64) (*types.Meeting, error)
	ListMeetings(ctx context.Context, opts storage.ListOptions) (*storage.ListResult, error)
	DeleteMeeting(ctx context.Context, id int64) error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// errorJSON writes the {error} body used by every failing endpoint
func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(types.ErrorResponse{Error: msg})
}

// errInvalidBody is reported when the request body is not valid JSON
var errInvalidBody = errors.New("Invalid request body")

// parseBody decodes and validates a JSON body
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return errInvalidBody
	}
	return validateBody(v)
}

// validateBody runs struct validation and returns a readable message
func validateBody(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// parseID reads a positive meeting id from the route
func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}
