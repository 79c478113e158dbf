package api

import "github.com/gofiber/fiber/v2"

// APIError is the JSON body of every non-2xx response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals(requestIDLocal).(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// ErrorHandler renders errors returned by handlers and fiber itself as
// APIError bodies.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "internal_error"
	if fe, ok := err.(*fiber.Error); ok {
		status = fe.Code
		switch status {
		case fiber.StatusNotFound:
			code = "not_found"
		case fiber.StatusMethodNotAllowed:
			code = "method_not_allowed"
		case fiber.StatusUpgradeRequired:
			code = "upgrade_required"
		default:
			if status < 500 {
				code = "bad_request"
			}
		}
	}
	return newError(c, status, code, err.Error())
}
