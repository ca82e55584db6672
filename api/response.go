package api

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessBody is the success JSON envelope.
type SuccessBody struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorBody is the error JSON envelope.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func success(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(SuccessBody{Status: statusSuccess, Message: message, Data: data})
}

func failure(c *fiber.Ctx, message string, statusCode int) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error:  ErrorDetail{Message: message, StatusCode: statusCode},
	})
}

// errorHandler renders errors that escape a handler in the same envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return failure(c, message, code)
}
