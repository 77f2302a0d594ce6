package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/richinsley/nodegen/canvas"
	"github.com/richinsley/nodegen/client"
	"github.com/richinsley/nodegen/graphapi"
)

var errInvalidBody = errors.New("invalid body")

// statusFor maps an error from the canvas onto an HTTP status
func statusFor(err error) int {
	var ge *client.GenerationError
	switch {
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, graphapi.ErrGraphNotFound),
		errors.Is(err, graphapi.ErrNodeNotFound),
		errors.Is(err, graphapi.ErrEdgeNotFound):
		return http.StatusNotFound
	case errors.Is(err, canvas.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.As(err, &ge),
		errors.Is(err, client.ErrNoMessage),
		errors.Is(err, client.ErrNoImagesGenerated):
		return http.StatusBadGateway
	case errors.Is(err, client.ErrMissingAPIKey),
		errors.Is(err, client.ErrMissingPrompt),
		errors.Is(err, graphapi.ErrNoImages),
		errors.Is(err, graphapi.ErrNoPrompt),
		errors.Is(err, graphapi.ErrNotGenerateNode),
		errors.Is(err, graphapi.ErrWrongNodeType),
		errors.Is(err, graphapi.ErrInvalidConnection),
		errors.Is(err, graphapi.ErrUnknownNodeType),
		errors.Is(err, graphapi.ErrDuplicateNode),
		errors.Is(err, graphapi.ErrInvalidDocument),
		errors.Is(err, graphapi.ErrNotAnImage),
		errors.Is(err, graphapi.ErrInvalidImageURL):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	} else {
		s.logger.Debug("Request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
