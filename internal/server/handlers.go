package server

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/YuminosukeSato/antiox/internal/modelstore"
	"github.com/YuminosukeSato/antiox/internal/prediction"
	"github.com/YuminosukeSato/antiox/internal/repository"
	"github.com/YuminosukeSato/antiox/internal/schema"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

const auditTimeout = 5 * time.Second

// Handler serves the API routes.
type Handler struct {
	service *prediction.Service
	handle  *modelstore.Handle
	schema  schema.Schema
	audit   repository.PredictionLog
	pending *sync.WaitGroup
	logger  log.Logger
}

// Home documents the API.
func (h *Handler) Home(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Anti-oxidation Prediction API",
		"version": Version,
		"endpoints": fiber.Map{
			"/predict": fiber.Map{
				"method":      "POST",
				"description": "Predict anti-oxidation from RGB, Brix, and Hardness values",
				"parameters": fiber.Map{
					"r":        "Red value (0-255)",
					"g":        "Green value (0-255)",
					"b":        "Blue value (0-255)",
					"brix":     "Brix value (sugar content)",
					"hardness": "Hardness value",
				},
				"example": fiber.Map{
					"r":        200,
					"g":        150,
					"b":        100,
					"brix":     12.5,
					"hardness": 8.3,
				},
			},
			"/health": fiber.Map{
				"method":      "GET",
				"description": "Check API health status",
			},
		},
	})
}

// Health reports liveness and whether a model is loaded.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "healthy",
		"model_loaded": h.handle.Ready(),
	})
}

// Predict validates the body and returns a prediction.
func (h *Handler) Predict(c *fiber.Ctx) error {
	var raw map[string]any
	if err := c.App().Config().JSONDecoder(c.Body(), &raw); err != nil || raw == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": prediction.MsgInvalidFormat + "request body must be a JSON object",
		})
	}

	res, fail := h.service.Predict(raw)
	if fail != nil {
		status := fiber.StatusInternalServerError
		if fail.Kind == prediction.KindValidation {
			status = fiber.StatusBadRequest
		}
		h.logger.Warn("Prediction rejected",
			log.HTTPPathKey, c.Path(),
			log.HTTPStatusKey, status,
			log.FailureKindKey, fail.Kind.String(),
			"reason", fail.Message)
		return c.Status(status).JSON(fiber.Map{"error": fail.Message})
	}

	input := h.schema.Map(res.Input)
	h.recordAsync(input, res.Prediction)

	return c.JSON(fiber.Map{
		"prediction": res.Prediction,
		"input":      input,
		"status":     "success",
	})
}

// recordAsync appends to the audit log off the request path. Failures are
// logged only.
func (h *Handler) recordAsync(input map[string]float64, pred float64) {
	if h.audit == nil {
		return
	}
	rec := repository.NewPredictionRecord(input, pred)
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := h.audit.SavePrediction(ctx, rec); err != nil {
			h.logger.Error("Failed to save prediction log", err,
				log.PredictionIDKey, rec.ID.String())
		}
	}()
}

// WaitAudits blocks until pending audit writes finish.
func (h *Handler) WaitAudits() {
	h.pending.Wait()
}
