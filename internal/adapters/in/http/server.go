package http

import (
	"errors"
	"io"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Request header names.
const (
	headerSignature = "X-Signature"
	headerOrgID     = "X-Org-Id"
)

// maxWebhookBody bounds how much of a webhook delivery is read. Channel
// payloads are small; anything larger is not a legitimate delivery.
const maxWebhookBody = 1 << 20

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	ingestEventHandler     commands.IngestEventCommandHandler
	transitionOrderHandler commands.TransitionOrderCommandHandler
	createSKUHandler       commands.CreateSKUCommandHandler
	adjustStockHandler     commands.AdjustStockCommandHandler

	// Query handlers
	getOrderHandler queries.GetOrderQueryHandler
	getStockHandler queries.GetStockQueryHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	ingestEventHandler commands.IngestEventCommandHandler,
	transitionOrderHandler commands.TransitionOrderCommandHandler,
	createSKUHandler commands.CreateSKUCommandHandler,
	adjustStockHandler commands.AdjustStockCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getStockHandler queries.GetStockQueryHandler,
) *Server {
	return &Server{
		ingestEventHandler:     ingestEventHandler,
		transitionOrderHandler: transitionOrderHandler,
		createSKUHandler:       createSKUHandler,
		adjustStockHandler:     adjustStockHandler,
		getOrderHandler:        getOrderHandler,
		getStockHandler:        getStockHandler,
	}
}

// RegisterRoutes mounts the API on the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/webhooks/:source", s.IngestWebhook)

	api.GET("/orders/:orderID", s.GetOrder)
	api.POST("/orders/:orderID/transitions", s.TransitionOrder)

	api.POST("/skus", s.CreateSKU)
	api.GET("/skus/:code", s.GetStock)
	api.POST("/skus/:code/adjustments", s.AdjustStock)
}

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// IngestWebhook handles POST /api/v1/webhooks/:source - authenticates and
// enqueues a channel event delivery.
func (s *Server) IngestWebhook(ctx echo.Context) error {
	source := ctx.Param("source")
	signature := ctx.Request().Header.Get(headerSignature)
	eventType := ctx.QueryParam("event_type")

	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxWebhookBody))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Failed to read request body",
		})
	}

	cmd, err := commands.NewIngestEventCommand(source, signature, body, eventType)
	if err != nil {
		return badRequest(ctx, err)
	}

	outcome, err := s.ingestEventHandler.Handle(ctx.Request().Context(), cmd)
	if errors.Is(err, commands.ErrAuthenticationFailed) {
		return ctx.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    http.StatusUnauthorized,
			Message: "Signature verification failed",
		})
	}
	if err != nil {
		return mapError(ctx, err, "Failed to ingest event")
	}

	if outcome == commands.IngestAlreadyProcessed {
		return ctx.JSON(http.StatusOK, map[string]string{"status": string(outcome)})
	}
	return ctx.JSON(http.StatusAccepted, map[string]string{"status": string(outcome)})
}

// TransitionRequest is the body of POST /api/v1/orders/:orderID/transitions.
type TransitionRequest struct {
	TargetStatus string `json:"target_status"`
	Comment      string `json:"comment"`
}

// TransitionOrder handles POST /api/v1/orders/:orderID/transitions - moves an
// order to a target lifecycle status.
func (s *Server) TransitionOrder(ctx echo.Context) error {
	orgID, err := orgIDFromHeader(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	orderID, err := kernel.UUIDFromString(ctx.Param("orderID"))
	if err != nil {
		return badRequest(ctx, err)
	}

	var req TransitionRequest
	if err = ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	target, err := order.StatusFromString(req.TargetStatus)
	if err != nil {
		return badRequest(ctx, err)
	}

	cmd, err := commands.NewTransitionOrderCommand(orgID, orderID, target, order.ActorUser, req.Comment)
	if err != nil {
		return badRequest(ctx, err)
	}

	updated, err := s.transitionOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return mapError(ctx, err, "Failed to transition order")
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"id":     updated.ID().String(),
		"status": updated.Status().String(),
	})
}

// GetOrder handles GET /api/v1/orders/:orderID - retrieves an order with its
// items and timeline.
func (s *Server) GetOrder(ctx echo.Context) error {
	orgID, err := orgIDFromHeader(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	orderID, err := kernel.UUIDFromString(ctx.Param("orderID"))
	if err != nil {
		return badRequest(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(orgID, orderID)
	if err != nil {
		return badRequest(ctx, err)
	}

	resp, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err, "Failed to retrieve order")
	}

	return ctx.JSON(http.StatusOK, resp)
}

// SKUResponse is the SKU body returned by the inventory endpoints.
type SKUResponse struct {
	Code           string `json:"code"`
	QuantityOnHand int    `json:"quantity_on_hand"`
	Reserved       int    `json:"reserved"`
	Available      int    `json:"available"`
}

func skuResponse(sku *inventory.SKU) SKUResponse {
	return SKUResponse{
		Code:           sku.Code(),
		QuantityOnHand: sku.QuantityOnHand(),
		Reserved:       sku.Reserved(),
		Available:      sku.Available(),
	}
}

// CreateSKURequest is the body of POST /api/v1/skus.
type CreateSKURequest struct {
	Code           string `json:"code"`
	QuantityOnHand int    `json:"quantity_on_hand"`
}

// CreateSKU handles POST /api/v1/skus - registers a new stock keeping unit.
func (s *Server) CreateSKU(ctx echo.Context) error {
	orgID, err := orgIDFromHeader(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	var req CreateSKURequest
	if err = ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	cmd, err := commands.NewCreateSKUCommand(orgID, req.Code, req.QuantityOnHand)
	if err != nil {
		return badRequest(ctx, err)
	}

	sku, err := s.createSKUHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return mapError(ctx, err, "Failed to create SKU")
	}

	return ctx.JSON(http.StatusCreated, skuResponse(sku))
}

// AdjustStockRequest is the body of POST /api/v1/skus/:code/adjustments.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// AdjustStock handles POST /api/v1/skus/:code/adjustments - applies a manual
// on-hand correction.
func (s *Server) AdjustStock(ctx echo.Context) error {
	orgID, err := orgIDFromHeader(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	var req AdjustStockRequest
	if err = ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	cmd, err := commands.NewAdjustStockCommand(orgID, ctx.Param("code"), req.Delta, req.Reason)
	if err != nil {
		return badRequest(ctx, err)
	}

	sku, err := s.adjustStockHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return mapError(ctx, err, "Failed to adjust stock")
	}

	return ctx.JSON(http.StatusOK, skuResponse(sku))
}

// GetStock handles GET /api/v1/skus/:code - retrieves SKU counters.
func (s *Server) GetStock(ctx echo.Context) error {
	orgID, err := orgIDFromHeader(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	query, err := queries.NewGetStockQuery(orgID, ctx.Param("code"))
	if err != nil {
		return badRequest(ctx, err)
	}

	resp, err := s.getStockHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err, "Failed to retrieve stock")
	}

	return ctx.JSON(http.StatusOK, resp)
}

func orgIDFromHeader(ctx echo.Context) (kernel.UUID, error) {
	raw := ctx.Request().Header.Get(headerOrgID)
	if raw == "" {
		return kernel.UUID{}, errs.NewValueIsRequiredError("X-Org-Id header")
	}
	return kernel.UUIDFromString(raw)
}

func badRequest(ctx echo.Context, err error) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: err.Error(),
	})
}

// mapError translates application errors into HTTP status codes. Domain
// rejections (invalid transition, oversell) map to 409 so callers can tell a
// business conflict from a malformed request.
func mapError(ctx echo.Context, err error, fallback string) error {
	var notFound *errs.ObjectNotFoundError
	switch {
	case errors.As(err, &notFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{
			Code:    http.StatusNotFound,
			Message: notFound.Error(),
		})

	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, inventory.ErrInsufficientStock):
		return ctx.JSON(http.StatusConflict, ErrorResponse{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})

	default:
		var invalid *errs.ValueIsInvalidError
		var required *errs.ValueIsRequiredError
		var outOfRange *errs.ValueIsOutOfRangeError
		if errors.As(err, &invalid) || errors.As(err, &required) || errors.As(err, &outOfRange) {
			return badRequest(ctx, err)
		}

		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: fallback,
		})
	}
}
