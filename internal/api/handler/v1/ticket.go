package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/scratchpool/ticket-api/internal/api/handler/v1/request"
	"github.com/scratchpool/ticket-api/internal/api/handler/v1/response"
	"github.com/scratchpool/ticket-api/internal/domain"
	"github.com/scratchpool/ticket-api/internal/service"
)

type PurchaseService interface {
	SubmitPurchase(ctx context.Context, ownerID uint, quantity int) (uint, error)
	GetStatus(ctx context.Context, purchaseID, ownerID uint, page, pageSize int) (service.StatusPage, error)
	ListTickets(ctx context.Context, purchaseID, ownerID uint) ([]domain.TicketLine, error)
	ListAllTicketsForOwner(ctx context.Context, ownerID uint) ([]domain.OwnedTicket, error)
	TotalWinningsForOwner(ctx context.Context, ownerID uint) (decimal.Decimal, error)
	LatestCompletedPurchase(ctx context.Context, ownerID uint) (uint, error)
}

type TicketHandler struct {
	svc PurchaseService
}

func NewTicketHandler(svc PurchaseService) *TicketHandler {
	return &TicketHandler{
		svc: svc,
	}
}

// HandlePurchase godoc
// @Summary      Purchase scratch tickets
// @Description  Creates a purchase in processing state and queues its asynchronous fulfillment
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        input  body      request.PurchaseTicketsRequest  true  "Owner and quantity"
// @Success      200    {object}  response.PurchaseCreatedResponse
// @Failure      400    {object}  response.Err
// @Failure      503    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /tickets/purchase [post]
func (h *TicketHandler) HandlePurchase(ctx *gin.Context) {
	var input request.PurchaseTicketsRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	purchaseID, err := h.svc.SubmitPurchase(ctx.Request.Context(), input.OwnerID, input.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuantityOutOfRange):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrQueueFull):
			response.RenderErr(ctx, response.ErrServiceUnavailable(err))
		default:
			err = fmt.Errorf("HandlePurchase -> h.svc.SubmitPurchase -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.PurchaseCreatedResponse{
		Success:    true,
		PurchaseID: purchaseID,
	})
}

// HandleStatus godoc
// @Summary      Get purchase status
// @Description  Returns the purchase status and, once completed, a winner-first page of its tickets
// @Tags         tickets
// @Produce      json
// @Param        purchaseID  path      int  true   "Purchase ID"
// @Param        owner_id    query     int  true   "Owner ID"
// @Param        page        query     int  false  "Page number"
// @Param        per_page    query     int  false  "Page size"
// @Success      200         {object}  response.PurchaseStatusResponse
// @Failure      400         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /tickets/status/{purchaseID} [get]
func (h *TicketHandler) HandleStatus(ctx *gin.Context) {
	purchaseID, err := parseUint(ctx.Param("purchaseID"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid purchase ID: %v", err)))
		return
	}

	ownerID, err := parseUint(ctx.Query("owner_id"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid owner ID: %v", err)))
		return
	}

	page := parseIntOrDefault(ctx.Query("page"), 1)
	perPage := parseIntOrDefault(ctx.Query("per_page"), 0)

	status, err := h.svc.GetStatus(ctx.Request.Context(), purchaseID, ownerID, page, perPage)
	if err != nil {
		h.renderPurchaseErr(ctx, "HandleStatus", purchaseID, err)
		return
	}

	ctx.JSON(http.StatusOK, response.NewPurchaseStatus(status))
}

// HandleLatestPurchase godoc
// @Summary      Get the latest completed purchase
// @Tags         tickets
// @Produce      json
// @Param        owner_id  query     int  true  "Owner ID"
// @Success      200       {object}  response.LatestPurchaseResponse
// @Failure      400       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/latest-purchase [get]
func (h *TicketHandler) HandleLatestPurchase(ctx *gin.Context) {
	ownerID, err := parseUint(ctx.Query("owner_id"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid owner ID: %v", err)))
		return
	}

	purchaseID, err := h.svc.LatestCompletedPurchase(ctx.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, service.ErrPurchaseNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("completed purchase", "ownerID", ownerID))
			return
		}

		err = fmt.Errorf("HandleLatestPurchase -> h.svc.LatestCompletedPurchase -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.LatestPurchaseResponse{PurchaseID: purchaseID})
}

// HandleAllTickets godoc
// @Summary      List all tickets of a completed purchase
// @Description  Returns every ticket of the purchase, winners first
// @Tags         tickets
// @Produce      json
// @Param        purchaseID  path      int  true  "Purchase ID"
// @Param        owner_id    query     int  true  "Owner ID"
// @Success      200         {object}  response.PurchaseTicketsResponse
// @Failure      400         {object}  response.Err
// @Failure      403         {object}  response.Err
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /tickets/all/{purchaseID} [get]
func (h *TicketHandler) HandleAllTickets(ctx *gin.Context) {
	purchaseID, err := parseUint(ctx.Param("purchaseID"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid purchase ID: %v", err)))
		return
	}

	ownerID, err := parseUint(ctx.Query("owner_id"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid owner ID: %v", err)))
		return
	}

	lines, err := h.svc.ListTickets(ctx.Request.Context(), purchaseID, ownerID)
	if err != nil {
		h.renderPurchaseErr(ctx, "HandleAllTickets", purchaseID, err)
		return
	}

	ctx.JSON(http.StatusOK, response.PurchaseTicketsResponse{
		Tickets: response.NewTicketLines(lines),
	})
}

// HandleAllOwnerTickets godoc
// @Summary      List all tickets across an owner's purchases
// @Description  Returns every ticket from the owner's completed purchases, winners first, newest purchases first within each group
// @Tags         tickets
// @Produce      json
// @Param        owner_id  query     int  true  "Owner ID"
// @Success      200       {object}  response.OwnedTicketsResponse
// @Failure      400       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /tickets/all-user-tickets [get]
func (h *TicketHandler) HandleAllOwnerTickets(ctx *gin.Context) {
	ownerID, err := parseUint(ctx.Query("owner_id"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid owner ID: %v", err)))
		return
	}

	tickets, err := h.svc.ListAllTicketsForOwner(ctx.Request.Context(), ownerID)
	if err != nil {
		err = fmt.Errorf("HandleAllOwnerTickets -> h.svc.ListAllTicketsForOwner -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	totalWinnings, err := h.svc.TotalWinningsForOwner(ctx.Request.Context(), ownerID)
	if err != nil {
		err = fmt.Errorf("HandleAllOwnerTickets -> h.svc.TotalWinningsForOwner -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewOwnedTickets(tickets, totalWinnings))
}

func (h *TicketHandler) renderPurchaseErr(ctx *gin.Context, op string, purchaseID uint, err error) {
	switch {
	case errors.Is(err, service.ErrPurchaseNotFound):
		response.RenderErr(ctx, response.ErrNotFound("purchase", "purchaseID", purchaseID))
	case errors.Is(err, service.ErrResultNotFound):
		response.RenderErr(ctx, response.ErrNotFound("draw result", "purchaseID", purchaseID))
	case errors.Is(err, service.ErrNotOwner):
		response.RenderErr(ctx, response.ErrPermissionDenied(err))
	default:
		err = fmt.Errorf("%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

func parseUint(raw string) (uint, error) {
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}

	return uint(parsed), nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return parsed
}
