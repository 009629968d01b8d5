package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/subscriber"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// MailingList manages newsletter subscriptions.
type MailingList interface {
	Subscribe(ctx context.Context, email string) (*subscriber.Subscriber, subscriber.Outcome, error)
	Unsubscribe(ctx context.Context, email string) error
}

// SubscribeHandler handles newsletter sign-ups
type SubscribeHandler struct {
	list MailingList
}

// NewSubscribeHandler creates a new subscribe handler
func NewSubscribeHandler(list MailingList) *SubscribeHandler {
	return &SubscribeHandler{list: list}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe handles POST /subscribe
func (h *SubscribeHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}

	sub, outcome, err := h.list.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	if outcome == subscriber.Reactivated {
		response.OK(c, "Subscription reactivated", sub)
		return
	}
	response.Created(c, "Subscribed successfully", sub)
}

// Unsubscribe handles DELETE /subscribe?email=
func (h *SubscribeHandler) Unsubscribe(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		response.Error(c, apperror.Validation("email is required"))
		return
	}

	if err := h.list.Unsubscribe(c.Request.Context(), email); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Unsubscribed successfully", nil)
}
