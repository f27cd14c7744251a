package server

import (
	"net/http"
	"strings"

	checkoutdomain "github.com/Gizz1e/Gizzle/internal/checkout/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateSubscriptionCheckout(c *gin.Context) {
	planID := strings.TrimSpace(c.Query("plan_id"))
	if planID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.checkoutSvc.CreateSubscriptionCheckout(c.Request.Context(), checkoutdomain.CreateRequest{
		PlanID:   planID,
		Origin:   callerOrigin(c),
		MemberID: memberID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("session_id", result.SessionID)
	c.JSON(http.StatusOK, gin.H{
		"checkout_url": result.CheckoutURL,
		"session_id":   result.SessionID,
		"plan":         result.Plan,
	})
}

func (s *Server) CreatePurchaseCheckout(c *gin.Context) {
	itemID := strings.TrimSpace(c.Query("item_id"))
	if itemID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.checkoutSvc.CreatePurchaseCheckout(c.Request.Context(), checkoutdomain.CreateRequest{
		ItemID:   itemID,
		Origin:   callerOrigin(c),
		MemberID: memberID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("session_id", result.SessionID)
	c.JSON(http.StatusOK, gin.H{
		"checkout_url": result.CheckoutURL,
		"session_id":   result.SessionID,
		"item":         result.Item,
	})
}
