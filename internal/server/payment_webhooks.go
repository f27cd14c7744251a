package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	headerStripeSignature = "Stripe-Signature"
	maxWebhookBodyBytes   = 1 << 20
)

func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			AbortWithError(c, fmt.Errorf("%w: webhook body over %d bytes", ErrPayloadTooLarge, tooLarge.Limit))
			return
		}
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.reconciler.HandleWebhook(c.Request.Context(), payload, c.GetHeader(headerStripeSignature)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
