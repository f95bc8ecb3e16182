package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openslot/openslot-backend/internal/pkg/apperror"
	"github.com/openslot/openslot-backend/internal/pkg/response"
	"github.com/openslot/openslot-backend/internal/webhook"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Webhook-Signature"

// maxBodyBytes caps webhook payloads at 1 MiB. Real provider events are a
// few KB; anything larger is rejected before it reaches the processor.
const maxBodyBytes = 1 << 20

type Handler struct {
	processor *webhook.Processor
}

func NewHandler(processor *webhook.Processor) *Handler {
	return &Handler{processor: processor}
}

// Receive acknowledges a delivery with {"received": true} only after the
// event is safely in the ledger. Any error status tells the provider to
// redeliver.
func (h *Handler) Receive(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.KindValidationFailed, "could not read webhook body"))
		return
	}

	provider := c.Param("provider")
	signature := c.GetHeader(SignatureHeader)

	if err := h.processor.Process(c.Request.Context(), provider, body, signature); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
