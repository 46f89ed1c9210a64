package api

import (
	"errors"
	"io"
	"net/http"
)

// PaddleSignatureHeader carries the webhook signature.
const PaddleSignatureHeader = "Paddle-Signature"

func (h *Handler) paddleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = ErrPayloadTooLarge
		}
		h.fail(w, r, err)
		return
	}

	if err := h.subscriptions.HandleWebhook(r.Context(), payload, r.Header.Get(PaddleSignatureHeader)); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"received": true})
}
