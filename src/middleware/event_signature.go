package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// EventSignatureHeader carries "sha256=<hex hmac of body>" on event ingress
const EventSignatureHeader = "X-Event-Signature"

// MaxSignedBodySize caps how much of an event body is read for verification
const MaxSignedBodySize = 1 << 20 // 1MB

// EventSignatureMiddleware rejects event ingress requests whose body is not
// signed with secret. When disabled it passes everything through.
func EventSignatureMiddleware(secret string, enabled bool) gin.HandlerFunc {
	if !enabled {
		log.Warn().Msg("Event signature verification is disabled, anyone who can reach /events can fire webhooks")
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		signature := c.GetHeader(EventSignatureHeader)
		if signature == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing " + EventSignatureHeader + " header",
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxSignedBodySize)
		body, err := c.GetRawData()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "payload too large (max 1MB)",
			})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "failed to read request body",
			})
			return
		}

		if !verifyEventSignature(body, signature, secret) {
			log.Warn().
				Str("request_id", GetRequestID(c)).
				Str("client_ip", c.ClientIP()).
				Msg("Rejected event with invalid signature")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid event signature",
			})
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

func verifyEventSignature(body []byte, signature, secret string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}
