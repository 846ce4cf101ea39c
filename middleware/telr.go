package middleware

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var telrSignedFields = []string{
	"tran_store", "tran_type", "tran_class", "tran_test", "tran_ref",
	"tran_prevref", "tran_firstref", "tran_order", "tran_currency",
	"tran_amount", "tran_cartid", "tran_desc", "tran_status",
	"tran_authcode", "tran_authmessage",
}

// TelrSignature is the tran_check value Telr sends with a webhook.
func TelrSignature(secret string, form url.Values) string {
	parts := []string{secret}
	for _, f := range telrSignedFields {
		parts = append(parts, strings.TrimSpace(form.Get(f)))
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// TelrWebhookAuth verifies the Telr webhook signature. Sandbox and dev modes
// skip the check.
func TelrWebhookAuth(secret, mode string, log *zap.Logger) gin.HandlerFunc {
	mode = strings.ToLower(mode)

	return func(c *gin.Context) {
		if mode == "sandbox" || mode == "dev" {
			log.Debug("telr webhook signature check skipped", zap.String("mode", mode))
			c.Next()
			return
		}
		if secret == "" {
			log.Error("telr webhook received but TELR_WEBHOOK_SECRET is not set")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "webhook not configured"})
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to parse form for signature verification"})
			return
		}

		provided := c.PostForm("tran_check")
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing tran_check signature"})
			return
		}

		calculated := TelrSignature(secret, c.Request.PostForm)
		if !strings.EqualFold(calculated, provided) {
			log.Warn("telr webhook signature mismatch", zap.String("cart_id", c.PostForm("tran_cartid")))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid webhook signature"})
			return
		}

		c.Next()
	}
}
