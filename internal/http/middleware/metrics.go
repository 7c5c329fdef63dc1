package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yungbote/disaforms-backend/internal/observability"
)

const (
	formLabelNone    = "none"
	formLabelUnknown = "unknown"
)

// Metrics records request counts and latency per route and check sheet.
// A form type the catalogue rejected (404) is folded into "unknown" so a
// client typo cannot mint new series.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		code := c.Writer.Status()
		m.ObserveAPI(c.Request.Method, route, formLabel(c, code), strconv.Itoa(code), time.Since(start))
	}
}

func formLabel(c *gin.Context, status int) string {
	form := strings.TrimSpace(c.Param(formTypeParam))
	switch {
	case form == "":
		return formLabelNone
	case status == http.StatusNotFound:
		return formLabelUnknown
	default:
		return form
	}
}
