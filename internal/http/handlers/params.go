package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/services"
)

func formType(c *gin.Context) string {
	return strings.TrimSpace(c.Param("formType"))
}

func idParam(c *gin.Context, name string) (uint, error) {
	raw := strings.TrimSpace(c.Param(name))
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, domainagg.Validation("http.params", fmt.Sprintf("invalid %s %q", name, raw))
	}
	return uint(n), nil
}

func optionalInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domainagg.Validation("http.params", fmt.Sprintf("invalid %s %q", name, raw))
	}
	return n, nil
}

func rangeQuery(c *gin.Context) services.RangeQuery {
	return services.RangeQuery{
		FormType: formType(c),
		From:     strings.TrimSpace(c.Query("fromDate")),
		To:       strings.TrimSpace(c.Query("toDate")),
		Machine:  strings.TrimSpace(c.Query("machine")),
	}
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return domainagg.Validation("http.bind", "invalid request body: "+err.Error())
	}
	return nil
}
