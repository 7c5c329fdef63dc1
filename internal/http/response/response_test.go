package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
)

func TestRespondErrMapsCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domainagg.Validation("op", "bad date"), http.StatusBadRequest, "validation"},
		{domainagg.NotFound("op", "gone"), http.StatusNotFound, "not_found"},
		{domainagg.NewError(domainagg.CodeConflict, "op", "taken", nil), http.StatusConflict, "conflict"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondErr(c, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("status: want=%d got=%d", tc.status, rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Error.Code != tc.code || env.Error.Message == "" {
			t.Fatalf("envelope: want code=%s got=%+v", tc.code, env.Error)
		}
	}
}
