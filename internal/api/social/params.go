// Package social exposes the feed, vote, comment, post and follow services as JSON-RPC methods.
package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/apperr"
)

// ViewerHeader carries the authenticated user id set by the gateway
const ViewerHeader = "X-User-Id"

// bind decodes named params into dst and validates its binding tags
func bind(params json.RawMessage, dst interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		params = json.RawMessage("{}")
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return apperr.InvalidArgument("invalid parameters: %v", err)
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		return apperr.InvalidArgument("%s", describe(err))
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("missing required parameter: %s", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid parameter: %s", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

// viewer returns the caller's id, uuid.Nil for anonymous requests
func viewer(c *gin.Context) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.GetHeader(ViewerHeader))
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.InvalidArgument("invalid %s header", ViewerHeader)
	}
	return id, nil
}

// actor returns the caller's id and rejects anonymous requests
func actor(c *gin.Context) (uuid.UUID, error) {
	id, err := viewer(c)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, apperr.Forbidden("authentication required")
	}
	return id, nil
}
