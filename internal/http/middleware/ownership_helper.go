package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

var errMalformedIDs = errors.New("malformed entity ids")

// extractIDs reads entity ids from the request as described by the rule.
// Path, query and header values are comma separated lists; a body field may
// be a number or an array of numbers.
func extractIDs(c *gin.Context, source, paramName string) ([]uint, error) {
	switch source {
	case "path":
		return parseIDList(c.Param(paramName))
	case "query":
		return parseIDList(c.Query(paramName))
	case "header":
		return parseIDList(c.GetHeader(paramName))
	case "body":
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		// restore the body for the handler
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var body map[string]json.RawMessage
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			return nil, errMalformedIDs
		}
		raw, ok := body[paramName]
		if !ok {
			return nil, nil
		}
		var many []uint
		if err := json.Unmarshal(raw, &many); err == nil {
			return many, nil
		}
		var one uint
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, errMalformedIDs
		}
		return []uint{one}, nil
	}
	return nil, errMalformedIDs
}

func parseIDList(s string) ([]uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, errMalformedIDs
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
