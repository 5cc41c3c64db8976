package ginserver

import (
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"quickhost/internal/domain/shared/apperr"
	"quickhost/internal/domain/shared/money"
	"quickhost/internal/infra/obs"
)

const (
	idempotencyHeader  = "Idempotency-Key"
	maxMultipartMemory = 32 << 20
)

var errCallerRequired = apperr.Permission("missing %s header", obs.UserIDHeader)

// callerID returns the user id forwarded by the auth layer. Handlers that need
// a caller fail with 403 when it is absent.
func callerID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(obs.UserIDHeader))
}

func requireCaller(c *gin.Context) (string, bool) {
	id := callerID(c)
	if id == "" {
		respondWithError(c, nil, errCallerRequired)
		return "", false
	}
	return id, true
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseIntWithDefault(raw string, fallback int) int {
	value := parseInt(raw)
	if value == 0 {
		return fallback
	}
	return value
}

func parseBool(raw string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(raw))
	return v
}

// amount is a decimal money value on the wire, accepted as "123.45" or 123.45.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	*a = amount(raw)
	return nil
}

// parse returns nil when the field was not sent.
func (a *amount) parse() (*money.Money, error) {
	if a == nil {
		return nil, nil
	}
	m, err := money.ParseAmount(string(*a))
	if err != nil {
		return nil, err
	}
	return &m, nil
}
