package api

import (
	"errors"
	"net/http"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/gin-gonic/gin"
)

// Error codes surfaced to clients. Each maps one branch of the domain
// error taxonomy so callers can switch on code, not message text.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeConflict           = "CONFLICT"
	CodeSoldOut            = "SOLD_OUT"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeBadRequest         = "BAD_REQUEST"
)

func respondError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":     CodeInsufficientFunds,
			"message":  insufficient.Error(),
			"required": insufficient.Required,
			"current":  insufficient.Balance,
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": CodeNotFound, "message": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"code": CodeConflict, "message": err.Error()})
	case errors.Is(err, domain.ErrSoldOut):
		c.JSON(http.StatusConflict, gin.H{"code": CodeSoldOut, "message": err.Error()})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"code": CodeEmailTaken, "message": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"code": CodeInvalidCredentials, "message": err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": CodeStoreUnavailable, "message": "store unavailable, retry later"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeBadRequest, "message": err.Error()})
	}
}
