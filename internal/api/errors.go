package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digiplay/digiplay-server/internal/models"
	"github.com/digiplay/digiplay-server/internal/service"
	"github.com/digiplay/digiplay-server/internal/store"
	"github.com/digiplay/digiplay-server/internal/updates"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnsupportedLoginType = "UNSUPPORTED_LOGIN_TYPE"
	CodeInvalidOTP           = "INVALID_OTP"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeRegistrationRequired = "REGISTRATION_REQUIRED"
	CodeAlreadyRegistered    = "ALREADY_REGISTERED"
	CodeNotFound             = "NOT_FOUND"
	CodeInsufficientBalance  = "INSUFFICIENT_BALANCE"
	CodeUnknownVersion       = "UNKNOWN_VERSION"
	CodeInternal             = "INTERNAL_ERROR"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means the error text
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, CodeValidation, ""},
	{store.ErrValidation, http.StatusBadRequest, CodeValidation, ""},
	{store.ErrInvalidKey, http.StatusBadRequest, CodeValidation, ""},
	{service.ErrUnsupportedLoginType, http.StatusBadRequest, CodeUnsupportedLoginType, "این روش ورود پشتیبانی نمی‌شود"},
	{service.ErrInvalidOTP, http.StatusUnauthorized, CodeInvalidOTP, "کد تایید نامعتبر است"},
	{service.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "احراز هویت ناموفق بود"},
	{service.ErrRegistrationRequired, http.StatusPreconditionRequired, CodeRegistrationRequired, "لطفا ابتدا ثبت نام کنید"},
	{service.ErrAlreadyRegistered, http.StatusConflict, CodeAlreadyRegistered, "این شماره قبلا ثبت شده است"},
	{store.ErrNotFound, http.StatusNotFound, CodeNotFound, "یافت نشد"},
	{store.ErrInsufficientBalance, http.StatusUnprocessableEntity, CodeInsufficientBalance, "موجودی کافی نیست"},
	{updates.ErrUnknownVersion, http.StatusConflict, CodeUnknownVersion, "نسخه نامعتبر است"},
}

// respondError writes the ErrorResponse for err. Unmapped errors are logged
// and reported as internal errors without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			message := m.message
			if message == "" {
				message = err.Error()
			}
			c.JSON(m.status, models.ErrorResponse{Status: "error", Code: m.code, Message: message})
			return
		}
	}

	h.logger.Error("internal error",
		"path", c.Request.URL.Path,
		"request_id", c.GetString(ctxRequestID),
		"err", err,
	)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Status:  "error",
		Code:    CodeInternal,
		Message: "خطای داخلی سرور",
	})
}

// bindJSON binds the request body and answers 400 when it does not validate
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    CodeValidation,
			Message: err.Error(),
		})
		return false
	}
	return true
}
