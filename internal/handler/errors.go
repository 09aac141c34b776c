package handler

import (
	"errors"
	"net/http"
	"strconv"

	"invoicedesk/internal/auth"
	"invoicedesk/internal/billing"
	"invoicedesk/internal/middleware"
	"invoicedesk/internal/service"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CommitFailure is the error payload of a failed commit.
type CommitFailure struct {
	response.Response
	Step          string `json:"step"`
	InvoiceID     string `json:"invoice_id,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, billing.ErrInsufficientStock), errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, billing.ErrAuthRequired),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case service.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, billing.ErrInvalidAmount),
		errors.Is(err, billing.ErrMissingBuyerField),
		errors.Is(err, billing.ErrEmptyItemList),
		errors.Is(err, billing.ErrIndexOutOfRange),
		errors.Is(err, billing.ErrInvalidStatus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError renders err in the response envelope. Commit failures also carry
// the failing step and the invoice created before it, if any.
func writeError(c *gin.Context, err error) {
	var commitErr *billing.CommitError
	if errors.As(err, &commitErr) && commitErr.Step != billing.StepValidate {
		code := http.StatusInternalServerError
		body := CommitFailure{
			Response: response.Error(code, err.Error()),
			Step:     string(commitErr.Step),
		}
		if commitErr.PartiallyCreated() {
			body.InvoiceID = commitErr.InvoiceID.String()
			body.InvoiceNumber = commitErr.InvoiceNumber
		}
		c.JSON(code, body)
		return
	}

	code := statusFor(err)
	response.Fail(c, code, err.Error())
}

func badRequest(c *gin.Context, err error) {
	response.Fail(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
}

// currentUser aborts with 401 when the request carries no user.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.UserID(c)
	if id == uuid.Nil {
		writeError(c, billing.ErrAuthRequired)
		return uuid.Nil, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid index format")
		return 0, false
	}
	return index, true
}
