package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ifthenpay-gateway/internal/payment_gateway/middleware"
)

// Error codes of the administration API
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeAggregator = "AGGREGATOR_ERROR" // ifthenpay rejected the call or the breaker is open
	CodeInternal   = "INTERNAL_SERVER_ERROR"
)

// Response is the envelope of every /api/v1 answer
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, resp Response) {
	resp.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, resp)
}

func respondWithError(c *gin.Context, status int, code, message string) {
	respond(c, status, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, Response{Data: data})
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, Response{Data: data})
}

func RespondBadRequest(c *gin.Context, message string) {
	respondWithError(c, http.StatusBadRequest, CodeBadRequest, message)
}

func RespondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, CodeNotFound, message)
}

// RespondConflict covers disabled providers, duplicate references and lost version races
func RespondConflict(c *gin.Context, message string) {
	respondWithError(c, http.StatusConflict, CodeConflict, message)
}

// RespondBadGateway sends a 502 when the aggregator call failed
func RespondBadGateway(c *gin.Context, message string) {
	respondWithError(c, http.StatusBadGateway, CodeAggregator, message)
}

// RespondInternalError hides the cause; it is logged by the caller
func RespondInternalError(c *gin.Context) {
	respondWithError(c, http.StatusInternalServerError, CodeInternal, "An internal server error occurred")
}
