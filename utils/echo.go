package utils

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusResponse is the error body of every API endpoint.
type StatusResponse struct {
	Status string `json:"status"`
}

func EchoHandleGenericError(echoCtx echo.Context, err error, status int) error {
	logger.WithError(err).WithField("status", status).Error("Error handling request")
	return echoCtx.JSON(status, StatusResponse{Status: err.Error()})
}

func EchoHandleBadRequest(echoCtx echo.Context, err error) error {
	return EchoHandleGenericError(echoCtx, err, http.StatusBadRequest)
}

func EchoHandleInternalError(echoCtx echo.Context, err error) error {
	return EchoHandleGenericError(echoCtx, err, http.StatusInternalServerError)
}
