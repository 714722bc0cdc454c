package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/offlinefoundation/core/pkg/api"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is
// written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, resp api.Response) {
	api.JSON(w, status, resp)
}

func healthyResponse(data interface{}) api.Response {
	return api.HealthyResponse(data)
}

func unhealthyResponse(errMsg string) api.Response {
	return api.UnhealthyResponse(errMsg)
}

func unhealthyResponseWithData(data interface{}) api.Response {
	resp := api.UnhealthyResponse("")
	resp.Data = data
	return resp
}

// BadRequest writes a 400 response with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, api.ErrorResponse(msg))
}

// NotFound writes a 404 response with the given message.
func NotFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, api.ErrorResponse(msg))
}

// Unauthorized writes a 401 response with the given message.
func Unauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, api.ErrorResponse(msg))
}

// Conflict writes a 409 response with the given message.
func Conflict(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusConflict, api.ErrorResponse(msg))
}

// InternalServerError writes a 500 response with the given message.
func InternalServerError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, api.ErrorResponse(msg))
}
