package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-packs/pkg/simplepacks"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(err error) int {
	switch simplepacks.Kind(err) {
	case simplepacks.KindValidation:
		return http.StatusBadRequest
	case simplepacks.KindUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as an ErrorResponse with the status of its kind
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, StatusFor(err), err)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := ErrorResponse{
		Error:   simplepacks.Kind(err),
		Message: err.Error(),
	}

	var vErr *simplepacks.ValidationError
	if errors.As(err, &vErr) {
		resp.Fields = vErr.Fields
	}
	if resp.Error == simplepacks.KindInternal {
		resp.Message = "internal server error"
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
