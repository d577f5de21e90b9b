package v1

import (
	"encoding/json"
	"net/http"
)

const (
	StatusImplementationError = "implementationError"
	StatusConflict            = "conflict"
	StatusError               = "error"
	StatusSuccess             = "success"
)

const (
	ServiceVersion = "1.0"
)

// ServiceResponse represents a general response container for payment API
// requests
type ServiceResponse struct {
	HttpStatus int `json:"-"`
	Version    string
	Status     string
	Info       string
	Response   interface{}
	Error      interface{}
}

// default service responses
var (
	ErrReadJson = ServiceResponse{
		http.StatusBadRequest,
		ServiceVersion,
		StatusImplementationError,
		"could not read request",
		nil,
		"JSON decoding error",
	}
	ErrInval = ServiceResponse{
		http.StatusBadRequest,
		ServiceVersion,
		StatusImplementationError,
		"invalid value",
		nil,
		"invalid value",
	}
	ErrConflict = ServiceResponse{
		http.StatusConflict,
		ServiceVersion,
		StatusConflict,
		"conflicting payment attempt",
		nil,
		"conflicting payment attempt",
	}
	ErrDatabase = ServiceResponse{
		http.StatusInternalServerError,
		ServiceVersion,
		StatusError,
		"database error",
		nil,
		"database error",
	}
	ErrSystem = ServiceResponse{
		http.StatusInternalServerError,
		ServiceVersion,
		StatusError,
		"internal error",
		nil,
		"internal error",
	}
	ErrNotFound = ServiceResponse{
		http.StatusNotFound,
		ServiceVersion,
		StatusError,
		"resource not found",
		nil,
		"resource not found",
	}
)

func (sr *ServiceResponse) Write(w http.ResponseWriter) error {
	// set default http states
	if sr.HttpStatus == 0 && sr.Status == StatusSuccess && sr.Error == nil {
		sr.HttpStatus = http.StatusOK
	} else if sr.HttpStatus == 0 {
		sr.HttpStatus = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(sr.HttpStatus)

	je := json.NewEncoder(w)
	return je.Encode(sr)
}
