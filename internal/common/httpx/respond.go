package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"crustalyst/internal/domain"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// WriteJSON отдаёт JSON с нужным статусом
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem — единый формат ошибок (RFC7807 Problem+JSON, упрощённый)
func WriteProblem(w http.ResponseWriter, code int, typ, detail string) {
	WriteJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

// WriteError maps domain errors onto problem responses. Anything unknown is a 500
// whose detail is hidden from the client.
func WriteError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		WriteProblem(w, http.StatusBadRequest, "validation_error", describe(verrs))
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrItemUnavailable),
		errors.Is(err, domain.ErrInvalidQuantity):
		WriteProblem(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrTableNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrOrderItemNotFound),
		errors.Is(err, domain.ErrMenuItemNotFound),
		errors.Is(err, domain.ErrNotificationMissing):
		WriteProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrTableUnavailable),
		errors.Is(err, domain.ErrNothingToPay):
		WriteProblem(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrInsufficientPayment):
		WriteProblem(w, http.StatusUnprocessableEntity, "insufficient_payment", err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidPassword):
		WriteProblem(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		WriteProblem(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// Bind decodes a JSON body into dst and runs struct validation.
func Bind(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return validate.Struct(dst)
}

// BindOrProblem writes the 400 itself and reports whether the handler may continue.
func BindOrProblem(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := Bind(r, dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			WriteError(w, err)
		} else {
			WriteProblem(w, http.StatusBadRequest, "invalid_json", err.Error())
		}
		return false
	}
	return true
}

// IDParam reads a positive integer route parameter.
func IDParam(r *http.Request, key string) (int, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return id, nil
}

// AtoiDefault — безопасный парсер int с дефолтом
func AtoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}

func describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
