// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/seederbot/internal/api/middleware"
	"github.com/autobrr/seederbot/internal/models"
)

const (
	maxTitleLength = 200
	minYear        = 1900
	maxYear        = 2030
	yearLookahead  = 5

	forbiddenTitleChars = `<>"'&`
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type ValidationErrors []ValidationError

func (v *ValidationErrors) add(field, message, kind string) {
	v.addAt("body", field, message, kind)
}

func (v *ValidationErrors) addAt(loc, field, message, kind string) {
	*v = append(*v, ValidationError{Field: loc + "." + field, Message: message, Type: kind})
}

// RespondValidation writes the 422 envelope listing every rejected field.
func RespondValidation(w http.ResponseWriter, r *http.Request, errs ValidationErrors) {
	log.Warn().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Interface("validation_errors", errs).
		Msg("Request validation failed")

	RespondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Status:  "error",
		Message: "Request validation failed",
		Details: map[string]any{"validation_errors": errs},
		Type:    "ValidationError",
	})
}

// decodeBody decodes a JSON body, turning syntax and type errors into field
// level validation errors.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) ValidationErrors {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dest)
	if err == nil {
		return nil
	}

	var (
		errs      ValidationErrors
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
	)

	switch {
	case errors.As(err, &typeErr):
		errs.add(typeErr.Field, fmt.Sprintf("Input should be a valid %s", typeErr.Type.String()), "type_error")
	case errors.As(err, &maxErr):
		errs = append(errs, ValidationError{Field: "body", Message: "Request body too large", Type: "too_large"})
	case errors.Is(err, io.EOF):
		errs = append(errs, ValidationError{Field: "body", Message: "Field required", Type: "missing"})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		errs = append(errs, ValidationError{Field: "body", Message: "JSON decode error", Type: "json_invalid"})
	default:
		errs = append(errs, ValidationError{Field: "body", Message: err.Error(), Type: "value_error"})
	}
	return errs
}

// GrabRequest is the webhook body. Type defaults to "movie".
type GrabRequest struct {
	Title *string `json:"title"`
	Type  string  `json:"type"`
	Year  *int    `json:"year"`
}

// Validate normalises the request in place and reports every invalid field.
func (g *GrabRequest) Validate(now time.Time) ValidationErrors {
	var errs ValidationErrors

	if g.Title == nil {
		errs.add("title", "Field required", "missing")
	} else {
		title := strings.TrimSpace(*g.Title)
		g.Title = &title
		validateTitle(&errs, "body", title)
	}

	if g.Type == "" {
		g.Type = "movie"
	}
	if g.Type != "movie" {
		errs.add("type", "Input should be 'movie'", "literal_error")
	}

	validateYear(&errs, "body", g.Year, now)

	return errs
}

// MediaRequest converts a validated request.
func (g *GrabRequest) MediaRequest() models.MediaRequest {
	req := models.MediaRequest{}
	if g.Title != nil {
		req.Title = *g.Title
	}
	if g.Year != nil {
		req.Year = *g.Year
	}
	return req
}

func validateTitle(errs *ValidationErrors, loc, title string) {
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		errs.addAt(loc, "title", "Title cannot be empty", "value_error")
		return
	case n > maxTitleLength:
		errs.addAt(loc, "title", fmt.Sprintf("Title must be at most %d characters", maxTitleLength), "value_error")
		return
	}

	if strings.ContainsAny(title, forbiddenTitleChars) {
		errs.addAt(loc, "title", "Title contains invalid characters", "value_error")
	}
}

func validateYear(errs *ValidationErrors, loc string, year *int, now time.Time) {
	if year == nil {
		return
	}
	upper := min(maxYear, now.Year()+yearLookahead)
	if *year < minYear || *year > upper {
		errs.addAt(loc, "year", fmt.Sprintf("Year must be between %d and %d", minYear, upper), "value_error")
	}
}
