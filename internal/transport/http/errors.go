package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aouyang1/go-regress/distrib"
	"github.com/aouyang1/go-regress/internal/apierrors"
	"github.com/aouyang1/go-regress/internal/sheet"
	"github.com/aouyang1/go-regress/internal/store"
)

// domainErrors maps workbook, storage and distribution errors to client errors.
func domainErrors(err error) *apierrors.APIError {
	var nonNumeric *sheet.NonNumericError
	if errors.As(err, &nonNumeric) {
		return apierrors.NewWithDetails(http.StatusBadRequest, "NON_NUMERIC_COLUMN", err.Error(), map[string]any{
			"column": nonNumeric.Column,
			"rows":   nonNumeric.Rows,
		})
	}
	var missing *sheet.MissingColumnError
	if errors.As(err, &missing) {
		return apierrors.NewWithDetails(http.StatusBadRequest, "MISSING_COLUMN", err.Error(), map[string]any{
			"column": missing.Column,
		})
	}

	switch {
	case errors.Is(err, sheet.ErrUnreadable), errors.Is(err, sheet.ErrNoSheets), errors.Is(err, sheet.ErrEmptySheet):
		return apierrors.BadRequest("UNREADABLE_WORKBOOK", err)
	case errors.Is(err, sheet.ErrNoXColumns):
		return apierrors.BadRequest("MISSING_X_COLUMNS", err)
	case errors.Is(err, store.ErrNotFound):
		return apierrors.NotFound("file")
	case errors.Is(err, store.ErrNoSessionFile):
		return apierrors.New(http.StatusBadRequest, "NO_SESSION_FILE", "no saved file for this session, upload a workbook first")
	case errors.Is(err, store.ErrInvalidID):
		return apierrors.BadRequest("INVALID_SESSION", err)
	case errors.Is(err, distrib.ErrUnknownDistribution):
		return apierrors.NewWithDetails(http.StatusNotFound, "UNKNOWN_DISTRIBUTION", err.Error(), distrib.Names)
	case errors.Is(err, distrib.ErrInvalidParameter),
		errors.Is(err, distrib.ErrUnknownTail),
		errors.Is(err, distrib.ErrNothingToEvaluate):
		return apierrors.BadRequest("INVALID_PARAMETER", err)
	}
	return nil
}

// validationError converts validator failures into field level messages.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierrors.InvalidRequestWithError(err)
	}
	out := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	return apierrors.Validation(out)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "lte":
		return fe.Field() + " must be at most " + fe.Param()
	case "ltfield":
		return fe.Field() + " must be less than " + fe.Param()
	}
	return fe.Field() + " failed " + fe.Tag() + " validation"
}
