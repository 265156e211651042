package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xraph/forge"

	"github.com/xraph/keeper"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if isBadInput(err) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, keeper.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, keeper.ErrItemNotFound) ||
		errors.Is(err, keeper.ErrUserNotFound) ||
		errors.Is(err, keeper.ErrListNotFound) ||
		errors.Is(err, keeper.ErrSessionNotFound) ||
		errors.Is(err, keeper.ErrCheckLogNotFound)
}

func isBadInput(err error) bool {
	return errors.Is(err, keeper.ErrInvalidField) ||
		errors.Is(err, keeper.ErrReadOnlyField) ||
		errors.Is(err, keeper.ErrInvalidReference) ||
		errors.Is(err, keeper.ErrDuplicateEmail) ||
		errors.Is(err, keeper.ErrUnknownOperation) ||
		errors.Is(err, keeper.ErrUserList)
}

// validateRequest checks the validate tags of a request DTO and reports
// the failing fields as a bad request.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return forge.BadRequest(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return forge.BadRequest("invalid request: " + strings.Join(msgs, "; "))
}

// errorBody is written for statuses Forge has no error constructor for.
type errorBody struct {
	Error string `json:"error"`
}

func unauthorized(ctx forge.Context, msg string) error {
	return ctx.JSON(http.StatusUnauthorized, errorBody{Error: msg})
}
