package service

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/maktabati/pkg/query"
)

// NotFoundError names the kind of record that does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

var (
	ErrCategoryNotFound = &NotFoundError{Entity: "category"}
	ErrProductNotFound  = &NotFoundError{Entity: "product"}
	ErrOrderNotFound    = &NotFoundError{Entity: "order"}
	ErrAdminNotFound    = &NotFoundError{Entity: "admin user"}
)

var (
	ErrCategoryExists = errors.New("a category with this name already exists")
	ErrCategoryInUse  = errors.New("category is used by one or more products")
	ErrEmailTaken     = errors.New("email is already registered")
	ErrUsernameTaken  = errors.New("username is already taken")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// ErrOrderSave covers every storage failure while placing an order,
	// including a lost order-number race.
	ErrOrderSave = errors.New("failed to save order")
)

// ValidationError rejects input before any storage call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// fromQueryError lifts builder parameter errors into validation errors.
func fromQueryError(err error) error {
	var pe *query.InvalidParamError
	if errors.As(err, &pe) {
		return &ValidationError{Field: pe.Param, Message: pe.Message}
	}
	return err
}

// parseID treats a malformed identifier as a record that cannot exist.
func parseID(hex string, notFound error) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return id, nil
}
