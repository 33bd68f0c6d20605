package services

import (
	"errors"

	"menumakers/internal/mail"
	"menumakers/internal/store"
	apperrors "menumakers/pkg/errors"
)

// Messages returned to callers for server-side faults. Causes are logged, never echoed.
const (
	msgStoreFailure    = "We could not save your request. Please try again later."
	msgDeliveryFailure = "We could not send the email. Please try again later."
	msgInvalidLogin    = "Invalid username or password"
	msgAuthRequired    = "Authentication required"
)

// storeError maps a persistence failure, translating store.ErrNotFound.
func storeError(notFoundMessage string, err error) *apperrors.AppError {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.Wrap(apperrors.ErrCodeNotFound, notFoundMessage, err)
	}
	return storeFailure(err)
}

func storeFailure(err error) *apperrors.AppError {
	return apperrors.Wrap(apperrors.ErrCodeStore, msgStoreFailure, err)
}

// deliveryError maps a transport failure.
func deliveryError(err error) *apperrors.AppError {
	if !errors.Is(err, mail.ErrDelivery) {
		err = errors.Join(mail.ErrDelivery, err)
	}
	return apperrors.Wrap(apperrors.ErrCodeDeliveryFailed, msgDeliveryFailure, err)
}

func unauthorized(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeUnauthorized, message)
}
