package domain

import "errors"

// Ошибки платёжного цикла. Проверяются через errors.Is на границах транспорта.
var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrUnknownProduct   = errors.New("unknown product")
	ErrInvalidProduct   = errors.New("invalid product definition")
	ErrInvalidPayload   = errors.New("invalid invoice payload")
	ErrAmountMismatch   = errors.New("amount does not match catalog price")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyRefunded  = errors.New("payment already refunded")
	ErrUnauthorized     = errors.New("caller is not an administrator")
)

// BusinessError ошибка бизнес-логики, которая уже залогирована в UseCase
type BusinessError struct {
	Err error
}

func (e *BusinessError) Error() string {
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}
