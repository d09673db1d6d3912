package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")
	ErrTransactionFailure  = fmt.Errorf("transaction failure")

	// Ошибки оформления заказа
	ErrNoLinkedAccount   = fmt.Errorf("no customer account linked to this user")
	ErrInvalidQuantity   = fmt.Errorf("quantity must be a positive integer")
	ErrProductNotFound   = fmt.Errorf("product not found")
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrOrderNotFound     = fmt.Errorf("order not found")

	// Ошибки аутентификации
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrUsernameTaken      = fmt.Errorf("username already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")
	ErrUnauthorized       = fmt.Errorf("authentication required")
	ErrForbidden          = fmt.Errorf("insufficient permissions")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrMissingFields        = fmt.Errorf("required fields are missing")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidRating        = fmt.Errorf("rating must be between 0 and 5")
	ErrInvalidStock         = fmt.Errorf("stock must be a non-negative integer")
	ErrProductNameRequired  = fmt.Errorf("product name is required")
	ErrPasswordTooShort     = fmt.Errorf("password must be at least 6 characters long")
	ErrPasswordMismatch     = fmt.Errorf("passwords do not match")
	ErrTooManyImages        = fmt.Errorf("too many images")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrNoImages             = fmt.Errorf("no images provided")

	// 409 Conflict
	ErrProductReferenced = fmt.Errorf("product is referenced by existing orders")

	ErrInternalServerError  = fmt.Errorf("internal server error")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// InsufficientStockError несёт доступный остаток для ответа пользователю.
// errors.Is(err, ErrInsufficientStock) == true за счёт Unwrap.
type InsufficientStockError struct {
	ProductID int64
	Available int64
}

func (i *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: only %d available", i.ProductID, i.Available)
}

func (i *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

func NewInsufficientStockError(productID, available int64) *InsufficientStockError {
	return &InsufficientStockError{ProductID: productID, Available: available}
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapTransaction помечает ошибку хранилища как ErrTransactionFailure.
// Детали остаются в цепочке для логов, наружу уходит общий вид ошибки.
func WrapTransaction(err error) error {
	return fmt.Errorf("%w: %w", ErrTransactionFailure, err)
}
