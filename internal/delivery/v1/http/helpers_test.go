package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceToCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr error
	}{
		{"integer", "600", 60000, nil},
		{"two decimals", "599.99", 59999, nil},
		{"one decimal", "5.5", 550, nil},
		{"zero", "0", 0, nil},
		{"leading spaces", " 12.30", 1230, nil},
		{"empty", "", 0, e.ErrInvalidPrice},
		{"spaces only", "   ", 0, e.ErrInvalidPrice},
		{"not a number", "abc", 0, e.ErrInvalidPrice},
		{"negative", "-1", 0, e.ErrInvalidPrice},
		{"too large", "1000000001", 0, e.ErrInvalidPrice},
		{"three decimals", "1.999", 0, e.ErrPricePrecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePriceToCents(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToHTTPResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		code int
	}{
		{e.ErrNoLinkedAccount, http.StatusForbidden},
		{e.ErrUnauthorized, http.StatusUnauthorized},
		{e.ErrInvalidCredentials, http.StatusUnauthorized},
		{e.ErrForbidden, http.StatusForbidden},
		{e.ErrUsernameTaken, http.StatusConflict},
		{e.ErrProductNotFound, http.StatusNotFound},
		{e.ErrOrderNotFound, http.StatusNotFound},
		{e.ErrInsufficientStock, http.StatusConflict},
		{e.ErrProductReferenced, http.StatusConflict},
		{e.ErrInvalidQuantity, http.StatusBadRequest},
		{e.ErrInvalidPrice, http.StatusBadRequest},
		{e.ErrPricePrecision, http.StatusBadRequest},
		{e.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{e.ErrTransactionFailure, http.StatusInternalServerError},
		{e.ErrInternalServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			code, msg := ToHTTPResponse(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.err.Error(), msg)
		})
	}
}

// Обёрнутые в usecase ошибки отображаются так же, как голые сентинелы.
func TestToHTTPResponse_WrappedErrors(t *testing.T) {
	t.Parallel()

	code, msg := ToHTTPResponse(e.Wrap("OrderUseCase.PlaceOrder", e.ErrNoLinkedAccount))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, e.ErrNoLinkedAccount.Error(), msg)

	code, _ = ToHTTPResponse(e.Wrap("OrderUseCase.PlaceOrder", e.WrapTransaction(assert.AnError)))
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestWriteError_InsufficientStockCarriesAvailable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := e.Wrap("OrderUseCase.PlaceOrder", e.NewInsufficientStockError(42, 2))
	WriteError(rec, err)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusConflict, resp.Code)
	require.NotNil(t, resp.Available)
	assert.Equal(t, int64(2), *resp.Available)
}

func TestWriteError_PlainErrorOmitsAvailable(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, e.ErrProductNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "available")
}
