package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

type AuthHandler struct {
	authUsecase usecase.AuthUC
	logger      logger.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUC, logger logger.Logger) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase, logger: logger}
}

type registerRequest struct {
	Username        string  `json:"username"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	Name            string  `json:"name"`
	Address         *string `json:"address,omitempty"`
	Phone           *string `json:"phone,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string `json:"token"`
	Username   string `json:"username"`
	CustomerID *int64 `json:"customer_id,omitempty"`
	Role       string `json:"role"`
}

// register
//
//	@Summary		Регистрация покупателя
//	@Description	Создаёт учётную запись и привязанную карточку покупателя
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		registerRequest	true	"Данные регистрации"
//	@Success		201		{object}	map[string]interface{}
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		409		{object}	ErrorResponse	"Логин занят"
//	@Router			/auth/register [post]
func (a *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	err := a.authUsecase.Register(r.Context(), &usecase.RegisterReq{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Name:            req.Name,
		Address:         req.Address,
		Phone:           req.Phone,
	})
	if err != nil {
		a.logger.Warnf("register failed: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"registered": true,
	})
}

// login
//
//	@Summary		Вход в систему
//	@Description	Проверяет логин и пароль, возвращает JWT
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginRequest	true	"Учётные данные"
//	@Success		200		{object}	loginResponse
//	@Failure		401		{object}	ErrorResponse	"Неверные учётные данные"
//	@Router			/auth/login [post]
func (a *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := a.authUsecase.Login(r.Context(), &usecase.LoginReq{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		a.logger.Warnf("login failed for %q: %v", req.Username, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, loginResponse{
		Token:      res.Token,
		Username:   res.Username,
		CustomerID: res.CustomerID,
		Role:       res.Role,
	})
}

// me
//
//	@Summary		Текущая учётная запись
//	@Tags			auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]interface{}
//	@Failure		401	{object}	ErrorResponse
//	@Router			/auth/me [get]
func (a *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromCtx(r.Context())
	if !ok {
		WriteError(w, e.ErrUnauthorized)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id":     claims.UserID,
		"username":    claims.Username,
		"customer_id": claims.CustomerID,
		"role":        claims.Role,
	})
}
