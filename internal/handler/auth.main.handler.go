package handler

import (
	"net/http"

	"account-security-service/internal/usecase"
	"account-security-service/pkg/response"
)

type AuthHandler struct {
	uc     *usecase.UserUsecase
	oauth  *usecase.OAuth2Usecase
	events *usecase.SecurityEventUsecase
}

func NewAuthHandler(uc *usecase.UserUsecase, oauth *usecase.OAuth2Usecase, events *usecase.SecurityEventUsecase) *AuthHandler {
	return &AuthHandler{uc: uc, oauth: oauth, events: events}
}

func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
