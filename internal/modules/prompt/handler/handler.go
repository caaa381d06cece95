package handler

import promptservice "sd-gallery-server/internal/modules/prompt/service"

type Handler struct {
	promptService *promptservice.Service
}

func New(promptService *promptservice.Service) *Handler {
	return &Handler{promptService: promptService}
}
