package handler

import generationservice "sd-gallery-server/internal/modules/generation/service"

type Handler struct {
	generationService *generationservice.Service
}

func New(generationService *generationservice.Service) *Handler {
	return &Handler{generationService: generationService}
}
