package handler

import galleryservice "sd-gallery-server/internal/modules/gallery/service"

type Options struct {
	MaxUploadBytes  int64
	DefaultPageSize int
}

type Handler struct {
	galleryService *galleryservice.Service
	opts           Options
}

func New(galleryService *galleryservice.Service, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 9
	}
	return &Handler{galleryService: galleryService, opts: opts}
}
