package dto

import "sd-gallery-server/internal/pipeline"

type SystemInfoResponse struct {
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
}

type ServerStatsResponse struct {
	ImageCount     int64                   `json:"image_count"`
	StorageUsage   int64                   `json:"storage_usage"`
	UserCount      int64                   `json:"user_count"`
	Device         pipeline.Device         `json:"device"`
	ResidentModels []pipeline.ResidentInfo `json:"resident_models"`
	SystemInfo     SystemInfoResponse      `json:"system_info"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version"`
}
