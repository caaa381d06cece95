package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RemoteLoader 通过 HTTP 驱动上游的生成服务，模型权重驻留在上游进程的设备上。
type RemoteLoader struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteLoader(baseURL string, timeout time.Duration) *RemoteLoader {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &RemoteLoader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Devices GET /v1/devices
func (l *RemoteLoader) Devices(ctx context.Context) ([]Device, error) {
	var result struct {
		Devices []Device `json:"devices"`
	}
	if err := l.doJSON(ctx, http.MethodGet, "/v1/devices", nil, &result); err != nil {
		return nil, err
	}
	return result.Devices, nil
}

// Load POST /v1/pipelines
func (l *RemoteLoader) Load(ctx context.Context, spec ModelSpec, device Device) (Pipeline, error) {
	body := map[string]string{
		"model_id":   spec.ID,
		"repository": spec.Repository,
		"device":     string(device),
		"dtype":      spec.DType,
		"scheduler":  spec.Scheduler,
	}
	var result struct {
		PipelineID string `json:"pipeline_id"`
	}
	if err := l.doJSON(ctx, http.MethodPost, "/v1/pipelines", body, &result); err != nil {
		return nil, err
	}
	if result.PipelineID == "" {
		return nil, fmt.Errorf("upstream returned empty pipeline_id")
	}
	return &remotePipeline{loader: l, id: result.PipelineID}, nil
}

type remotePipeline struct {
	loader *RemoteLoader
	id     string
}

// Generate POST /v1/pipelines/{id}/generate，响应体为 PNG
func (p *remotePipeline) Generate(ctx context.Context, req Request) (image.Image, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	path := "/v1/pipelines/" + url.PathEscape(p.id) + "/generate"
	resp, err := p.loader.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	img, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode png: %w", err)
	}
	return img, nil
}

// Close DELETE /v1/pipelines/{id}
func (p *remotePipeline) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	resp, err := p.loader.do(ctx, http.MethodDelete, "/v1/pipelines/"+url.PathEscape(p.id), nil)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (l *RemoteLoader) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	resp, err := l.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do 发送请求，非 2xx 响应转换为错误；507 视为设备内存不足
func (l *RemoteLoader) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusInsufficientStorage {
		return nil, fmt.Errorf("%w: %s", ErrOutOfMemory, strings.TrimSpace(string(msg)))
	}
	return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
