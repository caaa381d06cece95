package pipeline

import (
	"fmt"
	"time"
)

const (
	BackendProcedural = "procedural"
	BackendRemote     = "remote"
)

// Backend 同时提供加载与设备探测的后端
type Backend interface {
	Loader
	DeviceProber
}

// NewBackend 按配置名称创建后端
func NewBackend(name, upstreamURL string, timeout time.Duration) (Backend, error) {
	switch name {
	case "", BackendProcedural:
		return NewProceduralLoader(), nil
	case BackendRemote:
		if upstreamURL == "" {
			return nil, fmt.Errorf("%w: remote 后端需要 upstream_url", ErrUnsupportedBackend)
		}
		return NewRemoteLoader(upstreamURL, timeout), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, name)
	}
}
