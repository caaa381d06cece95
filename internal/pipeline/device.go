package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCUDA Device = "cuda"
	DeviceMPS  Device = "mps"
	DeviceCPU  Device = "cpu"
)

// devicePreference auto 模式下的选择顺序
var devicePreference = []Device{DeviceCUDA, DeviceMPS, DeviceCPU}

// DeviceProber 报告后端可用的计算设备
type DeviceProber interface {
	Devices(ctx context.Context) ([]Device, error)
}

func ParseDevice(raw string) (Device, error) {
	d := Device(strings.ToLower(strings.TrimSpace(raw)))
	if d == "" {
		return DeviceAuto, nil
	}
	if d == DeviceAuto || slices.Contains(devicePreference, d) {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrDeviceUnavailable, raw)
}

// ResolveDevice 启动时调用一次，确定管线使用的设备
func ResolveDevice(ctx context.Context, prober DeviceProber, preferred string) (Device, error) {
	want, err := ParseDevice(preferred)
	if err != nil {
		return "", err
	}
	available, err := prober.Devices(ctx)
	if err != nil {
		return "", fmt.Errorf("probe devices: %w", err)
	}

	if want != DeviceAuto {
		if slices.Contains(available, want) {
			return want, nil
		}
		return "", fmt.Errorf("%w: %s", ErrDeviceUnavailable, want)
	}
	for _, d := range devicePreference {
		if slices.Contains(available, d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: 后端未报告任何设备", ErrDeviceUnavailable)
}
