package gpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	// Register Vulkan backend for standalone devices.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Backend names accepted by OpenDevice.
const (
	BackendVulkan = "vulkan"
	BackendNoop   = "noop"
)

// Device is a standalone HAL device opened by OpenDevice.
type Device struct {
	Device   hal.Device
	Queue    hal.Queue
	Name     string
	instance hal.Instance
}

// OpenDevice opens a device on the named backend ("vulkan" or "noop").
// Discrete and integrated GPUs are preferred over other adapter types.
func OpenDevice(backend string) (*Device, error) {
	var instance hal.Instance
	switch strings.ToLower(backend) {
	case BackendNoop:
		inst, err := noop.API{}.CreateInstance(nil)
		if err != nil {
			return nil, fmt.Errorf("create noop instance: %w", err)
		}
		instance = inst
	case BackendVulkan, "":
		api, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("vulkan backend not available")
		}
		inst, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			return nil, fmt.Errorf("create instance: %w", err)
		}
		instance = inst
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	slogger().Info("flock: GPU device opened", "backend", backend, "adapter", selected.Info.Name)
	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Name:     selected.Info.Name,
		instance: instance,
	}, nil
}

// Close destroys the device and its instance.
func (d *Device) Close() {
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
		d.Queue = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
