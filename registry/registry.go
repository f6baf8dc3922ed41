// Package registry holds the devices (MUTs) attached to the test host and
// answers capability queries against them. A Registry is a read-only
// snapshot: nothing in the engine mutates it after loading.
package registry

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"

	"github.com/hiltest/hiltest/config"
	"github.com/hiltest/hiltest/model"
)

var validate = validator.New()

// Registry is an ordered, immutable set of devices.
type Registry struct {
	devices []model.Device
}

// New creates a registry over a copy of devices, keeping their order.
func New(devices []model.Device) *Registry {
	return &Registry{devices: append([]model.Device(nil), devices...)}
}

// Load reads a device registry file: a JSON object mapping an arbitrary
// device index to a device record.
func Load(path string) (*Registry, error) {
	var raw map[string]map[string]interface{}
	if err := config.LoadJSON(path, &raw); err != nil {
		return nil, err
	}
	return Decode(raw)
}

// Decode converts raw registry records into a Registry. Records are ordered
// by index (numerically when every index is a number). Every invalid record
// is reported.
func Decode(raw map[string]map[string]interface{}) (*Registry, error) {
	var merr *multierror.Error
	devices := make([]model.Device, 0, len(raw))

	for _, index := range sortedIndices(raw) {
		device, err := decodeDevice(index, raw[index])
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		devices = append(devices, device)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return New(devices), nil
}

func decodeDevice(index string, record map[string]interface{}) (model.Device, error) {
	var device model.Device
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &device,
	})
	if err != nil {
		return device, err
	}
	if err := decoder.Decode(record); err != nil {
		return device, fmt.Errorf("device %s: %w", index, err)
	}
	if err := validate.Struct(&device); err != nil {
		return device, fmt.Errorf("device %s: %w", index, err)
	}
	device.Index = index
	return device, nil
}

func sortedIndices(raw map[string]map[string]interface{}) []string {
	indices := make([]string, 0, len(raw))
	numeric := true
	for index := range raw {
		if _, err := strconv.Atoi(index); err != nil {
			numeric = false
		}
		indices = append(indices, index)
	}
	sort.Slice(indices, func(i, j int) bool {
		if numeric {
			a, _ := strconv.Atoi(indices[i])
			b, _ := strconv.Atoi(indices[j])
			return a < b
		}
		return indices[i] < indices[j]
	})
	return indices
}

// Devices returns a copy of the registered devices in registry order.
func (r *Registry) Devices() []model.Device {
	return append([]model.Device(nil), r.devices...)
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.devices)
}

// FindDevice returns the first registered device whose MCU type is mcu.
// There is no load balancing and no reservation: callers rely on running
// one test at a time.
func (r *Registry) FindDevice(mcu string) (model.Device, bool) {
	for _, d := range r.devices {
		if d.MCU == mcu {
			return d, true
		}
	}
	return model.Device{}, false
}

// HasCapablePeripheralDevice reports whether some device of type mcu exposes
// every peripheral in required. An empty requirement only needs a device of
// that type to exist.
func (r *Registry) HasCapablePeripheralDevice(mcu string, required []string) bool {
	for i := range r.devices {
		d := &r.devices[i]
		if d.MCU != mcu {
			continue
		}
		if d.HasPeripherals(required) {
			return true
		}
	}
	return false
}
