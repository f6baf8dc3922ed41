package model

import "sort"

// Device is a physically attached board (MUT) loaded from the device registry.
type Device struct {
	// Registry index the device was loaded from
	Index string `json:"-" mapstructure:"-"`
	// MCU type, matched against target names
	MCU string `json:"mcu" mapstructure:"mcu" validate:"required"`
	// Storage mount path
	Disk string `json:"disk" mapstructure:"disk" validate:"required"`
	// Communication port
	Port string `json:"port" mapstructure:"port" validate:"required"`
	// Reset strategy passed to the host test adapter
	ResetType string `json:"reset_type,omitempty" mapstructure:"reset_type"`
	// Reset timeout in seconds passed to the host test adapter
	ResetTimeout *int `json:"reset_tout,omitempty" mapstructure:"reset_tout" validate:"omitempty,gte=0"`
	// Sub path below Disk the image is copied to
	ImageDest string `json:"image_dest,omitempty" mapstructure:"image_dest"`
	// Directory below Disk holding the image selection file
	ImagesConfig string `json:"images_config,omitempty" mapstructure:"images_config"`
	// Board configuration selection file
	MoboConfig string `json:"mobo_config,omitempty" mapstructure:"mobo_config"`
	// Peripherals exposed by the board
	Peripherals []string `json:"peripherals,omitempty" mapstructure:"peripherals"`
}

// HasPeripherals reports whether the device exposes every peripheral in required.
func (d *Device) HasPeripherals(required []string) bool {
	available := make(map[string]struct{}, len(d.Peripherals))
	for _, p := range d.Peripherals {
		available[p] = struct{}{}
	}
	for _, p := range required {
		if _, ok := available[p]; !ok {
			return false
		}
	}
	return true
}

// Properties returns the device fields that are set, keyed by their registry name.
func (d *Device) Properties() map[string]interface{} {
	props := map[string]interface{}{
		"mcu":  d.MCU,
		"disk": d.Disk,
		"port": d.Port,
	}
	if d.ResetType != "" {
		props["reset_type"] = d.ResetType
	}
	if d.ResetTimeout != nil {
		props["reset_tout"] = *d.ResetTimeout
	}
	if d.ImageDest != "" {
		props["image_dest"] = d.ImageDest
	}
	if d.ImagesConfig != "" {
		props["images_config"] = d.ImagesConfig
	}
	if d.MoboConfig != "" {
		props["mobo_config"] = d.MoboConfig
	}
	if len(d.Peripherals) > 0 {
		props["peripherals"] = d.Peripherals
	}
	return props
}

// DevicePropertyOrder is the column order used when displaying devices.
var DevicePropertyOrder = []string{
	"mcu", "disk", "port", "reset_type", "reset_tout", "image_dest", "images_config", "mobo_config", "peripherals",
}

// SortedKeys returns the keys of a target matrix in lexical order.
func SortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
