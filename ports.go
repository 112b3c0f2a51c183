package seriallog

import (
	"fmt"
	"os"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a USB serial device that reports a serial number.
type PortInfo struct {
	SerialNumber string
	Path         string
	Product      string
	VID          string
	PID          string
}

// String formats the port as "SERIAL @ PATH".
func (p PortInfo) String() string {
	return p.SerialNumber + " @ " + p.Path
}

var listPorts = enumerator.GetDetailedPortsList

// AvailablePorts lists the USB serial devices that expose a serial number.
// Devices without one cannot be addressed by name and are skipped.
func AvailablePorts() ([]PortInfo, error) {
	details, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	var ports []PortInfo
	for _, d := range details {
		if d == nil || !d.IsUSB || d.SerialNumber == "" {
			continue
		}
		ports = append(ports, PortInfo{
			SerialNumber: d.SerialNumber,
			Path:         d.Name,
			Product:      d.Product,
			VID:          d.VID,
			PID:          d.PID,
		})
	}
	return ports, nil
}

// ResolveDevice maps a device identifier to a path. An identifier naming an
// existing file is used as is; anything else is matched against port names
// and, case-insensitively, against device serial numbers.
func ResolveDevice(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty device identifier", ErrInvalidConfig)
	}
	if _, err := os.Stat(id); err == nil {
		return id, nil
	}
	details, err := listPorts()
	if err != nil {
		return "", fmt.Errorf("enumerate serial ports: %w", err)
	}
	for _, d := range details {
		if d == nil {
			continue
		}
		// Names that are not file paths, such as COM3.
		if d.Name == id || (d.SerialNumber != "" && strings.EqualFold(d.SerialNumber, id)) {
			return d.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrPortNotFound, id)
}
