// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2025 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package tpm provides a TPM2 command transport over an IEEE1275 client
// interface, relaying already-encoded TPM2 command and response buffers
// through the virtual TPM device node that firmware exposes during early
// boot. It does not implement any TPM2 command encoding itself.
package tpm

import (
	"bytes"

	"github.com/canonical/go-ieee1275"
)

const (
	// DevicePath is the well-known device tree path of the virtual TPM
	// node.
	DevicePath = "/vdevice/vtpm"

	// CompatibleTPM20 is the value of the "compatible" device tree
	// property advertised by TPM 2.0 virtual devices.
	CompatibleTPM20 = "IBM,vtpm20"

	methodGetMaximumCmdSize = "get-maximum-cmd-size"
	methodPassThroughToTPM  = "pass-through-to-tpm"

	compatiblePropertySize = 20
)

// InterfaceVersion identifies the TPM interface version the virtual device
// speaks.
type InterfaceVersion uint8

const (
	// InterfaceVersionLegacy is the default, for devices that don't
	// advertise a TPM 2.0 compatibility string.
	InterfaceVersionLegacy InterfaceVersion = 0

	// InterfaceVersionTPM2 is negotiated during initialization for
	// devices whose "compatible" property is exactly CompatibleTPM20.
	InterfaceVersionTPM2 InterfaceVersion = 2
)

// Device represents a single boot session with the virtual TPM device node.
// The device is opened at most once for the life of the session and is
// never closed. All operations are strictly synchronous and each firmware
// call is attempted exactly once.
//
// Device is not safe for concurrent use, which matches the single-threaded
// execution model of the boot environment it targets.
type Device struct {
	client *ieee1275.Client

	ihandle     ieee1275.IHandle
	version     InterfaceVersion
	initialized bool

	maxSizeWarned bool
	submitWarned  bool
}

// NewDevice returns a device session that reaches firmware through the
// supplied entry point. Nothing is opened until the first operation runs.
func NewDevice(entry ieee1275.Entry) *Device {
	return &Device{client: ieee1275.NewClient(entry)}
}

// Initialize opens the virtual TPM device node and detects the interface
// version it speaks. It runs its device-open logic exactly once per
// session: calling it again after success is a no-op returning nil, and
// calling it again after a failed open returns ErrUnknownDevice without
// attempting the open again. It is called implicitly by every other
// operation.
func (d *Device) Initialize() error {
	return d.ensureInitialized()
}

func (d *Device) ensureInitialized() error {
	if !d.initialized {
		d.initialized = true
		ihandle, err := d.client.Open(DevicePath)
		if err != nil {
			d.ihandle = ieee1275.IHandleInvalid
		} else {
			d.ihandle = ihandle
			d.detectInterfaceVersion()
		}
	}
	if d.ihandle == ieee1275.IHandleInvalid {
		return ErrUnknownDevice
	}
	return nil
}

// detectInterfaceVersion is best-effort: if the node cannot be resolved or
// the property cannot be read, the version stays at its default and
// initialization still succeeds.
func (d *Device) detectInterfaceVersion() {
	phandle, err := d.client.FindDevice(DevicePath)
	if err != nil {
		return
	}
	buf := make([]byte, compatiblePropertySize)
	n, err := d.client.GetProperty(phandle, "compatible", buf)
	if err != nil {
		return
	}
	if n > len(buf) {
		n = len(buf)
	}
	compatible := buf[:n]
	if i := bytes.IndexByte(compatible, 0); i >= 0 {
		compatible = compatible[:i]
	}
	if string(compatible) == CompatibleTPM20 {
		d.version = InterfaceVersionTPM2
	}
}

// InterfaceVersion returns the interface version detected during
// initialization. It starts at InterfaceVersionLegacy and is upgraded at
// most once, when initialization finds a device advertising CompatibleTPM20.
func (d *Device) InterfaceVersion() InterfaceVersion {
	return d.version
}

// Handle returns the firmware handle of the opened virtual TPM node, or
// ieee1275.IHandleInvalid if the device has not been opened successfully.
// Callers invoking additional device methods, such as event log extension,
// use this handle.
func (d *Device) Handle() ieee1275.IHandle {
	return d.ihandle
}

// GetMaxOutputSize asks the firmware for the maximum command buffer size
// the TPM back end accepts, using the "get-maximum-cmd-size" device method.
// The returned size is reported verbatim with no sanity bounds - callers
// must validate it before allocating buffers.
//
// If the firmware lacks the method, the first call returns a BadDeviceError
// and subsequent calls return ErrInvalidCommand.
func (d *Device) GetMaxOutputSize() (int, error) {
	if err := d.ensureInitialized(); err != nil {
		return 0, err
	}

	result, err := d.client.CallMethod(methodGetMaximumCmdSize, d.ihandle, nil, 1)
	if err != nil {
		return 0, ErrInvalidCommand
	}
	if result.Caught {
		if !d.maxSizeWarned {
			d.maxSizeWarned = true
			return 0, &BadDeviceError{Method: methodGetMaximumCmdSize}
		}
		return 0, ErrInvalidCommand
	}

	return int(result.Rets[0]), nil
}

// SubmitCommand hands the TPM2 command in input to the firmware using the
// "pass-through-to-tpm" device method, copies the response into output and
// returns the response length. The firmware back end writes its response
// over the memory region it read the command from, so the response is
// copied out of the input buffer - callers that pass the same slice for
// both parameters observe the in-place overwrite directly. The caller is
// responsible for sizing output to receive up to the maximum output size;
// no capacity check is performed here.
//
// Empty buffers fail with ErrBadArgument before any firmware call. The
// unsupported-method policy matches GetMaxOutputSize, tracked
// independently per method.
func (d *Device) SubmitCommand(input, output []byte) (int, error) {
	if len(input) == 0 || len(output) == 0 {
		return 0, ErrBadArgument
	}
	if err := d.ensureInitialized(); err != nil {
		return 0, err
	}

	n, err := d.submit(input, len(input))
	if err != nil {
		return 0, err
	}

	copy(output, input[:n])
	return n, nil
}

// submit performs the pass-through call. buf is the memory region handed to
// the firmware and cmdLen the length of the command at the front of it. The
// reported response length cannot exceed the region.
func (d *Device) submit(buf []byte, cmdLen int) (int, error) {
	args := []ieee1275.Cell{
		ieee1275.IntCell(cmdLen),
		ieee1275.BufferCell(buf),
	}
	result, err := d.client.CallMethod(methodPassThroughToTPM, d.ihandle, args, 1)
	if err != nil {
		return 0, ErrInvalidCommand
	}
	if result.Caught {
		if !d.submitWarned {
			d.submitWarned = true
			return 0, &BadDeviceError{Method: methodPassThroughToTPM}
		}
		return 0, ErrInvalidCommand
	}

	n := int(result.Rets[0])
	if n > len(buf) {
		n = len(buf)
	}
	return n, nil
}
