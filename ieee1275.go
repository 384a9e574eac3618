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

// Package ieee1275 provides access to services exposed by an IEEE1275 (Open
// Firmware) client interface, for use by boot components running before any
// operating system or driver stack exists.
//
// Services are invoked by constructing a call frame describing a named
// service with a fixed number of input and output argument cells, and
// dispatching it through the firmware entry point. The entry point itself is
// abstracted by the [Entry] interface - the native entry stub is supplied by
// the embedding boot environment, and tests supply doubles.
package ieee1275

import (
	"errors"
)

// IHandle is an opaque firmware-assigned identifier for an opened device
// node. It is either IHandleInvalid or the value returned by a successful
// open, and is never explicitly closed - the boot process terminates or
// hands the device off to the next stage.
type IHandle uint32

// IHandleInvalid is never returned by a successful open.
const IHandleInvalid IHandle = 0

// PHandle is an opaque firmware-assigned identifier for a device tree node
// resolved by path.
type PHandle uint32

// Cell is a single argument cell in a call frame.
type Cell interface {
	isCell()
}

// IntCell is a numeric argument cell.
type IntCell uint

// StringCell is an argument cell that addresses a NUL-terminated string,
// such as a service method name or a device tree path.
type StringCell string

// BufferCell is an argument cell that addresses a caller-supplied buffer.
// The firmware may both read from and write to the buffer.
type BufferCell []byte

func (IntCell) isCell()    {}
func (StringCell) isCell() {}
func (BufferCell) isCell() {}

// Entry corresponds to the firmware client interface entry point. Call
// transfers control to the firmware with the supplied call frame and blocks
// until the firmware returns. A returned error indicates that the dispatch
// mechanism itself failed - the native convention signals this with a bare
// sentinel return value and provides no further detail - and none of the
// frame's result cells can be trusted in that case.
//
// Calls cannot be cancelled or timed out. Firmware is trusted to return.
type Entry interface {
	Call(frame *Frame) error
}

var (
	// ErrCallFailed indicates that the firmware entry point signalled a
	// dispatch-level failure for a call frame.
	ErrCallFailed = errors.New("firmware entry point call failed")

	// ErrDeviceNotFound indicates that no device tree node exists at the
	// supplied path.
	ErrDeviceNotFound = errors.New("device node not found")

	// ErrPropertyNotFound indicates that the device tree node has no
	// property with the supplied name.
	ErrPropertyNotFound = errors.New("no such property")

	// ErrOpenFailed indicates that the firmware could not open the device
	// node at the supplied path.
	ErrOpenFailed = errors.New("cannot open device")
)
