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

package ieee1275

import (
	"fmt"
)

// cellUnset is the all-ones cell that the finddevice and getprop services
// return on failure.
const cellUnset = ^uint(0)

// CallResult is the outcome of a method invoked on an open device node via
// the "call-method" service, for the case where the dispatch mechanism
// itself succeeded. Caught reports whether the invoked method signalled
// failure through its catch result cell, which is how firmware indicates
// that it does not implement the method. Rets holds the method's result
// cells and is only populated when Caught is false.
type CallResult struct {
	Caught bool
	Rets   []uint
}

// Client provides the client interface services over a firmware entry
// point. All calls are strictly synchronous and are attempted exactly once -
// at this boot stage a failed firmware call should fail fast rather than
// loop.
type Client struct {
	entry Entry
}

// NewClient returns a client that dispatches service calls through the
// supplied entry point.
func NewClient(entry Entry) *Client {
	return &Client{entry: entry}
}

// FindDevice resolves the device tree node at the supplied path using the
// "finddevice" service. It returns ErrDeviceNotFound if no node exists at
// that path.
func (c *Client) FindDevice(path string) (PHandle, error) {
	frame := NewFrame("finddevice", 1, 1).
		In("device", StringCell(path))
	if err := frame.Dispatch(c.entry); err != nil {
		return 0, err
	}
	if frame.Ret(0) == cellUnset {
		return 0, ErrDeviceNotFound
	}
	return PHandle(frame.Ret(0)), nil
}

// GetProperty reads the named property of the supplied device tree node
// into buf using the "getprop" service, and returns the property length.
// The firmware copies at most len(buf) bytes - the returned length is the
// actual property size and may exceed it. It returns ErrPropertyNotFound if
// the node has no such property.
func (c *Client) GetProperty(phandle PHandle, name string, buf []byte) (int, error) {
	frame := NewFrame("getprop", 4, 1).
		In("phandle", IntCell(phandle)).
		In("name", StringCell(name)).
		In("buf", BufferCell(buf)).
		In("buflen", IntCell(len(buf)))
	if err := frame.Dispatch(c.entry); err != nil {
		return 0, err
	}
	if frame.Ret(0) == cellUnset {
		return 0, ErrPropertyNotFound
	}
	return int(frame.Ret(0)), nil
}

// Open opens the device node at the supplied path using the "open" service
// and returns the resulting device handle. It returns ErrOpenFailed if the
// firmware could not open the node.
func (c *Client) Open(path string) (IHandle, error) {
	frame := NewFrame("open", 1, 1).
		In("device", StringCell(path))
	if err := frame.Dispatch(c.entry); err != nil {
		return IHandleInvalid, err
	}
	ihandle := IHandle(frame.Ret(0))
	if ihandle == IHandleInvalid {
		return IHandleInvalid, ErrOpenFailed
	}
	return ihandle, nil
}

// CallMethod invokes the named method on an open device node using the
// "call-method" service, passing the supplied method argument cells and
// expecting numRets method result cells. The first result cell of the
// underlying frame is the method's catch result, which is returned via
// [CallResult.Caught] rather than as an error so that callers branch on a
// value when distinguishing "firmware lacks this method" from a
// dispatch-level failure.
func (c *Client) CallMethod(method string, ihandle IHandle, args []Cell, numRets int) (*CallResult, error) {
	frame := NewFrame("call-method", 2+len(args), 1+numRets).
		In("method", StringCell(method)).
		In("ihandle", IntCell(ihandle))
	for i, arg := range args {
		frame.In(fmt.Sprintf("arg%d", i), arg)
	}
	if err := frame.Dispatch(c.entry); err != nil {
		return nil, err
	}
	result := &CallResult{Caught: frame.Ret(0) != 0}
	if result.Caught {
		return result, nil
	}
	for i := 0; i < numRets; i++ {
		result.Rets = append(result.Rets, frame.Ret(1+i))
	}
	return result, nil
}
