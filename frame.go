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
	"golang.org/x/xerrors"
)

// Frame describes a single client interface service call. The service name
// and the number of input and output argument cells are fixed by the
// firmware calling convention and are declared up front when the frame is
// constructed. Input cells are appended with [Frame.In] and the declared
// count is validated against the cells actually written before the frame is
// handed to the entry point.
//
// A frame is built immediately before each call, owned exclusively by the
// calling operation, and discarded after the call returns.
type Frame struct {
	service string
	numIn   int
	numOut  int

	names []string
	args  []Cell
	rets  []uint
}

// NewFrame returns a frame for the named service, declaring numIn input
// argument cells and numOut result cells.
func NewFrame(service string, numIn, numOut int) *Frame {
	return &Frame{service: service, numIn: numIn, numOut: numOut}
}

// In appends the next input argument cell. The name identifies the slot in
// error messages and when inspecting a frame, and carries no meaning to the
// firmware - cells are positional.
func (f *Frame) In(name string, cell Cell) *Frame {
	f.names = append(f.names, name)
	f.args = append(f.args, cell)
	return f
}

// Service returns the name of the service this frame invokes.
func (f *Frame) Service() string {
	return f.service
}

// NumIn returns the declared number of input argument cells.
func (f *Frame) NumIn() int {
	return f.numIn
}

// NumOut returns the declared number of result cells.
func (f *Frame) NumOut() int {
	return f.numOut
}

// Arg returns the input argument cell at the supplied position.
func (f *Frame) Arg(i int) Cell {
	return f.args[i]
}

// ArgName returns the slot name recorded for the input argument cell at the
// supplied position.
func (f *Frame) ArgName(i int) string {
	return f.names[i]
}

// Ret returns the result cell at the supplied position. Result cells are
// only meaningful after a successful dispatch.
func (f *Frame) Ret(i int) uint {
	return f.rets[i]
}

// SetRet writes the result cell at the supplied position. It is called by
// Entry implementations while servicing a frame.
func (f *Frame) SetRet(i int, v uint) {
	f.rets[i] = v
}

// Dispatch validates the frame against its declared cell counts and hands it
// to the supplied entry point. It returns ErrCallFailed if the entry point
// signals a dispatch-level failure, in which case no result cells can be
// trusted. The call is attempted exactly once.
func (f *Frame) Dispatch(entry Entry) error {
	if len(f.args) != f.numIn {
		return xerrors.Errorf("cannot dispatch %s: %d argument cells written, %d declared", f.service, len(f.args), f.numIn)
	}
	f.rets = make([]uint, f.numOut)
	if err := entry.Call(f); err != nil {
		return ErrCallFailed
	}
	return nil
}
