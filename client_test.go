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

package ieee1275_test

import (
	"errors"

	. "github.com/canonical/go-ieee1275"
	. "gopkg.in/check.v1"
)

type clientSuite struct{}

var _ = Suite(&clientSuite{})

func (s *clientSuite) TestFindDevice(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		c.Check(frame.Service(), Equals, "finddevice")
		c.Check(frame.Arg(0), Equals, StringCell("/vdevice/vtpm"))
		frame.SetRet(0, 0x1234)
		return nil
	}}

	client := NewClient(entry)
	phandle, err := client.FindDevice("/vdevice/vtpm")
	c.Check(err, IsNil)
	c.Check(phandle, Equals, PHandle(0x1234))
}

func (s *clientSuite) TestFindDeviceNotFound(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		frame.SetRet(0, ^uint(0))
		return nil
	}}

	client := NewClient(entry)
	_, err := client.FindDevice("/vdevice/vtpm")
	c.Check(err, Equals, ErrDeviceNotFound)
}

func (s *clientSuite) TestFindDeviceDispatchFailure(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		return errors.New("some error")
	}}

	client := NewClient(entry)
	_, err := client.FindDevice("/vdevice/vtpm")
	c.Check(err, Equals, ErrCallFailed)
}

func (s *clientSuite) TestGetProperty(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		c.Check(frame.Service(), Equals, "getprop")
		c.Check(frame.Arg(0), Equals, IntCell(0x1234))
		c.Check(frame.Arg(1), Equals, StringCell("compatible"))
		c.Check(frame.Arg(3), Equals, IntCell(20))
		buf := frame.Arg(2).(BufferCell)
		n := copy(buf, "IBM,vtpm20\x00")
		frame.SetRet(0, uint(n))
		return nil
	}}

	client := NewClient(entry)
	buf := make([]byte, 20)
	n, err := client.GetProperty(PHandle(0x1234), "compatible", buf)
	c.Check(err, IsNil)
	c.Check(n, Equals, 11)
	c.Check(string(buf[:10]), Equals, "IBM,vtpm20")
}

func (s *clientSuite) TestGetPropertyNotFound(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		frame.SetRet(0, ^uint(0))
		return nil
	}}

	client := NewClient(entry)
	_, err := client.GetProperty(PHandle(0x1234), "compatible", make([]byte, 20))
	c.Check(err, Equals, ErrPropertyNotFound)
}

func (s *clientSuite) TestGetPropertyLargerThanBuffer(c *C) {
	// The firmware truncates the copy to the caller's buffer but still
	// reports the actual property size.
	entry := &mockEntry{fn: func(frame *Frame) error {
		buf := frame.Arg(2).(BufferCell)
		copy(buf, "0123")
		frame.SetRet(0, 32)
		return nil
	}}

	client := NewClient(entry)
	buf := make([]byte, 4)
	n, err := client.GetProperty(PHandle(0x1234), "reg", buf)
	c.Check(err, IsNil)
	c.Check(n, Equals, 32)
	c.Check(string(buf), Equals, "0123")
}

func (s *clientSuite) TestOpen(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		c.Check(frame.Service(), Equals, "open")
		c.Check(frame.Arg(0), Equals, StringCell("/vdevice/vtpm"))
		frame.SetRet(0, 0xabcd)
		return nil
	}}

	client := NewClient(entry)
	ihandle, err := client.Open("/vdevice/vtpm")
	c.Check(err, IsNil)
	c.Check(ihandle, Equals, IHandle(0xabcd))
}

func (s *clientSuite) TestOpenFailed(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		frame.SetRet(0, uint(IHandleInvalid))
		return nil
	}}

	client := NewClient(entry)
	ihandle, err := client.Open("/vdevice/vtpm")
	c.Check(err, Equals, ErrOpenFailed)
	c.Check(ihandle, Equals, IHandleInvalid)
}

func (s *clientSuite) TestCallMethod(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		c.Check(frame.Service(), Equals, "call-method")
		c.Check(frame.NumIn(), Equals, 2)
		c.Check(frame.NumOut(), Equals, 2)
		c.Check(frame.Arg(0), Equals, StringCell("get-maximum-cmd-size"))
		c.Check(frame.Arg(1), Equals, IntCell(0xabcd))
		frame.SetRet(0, 0)
		frame.SetRet(1, 4096)
		return nil
	}}

	client := NewClient(entry)
	result, err := client.CallMethod("get-maximum-cmd-size", IHandle(0xabcd), nil, 1)
	c.Assert(err, IsNil)
	c.Check(result.Caught, Equals, false)
	c.Check(result.Rets, DeepEquals, []uint{4096})
}

func (s *clientSuite) TestCallMethodWithArgs(c *C) {
	buf := []byte{0x80, 0x01}
	entry := &mockEntry{fn: func(frame *Frame) error {
		c.Check(frame.NumIn(), Equals, 4)
		c.Check(frame.Arg(2), Equals, IntCell(2))
		c.Check(frame.Arg(3), DeepEquals, Cell(BufferCell(buf)))
		frame.SetRet(0, 0)
		frame.SetRet(1, 2)
		return nil
	}}

	client := NewClient(entry)
	result, err := client.CallMethod("pass-through-to-tpm", IHandle(0xabcd), []Cell{IntCell(2), BufferCell(buf)}, 1)
	c.Assert(err, IsNil)
	c.Check(result.Caught, Equals, false)
	c.Check(result.Rets, DeepEquals, []uint{2})
}

func (s *clientSuite) TestCallMethodCaught(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		frame.SetRet(0, 1)
		return nil
	}}

	client := NewClient(entry)
	result, err := client.CallMethod("get-maximum-cmd-size", IHandle(0xabcd), nil, 1)
	c.Assert(err, IsNil)
	c.Check(result.Caught, Equals, true)
	c.Check(result.Rets, IsNil)
}

func (s *clientSuite) TestCallMethodDispatchFailure(c *C) {
	entry := &mockEntry{fn: func(frame *Frame) error {
		return errors.New("some error")
	}}

	client := NewClient(entry)
	result, err := client.CallMethod("get-maximum-cmd-size", IHandle(0xabcd), nil, 1)
	c.Check(err, Equals, ErrCallFailed)
	c.Check(result, IsNil)
}
