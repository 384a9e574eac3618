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

package tpm

import (
	"bytes"
	"io"

	"github.com/canonical/go-tpm2"
	"golang.org/x/xerrors"

	"github.com/canonical/go-ieee1275"
)

var (
	_ tpm2.Transport = (*Transport)(nil)
	_ tpm2.TPMDevice = (*TPMDevice)(nil)
)

// Transport is a tpm2.Transport that submits command packets through a
// virtual TPM device session. Commands are staged into a buffer sized to
// the firmware's maximum command buffer size, because the firmware back end
// writes its response over the same memory region.
type Transport struct {
	dev     *Device
	staging []byte
	rsp     *bytes.Reader
	closed  bool
}

// NewTransport returns a transport over the supplied device session,
// initializing the session if required.
func NewTransport(dev *Device) (*Transport, error) {
	if err := dev.ensureInitialized(); err != nil {
		return nil, err
	}
	return &Transport{dev: dev}, nil
}

// Write submits a complete TPM2 command packet and buffers the response for
// subsequent reads. An unread previous response is discarded.
func (t *Transport) Write(data []byte) (int, error) {
	if t.closed {
		return 0, tpm2.ErrTransportClosed
	}
	if len(data) == 0 {
		return 0, ErrBadArgument
	}

	if t.staging == nil {
		size, err := t.dev.GetMaxOutputSize()
		if err != nil {
			return 0, xerrors.Errorf("cannot obtain maximum buffer size: %w", err)
		}
		t.staging = make([]byte, size)
	}
	if len(data) > len(t.staging) {
		return 0, xerrors.Errorf("command length %d exceeds the maximum buffer size %d", len(data), len(t.staging))
	}

	copy(t.staging, data)
	n, err := t.dev.submit(t.staging, len(data))
	if err != nil {
		return 0, err
	}

	t.rsp = bytes.NewReader(t.staging[:n])
	return len(data), nil
}

// Read returns response bytes buffered by the last Write, supporting
// partial reads. It returns io.EOF when no response is pending.
func (t *Transport) Read(data []byte) (int, error) {
	if t.closed {
		return 0, tpm2.ErrTransportClosed
	}
	if t.rsp == nil {
		return 0, io.EOF
	}

	n, err := t.rsp.Read(data)
	if t.rsp.Len() == 0 {
		t.rsp = nil
	}
	return n, err
}

// Close marks the transport as closed. The underlying firmware device
// handle stays open - firmware handles are never closed, the boot process
// hands them off to the next stage.
func (t *Transport) Close() error {
	if t.closed {
		return tpm2.ErrTransportClosed
	}
	t.closed = true
	return nil
}

// TPMDevice is a tpm2.TPMDevice backed by the firmware virtual TPM node,
// allowing a tpm2.TPMContext to be constructed over the boot-time
// transport.
type TPMDevice struct {
	entry ieee1275.Entry
}

// NewTPMDevice returns a tpm2.TPMDevice that reaches the virtual TPM node
// through the supplied firmware entry point.
func NewTPMDevice(entry ieee1275.Entry) *TPMDevice {
	return &TPMDevice{entry: entry}
}

// Open implements [tpm2.TPMDevice.Open]. Each call starts an independent
// device session.
func (d *TPMDevice) Open() (tpm2.Transport, error) {
	return NewTransport(NewDevice(d.entry))
}

func (d *TPMDevice) String() string {
	return "ieee1275 vTPM device at " + DevicePath
}
