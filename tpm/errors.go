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
	"errors"
	"fmt"
)

var (
	// ErrUnknownDevice indicates that the virtual TPM device node is
	// absent or could not be opened. Once returned, every subsequent
	// operation on the same device returns it again - a failed open is
	// not retried for the remainder of the boot session.
	ErrUnknownDevice = errors.New("unknown virtual TPM device")

	// ErrInvalidCommand indicates that the firmware call dispatch
	// mechanism itself failed, or that a firmware method previously
	// reported as unsupported failed again.
	ErrInvalidCommand = errors.New("invalid command issued to the firmware")

	// ErrBadArgument indicates that the caller supplied an empty command
	// or response buffer. The firmware is not called in this case.
	ErrBadArgument = errors.New("empty command or response buffer")
)

// BadDeviceError is returned the first time a firmware method reports that
// it is unsupported, which indicates firmware that predates the vTPM
// interface. It is the one user-visible warning for that method - later
// occurrences of the same condition return ErrInvalidCommand instead.
type BadDeviceError struct {
	Method string
}

func (e *BadDeviceError) Error() string {
	return fmt.Sprintf("%s failed: Firmware is likely too old", e.Method)
}
