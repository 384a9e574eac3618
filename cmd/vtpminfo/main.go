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

// vtpminfo inspects the flattened device tree that the kernel exposes and
// reports whether a virtual TPM node is present and which interface version
// its compatible string advertises. It is a host-side diagnostic - the boot
// time transport in this module talks to the firmware directly instead.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/canonical/go-ieee1275/tpm"
)

type options struct {
	DTRoot string `long:"dt-root" description:"Path to the flattened device tree root" default:"/proc/device-tree"`
}

var opts options

func run() error {
	if _, err := flags.Parse(&opts); err != nil {
		return err
	}

	node := filepath.Join(opts.DTRoot, tpm.DevicePath)
	compatible, err := os.ReadFile(filepath.Join(node, "compatible"))
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("no virtual TPM device node at %s", node)
	case err != nil:
		return err
	}

	if i := bytes.IndexByte(compatible, 0); i >= 0 {
		compatible = compatible[:i]
	}

	fmt.Printf("node:       %s\n", node)
	fmt.Printf("compatible: %s\n", compatible)
	if string(compatible) == tpm.CompatibleTPM20 {
		fmt.Println("interface:  TPM 2.0")
	} else {
		fmt.Println("interface:  legacy")
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
