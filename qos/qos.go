// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package qos controls the R-Car memory controller bandwidth QoS unit.
//
// The unit holds one 64-bit priority per bus master for each of two traffic
// classes (FIX and BE). Each class has two physical banks; one bank is
// executed by the memory controller while the other may be rewritten. A
// Device writes a configuration into the inactive bank with SetAll, makes it
// live with Switch, and keeps both banks identical after every switch so the
// next Switch is harmless even without a new configuration.
//
// All Device methods are serialized by a single mutex.
package qos

import (
	"errors"
	"fmt"
)

const Version = "2.07"

const DeviceName = "qos"

// Physical layout.
const (
	RegBase    uintptr = 0xe67e0000
	RegSize    uint32  = 0x4000
	MembankReg uint32  = 0x800c
	EntrySize  uint32  = 8
	BankSize   uint32  = 0x1000
)

// Memory bank control register bits.
const (
	MembankSelect uint32 = 1 << 0
	ExeMembank    uint32 = 1 << 8
)

// MaxMasters is the most masters a bank can hold.
const MaxMasters = int(BankSize / EntrySize)

type Type uint32

const (
	Fix Type = iota
	BE
	nTypes
)

func (t Type) String() string {
	switch t {
	case Fix:
		return "fix"
	case BE:
		return "be"
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// ParseType accepts "fix" or "be".
func ParseType(s string) (Type, error) {
	switch s {
	case "fix", "FIX":
		return Fix, nil
	case "be", "BE":
		return BE, nil
	}
	return 0, fmt.Errorf("%s: %w: type must be fix or be", s, ErrInvalid)
}

var (
	// ErrUnsupported is returned for chips missing from the identification
	// table and for any operation on a Device that isn't initialized.
	ErrUnsupported = errors.New("unsupported chip")
	// ErrTimeout is returned when the hardware doesn't report the
	// requested bank within its retries.
	ErrTimeout = errors.New("timeout switch membank")
	ErrInvalid = errors.New("invalid argument")
)
