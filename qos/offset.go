// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos

const (
	typeShift = 13
	typeMask  = 0xe000
	bankShift = 12
	bankMask  = 0x1000
)

// Region is the byte offset of the given class and bank from RegBase.
func Region(t Type, bank uint32) uint32 {
	return ((uint32(t) << typeShift) & typeMask) |
		((bank << bankShift) & bankMask)
}

// Offset is the byte offset of one master's entry.
func Offset(t Type, bank uint32, master int) uint32 {
	return Region(t, bank) + uint32(master)*EntrySize
}
