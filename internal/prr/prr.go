// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package prr decodes the R-Car product register.
package prr

import "fmt"

const (
	Base   uintptr = 0xfff00000
	Size   uint32  = 0x48
	Offset uint32  = 0x44
)

const (
	ProductMask uint32 = 0x00007f00
	CutMask     uint32 = 0x000000ff
)

type Product uint32
type Cut uint32

const (
	H3  Product = 0x4f00
	M3W Product = 0x5200
)

const (
	ES10 Cut = 0x00
	ES11 Cut = 0x01
	ES20 Cut = 0x10
	ES30 Cut = 0x20
)

// Decode splits a raw PRR value.
func Decode(v uint32) (Product, Cut) {
	return Product(v & ProductMask), Cut(v & CutMask)
}

// Encode is the inverse of Decode for the product and cut fields.
func Encode(p Product, c Cut) uint32 {
	return (uint32(p) & ProductMask) | (uint32(c) & CutMask)
}

func (p Product) String() string {
	switch p {
	case H3:
		return "h3"
	case M3W:
		return "m3-w"
	}
	return fmt.Sprintf("product(%#04x)", uint32(p))
}

// Major/minor are the upper and lower nibbles, offset by one in the major.
func (c Cut) String() string {
	return fmt.Sprintf("es%d.%d", (uint32(c)>>4)+1, uint32(c)&0xf)
}

// Parse reads "h3/es2.0", "m3-w/es1.0" and similar.
func Parse(s string) (Product, Cut, error) {
	var name string
	var major, minor uint32
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			name = s[:i]
			if _, err := fmt.Sscanf(s[i+1:], "es%d.%d",
				&major, &minor); err != nil {
				return 0, 0, fmt.Errorf("%s: %v", s, err)
			}
			break
		}
	}
	if major < 1 || major > 16 || minor > 15 {
		return 0, 0, fmt.Errorf("%s: invalid cut", s)
	}
	var p Product
	switch name {
	case "h3":
		p = H3
	case "m3-w", "m3w":
		p = M3W
	default:
		return 0, 0, fmt.Errorf("%s: unknown product", s)
	}
	return p, Cut((major-1)<<4 | minor), nil
}
