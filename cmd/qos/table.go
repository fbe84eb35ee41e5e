// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/platinasystems/qos/qos"
	"github.com/platinasystems/url"
)

// LoadTable reads a priority table from a file or URL. An empty name is a
// table of zeros.
func LoadTable(name string, masters int) ([]uint64, error) {
	if len(name) == 0 {
		return make([]uint64, masters), nil
	}
	r, err := url.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	b, err := io.ReadAll(io.LimitReader(r, int64(qos.BankSize)+1))
	if err != nil {
		return nil, err
	}
	v, err := DecodeTable(b, masters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// DecodeTable converts a little-endian table of exactly masters entries,
// or of a whole bank with zeros beyond the last master.
func DecodeTable(b []byte, masters int) ([]uint64, error) {
	want := masters * int(qos.EntrySize)
	if len(b) != want && len(b) != int(qos.BankSize) {
		return nil, fmt.Errorf("%d bytes: %w: want %d or %d",
			len(b), qos.ErrInvalid, want, qos.BankSize)
	}
	v := make([]uint64, len(b)/int(qos.EntrySize))
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian,
		v); err != nil {
		return nil, err
	}
	for i := masters; i < len(v); i++ {
		if v[i] != 0 {
			return nil, fmt.Errorf("master %d: %w: beyond %d",
				i, qos.ErrInvalid, masters-1)
		}
	}
	return v[:masters], nil
}

// EncodeTable is the inverse of DecodeTable.
func EncodeTable(v []uint64) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}
