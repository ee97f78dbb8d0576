// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package secretkind describes how a split secret was encoded before sharing, so that
// reconstruction knows whether to hand back a byte, a buffer or text.
package secretkind

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Kind identifies a secret encoding.
type Kind int

const (
	// Byte is a single byte secret shared with flat shares.
	Byte Kind = 1 + iota
	// Bytes is an arbitrary byte buffer shared with one ShareSet per participant.
	Bytes
	// UTF8String is text, encoded as UTF-8 and shared like Bytes.
	UTF8String
)

// UTF8 is the only text encoding in use.
const UTF8 = "utf8"

func (k Kind) String() string {
	switch k {
	case Byte:
		return "byte"
	case Bytes:
		return "bytes"
	case UTF8String:
		return "string"
	default:
		return fmt.Sprintf("unknown secret kind: %d", int(k))
	}
}

// Descriptor is implemented by ByteSecret, BytesSecret and StringSecret.
type Descriptor interface {
	Kind() Kind
	isDescriptor()
}

// ByteSecret describes a single byte secret.
type ByteSecret struct{}

// BytesSecret describes a byte buffer secret of Length bytes.
type BytesSecret struct {
	Length int
}

// StringSecret describes a UTF-8 string secret whose encoding is Length bytes long.
type StringSecret struct {
	Length int
}

func (ByteSecret) Kind() Kind   { return Byte }
func (BytesSecret) Kind() Kind  { return Bytes }
func (StringSecret) Kind() Kind { return UTF8String }

func (ByteSecret) isDescriptor()   {}
func (BytesSecret) isDescriptor()  {}
func (StringSecret) isDescriptor() {}

// wire is the map form shared by all descriptors.
type wire struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding,omitempty"`
	Length   int    `json:"length,omitempty"`
}

// Marshal encodes d as {type, encoding?, length?}.
func Marshal(d Descriptor) ([]byte, error) {
	switch v := d.(type) {
	case ByteSecret:
		return json.Marshal(wire{Type: Byte.String()})
	case BytesSecret:
		return json.Marshal(wire{Type: Bytes.String(), Length: v.Length})
	case StringSecret:
		return json.Marshal(wire{Type: UTF8String.String(), Encoding: UTF8, Length: v.Length})
	default:
		return nil, fmt.Errorf("%w: unsupported secret descriptor %T", secrets.ErrInvalidInput, d)
	}
}

// Unmarshal decodes the output of Marshal.
func Unmarshal(b []byte) (Descriptor, error) {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("%w: malformed secret descriptor: %v", secrets.ErrInvalidInput, err)
	}
	switch w.Type {
	case Byte.String():
		return ByteSecret{}, nil
	case Bytes.String():
		return BytesSecret{Length: w.Length}, nil
	case UTF8String.String():
		if w.Encoding != UTF8 {
			return nil, fmt.Errorf("%w: unsupported text encoding %q", secrets.ErrInvalidInput, w.Encoding)
		}
		return StringSecret{Length: w.Length}, nil
	default:
		return nil, fmt.Errorf("%w: unknown secret type %q", secrets.ErrInvalidInput, w.Type)
	}
}
