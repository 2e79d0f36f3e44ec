// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package codec provides the encodings used to persist log entry sequences.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes values.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name identifies the codec in configuration and diagnostics.
	Name() string
}

// JSON wraps encoding/json. It is the default codec because its output is the
// documented wire format of entries.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }

// MsgPack trades readability for size.
type MsgPack struct{}

func (MsgPack) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (MsgPack) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
func (MsgPack) Name() string                       { return "msgpack" }

// Default is the codec used when none is configured.
var Default Codec = JSON{}

// FromName returns the codec registered under name. An empty name returns Default.
func FromName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "":
		return Default, nil
	case "json":
		return JSON{}, nil
	case "msgpack":
		return MsgPack{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
