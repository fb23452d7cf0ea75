// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by the daemon and
// the CLI.
//
// The control socket speaks CBOR. Everything a person reads (CLI
// output, rule spec files, the config file) is JSON or YAML. Protocol
// types carry `json` tags only: fxamacker/cbor falls back to them when
// no `cbor` tag is present, so one tag names the field in both the
// socket encoding and `discipline --json` output.
//
// Buffers:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Streams:
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
package codec
