// Package codec provides the low-level byte layouts of the WPILOG format.
//
// WPILOG is an append-only binary log written by robot telemetry recorders.
// This package knows how to interpret the fixed pieces of the format; the
// record loop itself lives in package wpilog.
//
// # File Header
//
//	[Magic "WPILOG"(6)][Minor(1)][Major(1)][ExtraLen(4)][Extra(ExtraLen)]
//
// The version bytes are surfaced to callers but never validated. The extra
// header is an opaque blob, usually UTF-8 text.
//
// # Record Header
//
//	[Framing(1)][EntryID(1-4)][PayloadSize(1-4)][Timestamp(1-8)][Payload]
//
// The framing byte packs the widths of the three variable-width fields:
//   - bits 0-1: entry ID width minus one
//   - bits 2-3: payload size width minus one
//   - bits 4-6: timestamp width minus one
//   - bit 7: reserved, must be zero
//
// All integers are unsigned little-endian. Timestamps are treated as
// unsigned 64-bit values everywhere, including comparisons.
//
// # Control Records
//
// Entry ID 0 marks a control record. The first payload byte selects the kind:
//
//	0 Start:       [Type(1)][EntryID(4)][NameLen(4)][Name][TypeLen(4)][Type][MetaLen(4)][Meta]
//	1 Finish:      [Type(1)][EntryID(4)]
//	2 SetMetadata: [Type(1)][EntryID(4)][MetaLen(4)][Meta]
//
// # Strings
//
// String fields are decoded according to a UTF8Policy. UTF8Lenient, the
// default, substitutes U+FFFD for invalid sequences; UTF8Strict rejects them
// with ErrInvalidUTF8.
package codec
