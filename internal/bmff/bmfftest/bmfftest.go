// Package bmfftest builds QuickTime and ISO-BMFF boxes for tests.
package bmfftest

import (
	"github.com/simonhull/mediameta/internal/binary"
)

func be() *binary.Writer { return binary.NewWriter(binary.BigEndian) }

// Ftyp builds a file type box.
func Ftyp(major string, compatible ...string) []byte {
	w := be().String(major).U32(0x200)
	for _, c := range compatible {
		w.String(c)
	}
	return binary.Box("ftyp", w.Bytes())
}

// Mvhd builds a version 0 movie header box.
func Mvhd(timescale, duration uint32) []byte {
	w := be().
		U32(3600).U32(3700). // creation, modification
		U32(timescale).U32(duration).
		U32(0x00010000).U16(0x0100). // rate 1.0, volume 1.0
		Zeros(10 + 36).
		Zeros(6 * 4).
		U32(2)
	return binary.FullBox("mvhd", 0, 0, w.Bytes())
}

// Tkhd builds a version 0 track header box.
func Tkhd(trackID uint32, width, height uint16) []byte {
	w := be().
		U32(0).U32(0).
		U32(trackID).Zeros(4).
		U32(1000).Zeros(8).
		U16(0).U16(0).U16(0x0100).Zeros(2).
		Zeros(36).
		U32(uint32(width) << 16).U32(uint32(height) << 16)
	return binary.FullBox("tkhd", 0, 1, w.Bytes())
}

// Mdhd builds a version 0 media header box. lang is a three letter code.
func Mdhd(timescale, duration uint32, lang string) []byte {
	var packed uint16
	for _, r := range lang {
		packed = packed<<5 | uint16(r-0x60)&0x1F
	}
	w := be().U32(0).U32(0).U32(timescale).U32(duration).U16(packed).U16(0)
	return binary.FullBox("mdhd", 0, 0, w.Bytes())
}

// Hdlr builds an ISO handler box with a NUL-terminated name.
func Hdlr(handlerType, name string) []byte {
	w := be().Zeros(4).String(handlerType).Zeros(12).String(name).U8(0)
	return binary.FullBox("hdlr", 0, 0, w.Bytes())
}

// QTHdlr builds a QuickTime handler box with a Pascal string name.
func QTHdlr(component, handlerType, name string) []byte {
	w := be().String(component).String(handlerType).Zeros(12).U8(uint8(len(name))).String(name)
	return binary.FullBox("hdlr", 0, 0, w.Bytes())
}

// Smhd builds a sound media header box.
func Smhd(balance int16) []byte {
	return binary.FullBox("smhd", 0, 0, be().U16(uint16(balance)).U16(0).Bytes())
}

// Vmhd builds a video media header box.
func Vmhd() []byte {
	return binary.FullBox("vmhd", 0, 1, be().U16(0x40).U16(0x8000).U16(0x8000).U16(0x8000).Bytes())
}

// Hmhd builds a hint media header box.
func Hmhd(maxPDU, avgPDU uint16, maxRate, avgRate uint32) []byte {
	return binary.FullBox("hmhd", 0, 0, be().U16(maxPDU).U16(avgPDU).U32(maxRate).U32(avgRate).Zeros(4).Bytes())
}

// AudioStsd builds a sample description box with one version 0 sound entry.
func AudioStsd(format string, channels, bits uint16, rate uint32, extensions ...[]byte) []byte {
	entry := be().
		Zeros(6).U16(1).
		U16(0).U16(0).Zeros(4).
		U16(channels).U16(bits).
		U16(0).U16(0).
		U32(rate << 16)
	for _, e := range extensions {
		entry.Raw(e...)
	}
	return stsd(format, entry.Bytes())
}

// VisualStsd builds a sample description box with one visual entry.
func VisualStsd(format string, width, height uint16, compressor string) []byte {
	name := make([]byte, 32)
	name[0] = byte(len(compressor))
	copy(name[1:], compressor)
	entry := be().
		Zeros(6).U16(1).
		U16(0).U16(0).String("appl").
		Zeros(8).
		U16(width).U16(height).
		U32(72 << 16).U32(72 << 16).
		Zeros(4).U16(1).
		Raw(name...).
		U16(24).U16(0xFFFF)
	return stsd(format, entry.Bytes())
}

func stsd(format string, entry []byte) []byte {
	w := be().U32(1).U32(uint32(8 + len(entry))).String(format).Raw(entry...)
	return binary.FullBox("stsd", 0, 0, w.Bytes())
}

// Esds builds an elementary stream descriptor box announcing an AAC
// audio object type.
func Esds(audioObjectType uint8) []byte {
	w := be().
		U8(0x03).U8(0x19).U16(1).U8(0). // ES_Descriptor, ES_ID, flags
		U8(0x04).U8(0x11).U8(0x40).U8(0x15).Zeros(3).U32(128000).U32(128000).
		U8(0x05).U8(0x02).U8(audioObjectType<<3).U8(0x10).
		U8(0x06).U8(0x01).U8(0x02)
	return binary.FullBox("esds", 0, 0, w.Bytes())
}

// Stts builds a time-to-sample box with one entry.
func Stts(count, delta uint32) []byte {
	return binary.FullBox("stts", 0, 0, be().U32(1).U32(count).U32(delta).Bytes())
}

// Data builds an item "data" box.
func Data(wellKnown uint32, value []byte) []byte {
	return binary.Box("data", be().U32(wellKnown).U32(0).Raw(value...).Bytes())
}

// TextItem builds an ilst item holding a UTF-8 string.
func TextItem(typ, value string) []byte {
	return binary.Box(typ, Data(1, []byte(value)))
}

// TrackItem builds a trkn or disk item.
func TrackItem(typ string, n, total uint16) []byte {
	return binary.Box(typ, Data(0, be().U16(0).U16(n).U16(total).U16(0).Bytes()))
}
