package heif

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff"
	"github.com/simonhull/mediameta/internal/types"
)

// decodeProperty turns an item property payload into a setter that writes
// its fields once the property is associated with the primary item.
type decodeProperty func(payload []byte) (func(dir *types.Directory), error)

var propertyDecoders = map[string]decodeProperty{
	"ispe": decodeIspe,
	"irot": decodeIrot,
	"imir": decodeImir,
	"pixi": decodePixi,
	"colr": decodeColr,
	"auxC": decodeAuxC,
	"hvcC": decodeHvcC,
	"av1C": decodeAv1C,
	"clap": decodeClap,
}

func decodeIspe(payload []byte) (func(*types.Directory), error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	bmff.FullBox(ch)
	w, h := ch.U32("image width"), ch.U32("image height")
	if err := ch.Error(); err != nil {
		return nil, err
	}
	return func(dir *types.Directory) {
		dir.Set("Image Width", w)
		dir.Set("Image Height", h)
	}, nil
}

func decodeIrot(payload []byte) (func(*types.Directory), error) {
	if len(payload) < 1 {
		return nil, errors.New("irot payload is empty")
	}
	angle := int(payload[0]&0x3) * 90
	return func(dir *types.Directory) { dir.Set("Rotation", angle) }, nil
}

func decodeImir(payload []byte) (func(*types.Directory), error) {
	if len(payload) < 1 {
		return nil, errors.New("imir payload is empty")
	}
	axis := "Vertical"
	if payload[0]&1 != 0 {
		axis = "Horizontal"
	}
	return func(dir *types.Directory) { dir.Set("Mirror Axis", axis) }, nil
}

func decodePixi(payload []byte) (func(*types.Directory), error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	bmff.FullBox(ch)
	n := ch.U8("channel count")
	bits := ch.Bytes(int(n), "bits per channel")
	if err := ch.Error(); err != nil {
		return nil, err
	}
	parts := make([]string, len(bits))
	for i, b := range bits {
		parts[i] = fmt.Sprint(b)
	}
	return func(dir *types.Directory) {
		dir.Set("Channels", n)
		dir.Set("Bits Per Channel", strings.Join(parts, " "))
	}, nil
}

// colorPrimaries names the ISO/IEC 23091-2 colour primaries seen in images.
var colorPrimaries = map[uint16]string{
	1: "BT.709", 2: "Unspecified", 4: "BT.470 System M", 5: "BT.601 PAL",
	6: "BT.601 NTSC", 9: "BT.2020", 11: "DCI-P3", 12: "Display P3",
}

var transferCharacteristics = map[uint16]string{
	1: "BT.709", 2: "Unspecified", 8: "Linear", 13: "sRGB",
	14: "BT.2020 10-bit", 16: "SMPTE ST 2084 (PQ)", 18: "HLG",
}

var matrixCoefficients = map[uint16]string{
	0: "Identity", 1: "BT.709", 2: "Unspecified", 5: "BT.601 PAL",
	6: "BT.601 NTSC", 9: "BT.2020 non-constant",
}

func named(m map[uint16]string, v uint16) string {
	if s, ok := m[v]; ok {
		return s
	}
	return fmt.Sprintf("Unknown (%d)", v)
}

func decodeColr(payload []byte) (func(*types.Directory), error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	typ := ch.String(4, "colour type")
	if err := ch.Error(); err != nil {
		return nil, err
	}

	switch typ {
	case "nclx":
		p, t, m := ch.U16("colour primaries"), ch.U16("transfer characteristics"), ch.U16("matrix coefficients")
		full := ch.U8("full range flag")
		if err := ch.Error(); err != nil {
			return nil, err
		}
		return func(dir *types.Directory) {
			dir.Set("Color Profiles", "nclx")
			dir.Set("Color Primaries", named(colorPrimaries, p))
			dir.Set("Transfer Characteristics", named(transferCharacteristics, t))
			dir.Set("Matrix Coefficients", named(matrixCoefficients, m))
			dir.Set("Video Full Range Flag", full>>7 == 1)
		}, nil
	case "prof", "rICC":
		n := ch.Remaining()
		return func(dir *types.Directory) {
			dir.Set("Color Profiles", typ)
			dir.Set("ICC Profile", fmt.Sprintf("(Binary data %d bytes)", n))
		}, nil
	}
	return func(dir *types.Directory) { dir.Set("Color Profiles", typ) }, nil
}

func decodeAuxC(payload []byte) (func(*types.Directory), error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	bmff.FullBox(ch)
	if err := ch.Error(); err != nil {
		return nil, err
	}
	aux := ch.CString(int(ch.Remaining()), "auxiliary type")
	return func(dir *types.Directory) { dir.SetString("Auxiliary Type", aux) }, ch.Error()
}

var hevcProfiles = map[uint8]string{
	1: "Main",
	2: "Main 10",
	3: "Main Still Picture",
	4: "Format Range Extensions",
}

var chromaFormats = []string{"Monochrome", "4:2:0", "4:2:2", "4:4:4"}

func decodeHvcC(payload []byte) (func(*types.Directory), error) {
	if len(payload) < 23 {
		return nil, fmt.Errorf("hvcC of %d bytes is too short", len(payload))
	}
	profile := payload[1] & 0x1F
	level := payload[12]
	chroma := payload[16] & 0x3
	luma := payload[17]&0x7 + 8
	return func(dir *types.Directory) {
		if name, ok := hevcProfiles[profile]; ok {
			dir.Set("HEVC Profile", name)
		} else {
			dir.Set("HEVC Profile", fmt.Sprintf("Unknown (%d)", profile))
		}
		dir.Set("HEVC Level", float64(level)/30)
		dir.Set("Chroma Format", chromaFormats[chroma])
		dir.Set("Bit Depth Luma", luma)
	}, nil
}

var av1Profiles = []string{"Main", "High", "Professional"}

func decodeAv1C(payload []byte) (func(*types.Directory), error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("av1C of %d bytes is too short", len(payload))
	}
	if payload[0]&0x80 == 0 {
		return nil, errors.New("av1C marker bit is not set")
	}
	profile := payload[1] >> 5
	level := payload[1] & 0x1F
	highBitDepth := payload[2]&0x40 != 0
	twelveBit := payload[2]&0x20 != 0
	mono := payload[2]&0x10 != 0
	depth := 8
	switch {
	case highBitDepth && twelveBit:
		depth = 12
	case highBitDepth:
		depth = 10
	}
	return func(dir *types.Directory) {
		if int(profile) < len(av1Profiles) {
			dir.Set("AV1 Profile", av1Profiles[profile])
		} else {
			dir.Set("AV1 Profile", fmt.Sprintf("Unknown (%d)", profile))
		}
		dir.Set("AV1 Level", level)
		dir.Set("Bit Depth", depth)
		dir.Set("Monochrome", mono)
	}, nil
}

// decodeClap keeps the clean aperture size, rounded down.
func decodeClap(payload []byte) (func(*types.Directory), error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	wn, wd := ch.U32("clean aperture width N"), ch.U32("clean aperture width D")
	hn, hd := ch.U32("clean aperture height N"), ch.U32("clean aperture height D")
	if err := ch.Error(); err != nil {
		return nil, err
	}
	if wd == 0 || hd == 0 {
		return nil, errors.New("clean aperture has a zero denominator")
	}
	return func(dir *types.Directory) {
		dir.Set("Clean Aperture Width", wn/wd)
		dir.Set("Clean Aperture Height", hn/hd)
	}, nil
}
