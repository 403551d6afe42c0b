// Package heif extracts metadata from HEIF and AVIF images.
//
// Image metadata lives in the "meta" box. Its handler reference must
// declare "pict" before the picture handler takes over the remaining meta
// children: item information, item locations and the item properties that
// describe the primary image.
package heif

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonhull/mediameta/internal/binary"
	"github.com/simonhull/mediameta/internal/bmff"
	"github.com/simonhull/mediameta/internal/registry"
	"github.com/simonhull/mediameta/internal/types"
	"github.com/simonhull/mediameta/internal/walker"
)

// Extract walks the boxes at the cursor and adds the "HEIF" directory to md.
func Extract(ctx context.Context, c *binary.Cursor, md *types.Metadata, cfg walker.Config) error {
	dir := types.NewDirectory("HEIF")
	md.AddDirectory(dir)
	r := &root{Base: walker.Base{Dir: dir}, uuids: &uuidList{}}
	return walker.New(walker.BoxReader{UserTypes: true}, cfg).Walk(ctx, c, walker.Unbounded, r)
}

func init() {
	registry.Register(types.FormatHEIF, registry.ExtractorFunc(Extract))
	registry.Register(types.FormatAVIF, registry.ExtractorFunc(Extract))
}

// uuidList collects the extended types of uuid boxes across handlers.
type uuidList struct {
	ids []string
}

func (u *uuidList) add(h *walker.Header, dir *types.Directory) {
	u.ids = append(u.ids, h.UserType.String())
	dir.Set("UUID Boxes", strings.Join(u.ids, ", "))
}

type root struct {
	walker.Base
	uuids *uuidList
}

func (r *root) AcceptContainer(h *walker.Header) bool { return h.Type == "meta" }

func (r *root) AcceptLeaf(h *walker.Header) bool { return h.Type == "ftyp" || h.Type == "uuid" }

func (r *root) ProcessContainer(_ *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	if _, _, err := bmff.ReadFullBoxPreamble(c); err != nil {
		return nil, err
	}
	return &meta{Base: r.Base, uuids: r.uuids}, nil
}

func (r *root) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	if h.Type == "uuid" {
		r.uuids.add(h, r.Dir)
		return nil, nil
	}
	return nil, bmff.DecodeFtyp(payload, r.Dir)
}

// meta waits for the handler reference.
type meta struct {
	walker.Base
	uuids *uuidList
}

func (m *meta) AcceptLeaf(h *walker.Header) bool { return h.Type == "hdlr" }

func (m *meta) ProcessLeaf(_ *walker.Header, payload []byte) (walker.Handler, error) {
	hd, err := bmff.DecodeHdlr(payload)
	if err != nil {
		return nil, err
	}
	hd.Set(m.Dir)
	if hd.Type != "pict" {
		return nil, nil
	}
	return &picture{Base: m.Base, uuids: m.uuids}, nil
}

// property is a decoded item property. Properties only reach the
// directory once ipma ties them to the primary item.
type property struct {
	typ string
	set func(dir *types.Directory)
}

// picture interprets the children of a "pict" meta box.
type picture struct {
	walker.Base
	uuids      *uuidList
	primary    uint32
	hasPrimary bool
	itemTypes  []string
	firstItem  uint32
	properties []property
}

func (p *picture) AcceptContainer(h *walker.Header) bool {
	switch h.Type {
	case "iinf", "iprp", "ipco", "iref":
		return true
	}
	return false
}

func (p *picture) AcceptLeaf(h *walker.Header) bool {
	switch h.Type {
	case "pitm", "infe", "iloc", "ipma", "uuid", "idat":
		return true
	}
	_, ok := propertyDecoders[h.Type]
	return ok
}

func (p *picture) ProcessContainer(h *walker.Header, c *binary.Cursor) (walker.Handler, error) {
	switch h.Type {
	case "iinf":
		version, _, err := bmff.ReadFullBoxPreamble(c)
		if err != nil {
			return nil, err
		}
		var n uint32
		if version == 0 {
			var n16 uint16
			n16, err = c.Uint16("item info entry count")
			n = uint32(n16)
		} else {
			n, err = c.Uint32("item info entry count")
		}
		if err != nil {
			return nil, err
		}
		p.Dir.Set("Item Count", n)
	case "iref":
		version, _, err := bmff.ReadFullBoxPreamble(c)
		if err != nil {
			return nil, err
		}
		return &references{Base: p.Base, wide: version != 0}, nil
	}
	return nil, nil
}

func (p *picture) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	switch h.Type {
	case "pitm":
		return nil, p.decodePitm(payload)
	case "infe":
		return nil, p.decodeInfe(payload)
	case "iloc":
		return nil, decodeIloc(payload, p.Dir)
	case "ipma":
		return nil, p.decodeIpma(payload)
	case "uuid":
		p.uuids.add(h, p.Dir)
		return nil, nil
	case "idat":
		p.Dir.Set("Item Data Size", len(payload))
		return nil, nil
	}

	set, err := propertyDecoders[h.Type](payload)
	if err != nil {
		// Keep the slot so later ipma indices stay aligned.
		set = nil
	}
	p.properties = append(p.properties, property{typ: h.Type, set: set})
	return nil, err
}

func (p *picture) decodePitm(payload []byte) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, _ := bmff.FullBox(ch)
	if version == 0 {
		p.primary = uint32(ch.U16("primary item ID"))
	} else {
		p.primary = ch.U32("primary item ID")
	}
	if err := ch.Error(); err != nil {
		return err
	}
	p.hasPrimary = true
	p.Dir.Set("Primary Item Reference", p.primary)
	return nil
}

func (p *picture) decodeInfe(payload []byte) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, _ := bmff.FullBox(ch)
	if version < 2 {
		// Version 0 and 1 entries carry no item type.
		return ch.Error()
	}

	var id uint32
	if version == 2 {
		id = uint32(ch.U16("item ID"))
	} else {
		id = ch.U32("item ID")
	}
	ch.Skip(2, "item protection index")
	typ := ch.String(4, "item type")
	if err := ch.Error(); err != nil {
		return err
	}
	name := ch.CString(int(ch.Remaining()), "item name")

	if len(p.itemTypes) == 0 {
		p.firstItem = id
	}
	p.itemTypes = append(p.itemTypes, strings.TrimSpace(typ))
	p.Dir.Set("Item Types", strings.Join(p.itemTypes, ", "))

	switch typ {
	case "Exif":
		p.Dir.Set("Exif Item", id)
	case "mime":
		content := ch.CString(int(ch.Remaining()), "content type")
		if strings.Contains(content, "rdf+xml") {
			p.Dir.Set("XMP Item", id)
		}
	default:
		if id == p.primary && p.hasPrimary {
			p.Dir.SetString("Primary Item Name", name)
		}
	}
	return ch.Error()
}

// decodeIpma applies the properties associated with the primary item (or
// the first item when there is no pitm).
func (p *picture) decodeIpma(payload []byte) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, flags := bmff.FullBox(ch)
	count := ch.U32("entry count")
	if err := ch.Error(); err != nil {
		return err
	}

	target := p.primary
	if !p.hasPrimary {
		target = p.firstItem
	}

	for range count {
		var id uint32
		if version < 1 {
			id = uint32(ch.U16("item ID"))
		} else {
			id = ch.U32("item ID")
		}
		n := ch.U8("association count")
		indices := make([]int, 0, n)
		for range n {
			if flags&1 != 0 {
				indices = append(indices, int(ch.U16("property index")&0x7FFF))
			} else {
				indices = append(indices, int(ch.U8("property index")&0x7F))
			}
		}
		if err := ch.Error(); err != nil {
			return err
		}
		if id != target {
			continue
		}

		var assoc []string
		for _, idx := range indices {
			if idx == 0 || idx > len(p.properties) {
				return fmt.Errorf("item %d references property %d of %d", id, idx, len(p.properties))
			}
			prop := p.properties[idx-1]
			assoc = append(assoc, prop.typ)
			if prop.set != nil {
				prop.set(p.Dir)
			}
		}
		p.Dir.Set("Primary Item Properties", strings.Join(assoc, ", "))
	}
	return nil
}

// decodeIloc records the number of located items.
func decodeIloc(payload []byte, dir *types.Directory) error {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	version, _ := bmff.FullBox(ch)
	sizes := ch.U16("offset and length sizes")
	var n uint32
	if version < 2 {
		n = uint32(ch.U16("item count"))
	} else {
		n = ch.U32("item count")
	}
	if err := ch.Error(); err != nil {
		return err
	}
	dir.Set("Item Location Count", n)
	dir.Set("Offset Size", sizes>>12)
	dir.Set("Length Size", sizes>>8&0xF)
	return nil
}

// references counts item references by kind.
type references struct {
	walker.Base
	wide   bool
	counts map[string]int
}

var referenceNames = map[string]string{
	"thmb": "Thumbnail References",
	"auxl": "Auxiliary References",
	"cdsc": "Content Description References",
	"dimg": "Derived Image References",
	"base": "Base Image References",
}

func (r *references) AcceptLeaf(h *walker.Header) bool {
	_, ok := referenceNames[h.Type]
	return ok
}

func (r *references) ProcessLeaf(h *walker.Header, payload []byte) (walker.Handler, error) {
	ch := binary.ChainBytes(payload, binary.BigEndian)
	if r.wide {
		ch.Skip(4, "from item ID")
	} else {
		ch.Skip(2, "from item ID")
	}
	n := ch.U16("reference count")
	if err := ch.Error(); err != nil {
		return nil, err
	}
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[h.Type] += int(n)
	r.Dir.Set(referenceNames[h.Type], r.counts[h.Type])
	return nil, nil
}
