package value

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
)

// Template codes implemented here (spec §1 keeps pack/unpack in CORE scope
// for the codes exercised by §8's test scenarios; everything else is an
// out-of-scope "pack/unpack edge case").
//
//	Q/q - unsigned/signed 64-bit, native byte order
//	N/n - unsigned 32/16-bit, network (big-endian) byte order
//	L/l - unsigned/signed 32-bit, native byte order
//	C   - unsigned 8-bit
//	a/A - fixed-width byte string, A space-padded, a NUL-padded

// ErrBadTemplate is returned for unsupported or malformed pack templates.
var ErrBadTemplate = errors.New("pack: unsupported or malformed template")

// packItem is one parsed (code, count) pair from a template string, e.g.
// "Q4" -> {code:'Q', count:4}, "A10" -> {code:'A', count:10}.
type packItem struct {
	code  byte
	count int
}

func parseTemplate(tmpl string) ([]packItem, error) {
	var items []packItem
	i := 0
	for i < len(tmpl) {
		c := tmpl[i]
		if c == ' ' {
			i++
			continue
		}
		i++
		count := 1
		if i < len(tmpl) && tmpl[i] == '*' {
			count = -1
			i++
		} else {
			start := i
			for i < len(tmpl) && tmpl[i] >= '0' && tmpl[i] <= '9' {
				i++
			}
			if i > start {
				n := 0
				for _, d := range tmpl[start:i] {
					n = n*10 + int(d-'0')
				}
				count = n
			}
		}
		items = append(items, packItem{code: c, count: count})
	}
	return items, nil
}

// Pack implements Perl's pack(TEMPLATE, LIST) for the template codes
// listed above, returning the packed byte string.
func Pack(tmpl string, args []*Scalar) ([]byte, error) {
	items, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	var out []byte
	argi := 0
	next := func() *Scalar {
		if argi < len(args) {
			s := args[argi]
			argi++
			return s
		}
		return Undef()
	}
	for _, it := range items {
		n := it.count
		switch it.code {
		case 'Q', 'q':
			if n == -1 {
				n = len(args) - argi
			}
			for k := 0; k < n; k++ {
				buf := make([]byte, 8)
				binary.LittleEndian.PutUint64(buf, uint64(next().AsBigInt().Int64()))
				out = append(out, buf...)
			}
		case 'N':
			if n == -1 {
				n = len(args) - argi
			}
			for k := 0; k < n; k++ {
				buf := make([]byte, 4)
				binary.BigEndian.PutUint32(buf, uint32(next().AsInt()))
				out = append(out, buf...)
			}
		case 'n':
			if n == -1 {
				n = len(args) - argi
			}
			for k := 0; k < n; k++ {
				buf := make([]byte, 2)
				binary.BigEndian.PutUint16(buf, uint16(next().AsInt()))
				out = append(out, buf...)
			}
		case 'L', 'l':
			if n == -1 {
				n = len(args) - argi
			}
			for k := 0; k < n; k++ {
				buf := make([]byte, 4)
				binary.LittleEndian.PutUint32(buf, uint32(next().AsInt()))
				out = append(out, buf...)
			}
		case 'C':
			if n == -1 {
				n = len(args) - argi
			}
			for k := 0; k < n; k++ {
				out = append(out, byte(next().AsInt()))
			}
		case 'a', 'A':
			s := next().AsString()
			width := n
			if width == -1 {
				width = len(s)
			}
			padded := make([]byte, width)
			pad := byte(0)
			if it.code == 'A' {
				pad = ' '
			}
			for k := range padded {
				padded[k] = pad
			}
			copy(padded, s)
			out = append(out, padded...)
		default:
			return nil, errors.Wrapf(ErrBadTemplate, "code %q", it.code)
		}
	}
	return out, nil
}

// Unpack implements Perl's unpack(TEMPLATE, EXPR), the inverse of Pack.
func Unpack(tmpl string, data []byte) ([]*Scalar, error) {
	items, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	var out []*Scalar
	pos := 0
	for _, it := range items {
		n := it.count
		switch it.code {
		case 'Q':
			if n == -1 {
				n = (len(data) - pos) / 8
			}
			for k := 0; k < n && pos+8 <= len(data); k++ {
				u := binary.LittleEndian.Uint64(data[pos : pos+8])
				out = append(out, bigIntScalar(new(big.Int).SetUint64(u)))
				pos += 8
			}
		case 'q':
			if n == -1 {
				n = (len(data) - pos) / 8
			}
			for k := 0; k < n && pos+8 <= len(data); k++ {
				u := binary.LittleEndian.Uint64(data[pos : pos+8])
				out = append(out, NewInt(int64(u)))
				pos += 8
			}
		case 'N':
			if n == -1 {
				n = (len(data) - pos) / 4
			}
			for k := 0; k < n && pos+4 <= len(data); k++ {
				out = append(out, NewInt(int64(binary.BigEndian.Uint32(data[pos:pos+4]))))
				pos += 4
			}
		case 'n':
			if n == -1 {
				n = (len(data) - pos) / 2
			}
			for k := 0; k < n && pos+2 <= len(data); k++ {
				out = append(out, NewInt(int64(binary.BigEndian.Uint16(data[pos:pos+2]))))
				pos += 2
			}
		case 'L':
			if n == -1 {
				n = (len(data) - pos) / 4
			}
			for k := 0; k < n && pos+4 <= len(data); k++ {
				out = append(out, NewInt(int64(binary.LittleEndian.Uint32(data[pos:pos+4]))))
				pos += 4
			}
		case 'l':
			if n == -1 {
				n = (len(data) - pos) / 4
			}
			for k := 0; k < n && pos+4 <= len(data); k++ {
				out = append(out, NewInt(int64(int32(binary.LittleEndian.Uint32(data[pos:pos+4])))))
				pos += 4
			}
		case 'C':
			if n == -1 {
				n = len(data) - pos
			}
			for k := 0; k < n && pos < len(data); k++ {
				out = append(out, NewInt(int64(data[pos])))
				pos++
			}
		case 'a', 'A':
			width := n
			if width == -1 {
				width = len(data) - pos
			}
			end := pos + width
			if end > len(data) {
				end = len(data)
			}
			chunk := data[pos:end]
			pos = end
			if it.code == 'A' {
				chunk = trimTrailing(chunk, ' ', 0)
			}
			out = append(out, NewString(string(chunk), false))
		default:
			return nil, errors.Wrapf(ErrBadTemplate, "code %q", it.code)
		}
	}
	return out, nil
}

// bigIntScalar normalizes like normalizeBig but is exported-internal here
// to keep Unpack's Q case exact for values beyond math.MaxInt64 (spec §8
// scenario 8: unpack_Q(pack_Q(MaxInt64)) must round-trip exactly; values
// above MaxInt64 must promote to IntBig rather than wrap negative).
func bigIntScalar(b *big.Int) *Scalar {
	if b.IsInt64() {
		return NewInt(b.Int64())
	}
	return NewBigInt(b)
}

func trimTrailing(b []byte, pads ...byte) []byte {
	end := len(b)
	for end > 0 {
		trim := false
		for _, p := range pads {
			if b[end-1] == p {
				trim = true
				break
			}
		}
		if !trim {
			break
		}
		end--
	}
	return b[:end]
}
