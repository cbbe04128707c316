// Package conv holds allocation-free numeric/text append helpers.
// No fmt or strconv dependency, safe on MCU builds.
package conv

const hexd = "0123456789ABCDEF"

// Itoa writes the base-10 representation of n into buf and returns the
// used slice. buf should be length >= 20 for int64.
func Itoa(buf []byte, n int64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	neg := n < 0
	var u uint64
	if neg {
		u = uint64(-n)
	} else {
		u = uint64(n)
	}
	if u == 0 {
		i--
		buf[i] = '0'
	} else {
		for u > 0 && i > 0 {
			i--
			buf[i] = byte('0' + (u % 10))
			u /= 10
		}
	}
	if neg && i > 0 {
		i--
		buf[i] = '-'
	}
	return buf[i:]
}

// AppendUint appends the base-10 representation of v to dst.
func AppendUint(dst []byte, v uint32) []byte {
	var tmp [10]byte
	return append(dst, Itoa(tmp[:], int64(v))...)
}

// U32Hex writes 8-digit uppercase hex without 0x, zero-padded.
func U32Hex(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// AppendByteHex appends two lowercase hex digits for b.
func AppendByteHex(dst []byte, b byte) []byte {
	const lower = "0123456789abcdef"
	return append(dst, lower[b>>4], lower[b&0xF])
}

// AppendIPv4 appends a dotted-quad address.
func AppendIPv4(dst []byte, a [4]byte) []byte {
	for i, b := range a {
		if i > 0 {
			dst = append(dst, '.')
		}
		dst = AppendUint(dst, uint32(b))
	}
	return dst
}

// AppendMAC appends a colon-separated hardware address.
func AppendMAC(dst []byte, mac [6]byte) []byte {
	for i, b := range mac {
		if i > 0 {
			dst = append(dst, ':')
		}
		dst = AppendByteHex(dst, b)
	}
	return dst
}
