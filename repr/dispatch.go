package repr

import "fmt"

// Decode dispatches to the primitive decoder for code and returns the
// decoded value as one of: float64, Pair, Triple, Complex, int64, uint64,
// uint32, string, DateTime, bool, or Obname. It is a pure lookup table —
// there is no mutable or package-scope state behind it.
func Decode(code Code, buf []byte, off int) (any, int, error) {
	if n := Len(code); n >= 0 {
		if err := need(buf, off, n, code); err != nil {
			return nil, 0, err
		}
	}
	switch code {
	case FSHORT:
		return call(DecodeFSHORT(buf, off))
	case FSINGL:
		return call(DecodeFSINGL(buf, off))
	case FSING1:
		return call(DecodeFSING1(buf, off))
	case FSING2:
		return call(DecodeFSING2(buf, off))
	case ISINGL:
		return call(DecodeISINGL(buf, off))
	case VSINGL:
		return call(DecodeVSINGL(buf, off))
	case FDOUBL:
		return call(DecodeFDOUBL(buf, off))
	case FDOUB1:
		return call(DecodeFDOUB1(buf, off))
	case FDOUB2:
		return call(DecodeFDOUB2(buf, off))
	case CSINGL:
		return call(DecodeCSINGL(buf, off))
	case CDOUBL:
		return call(DecodeCDOUBL(buf, off))
	case SSHORT:
		return call(DecodeSSHORT(buf, off))
	case SNORM:
		return call(DecodeSNORM(buf, off))
	case SLONG:
		return call(DecodeSLONG(buf, off))
	case USHORT:
		return call(DecodeUSHORT(buf, off))
	case UNORM:
		return call(DecodeUNORM(buf, off))
	case ULONG:
		return call(DecodeULONG(buf, off))
	case UVARI:
		return call(DecodeUVARI(buf, off))
	case IDENT:
		return call(DecodeIDENT(buf, off))
	case ASCII:
		return call(DecodeASCII(buf, off))
	case DTIME:
		return call(DecodeDTIME(buf, off))
	case STATUS:
		return call(DecodeSTATUS(buf, off))
	case OBNAME:
		return call(DecodeOBNAME(buf, off))
	default:
		return nil, 0, fmt.Errorf("%w: code %d", ErrUnknownReprc, code)
	}
}

// call adapts the (value, n, error) shape all decoders share into the
// generic (any, int, error) shape Decode returns.
func call[T any](v T, n int, err error) (any, int, error) {
	return v, n, err
}

// DecodeSeq decodes count consecutive values of code starting at off,
// returning the ordered sequence and the total number of bytes consumed.
func DecodeSeq(code Code, count int, buf []byte, off int) ([]any, int, error) {
	out := make([]any, 0, count)
	total := 0
	for i := 0; i < count; i++ {
		v, n, err := Decode(code, buf, off+total)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
		total += n
	}
	return out, total, nil
}
