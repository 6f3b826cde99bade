package deluge

// MaxSysExSize caps a reassembled SysEx message
const MaxSysExSize = 16 * 1024

// Assembler rebuilds SysEx messages from a raw MIDI byte stream, such as a
// capture file.
type Assembler struct {
	buf       []byte
	inSysEx   bool
	overflows int
}

// Feed consumes bytes and returns any messages completed by them,
// each including its F0 and F7.
func (a *Assembler) Feed(data []byte) [][]byte {
	var out [][]byte
	for _, b := range data {
		switch {
		case b == 0xF0:
			a.buf = append(a.buf[:0], b)
			a.inSysEx = true
		case !a.inSysEx:
			// outside a message
		case b == 0xF7:
			a.buf = append(a.buf, b)
			msg := make([]byte, len(a.buf))
			copy(msg, a.buf)
			out = append(out, msg)
			a.reset()
		case b >= 0xF8:
			// realtime bytes may interleave with SysEx
		case b >= 0x80:
			// any other status byte aborts the message
			a.reset()
		default:
			if len(a.buf) >= MaxSysExSize {
				a.overflows++
				a.reset()
				continue
			}
			a.buf = append(a.buf, b)
		}
	}
	return out
}

// Overflows counts messages dropped for exceeding MaxSysExSize
func (a *Assembler) Overflows() int {
	return a.overflows
}

func (a *Assembler) reset() {
	a.buf = a.buf[:0]
	a.inSysEx = false
}
