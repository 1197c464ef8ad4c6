package wisol

import (
	"fmt"
	"strings"

	"github.com/unabiz/wisol-go/at"
)

// renderFrame formats exchanged bytes for the echo sink. The buffer is
// walked two characters at a time (payloads are hex pairs on the wire)
// and a hex token for the delimiter is spliced in wherever a recorded
// marker offset matches, including a trailing marker at end of buffer.
//
// Only logged marker positions render; delimiters counted beyond the
// marker log capacity are invisible here. Same inputs always produce
// the same text.
func renderFrame(prefix string, raw []byte, markers []int) string {
	var b strings.Builder
	b.WriteString(prefix)
	m := 0
	i := 0
	for ; i < len(raw); i += 2 {
		if m < len(markers) && markers[m] == i {
			fmt.Fprintf(&b, "0x%02x", at.Delimiter)
			m++
		}
		b.WriteByte(raw[i])
		if i+1 < len(raw) {
			b.WriteByte(raw[i+1])
		}
	}
	if m < len(markers) && markers[m] == i {
		fmt.Fprintf(&b, "0x%02x", at.Delimiter)
	}
	return b.String()
}
