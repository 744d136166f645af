// pkg/octet/types.go
package octet

// EOMReason tells why a read ended
type EOMReason int

const (
	EOMNone  EOMReason = 0
	EOMCount EOMReason = 1 << 0 // reply buffer full
	EOMEOS   EOMReason = 1 << 1 // input terminator seen
	EOMEnd   EOMReason = 1 << 2 // transport signalled end of message
)

// String returns a readable name for the reason
func (r EOMReason) String() string {
	switch r {
	case EOMNone:
		return "none"
	case EOMCount:
		return "count"
	case EOMEOS:
		return "eos"
	case EOMEnd:
		return "end"
	default:
		return "mixed"
	}
}

// Response holds the outcome of a WriteRead
type Response struct {
	Data     []byte    `json:"data"`
	BytesOut int       `json:"bytes_out"`
	BytesIn  int       `json:"bytes_in"`
	EOM      EOMReason `json:"eom_reason"`
}

// Text returns the reply as a string
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Data)
}
