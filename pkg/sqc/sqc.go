// Package sqc implements the SQC container format used for ROM packs and
// individual libraries.
//
// Both container kinds share one fixed header followed by a table of
// big-endian 32-bit properties:
//
//	offset 0      magic (pack or library)
//	offset 4      class version, big-endian int16
//	offset 6      property count, big-endian uint16
//	offset 8+4*i  property i, big-endian int32
package sqc

// SQC global constants must never change.
const (
	// MagicPack identifies a pack archive holding zero or more libraries.
	MagicPack uint32 = 0x58455223

	// MagicLibrary identifies a single library (one classpath entry).
	MagicLibrary uint32 = 0x00452670

	// ClassVersion is the only accepted class version. Versions are not negotiated.
	ClassVersion int16 = 1

	OffsetMagic         = 0
	OffsetClassVersion  = 4
	OffsetNumProperties = 6
	OffsetProperties    = 8
	PropertySize        = 4

	// HeaderSize covers magic, version and property count.
	HeaderSize = OffsetProperties

	// MaxProperties is the largest count the 16-bit field can express.
	MaxProperties = 0xFFFF
)

// Well known property slots.
const (
	// PropertyVersion repeats the class version.
	PropertyVersion = 0

	// PropertyTOCCount holds the number of embedded libraries in a pack.
	PropertyTOCCount = 1
)

// Kind distinguishes the two container families.
type Kind int

const (
	KindUnknown Kind = iota
	KindPack
	KindLibrary
)

func (k Kind) String() string {
	switch k {
	case KindPack:
		return "pack"
	case KindLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// Magic returns the magic number for the kind, or 0 for KindUnknown.
func (k Kind) Magic() uint32 {
	switch k {
	case KindPack:
		return MagicPack
	case KindLibrary:
		return MagicLibrary
	default:
		return 0
	}
}

// KindForMagic maps a magic number to its container kind.
func KindForMagic(magic uint32) Kind {
	switch magic {
	case MagicPack:
		return KindPack
	case MagicLibrary:
		return KindLibrary
	default:
		return KindUnknown
	}
}

// ParseKind accepts "pack" or "library" (also "lib" and "jar").
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "pack":
		return KindPack, true
	case "library", "lib", "jar":
		return KindLibrary, true
	default:
		return KindUnknown, false
	}
}

// PropertyOffset returns the byte offset of property i.
// It is computed in int64 so large indices cannot wrap.
func PropertyOffset(i int32) int64 {
	return OffsetProperties + int64(i)*PropertySize
}
