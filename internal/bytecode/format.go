// Package bytecode implements the compiled-module wire format and opcode
// set the dispatch loop consumes: a cursor-based reader/writer, a versioned
// header, and per-type constant pools.
package bytecode

// FileExtension is the suffix compiled bytecode modules carry on disk.
const FileExtension = ".velac"

// MagicNumber identifies a well-formed module file: "VELA" in ASCII.
const MagicNumber uint32 = 0x56454C41

// SourceType distinguishes script-mode modules (top-level statements run at
// load time) from module-mode ones (execution deferred to an explicit
// invoke), per the GLOSSARY's "Script mode" entry.
type SourceType uint8

const (
	SourceTypeScript SourceType = 0
	SourceTypeModule SourceType = 1
)

// Version is the compiler version tuple of §6: major.minor.patch plus
// optional pre-release/build metadata chunklists, following semver's shape.
type Version struct {
	Major uint8
	Minor uint8
	Patch uint16
	Pre   []string
	Build []string
}

// CurrentVersion is the compiler version this package's Writer stamps onto
// every module it produces.
var CurrentVersion = Version{Major: 1, Minor: 0, Patch: 0}

// Compatible implements the compatibility rule of §4.G: major>0 requires an
// exact major match; major==0 requires exact equality of the whole triple.
func (v Version) Compatible(other Version) bool {
	if v.Major == 0 || other.Major == 0 {
		return v.Major == other.Major && v.Minor == other.Minor && v.Patch == other.Patch
	}
	return v.Major == other.Major
}

func (v Version) String() string {
	s := versionCore(v)
	if len(v.Pre) > 0 {
		s += "-" + joinDot(v.Pre)
	}
	if len(v.Build) > 0 {
		s += "+" + joinDot(v.Build)
	}
	return s
}

func versionCore(v Version) string {
	return itoa(int(v.Major)) + "." + itoa(int(v.Minor)) + "." + itoa(int(v.Patch))
}

func joinDot(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

// Constant pool type tags. Nothing in this module reads them: the inline
// literal decoding opcode (§4.I) selects its shape by LiteralKind, and the
// pools themselves are three separate typed arrays, not a single tagged
// pool, per §6.
const (
	ConstNull   uint8 = 0
	ConstBool   uint8 = 1
	ConstInt    uint8 = 2
	ConstFloat  uint8 = 3
	ConstString uint8 = 4
)

// HeaderSize is the fixed-width prefix of the file header: the magic number
// and the compiler version's major/minor/patch fields. The version's
// pre-release and build lists, the bytecode-version flag and the
// compiledAt/filename strings that follow vary in length.
const HeaderSize = 4 + 4 // magic + major(u8)/minor(u8)/patch(u16)
