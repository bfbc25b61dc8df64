package bytecode

import (
	"encoding/binary"
	"math"

	velaerrors "github.com/velalang/vela/internal/errors"
)

// Constant-pool section markers (§6): introduce each typed pool ahead of
// the instruction stream. Values are chosen well above the opcode range so
// a corrupt stream can't confuse one for the other.
const (
	opConstIntTable    OpCode = 0xF0
	opConstFloatTable  OpCode = 0xF1
	opConstStringTable OpCode = 0xF2
)

// Module is the deserialized form of one compiled bytecode buffer: the
// header fields of §6 plus the three typed constant pools and the entry
// chunk's raw instructions.
type Module struct {
	Version      Version
	HasBytecode  bool
	CompiledAt   string
	Filename     string
	SourceType   SourceType
	ConstInts    []int64
	ConstFloats  []float64
	ConstStrings []string
	Code         *Chunk
}

// Reader is a cursor over a byte buffer implementing the primitives of
// §4.A. Every Read* method and Skip advances Ip; out-of-range access
// raises KindBytecode.
type Reader struct {
	buf []byte
	ip  int
	mod *Module
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Ip() int      { return r.ip }
func (r *Reader) SetIp(ip int) { r.ip = ip }
func (r *Reader) Len() int     { return len(r.buf) }

func (r *Reader) require(n int) error {
	if r.ip+n > len(r.buf) {
		return velaerrors.New(velaerrors.KindBytecode, "unexpected end of bytecode at offset %d", r.ip)
	}
	return nil
}

func (r *Reader) Read() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.buf[r.ip]
	r.ip++
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.Read()
	return b != 0, err
}

func (r *Reader) ReadInt16() (int16, error) {
	u, err := r.ReadUint16()
	return int16(u), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.ip:])
	r.ip += 2
	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.ip:])
	r.ip += 4
	return v, nil
}

func (r *Reader) ReadInt64() (int64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(r.buf[r.ip:]))
	r.ip += 8
	return v, nil
}

func (r *Reader) ReadFloat64() (float64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint64(r.buf[r.ip:])
	r.ip += 8
	return math.Float64frombits(bits), nil
}

// ReadUtf8String reads a u16-length-prefixed UTF-8 string.
func (r *Reader) ReadUtf8String() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	if err := r.require(int(n)); err != nil {
		return "", err
	}
	s := string(r.buf[r.ip : r.ip+int(n)])
	r.ip += int(n)
	return s, nil
}

func (r *Reader) Skip(n int) error {
	if err := r.require(n); err != nil {
		return err
	}
	r.ip += n
	return nil
}

func (r *Reader) GetConstInt(idx uint16) (int64, error) {
	if r.mod == nil || int(idx) >= len(r.mod.ConstInts) {
		return 0, velaerrors.New(velaerrors.KindBytecode, "int constant index %d out of range", idx)
	}
	return r.mod.ConstInts[idx], nil
}

func (r *Reader) GetConstFloat(idx uint16) (float64, error) {
	if r.mod == nil || int(idx) >= len(r.mod.ConstFloats) {
		return 0, velaerrors.New(velaerrors.KindBytecode, "float constant index %d out of range", idx)
	}
	return r.mod.ConstFloats[idx], nil
}

func (r *Reader) GetConstString(idx uint16) (string, error) {
	if r.mod == nil || int(idx) >= len(r.mod.ConstStrings) {
		return "", velaerrors.New(velaerrors.KindBytecode, "string constant index %d out of range", idx)
	}
	return r.mod.ConstStrings[idx], nil
}

// ReadModule parses the full file format of §6: magic, compiler version,
// optional bytecode version, compiledAt, filename, source type,
// instructions, endOfCode -- with the three typed constant pools read
// ahead of the instruction stream.
func ReadModule(buf []byte) (*Module, error) {
	r := NewReader(buf)

	magic, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if magic != MagicNumber {
		return nil, velaerrors.New(velaerrors.KindBytecode, "bad magic number %#x", magic)
	}

	ver, err := readVersion(r)
	if err != nil {
		return nil, err
	}

	hasBytecodeVersion, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasBytecodeVersion {
		if _, err := readVersion(r); err != nil {
			return nil, err
		}
	}

	compiledAt, err := r.ReadUtf8String()
	if err != nil {
		return nil, err
	}
	filename, err := r.ReadUtf8String()
	if err != nil {
		return nil, err
	}
	sourceTypeByte, err := r.Read()
	if err != nil {
		return nil, err
	}

	mod := &Module{
		Version:     ver,
		HasBytecode: hasBytecodeVersion,
		CompiledAt:  compiledAt,
		Filename:    filename,
		SourceType:  SourceType(sourceTypeByte),
	}
	r.mod = mod

	if err := readConstIntTable(r, mod); err != nil {
		return nil, err
	}
	if err := readConstFloatTable(r, mod); err != nil {
		return nil, err
	}
	if err := readConstStringTable(r, mod); err != nil {
		return nil, err
	}

	start := r.ip
	end := len(buf)
	// endOfCode is the final byte of the instruction stream; trim it off
	// the chunk's own code so the VM loop terminates on OpEndOfCode
	// naturally rather than reading past the buffer.
	if end > start && OpCode(buf[end-1]) == OpEndOfCode {
		end--
	}
	mod.Code = &Chunk{
		Code:         append([]byte(nil), buf[start:end]...),
		ConstInts:    mod.ConstInts,
		ConstFloats:  mod.ConstFloats,
		ConstStrings: mod.ConstStrings,
	}

	return mod, nil
}

func readVersion(r *Reader) (Version, error) {
	var v Version
	major, err := r.Read()
	if err != nil {
		return v, err
	}
	minor, err := r.Read()
	if err != nil {
		return v, err
	}
	patch, err := r.ReadUint16()
	if err != nil {
		return v, err
	}
	pre, err := readStringChunks(r)
	if err != nil {
		return v, err
	}
	build, err := readStringChunks(r)
	if err != nil {
		return v, err
	}
	v = Version{Major: major, Minor: minor, Patch: patch, Pre: pre, Build: build}
	return v, nil
}

func readStringChunks(r *Reader) ([]string, error) {
	n, err := r.Read()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		s, err := r.ReadUtf8String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func readConstIntTable(r *Reader, mod *Module) error {
	tag, err := r.Read()
	if err != nil {
		return err
	}
	if OpCode(tag) != opConstIntTable {
		return velaerrors.New(velaerrors.KindBytecode, "expected constIntTable marker")
	}
	n, err := r.ReadUint16()
	if err != nil {
		return err
	}
	mod.ConstInts = make([]int64, n)
	for i := range mod.ConstInts {
		v, err := r.ReadInt64()
		if err != nil {
			return err
		}
		mod.ConstInts[i] = v
	}
	return nil
}

func readConstFloatTable(r *Reader, mod *Module) error {
	tag, err := r.Read()
	if err != nil {
		return err
	}
	if OpCode(tag) != opConstFloatTable {
		return velaerrors.New(velaerrors.KindBytecode, "expected constFloatTable marker")
	}
	n, err := r.ReadUint16()
	if err != nil {
		return err
	}
	mod.ConstFloats = make([]float64, n)
	for i := range mod.ConstFloats {
		v, err := r.ReadFloat64()
		if err != nil {
			return err
		}
		mod.ConstFloats[i] = v
	}
	return nil
}

func readConstStringTable(r *Reader, mod *Module) error {
	tag, err := r.Read()
	if err != nil {
		return err
	}
	if OpCode(tag) != opConstStringTable {
		return velaerrors.New(velaerrors.KindBytecode, "expected constStringTable marker")
	}
	n, err := r.ReadUint16()
	if err != nil {
		return err
	}
	mod.ConstStrings = make([]string, n)
	for i := range mod.ConstStrings {
		v, err := r.ReadUtf8String()
		if err != nil {
			return err
		}
		mod.ConstStrings[i] = v
	}
	return nil
}
