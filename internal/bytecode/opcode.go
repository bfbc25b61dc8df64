package bytecode

import "fmt"

// OpCode is a single instruction tag. Groups follow §4.H of the core spec
// exactly: meta, register traffic, control flow, logic/arith, bitwise,
// type ops, member access, declarations, assertions & errors, assignment,
// call.
type OpCode byte

const (
	// Meta
	OpLineInfo OpCode = iota
	OpFile
	OpEndOfFile
	OpEndOfCodeBlock
	OpEndOfStmt
	OpEndOfExec
	OpEndOfFunc
	OpEndOfModule
	OpEndOfCode

	// Register traffic
	OpLocal            // literal decode, see §4.I
	OpRegister         // register<idx>: copy localValue into a named register
	OpPushOperand      // push localValue onto the operand stack, see §4.H
	OpCreateStackFrame
	OpRetractStackFrame

	// Control flow
	OpSkip      // skip(int16)
	OpLoopPoint // loopPoint(continueLen, breakLen)
	OpBreakLoop
	OpContinueLoop
	OpAnchor
	OpClearAnchor
	OpGoto // goto(u16)
	OpIfStmt
	OpWhileStmt
	OpDoStmt
	OpSwitchStmt

	// Logic / arithmetic
	OpEqual
	OpNotEqual
	OpLesser
	OpGreater
	OpLesserOrEqual
	OpGreaterOrEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDevide
	OpTruncatingDevide
	OpModulo
	OpNegative
	OpLogicalNot
	OpBitwiseNot
	OpLogicalOr
	OpLogicalAnd
	OpIfNull

	// Bitwise
	OpBitwiseOr
	OpBitwiseXor
	OpBitwiseAnd
	OpLeftShift
	OpRightShift
	OpUnsignedRightShift

	// Type ops
	OpTypeAs
	OpTypeIs
	OpTypeIsNot
	OpTypeValueOf
	OpDecltypeOf

	// Member access
	OpMemberGet
	OpMemberSet
	OpSubGet
	OpSubSet

	// Declarations
	OpImportExportDecl
	OpTypeAliasDecl
	OpFuncDecl
	OpClassDecl
	OpClassDeclEnd
	OpExternalEnumDecl
	OpStructDecl
	OpVarDecl
	OpDestructuringDecl
	OpConstDecl
	OpNamespaceDecl
	OpNamespaceDeclEnd

	// Assertions & errors
	OpAssertion
	OpThrows
	OpDelete

	// Assignment
	OpAssign

	// Call
	OpCall

	// Async bridge (§4.K)
	OpAwaitedValue
)

var opNames = map[OpCode]string{
	OpLineInfo: "lineInfo", OpFile: "file", OpEndOfFile: "endOfFile",
	OpEndOfCodeBlock: "endOfCodeBlock", OpEndOfStmt: "endOfStmt",
	OpEndOfExec: "endOfExec", OpEndOfFunc: "endOfFunc",
	OpEndOfModule: "endOfModule", OpEndOfCode: "endOfCode",
	OpLocal: "local", OpRegister: "register", OpPushOperand: "pushOperand",
	OpCreateStackFrame: "createStackFrame", OpRetractStackFrame: "retractStackFrame",
	OpSkip: "skip", OpLoopPoint: "loopPoint", OpBreakLoop: "breakLoop",
	OpContinueLoop: "continueLoop", OpAnchor: "anchor", OpClearAnchor: "clearAnchor",
	OpGoto: "goto", OpIfStmt: "ifStmt", OpWhileStmt: "whileStmt",
	OpDoStmt: "doStmt", OpSwitchStmt: "switchStmt",
	OpEqual: "equal", OpNotEqual: "notEqual", OpLesser: "lesser",
	OpGreater: "greater", OpLesserOrEqual: "lesserOrEqual",
	OpGreaterOrEqual: "greaterOrEqual", OpAdd: "add", OpSubtract: "subtract",
	OpMultiply: "multiply", OpDevide: "devide", OpTruncatingDevide: "truncatingDevide",
	OpModulo: "modulo", OpNegative: "negative", OpLogicalNot: "logicalNot",
	OpBitwiseNot: "bitwiseNot", OpLogicalOr: "logicalOr", OpLogicalAnd: "logicalAnd",
	OpIfNull: "ifNull",
	OpBitwiseOr: "bitwiseOr", OpBitwiseXor: "bitwiseXor", OpBitwiseAnd: "bitwiseAnd",
	OpLeftShift: "leftShift", OpRightShift: "rightShift",
	OpUnsignedRightShift: "unsignedRightShift",
	OpTypeAs: "typeAs", OpTypeIs: "typeIs", OpTypeIsNot: "typeIsNot",
	OpTypeValueOf: "typeValueOf", OpDecltypeOf: "decltypeOf",
	OpMemberGet: "memberGet", OpMemberSet: "memberSet",
	OpSubGet: "subGet", OpSubSet: "subSet",
	OpImportExportDecl: "importExportDecl", OpTypeAliasDecl: "typeAliasDecl",
	OpFuncDecl: "funcDecl", OpClassDecl: "classDecl", OpClassDeclEnd: "classDeclEnd",
	OpExternalEnumDecl: "externalEnumDecl", OpStructDecl: "structDecl",
	OpVarDecl: "varDecl", OpDestructuringDecl: "destructuringDecl",
	OpConstDecl: "constDecl", OpNamespaceDecl: "namespaceDecl",
	OpNamespaceDeclEnd: "namespaceDeclEnd",
	OpAssertion: "assertion", OpThrows: "throws", OpDelete: "delete",
	OpAssign: "assign", OpCall: "call", OpAwaitedValue: "awaitedValue",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OpCode(%d)", byte(op))
}

// LiteralKind selects which shape OpLocal decodes next, per §4.I.
type LiteralKind uint8

const (
	LiteralNull LiteralKind = iota
	LiteralBool
	LiteralConstInt
	LiteralConstFloat
	LiteralConstString
	LiteralInlineString
	LiteralInterpolatedString
	LiteralIdentifier
	LiteralGroup
	LiteralList
	LiteralStruct
	LiteralFunction
	LiteralType
)

// Chunk is one function/method/module body's compiled instruction stream:
// raw bytes plus a parallel line table for diagnostics. The three constant
// pools are set once when a Chunk is produced from a loaded Module, so the
// dispatch loop can resolve a local's constant-pool index without a
// separate handle back to the module.
type Chunk struct {
	Code  []byte
	Lines []int

	ConstInts    []int64
	ConstFloats  []float64
	ConstStrings []string
}

func NewChunk() *Chunk {
	return &Chunk{Code: make([]byte, 0, 64), Lines: make([]int, 0, 64)}
}

func (c *Chunk) WriteOp(op OpCode, line int) int {
	return c.WriteU8(byte(op), line)
}

func (c *Chunk) WriteU8(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

func (c *Chunk) WriteU16(v uint16, line int) int {
	pos := c.WriteU8(byte(v>>8), line)
	c.WriteU8(byte(v), line)
	return pos
}

func (c *Chunk) WriteI16(v int16, line int) int {
	return c.WriteU16(uint16(v), line)
}

// PatchJump backfills a two-byte forward-jump offset written at pos with
// the distance from just after pos to the chunk's current end.
func (c *Chunk) PatchJump(pos int) {
	offset := len(c.Code) - pos - 2
	c.Code[pos] = byte(offset >> 8)
	c.Code[pos+1] = byte(offset)
}

func (c *Chunk) ReadU16(ip int) uint16 {
	return uint16(c.Code[ip])<<8 | uint16(c.Code[ip+1])
}

func (c *Chunk) ReadI16(ip int) int16 {
	return int16(c.ReadU16(ip))
}
