package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parse(t *testing.T, program ...string) (prog *Program, err error) {
	asm := &Assembler{}
	prog, err = asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	return
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("16", asm.Equate["MEMORY_SIZE"])
	assert.Equal("15", asm.Equate["OPERAND_MAX"])
}

func TestAssemblerInstructions(t *testing.T) {
	program := []string{
		"add 15   ; comment",
		"",
		"and 0x3",
		"  shl\t2",
		"disp 0",
		"load 4",
		"str 5",
		"jmp 6",
		"jz 7",
		"nop",
		".byte 200",
		".byte -128",
		".byte 255",
	}

	prog, err := parse(t, program...)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Opcode{
		{LineNo: 1, Ip: 0, Words: []string{"add", "15"}, Code: MakeCode(OP_ADD, 15)},
		{LineNo: 3, Ip: 1, Words: []string{"and", "0x3"}, Code: MakeCode(OP_AND, 3)},
		{LineNo: 4, Ip: 2, Words: []string{"shl", "2"}, Code: MakeCode(OP_SHL, 2)},
		{LineNo: 5, Ip: 3, Words: []string{"disp", "0"}, Code: MakeCode(OP_DISP, 0)},
		{LineNo: 6, Ip: 4, Words: []string{"load", "4"}, Code: MakeCode(OP_LOAD, 4)},
		{LineNo: 7, Ip: 5, Words: []string{"str", "5"}, Code: MakeCode(OP_STR, 5)},
		{LineNo: 8, Ip: 6, Words: []string{"jmp", "6"}, Code: MakeCode(OP_JMP, 6)},
		{LineNo: 9, Ip: 7, Words: []string{"jz", "7"}, Code: MakeCode(OP_JZ, 7)},
		{LineNo: 10, Ip: 8, Words: []string{"nop"}, Code: MakeCodeNop()},
		{LineNo: 11, Ip: 9, Words: []string{".byte", "200"}, Code: Decode(-56), Data: true, Word: -56},
		{LineNo: 12, Ip: 10, Words: []string{".byte", "-128"}, Code: Decode(-128), Data: true, Word: -128},
		{LineNo: 13, Ip: 11, Words: []string{".byte", "255"}, Code: Decode(-1), Data: true, Word: -1},
	}

	opEqual(t, expected, prog.Opcodes)

	image, err := prog.Image()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []int8{-56, -128, -1}, image[9:12])
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"start: load value",
		"loop:",
		"add 1",
		"jz done",
		"jmp loop",
		"done: disp value",
		"end: jmp end",
		"value: .byte -3",
	}

	prog, err := parse(t, program...)
	if err != nil {
		t.Fatal(err)
	}

	image, err := prog.Image()
	assert.NoError(err)

	assert.Equal(MakeCode(OP_LOAD, 6), Decode(image[0]))
	assert.Equal(MakeCode(OP_ADD, 1), Decode(image[1]))
	assert.Equal(MakeCode(OP_JZ, 4), Decode(image[2]))
	assert.Equal(MakeCode(OP_JMP, 1), Decode(image[3]))
	assert.Equal(MakeCode(OP_DISP, 6), Decode(image[4]))
	assert.Equal(MakeCode(OP_JMP, 5), Decode(image[5]))
	assert.Equal(int8(-3), image[6])

	cpu := NewCpu()
	cpu.Load(image)
	for range 32 {
		if cpu.Tick() != nil {
			break
		}
	}
	assert.True(cpu.Halted)
	assert.Equal(int8(-3), cpu.Bcd)
	assert.Equal(int8(0), cpu.Register)
}

func TestAssemblerEquates(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("STEP", "2")

	program := []string{
		".equ COUNTER 15",
		"add STEP",
		"str COUNTER",
		"add $(STEP * 3 + 1)",
		"disp $(MEMORY_SIZE - 1)",
		"jmp $(LINENO - 5)",
		"add '\\n'",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)

	codes, err := prog.Codes()
	assert.NoError(err)
	assert.Equal([]Code{
		MakeCode(OP_ADD, 2),
		MakeCode(OP_STR, 15),
		MakeCode(OP_ADD, 7),
		MakeCode(OP_DISP, 15),
		MakeCode(OP_JMP, 1),
		MakeCode(OP_ADD, 10),
	}, codes[:6])
}

func TestAssemblerEmptyPredefine(t *testing.T) {
	assert := assert.New(t)

	parseWith := func(source string) (prog *Program, err error) {
		asm := &Assembler{}
		asm.Predefine("X", "")
		assert.NotPanics(func() {
			prog, err = asm.Parse(strings.NewReader(source))
		}, source)
		return
	}

	_, err := parseWith("add X\n")
	assert.ErrorIs(err, ErrParseNumber(""))
	var syntax *ErrSyntax
	if assert.True(errors.As(err, &syntax)) {
		assert.Equal(1, syntax.LineNo)
	}

	// Non-numeric equates are left out of expression scope.
	prog, err := parseWith("add $(1 + 1)\n")
	if assert.NoError(err) {
		assert.Equal(MakeCode(OP_ADD, 2), prog.Opcodes[0].Code)
	}
}

func TestAssemblerExpressionLabels(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"a: nop",
		"b: nop",
		"jmp $(b + 1)",
	}

	prog, err := parse(t, program...)
	assert.NoError(err)
	assert.Equal(MakeCode(OP_JMP, 2), prog.Opcodes[2].Code)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".macro double CELL",
		"shl CELL",
		".endm",
		".macro spin",
		"@here: jmp @here",
		".endm",
		"double 3",
		"double 3",
		"spin",
		".byte 1",
	}

	prog, err := parse(t, program...)
	if err != nil {
		t.Fatal(err)
	}

	codes, err := prog.Codes()
	assert.NoError(err)
	assert.Equal(MakeCode(OP_SHL, 3), codes[0])
	assert.Equal(MakeCode(OP_SHL, 3), codes[1])
	assert.Equal(MakeCode(OP_JMP, 2), codes[2])

	cpu := NewCpu()
	image, err := prog.Image()
	assert.NoError(err)
	cpu.Load(image)
	for cpu.Tick() == nil {
	}
	assert.Equal(int8(4), cpu.Memory[3])
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		lineno  int
		err     error
	}){
		{"bad-op", []string{"nop", "mul 3"}, 2, ErrInstructionInvalid},
		{"missing", []string{"add"}, 1, ErrOpcodeValueMissing},
		{"extra", []string{"add 1 2"}, 1, ErrOpcodeExtraArgs},
		{"nop-extra", []string{"nop 1"}, 1, ErrOpcodeExtraArgs},
		{"range", []string{"add 16"}, 1, ErrOperandOutOfRange},
		{"negative", []string{"str -1"}, 1, ErrOperandOutOfRange},
		{"byte-range", []string{".byte 256"}, 1, ErrOperandOutOfRange},
		{"byte-missing", []string{".byte"}, 1, ErrOpcodeValueMissing},
		{"label-dup", []string{"a: nop", "a: nop"}, 2, ErrLabelDuplicate},
		{"label-missing", []string{"nop", "jmp nowhere"}, 2, ErrLabelMissing("nowhere")},
		{"label-range", append(make16("nop"), "far: jmp far"), 17, ErrProgramSizeMismatch},
		{"equ-syntax", []string{".equ A"}, 1, ErrEquateSyntax},
		{"equ-dup", []string{".equ A 1", ".equ A 2"}, 2, ErrEquateDuplicate},
		{"macro-nest", []string{".macro a", ".macro b"}, 2, ErrMacroNesting},
		{"macro-dup", []string{".macro a", ".endm", ".macro a"}, 3, ErrMacroDuplicate},
		{"macro-lonely", []string{".macro a", "nop"}, 2, ErrMacroLonely},
		{"endm-lonely", []string{".endm"}, 1, ErrMacroLonelyEndm},
		{"macro-args", []string{".macro a X", ".endm", "a"}, 3, ErrMacroSyntax},
		{"too-big", append(make16("add 1"), "add 1"), 17, ErrProgramSizeMismatch},
	}

	for _, entry := range table {
		_, err := parse(t, entry.program...)
		assert.ErrorIs(err, entry.err, entry.name)

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.name) {
			assert.Equal(entry.lineno, syntax.LineNo, entry.name)
		}
	}
}

func TestAssemblerParseErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := parse(t, "add 1x")
	var number ErrParseNumber
	assert.True(errors.As(err, &number))
	assert.Equal(ErrParseNumber("1x"), number)

	_, err = parse(t, "add $(1 +)")
	assert.Error(err)

	_, err = parse(t, `add $("text")`)
	var expr ErrParseExpression
	assert.True(errors.As(err, &expr))

	_, err = parse(t, ".macro m", "add 99", ".endm", "m")
	var macro *ErrMacro
	assert.True(errors.As(err, &macro))
	assert.Equal("m", macro.Macro)
	assert.ErrorIs(err, ErrOperandOutOfRange)
}

// make16 returns a full memory's worth of copies of line.
func make16(line string) (lines []string) {
	for range MEMORY_SIZE {
		lines = append(lines, line)
	}
	return
}
