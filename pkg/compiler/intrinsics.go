package compiler

// PrintIntSymbol is the label of the decimal printing intrinsic.
const PrintIntSymbol = "print_int"

// emitPrintInt writes print_int: it prints the signed 64-bit value in %rdi
// in decimal followed by a newline, with one raw write syscall and no libc.
//
// Digits are produced backwards into a 32-byte buffer below %rbp. The value
// is negated up front and divided unsigned, so INT64_MIN comes out right;
// the do-while loop prints 0 as "0".
func (e *emitter) emitPrintInt() {
	e.line("%s:", PrintIntSymbol)
	e.line("  push %%rbp")
	e.line("  mov %%rsp, %%rbp")
	e.line("  sub $32, %%rsp")
	e.line("  mov %%rdi, %%rax")
	e.line("  lea -1(%%rbp), %%rsi")
	e.line("  movb $10, (%%rsi)")
	e.line("  mov $10, %%rcx")
	e.line("  xor %%r8, %%r8")
	e.line("  test %%rax, %%rax")
	e.line("  jns .L.print_int.digits")
	e.line("  mov $1, %%r8")
	e.line("  neg %%rax")
	e.line(".L.print_int.digits:")
	e.line("  xor %%rdx, %%rdx")
	e.line("  div %%rcx")
	e.line("  add $48, %%dl")
	e.line("  dec %%rsi")
	e.line("  movb %%dl, (%%rsi)")
	e.line("  test %%rax, %%rax")
	e.line("  jnz .L.print_int.digits")
	e.line("  test %%r8, %%r8")
	e.line("  jz .L.print_int.write")
	e.line("  dec %%rsi")
	e.line("  movb $45, (%%rsi)")
	e.line(".L.print_int.write:")
	e.line("  mov %%rbp, %%rdx")
	e.line("  sub %%rsi, %%rdx")
	e.line("  mov $%d, %%rax", e.target.WriteSyscall)
	e.line("  mov $1, %%rdi")
	e.line("  syscall")
	e.line("  mov %%rbp, %%rsp")
	e.line("  pop %%rbp")
	e.line("  ret")
}
