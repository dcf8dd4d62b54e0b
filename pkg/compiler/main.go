// Package compiler translates a small Kotlin-like language into x86-64
// AT&T assembly.
//
// Pipeline: source → Lex → Parse → Generate → assembly text
//
// Every AST node, type descriptor and string object lives in an
// append-only arena owned by one compilation unit and is referenced by
// index. The generator is a push/pop stack machine with %rax as the
// accumulator.
package compiler
