package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser and evaluator for Titi expression programs
// ---------------------------------------------------------------------------
//
// A program is a sequence of statements separated by newlines or ';'.
// A statement is an expression or an assignment. Expressions support
// literals, global identifiers, property access, indexing and calls.
// The value of the last statement is the program result.

type node interface {
	pos() position
}

type litNode struct {
	p        position
	v        Value
	s        string // string literal content (registered lazily)
	isString bool
}

type identNode struct {
	p    position
	name string
}

type propNode struct {
	p    position
	x    node
	name string
}

type indexNode struct {
	p position
	x node
	i node
}

type callNode struct {
	p    position
	fn   node
	args []node
}

type assignNode struct {
	p   position
	lhs node
	rhs node
}

func (n *litNode) pos() position    { return n.p }
func (n *identNode) pos() position  { return n.p }
func (n *propNode) pos() position   { return n.p }
func (n *indexNode) pos() position  { return n.p }
func (n *callNode) pos() position   { return n.p }
func (n *assignNode) pos() position { return n.p }

// parseError carries a positioned parse failure.
type parseError struct {
	msg string
	pos position
}

func (e *parseError) Error() string { return e.msg }

type parser struct {
	lex  *lexer
	cur  token
	peek token
}

func newParser(source string) *parser {
	p := &parser{lex: newLexer(source)}
	p.advance()
	p.advance()
	return p
}

func (p *parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.nextToken()
}

func (p *parser) errorf(pos position, format string, args ...any) *parseError {
	return &parseError{msg: fmt.Sprintf(format, args...), pos: pos}
}

// parseProgram parses the whole source into a statement list.
func (p *parser) parseProgram() ([]node, *parseError) {
	var stmts []node
	for p.cur.Type != tokEOF {
		if p.cur.Type == tokSemi {
			p.advance()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.cur.Type != tokSemi && p.cur.Type != tokEOF {
			return nil, p.errorf(p.cur.Pos, "unexpected token %q", p.cur.Literal)
		}
	}
	return stmts, nil
}

func (p *parser) parseStatement() (node, *parseError) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type == tokAssign {
		pos := p.cur.Pos
		switch expr.(type) {
		case *identNode, *propNode, *indexNode:
		default:
			return nil, p.errorf(pos, "invalid assignment target")
		}
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &assignNode{p: pos, lhs: expr, rhs: rhs}, nil
	}
	return expr, nil
}

func (p *parser) parseExpr() (node, *parseError) {
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (node, *parseError) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur.Type {
		case tokDot:
			p.advance()
			if p.cur.Type != tokIdent {
				return nil, p.errorf(p.cur.Pos, "expected property name after '.'")
			}
			expr = &propNode{p: p.cur.Pos, x: expr, name: p.cur.Literal}
			p.advance()
		case tokLBracket:
			pos := p.cur.Pos
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.cur.Type != tokRBracket {
				return nil, p.errorf(p.cur.Pos, "expected ']'")
			}
			p.advance()
			expr = &indexNode{p: pos, x: expr, i: idx}
		case tokLParen:
			pos := p.cur.Pos
			p.advance()
			var args []node
			for p.cur.Type != tokRParen {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.cur.Type == tokComma {
					p.advance()
					continue
				}
				if p.cur.Type != tokRParen {
					return nil, p.errorf(p.cur.Pos, "expected ',' or ')' in argument list")
				}
			}
			p.advance()
			expr = &callNode{p: pos, fn: expr, args: args}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parsePrimary() (node, *parseError) {
	tok := p.cur
	switch tok.Type {
	case tokInt:
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid integer literal %q", tok.Literal)
		}
		v, ok := TryFromSmallInt(n)
		if !ok {
			return nil, p.errorf(tok.Pos, "integer literal %q out of range", tok.Literal)
		}
		p.advance()
		return &litNode{p: tok.Pos, v: v}, nil
	case tokFloat:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid float literal %q", tok.Literal)
		}
		p.advance()
		return &litNode{p: tok.Pos, v: FromFloat64(f)}, nil
	case tokString:
		p.advance()
		return &litNode{p: tok.Pos, s: tok.Literal, isString: true}, nil
	case tokIdent:
		p.advance()
		switch tok.Literal {
		case "true":
			return &litNode{p: tok.Pos, v: True}, nil
		case "false":
			return &litNode{p: tok.Pos, v: False}, nil
		case "nil":
			return &litNode{p: tok.Pos, v: Nil}, nil
		}
		return &identNode{p: tok.Pos, name: tok.Literal}, nil
	case tokLParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != tokRParen {
			return nil, p.errorf(p.cur.Pos, "expected ')'")
		}
		p.advance()
		return expr, nil
	case tokIllegal:
		return nil, p.errorf(tok.Pos, "unexpected character %q", tok.Literal)
	default:
		return nil, p.errorf(tok.Pos, "unexpected token %q", tok.Literal)
	}
}

// ---------------------------------------------------------------------------
// Evaluation
// ---------------------------------------------------------------------------

// evaluator holds per-run evaluation state.
type evaluator struct {
	vm       *VM
	filename string
	lines    []string
}

// Eval evaluates source against the context's globals and returns the
// value of the last statement. On failure the pending error state is set,
// except for errors a proxy handler rejected a write with: those are
// surfaced to the caller unchanged.
func (vm *VM) Eval(source, filename string) (Value, error) {
	vm.ClearError()
	vm.callStack = vm.callStack[:0]

	e := &evaluator{vm: vm, filename: filename, lines: strings.Split(source, "\n")}

	stmts, perr := newParser(source).parseProgram()
	if perr != nil {
		return Nil, e.fail(perr.pos, "%s", perr.msg)
	}

	result := Nil
	for _, stmt := range stmts {
		v, err := e.eval(stmt)
		if err != nil {
			return Nil, err
		}
		result = v
	}
	return result, nil
}

// fail records a positioned engine error and returns it.
func (e *evaluator) fail(pos position, format string, args ...any) error {
	return e.vm.setErrorf(e.filename, pos.Line, pos.Column, e.sourceLine(pos.Line), format, args...)
}

func (e *evaluator) sourceLine(line int) string {
	if line < 1 || line > len(e.lines) {
		return ""
	}
	return e.lines[line-1]
}

func (e *evaluator) eval(n node) (Value, error) {
	switch n := n.(type) {
	case *litNode:
		if n.isString {
			return e.vm.registry.NewStringValue(n.s), nil
		}
		return n.v, nil

	case *identNode:
		v, ok := e.vm.Globals[n.name]
		if !ok {
			return Nil, e.fail(n.p, "undefined global %q", n.name)
		}
		return v, nil

	case *propNode:
		return e.evalProp(n)

	case *indexNode:
		return e.evalIndex(n)

	case *callNode:
		return e.evalCall(n)

	case *assignNode:
		return e.evalAssign(n)
	}
	return Nil, e.fail(n.pos(), "internal: unknown node")
}

func (e *evaluator) evalProp(n *propNode) (Value, error) {
	x, err := e.eval(n.x)
	if err != nil {
		return Nil, err
	}
	switch {
	case x.IsProxy():
		v, err := e.vm.ProxyGet(x, n.name)
		if err != nil {
			return Nil, e.fail(n.p, "%s", err.Error())
		}
		return v, nil
	case x.IsBuffer():
		b := e.vm.registry.GetBuffer(x)
		if b == nil {
			return Nil, e.fail(n.p, "buffer is released")
		}
		switch n.name {
		case "length", "byteLength":
			return FromSmallInt(int64(len(b.Data))), nil
		}
		return Nil, nil
	case x.IsObject():
		o := e.vm.registry.GetObject(x)
		if o == nil {
			return Nil, e.fail(n.p, "object is released")
		}
		if v, ok := o.Get(n.name); ok {
			return v, nil
		}
		return Nil, nil
	case x.IsString():
		if n.name == "length" {
			return FromSmallInt(int64(len(e.vm.registry.StringContent(x)))), nil
		}
		return Nil, nil
	}
	return Nil, e.fail(n.p, "value has no property %q", n.name)
}

func (e *evaluator) evalIndex(n *indexNode) (Value, error) {
	x, err := e.eval(n.x)
	if err != nil {
		return Nil, err
	}
	idx, err := e.eval(n.i)
	if err != nil {
		return Nil, err
	}
	if !idx.IsSmallInt() {
		return Nil, e.fail(n.p, "index is not an integer")
	}
	i := idx.SmallInt()
	switch {
	case x.IsProxy():
		// Numeric indices resolve through the same property chain as
		// named lookups.
		v, err := e.vm.ProxyGet(x, strconv.FormatInt(i, 10))
		if err != nil {
			return Nil, e.fail(n.p, "%s", err.Error())
		}
		return v, nil
	case x.IsBuffer():
		b := e.vm.registry.GetBuffer(x)
		if b == nil {
			return Nil, e.fail(n.p, "buffer is released")
		}
		if i < 0 || i >= int64(len(b.Data)) {
			return Nil, e.fail(n.p, "index %d out of bounds [0, %d)", i, len(b.Data))
		}
		return FromSmallInt(int64(b.Data[i])), nil
	case x.IsObject():
		o := e.vm.registry.GetObject(x)
		if o == nil {
			return Nil, e.fail(n.p, "object is released")
		}
		if v, ok := o.Get(strconv.FormatInt(i, 10)); ok {
			return v, nil
		}
		return Nil, nil
	}
	return Nil, e.fail(n.p, "value is not indexable")
}

func (e *evaluator) evalCall(n *callNode) (Value, error) {
	fv, err := e.eval(n.fn)
	if err != nil {
		return Nil, err
	}
	f := e.vm.registry.GetFunc(fv)
	if f == nil {
		return Nil, e.fail(n.p, "value is not callable")
	}

	args := make([]Value, len(n.args))
	for i, a := range n.args {
		args[i], err = e.eval(a)
		if err != nil {
			return Nil, err
		}
	}

	e.vm.callStack = append(e.vm.callStack, StackFrame{
		Func: f.Name,
		File: e.filename,
		Line: n.p.Line,
	})
	v, err := f.Fn(e.vm, f.Bound, args)
	if err != nil {
		// Capture the failing frame before unwinding it.
		ferr := e.fail(n.p, "%s", err.Error())
		e.vm.callStack = e.vm.callStack[:len(e.vm.callStack)-1]
		return Nil, ferr
	}
	e.vm.callStack = e.vm.callStack[:len(e.vm.callStack)-1]
	return v, nil
}

func (e *evaluator) evalAssign(n *assignNode) (Value, error) {
	v, err := e.eval(n.rhs)
	if err != nil {
		return Nil, err
	}

	switch lhs := n.lhs.(type) {
	case *identNode:
		e.vm.Globals[lhs.name] = v
		return v, nil

	case *propNode:
		x, err := e.eval(lhs.x)
		if err != nil {
			return Nil, err
		}
		return v, e.storeProp(lhs.p, x, lhs.name, v)

	case *indexNode:
		x, err := e.eval(lhs.x)
		if err != nil {
			return Nil, err
		}
		idx, err := e.eval(lhs.i)
		if err != nil {
			return Nil, err
		}
		if !idx.IsSmallInt() {
			return Nil, e.fail(lhs.p, "index is not an integer")
		}
		return v, e.storeProp(lhs.p, x, strconv.FormatInt(idx.SmallInt(), 10), v)
	}
	return Nil, e.fail(n.p, "invalid assignment target")
}

// storeProp writes a property. Proxy handler rejections propagate to the
// caller unchanged; mutation of other value kinds is an engine error.
func (e *evaluator) storeProp(pos position, x Value, name string, v Value) error {
	switch {
	case x.IsProxy():
		return e.vm.ProxySet(x, name, v)
	case x.IsObject():
		o := e.vm.registry.GetObject(x)
		if o == nil {
			return e.fail(pos, "object is released")
		}
		o.Set(name, v)
		return nil
	}
	return e.fail(pos, "value does not support property assignment")
}
