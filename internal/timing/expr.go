package timing

// evalInt evaluates an integer expression made of digits, + - * /,
// parentheses and unary signs. Division truncates toward zero. Any other
// character, a syntax error or a division by zero reports false.
func evalInt(expr string) (int, bool) {
	p := exprParser{src: expr}
	p.skip()
	if p.pos >= len(p.src) {
		return 0, false
	}
	v, ok := p.sum()
	if !ok {
		return 0, false
	}
	p.skip()
	if p.pos != len(p.src) {
		return 0, false
	}
	return v, true
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skip() {
	p.pos = skipSpace(p.src, p.pos)
}

func (p *exprParser) peek() byte {
	p.skip()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) sum() (int, bool) {
	left, ok := p.product()
	if !ok {
		return 0, false
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, true
		}
		p.pos++
		right, ok := p.product()
		if !ok {
			return 0, false
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) product() (int, bool) {
	left, ok := p.unary()
	if !ok {
		return 0, false
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, true
		}
		p.pos++
		right, ok := p.unary()
		if !ok {
			return 0, false
		}
		if op == '*' {
			left *= right
			continue
		}
		if right == 0 {
			return 0, false
		}
		left /= right
	}
}

func (p *exprParser) unary() (int, bool) {
	switch p.peek() {
	case '+':
		p.pos++
		return p.unary()
	case '-':
		p.pos++
		v, ok := p.unary()
		return -v, ok
	}
	return p.primary()
}

func (p *exprParser) primary() (int, bool) {
	c := p.peek()
	if c == '(' {
		p.pos++
		v, ok := p.sum()
		if !ok || p.peek() != ')' {
			return 0, false
		}
		p.pos++
		return v, true
	}
	if !isDigit(c) {
		return 0, false
	}
	v := 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		v = v*10 + int(p.src[p.pos]-'0')
		if v > 1<<24 {
			return 0, false
		}
		p.pos++
	}
	return v, true
}
