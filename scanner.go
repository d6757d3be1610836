// scanner.go: converts Lox source text into tokens.
//
// The scanner is a single left-to-right pass with one byte of lookahead (two
// when deciding whether a '.' continues a number). It never backtracks.
//
// Rules, in priority order:
//   - two-character operators (!= == >= <=) win over their one-character prefix
//   - "//" starts a comment that runs through the next newline (or EOF)
//   - space, tab and carriage return are discarded
//   - '\n' is discarded and bumps the line counter
//   - strings are delimited by '"', may span lines, and have no escapes
//   - numbers are digit runs with an optional '.' + digit run; "123." scans
//     as Number("123") followed by Dot
//   - identifiers are [A-Za-z_][A-Za-z0-9_]* and are reclassified through the
//     keyword table
//
// Anything else is a CompileError{Kind: UnexpectedCharacter}. The token slice
// returned by Scan never contains comments or whitespace and always ends with
// a single EOF token.
package lox

// Scanner scans a Lox source string into tokens.
type Scanner struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	// precise token start position
	tokStartLine int
	tokStartCol  int
}

// NewScanner creates a new scanner for the given source.
func NewScanner(src string) *Scanner {
	return &Scanner{
		src:  src,
		line: 1,
	}
}

// ScanTokens scans src in one call.
func ScanTokens(src string) ([]Token, error) {
	return NewScanner(src).Scan()
}

// Scan tokenizes the whole source. On failure it returns the first
// *CompileError encountered and no tokens.
func (s *Scanner) Scan() ([]Token, error) {
	for {
		s.start = s.cur
		s.tokStartLine, s.tokStartCol = s.line, s.col
		if s.isAtEnd() {
			break
		}
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}
	s.addToken(EOF)
	return s.tokens, nil
}

func (s *Scanner) isAtEnd() bool { return s.cur >= len(s.src) }

func (s *Scanner) peek() (byte, bool) {
	if s.isAtEnd() {
		return 0, false
	}
	return s.src[s.cur], true
}

func (s *Scanner) peekN(n int) (byte, bool) {
	idx := s.cur + n
	if idx >= len(s.src) {
		return 0, false
	}
	return s.src[idx], true
}

func (s *Scanner) advance() byte {
	ch := s.src[s.cur]
	s.cur++
	if ch == '\n' {
		s.line++
		s.col = 0
	} else {
		s.col++
	}
	return ch
}

// match consumes the next byte if it equals want.
func (s *Scanner) match(want byte) bool {
	if b, ok := s.peek(); ok && b == want {
		s.advance()
		return true
	}
	return false
}

func (s *Scanner) addToken(tt TokenType) {
	s.tokens = append(s.tokens, Token{
		Type:   tt,
		Lexeme: s.src[s.start:s.cur],
		Line:   s.tokStartLine,
		Col:    s.tokStartCol,
		Offset: s.start,
	})
}

func (s *Scanner) err(kind CompileErrorKind, msg string) error {
	return &CompileError{
		Kind: kind,
		Line: s.tokStartLine,
		Col:  s.tokStartCol,
		Msg:  msg,
		eof:  kind == UnterminatedString,
	}
}

func (s *Scanner) scanToken() error {
	ch := s.advance()
	switch ch {
	case '(':
		s.addToken(LeftParen)
	case ')':
		s.addToken(RightParen)
	case '{':
		s.addToken(LeftBrace)
	case '}':
		s.addToken(RightBrace)
	case ',':
		s.addToken(Comma)
	case '.':
		s.addToken(Dot)
	case '-':
		s.addToken(Minus)
	case '+':
		s.addToken(Plus)
	case ';':
		s.addToken(Semicolon)
	case '*':
		s.addToken(Star)
	case '!':
		s.addTwo('=', BangEqual, Bang)
	case '=':
		s.addTwo('=', EqualEqual, EqualSign)
	case '<':
		s.addTwo('=', LessEqual, Less)
	case '>':
		s.addTwo('=', GreaterEqual, Greater)
	case '/':
		if s.match('/') {
			s.skipComment()
		} else {
			s.addToken(Slash)
		}
	case ' ', '\r', '\t', '\n':
		// discarded; advance already counted the newline
	case '"':
		return s.scanString()
	default:
		switch {
		case isDigit(ch):
			s.scanNumber()
		case isAlpha(ch):
			s.scanIdentifier()
		default:
			return s.err(UnexpectedCharacter, "unexpected character "+quoteByte(ch))
		}
	}
	return nil
}

func (s *Scanner) addTwo(next byte, two, one TokenType) {
	if s.match(next) {
		s.addToken(two)
		return
	}
	s.addToken(one)
}

// skipComment consumes through the terminating newline (inclusive).
func (s *Scanner) skipComment() {
	for !s.isAtEnd() {
		if s.advance() == '\n' {
			return
		}
	}
}

// ----- scanners -----

func (s *Scanner) scanString() error {
	for !s.isAtEnd() {
		if s.advance() == '"' {
			s.addToken(String)
			return nil
		}
	}
	return s.err(UnterminatedString, "string was not terminated")
}

func (s *Scanner) scanNumber() {
	s.digits()
	if b, ok := s.peek(); ok && b == '.' {
		if d, ok := s.peekN(1); ok && isDigit(d) {
			s.advance() // '.'
			s.digits()
		}
	}
	s.addToken(Number)
}

func (s *Scanner) digits() {
	for {
		b, ok := s.peek()
		if !ok || !isDigit(b) {
			return
		}
		s.advance()
	}
}

// scanIdentifier parses [A-Za-z_][A-Za-z0-9_]*
func (s *Scanner) scanIdentifier() {
	for {
		b, ok := s.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		s.advance()
	}
	if kw, ok := keywords[s.src[s.start:s.cur]]; ok {
		s.addToken(kw)
		return
	}
	s.addToken(Ident)
}

// helpers

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

func quoteByte(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return "'" + string(b) + "'"
	}
	const hex = "0123456789abcdef"
	return "'\\x" + string(hex[b>>4]) + string(hex[b&0xf]) + "'"
}
