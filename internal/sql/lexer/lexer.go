package lexer

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType identifies lexical tokens produced by the SQL lexer.
type TokenType int

const (
	EOF TokenType = iota
	Illegal
	Ident
	Number
	String
	Comma
	LParen
	RParen
	Semicolon
	Star
	Plus
	Minus
	Dot
	Equal
	Less
)

var tokenNames = map[TokenType]string{
	EOF:       "end of input",
	Illegal:   "illegal token",
	Ident:     "identifier",
	Number:    "number",
	String:    "string",
	Comma:     ",",
	LParen:    "(",
	RParen:    ")",
	Semicolon: ";",
	Star:      "*",
	Plus:      "+",
	Minus:     "-",
	Dot:       ".",
	Equal:     "=",
	Less:      "<",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a lexical item. Keyword is set for identifiers that are
// reserved words; Literal always keeps the source spelling.
type Token struct {
	Type    TokenType
	Literal string
	Keyword bool
	Pos     int
}

// Upper returns the literal in upper case, used for keyword comparison.
func (t Token) Upper() string {
	return strings.ToUpper(t.Literal)
}

func (t Token) String() string {
	if t.Type == EOF {
		return t.Type.String()
	}
	return fmt.Sprintf("%q", t.Literal)
}

// Reserved words. Function names (CONCAT, SUBSTR, MIN, ...) are not reserved
// so they remain usable as table and column names.
var keywords = map[string]struct{}{
	"CREATE":    {},
	"TABLE":     {},
	"SELECT":    {},
	"FROM":      {},
	"WHERE":     {},
	"GROUP":     {},
	"BY":        {},
	"HAVING":    {},
	"AS":        {},
	"JOIN":      {},
	"ON":        {},
	"UNION":     {},
	"INTERSECT": {},
	"AND":       {},
	"NOT":       {},
	"TRUE":      {},
	"FALSE":     {},
	"INT":       {},
	"BOOL":      {},
	"VARCHAR":   {},
}

// IsKeyword reports whether word is reserved.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}

// Lexer performs tokenisation over the input SQL string.
type Lexer struct {
	input []rune
	pos   int
}

// New initialises a lexer for the provided SQL source.
func New(input string) *Lexer {
	return &Lexer{input: []rune(input)}
}

// Next returns the next token from the stream.
func (l *Lexer) Next() Token {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{Type: EOF, Pos: l.pos}
	}

	start := l.pos
	ch := l.input[l.pos]
	switch ch {
	case ',':
		return l.single(Comma)
	case '(':
		return l.single(LParen)
	case ')':
		return l.single(RParen)
	case ';':
		return l.single(Semicolon)
	case '*':
		return l.single(Star)
	case '+':
		return l.single(Plus)
	case '-':
		return l.single(Minus)
	case '.':
		return l.single(Dot)
	case '=':
		return l.single(Equal)
	case '<':
		return l.single(Less)
	case '\'', '"':
		return l.scanString(ch)
	}

	if unicode.IsLetter(ch) {
		return l.scanIdentifier()
	}
	if unicode.IsDigit(ch) {
		return l.scanNumber()
	}

	l.pos++
	return Token{Type: Illegal, Literal: string(ch), Pos: start}
}

// All tokenises the whole input, ending with EOF or the first Illegal token.
func (l *Lexer) All() []Token {
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == EOF || tok.Type == Illegal {
			return tokens
		}
	}
}

func (l *Lexer) single(tt TokenType) Token {
	tok := Token{Type: tt, Literal: string(l.input[l.pos]), Pos: l.pos}
	l.pos++
	return tok
}

func (l *Lexer) scanIdentifier() Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			l.pos++
			continue
		}
		break
	}
	lit := string(l.input[start:l.pos])
	return Token{Type: Ident, Literal: lit, Keyword: IsKeyword(lit), Pos: start}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsDigit(ch) {
			l.pos++
			continue
		}
		if ch == '.' && !seenDot && l.pos+1 < len(l.input) && unicode.IsDigit(l.input[l.pos+1]) {
			seenDot = true
			l.pos++
			continue
		}
		break
	}
	return Token{Type: Number, Literal: string(l.input[start:l.pos]), Pos: start}
}

func (l *Lexer) scanString(quote rune) Token {
	begin := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == quote {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == quote {
				sb.WriteRune(quote)
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Type: String, Literal: sb.String(), Pos: begin}
		}
		if ch == '\\' && l.pos+1 < len(l.input) {
			sb.WriteRune(l.input[l.pos+1])
			l.pos += 2
			continue
		}
		sb.WriteRune(ch)
		l.pos++
	}
	return Token{Type: Illegal, Literal: "unterminated string literal", Pos: begin}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		if unicode.IsSpace(l.input[l.pos]) {
			l.pos++
			continue
		}
		break
	}
}
