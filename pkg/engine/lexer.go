package engine

import (
	"strings"
	"unicode"
)

type TokenType string

const (
	TokenIdentifier TokenType = "IDENTIFIER"
	TokenColon      TokenType = "COLON"
	TokenComma      TokenType = "COMMA"
	TokenString     TokenType = "STRING"
	TokenLBrace     TokenType = "LBRACE"
	TokenRBrace     TokenType = "RBRACE"
	TokenEOF        TokenType = "EOF"
	TokenError      TokenType = "ERROR"
)

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

type Lexer struct {
	input        string
	position     int  // index of ch
	readPosition int  // index after ch
	ch           byte // current char
	line         int
	col          int
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, col: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.col++
}

func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespaceAndComments()

	switch l.ch {
	case ':':
		tok = l.newToken(TokenColon, ":")
	case ',':
		tok = l.newToken(TokenComma, ",")
	case '"', '\'':
		tok.Line = l.line
		tok.Column = l.col
		tok.Type = TokenString
		tok.Literal = l.readString(l.ch)
		return tok
	case 0:
		tok.Type = TokenEOF
		tok.Line = l.line
		tok.Column = l.col
	default:
		if !isIdentChar(l.ch) {
			tok = l.newToken(TokenError, string(l.ch))
			break
		}
		tok.Line = l.line
		tok.Column = l.col
		tok.Literal = l.readIdentifier()
		switch tok.Literal {
		case "{":
			tok.Type = TokenLBrace
		case "}":
			tok.Type = TokenRBrace
		default:
			tok.Type = TokenIdentifier
		}
		return tok
	}

	l.readChar()
	return tok
}

func (l *Lexer) newToken(tokenType TokenType, lit string) Token {
	return Token{Type: tokenType, Literal: lit, Line: l.line, Column: l.col}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isIdentChar(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readString(quote byte) string {
	l.readChar() // opening quote
	var b strings.Builder

	for l.ch != quote && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\'', '\\':
				b.WriteByte(l.ch)
			default:
				b.WriteByte('\\')
				b.WriteByte(l.ch)
			}
		} else {
			if l.ch == '\n' {
				l.line++
				l.col = 0
			}
			b.WriteByte(l.ch)
		}
		l.readChar()
	}

	if l.ch == quote {
		l.readChar()
	}
	return b.String()
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		if unicode.IsSpace(rune(l.ch)) {
			if l.ch == '\n' {
				l.line++
				l.col = 0
			}
			l.readChar()
			continue
		}

		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}
		if l.ch == '#' {
			l.skipLineComment()
			continue
		}

		break
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	if l.ch == '\n' {
		l.line++
		l.col = 0
		l.readChar()
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isIdentChar covers names, numbers, variable refs and the operator
// characters that may appear in an unquoted expression value.
func isIdentChar(ch byte) bool {
	if isLetter(ch) || isDigit(ch) {
		return true
	}
	return strings.IndexByte("$._-/*!=<>()+%{}[]?&|", ch) >= 0
}

func (l *Lexer) GetLineInfo() (int, int) {
	return l.line, l.col
}

func (l *Lexer) PeekToken() Token {
	pos, readPos, ch, line, col := l.position, l.readPosition, l.ch, l.line, l.col

	tok := l.NextToken()

	l.position, l.readPosition, l.ch, l.line, l.col = pos, readPos, ch, line, col
	return tok
}
