package pdf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNull
	TokenBoolean
	TokenInteger
	TokenReal
	TokenString
	TokenHexString
	TokenName
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
	TokenStreamStart
	TokenStreamEnd
	TokenObjStart
	TokenObjEnd
	TokenRef
	TokenXRef
	TokenTrailer
	TokenStartXRef
	// TokenKeyword is any other bare word, e.g. a content stream operator.
	TokenKeyword
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value interface{}
	Pos   int64
}

// Lexer performs lexical analysis on PDF data
type Lexer struct {
	reader *bufio.Reader
	pos    int64
	// src is the whole input when the lexer reads from memory
	src []byte
}

// NewLexer creates a new lexer for the given reader
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{reader: bufio.NewReader(r)}
}

// NewLexerFromBytes creates a new lexer from byte slice
func NewLexerFromBytes(data []byte) *Lexer {
	l := NewLexer(bytes.NewReader(data))
	l.src = data
	return l
}

// Position returns the number of bytes consumed so far
func (l *Lexer) Position() int64 {
	return l.pos
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.reader.ReadByte()
	if err != nil {
		return 0, err
	}
	l.pos++
	return b, nil
}

func (l *Lexer) unreadByte() error {
	if err := l.reader.UnreadByte(); err != nil {
		return err
	}
	l.pos--
	return nil
}

func (l *Lexer) peekByte() (byte, error) {
	b, err := l.reader.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Peek returns up to n upcoming bytes without consuming them. A lexer
// over a byte slice can look arbitrarily far ahead; otherwise the view is
// limited to the read buffer.
func (l *Lexer) Peek(n int) []byte {
	if l.src != nil {
		rest := l.src[min(l.pos, int64(len(l.src))):]
		return rest[:min(n, len(rest))]
	}
	b, _ := l.reader.Peek(n)
	return b
}

// skipWhitespace skips whitespace and comments
func (l *Lexer) skipWhitespace() error {
	for {
		b, err := l.readByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if isWhitespace(b) {
			continue
		}

		if b == '%' {
			for {
				b, err = l.readByte()
				if err != nil {
					if err == io.EOF {
						return nil
					}
					return err
				}
				if b == '\r' || b == '\n' {
					break
				}
			}
			continue
		}

		return l.unreadByte()
	}
}

// isWhitespace checks if a byte is PDF whitespace
func isWhitespace(b byte) bool {
	return b == 0 || b == '\t' || b == '\n' || b == '\f' || b == '\r' || b == ' '
}

// isDelimiter checks if a byte is a PDF delimiter
func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' ||
		b == '[' || b == ']' || b == '{' || b == '}' ||
		b == '/' || b == '%'
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipWhitespace(); err != nil {
		return Token{}, err
	}

	pos := l.pos
	b, err := l.readByte()
	if err != nil {
		if err == io.EOF {
			return Token{Type: TokenEOF, Pos: pos}, nil
		}
		return Token{}, err
	}

	switch b {
	case '[':
		return Token{Type: TokenArrayStart, Pos: pos}, nil
	case ']':
		return Token{Type: TokenArrayEnd, Pos: pos}, nil
	case '(':
		return l.readLiteralString(pos)
	case '<':
		if next, _ := l.peekByte(); next == '<' {
			l.readByte()
			return Token{Type: TokenDictStart, Pos: pos}, nil
		}
		return l.readHexString(pos)
	case '>':
		if next, _ := l.peekByte(); next == '>' {
			l.readByte()
			return Token{Type: TokenDictEnd, Pos: pos}, nil
		}
		return Token{}, fmt.Errorf("unexpected '>' at position %d", pos)
	case '/':
		return l.readName(pos)
	case '+', '-', '.':
		l.unreadByte()
		return l.readNumber(pos)
	case '\'', '"':
		// text-showing operators
		return Token{Type: TokenKeyword, Value: string(b), Pos: pos}, nil
	default:
		if b >= '0' && b <= '9' {
			l.unreadByte()
			return l.readNumber(pos)
		}
		if b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' {
			l.unreadByte()
			return l.readKeyword(pos)
		}
		return Token{}, fmt.Errorf("unexpected character '%c' at position %d", b, pos)
	}
}

// readLiteralString reads a literal string (...)
func (l *Lexer) readLiteralString(pos int64) (Token, error) {
	var buf bytes.Buffer
	depth := 1

	for depth > 0 {
		b, err := l.readByte()
		if err != nil {
			return Token{}, fmt.Errorf("unterminated string at position %d", pos)
		}

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(b)
			}
		case '\\':
			escaped, err := l.readEscapeSequence()
			if err != nil {
				return Token{}, fmt.Errorf("unterminated string at position %d", pos)
			}
			buf.Write(escaped)
		default:
			buf.WriteByte(b)
		}
	}

	return Token{Type: TokenString, Value: buf.Bytes(), Pos: pos}, nil
}

// readEscapeSequence reads an escape sequence in a literal string
func (l *Lexer) readEscapeSequence() ([]byte, error) {
	b, err := l.readByte()
	if err != nil {
		return nil, err
	}

	switch b {
	case 'n':
		return []byte{'\n'}, nil
	case 'r':
		return []byte{'\r'}, nil
	case 't':
		return []byte{'\t'}, nil
	case 'b':
		return []byte{'\b'}, nil
	case 'f':
		return []byte{'\f'}, nil
	case '\r':
		// line continuation
		if next, err := l.peekByte(); err == nil && next == '\n' {
			l.readByte()
		}
		return nil, nil
	case '\n':
		return nil, nil
	default:
		if b >= '0' && b <= '7' {
			val := int(b - '0')
			for i := 0; i < 2; i++ {
				next, err := l.peekByte()
				if err != nil || next < '0' || next > '7' {
					break
				}
				l.readByte()
				val = val*8 + int(next-'0')
			}
			return []byte{byte(val)}, nil
		}
		// \( \) \\ and unknown escapes stand for the byte itself
		return []byte{b}, nil
	}
}

// readHexString reads a hexadecimal string <...>
func (l *Lexer) readHexString(pos int64) (Token, error) {
	var buf bytes.Buffer

	for {
		b, err := l.readByte()
		if err != nil {
			return Token{}, fmt.Errorf("unterminated hex string at position %d", pos)
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		buf.WriteByte(b)
	}

	hexStr := buf.String()
	if len(hexStr)%2 != 0 {
		hexStr += "0"
	}

	decoded := make([]byte, len(hexStr)/2)
	for i := 0; i < len(hexStr); i += 2 {
		val, err := strconv.ParseUint(hexStr[i:i+2], 16, 8)
		if err != nil {
			return Token{}, fmt.Errorf("invalid hex string at position %d", pos)
		}
		decoded[i/2] = byte(val)
	}

	return Token{Type: TokenHexString, Value: decoded, Pos: pos}, nil
}

// readName reads a name object /...
func (l *Lexer) readName(pos int64) (Token, error) {
	var buf bytes.Buffer

	for {
		b, err := l.peekByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Token{}, err
		}
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.readByte()

		if b != '#' {
			buf.WriteByte(b)
			continue
		}
		hex := make([]byte, 2)
		for i := range hex {
			if hex[i], err = l.readByte(); err != nil {
				return Token{}, fmt.Errorf("invalid name escape at position %d", pos)
			}
		}
		val, err := strconv.ParseUint(string(hex), 16, 8)
		if err != nil {
			return Token{}, fmt.Errorf("invalid name escape at position %d", pos)
		}
		buf.WriteByte(byte(val))
	}

	return Token{Type: TokenName, Value: buf.String(), Pos: pos}, nil
}

// readNumber reads a number (integer or real)
func (l *Lexer) readNumber(pos int64) (Token, error) {
	var buf bytes.Buffer
	hasDecimal := false
	hasDigit := false

scan:
	for {
		b, err := l.peekByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Token{}, err
		}

		switch {
		case b == '+' || b == '-':
			if buf.Len() > 0 {
				break scan
			}
		case b == '.':
			if hasDecimal {
				break scan
			}
			hasDecimal = true
		case b >= '0' && b <= '9':
			hasDigit = true
		default:
			break scan
		}
		l.readByte()
		buf.WriteByte(b)
	}

	if !hasDigit {
		return Token{}, fmt.Errorf("invalid number at position %d", pos)
	}

	str := buf.String()
	if hasDecimal {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return Token{}, fmt.Errorf("invalid real number at position %d", pos)
		}
		return Token{Type: TokenReal, Value: val, Pos: pos}, nil
	}

	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("invalid integer at position %d", pos)
	}
	return Token{Type: TokenInteger, Value: val, Pos: pos}, nil
}

// readKeyword reads a bare word: true, false, null, obj, an operator, ...
func (l *Lexer) readKeyword(pos int64) (Token, error) {
	var buf bytes.Buffer

	for {
		b, err := l.peekByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Token{}, err
		}
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.readByte()
		buf.WriteByte(b)
	}

	keyword := buf.String()
	switch keyword {
	case "true":
		return Token{Type: TokenBoolean, Value: true, Pos: pos}, nil
	case "false":
		return Token{Type: TokenBoolean, Value: false, Pos: pos}, nil
	case "null":
		return Token{Type: TokenNull, Pos: pos}, nil
	case "obj":
		return Token{Type: TokenObjStart, Pos: pos}, nil
	case "endobj":
		return Token{Type: TokenObjEnd, Pos: pos}, nil
	case "stream":
		return Token{Type: TokenStreamStart, Pos: pos}, nil
	case "endstream":
		return Token{Type: TokenStreamEnd, Pos: pos}, nil
	case "R":
		return Token{Type: TokenRef, Pos: pos}, nil
	case "xref":
		return Token{Type: TokenXRef, Pos: pos}, nil
	case "trailer":
		return Token{Type: TokenTrailer, Pos: pos}, nil
	case "startxref":
		return Token{Type: TokenStartXRef, Pos: pos}, nil
	default:
		return Token{Type: TokenKeyword, Value: keyword, Pos: pos}, nil
	}
}

// ReadLine reads until end of line. CR, LF and CRLF all end a line.
func (l *Lexer) ReadLine() ([]byte, error) {
	var buf bytes.Buffer
	for {
		b, err := l.readByte()
		if err != nil {
			if err == io.EOF && buf.Len() > 0 {
				return buf.Bytes(), nil
			}
			return buf.Bytes(), err
		}
		if b == '\r' {
			if next, err := l.peekByte(); err == nil && next == '\n' {
				l.readByte()
			}
			return buf.Bytes(), nil
		}
		if b == '\n' {
			return buf.Bytes(), nil
		}
		buf.WriteByte(b)
	}
}

// ReadBytes reads exactly n bytes
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(l.reader, buf)
	l.pos += int64(read)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return buf[:read], err
}
