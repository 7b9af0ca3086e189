package pdf

import (
	"bytes"
	"fmt"
	"io"
)

// Parser parses PDF objects from tokens
type Parser struct {
	lexer  *Lexer
	tokens []Token
	pos    int
}

// NewParser creates a new parser for the given lexer
func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer}
}

// NewParserFromBytes creates a new parser from byte slice
func NewParserFromBytes(data []byte) *Parser {
	return NewParser(NewLexerFromBytes(data))
}

// nextToken gets the next token, buffering for lookahead
func (p *Parser) nextToken() (Token, error) {
	if p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		return tok, nil
	}

	tok, err := p.lexer.NextToken()
	if err != nil {
		return Token{}, err
	}

	p.tokens = append(p.tokens, tok)
	p.pos++
	return tok, nil
}

// peekToken peeks at the next token without consuming it
func (p *Parser) peekToken() (Token, error) {
	tok, err := p.nextToken()
	if err != nil {
		return Token{}, err
	}
	p.pos--
	return tok, nil
}

// peekTokenN peeks at the nth token ahead (0-indexed)
func (p *Parser) peekTokenN(n int) (Token, error) {
	for i := len(p.tokens); i <= p.pos+n; i++ {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return Token{}, err
		}
		p.tokens = append(p.tokens, tok)
	}
	return p.tokens[p.pos+n], nil
}

// ParseObject parses a single PDF object
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.nextToken()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenNull:
		return Null{}, nil

	case TokenBoolean:
		return Boolean(tok.Value.(bool)), nil

	case TokenInteger:
		// num gen R
		next1, err := p.peekToken()
		if err == nil && next1.Type == TokenInteger {
			next2, err := p.peekTokenN(1)
			if err == nil && next2.Type == TokenRef {
				p.nextToken()
				p.nextToken()
				return Reference{
					ObjectNumber:     int(tok.Value.(int64)),
					GenerationNumber: int(next1.Value.(int64)),
				}, nil
			}
		}
		return Integer(tok.Value.(int64)), nil

	case TokenReal:
		return Real(tok.Value.(float64)), nil

	case TokenString:
		return String{Value: tok.Value.([]byte)}, nil

	case TokenHexString:
		return String{Value: tok.Value.([]byte), IsHex: true}, nil

	case TokenName:
		return Name(tok.Value.(string)), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDictionary()

	case TokenKeyword:
		return nil, fmt.Errorf("unexpected keyword '%s' at position %d", tok.Value, tok.Pos)

	default:
		return nil, fmt.Errorf("unexpected token type %d at position %d", tok.Type, tok.Pos)
	}
}

// parseArray parses a PDF array [...]
func (p *Parser) parseArray() (Array, error) {
	arr := Array{}

	for {
		tok, err := p.peekToken()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case TokenArrayEnd:
			p.nextToken()
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated array at position %d", tok.Pos)
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDictionary parses a PDF dictionary <<...>>
func (p *Parser) parseDictionary() (Dictionary, error) {
	dict := make(Dictionary)

	for {
		tok, err := p.peekToken()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case TokenDictEnd:
			p.nextToken()
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated dictionary at position %d", tok.Pos)
		}

		keyTok, err := p.nextToken()
		if err != nil {
			return nil, err
		}
		if keyTok.Type != TokenName {
			return nil, fmt.Errorf("expected name as dictionary key at position %d", keyTok.Pos)
		}
		key := Name(keyTok.Value.(string))

		value, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses an indirect object definition (num gen obj ... endobj)
func (p *Parser) ParseIndirectObject() (int, int, Object, error) {
	numTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if numTok.Type != TokenInteger {
		return 0, 0, nil, fmt.Errorf("expected object number at position %d", numTok.Pos)
	}
	objNum := int(numTok.Value.(int64))

	genTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if genTok.Type != TokenInteger {
		return 0, 0, nil, fmt.Errorf("expected generation number at position %d", genTok.Pos)
	}
	genNum := int(genTok.Value.(int64))

	objTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if objTok.Type != TokenObjStart {
		return 0, 0, nil, fmt.Errorf("expected 'obj' keyword at position %d", objTok.Pos)
	}

	obj, err := p.ParseObject()
	if err != nil {
		return 0, 0, nil, err
	}

	nextTok, err := p.peekToken()
	if err == nil && nextTok.Type == TokenStreamStart {
		p.nextToken()

		dict, ok := obj.(Dictionary)
		if !ok {
			return 0, 0, nil, fmt.Errorf("stream must have dictionary at position %d", nextTok.Pos)
		}

		data, err := p.readStreamData(dict)
		if err != nil {
			return 0, 0, nil, err
		}
		obj = Stream{Dictionary: dict, Data: data}
	}

	endTok, err := p.nextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	if endTok.Type != TokenObjEnd {
		return 0, 0, nil, fmt.Errorf("expected 'endobj' keyword at position %d", endTok.Pos)
	}

	return objNum, genNum, obj, nil
}

var endstreamMarker = []byte("endstream")

// readStreamData reads raw stream data and the endstream keyword. The
// declared /Length is trusted only when endstream follows it; otherwise
// the data runs up to the next endstream.
func (p *Parser) readStreamData(dict Dictionary) ([]byte, error) {
	// EOL after the stream keyword
	if b := p.lexer.Peek(1); len(b) == 1 && b[0] == '\r' {
		p.lexer.readByte()
	}
	if b := p.lexer.Peek(1); len(b) == 1 && b[0] == '\n' {
		p.lexer.readByte()
	}

	if length, ok := dict.GetInt("Length"); ok && length >= 0 && p.lengthIsValid(int(length)) {
		data, err := p.lexer.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		endTok, err := p.nextToken()
		if err != nil {
			return nil, err
		}
		if endTok.Type != TokenStreamEnd {
			return nil, fmt.Errorf("expected 'endstream' at position %d", endTok.Pos)
		}
		return data, nil
	}

	return p.readStreamUntilEnd()
}

// lengthIsValid reports whether endstream follows length bytes of data.
func (p *Parser) lengthIsValid(length int) bool {
	ahead := p.lexer.Peek(length + 2 + len(endstreamMarker))
	if len(ahead) < length {
		return false
	}
	rest := bytes.TrimLeft(ahead[length:], "\r\n \t")
	return bytes.HasPrefix(rest, endstreamMarker)
}

// readStreamUntilEnd reads stream data up to and including endstream.
func (p *Parser) readStreamUntilEnd() ([]byte, error) {
	start := p.lexer.Position()
	var buf bytes.Buffer
	for {
		b, err := p.lexer.readByte()
		if err != nil {
			return nil, fmt.Errorf("unterminated stream at position %d", start)
		}
		buf.WriteByte(b)
		if bytes.HasSuffix(buf.Bytes(), endstreamMarker) {
			break
		}
	}

	data := buf.Bytes()[:buf.Len()-len(endstreamMarker)]
	// The EOL before endstream is not part of the data.
	if n := len(data); n > 0 && data[n-1] == '\n' {
		data = data[:n-1]
	}
	if n := len(data); n > 0 && data[n-1] == '\r' {
		data = data[:n-1]
	}
	return data, nil
}

// ContentStreamParser parses content streams
type ContentStreamParser struct {
	parser *Parser
}

// NewContentStreamParser creates a new content stream parser
func NewContentStreamParser(data []byte) *ContentStreamParser {
	return &ContentStreamParser{parser: NewParserFromBytes(data)}
}

// Operation represents a content stream operation
type Operation struct {
	Operator string
	Operands []Object
}

// ParseOperations parses all operations from a content stream
func (c *ContentStreamParser) ParseOperations() ([]Operation, error) {
	var operations []Operation
	var operands []Object

	for {
		tok, err := c.parser.peekToken()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case TokenEOF:
			return operations, nil
		case TokenKeyword:
			c.parser.nextToken()
			operations = append(operations, Operation{
				Operator: tok.Value.(string),
				Operands: operands,
			})
			operands = nil
			continue
		}

		obj, err := c.parser.ParseObject()
		if err != nil {
			return nil, err
		}
		operands = append(operands, obj)
	}
}

// ContentStreamOperators names the operators the text extractor interprets.
var ContentStreamOperators = map[string]string{
	"q":  "SaveGraphicsState",
	"Q":  "RestoreGraphicsState",
	"cm": "ConcatMatrix",

	"BT": "BeginText",
	"ET": "EndText",

	"Tc": "SetCharSpacing",
	"Tw": "SetWordSpacing",
	"Tz": "SetHorizontalScaling",
	"TL": "SetTextLeading",
	"Tf": "SetFont",
	"Tr": "SetTextRenderingMode",
	"Ts": "SetTextRise",

	"Td": "MoveText",
	"TD": "MoveTextAndSetLeading",
	"Tm": "SetTextMatrix",
	"T*": "MoveToNextLine",

	"Tj": "ShowText",
	"TJ": "ShowTextArray",
	"'":  "MoveAndShowText",
	"\"": "MoveAndShowTextWithSpacing",
}
