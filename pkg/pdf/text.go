package pdf

import (
	"fmt"
	"strings"
)

// TextLine is a run of text shown at one baseline position
type TextLine struct {
	X, Y     float64
	FontName string
	FontSize float64
	Text     string
}

// matrix is a PDF transformation matrix [a b c d e f]
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// multiply returns m × n
func (m matrix) multiply(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// textState tracks the text parameters needed to place text
type textState struct {
	ctm        matrix
	tm, tlm    matrix
	font       string
	fontSize   float64
	leading    float64
	stack      []matrix
	lines      []TextLine
	lastOrigin [2]float64
}

// TextLines extracts positioned text from the page content stream.
// Shows without an intervening move are merged into one line.
func (p *Page) TextLines() ([]TextLine, error) {
	content, err := p.GetContents()
	if err != nil {
		return nil, err
	}
	ops, err := NewContentStreamParser(content).ParseOperations()
	if err != nil {
		return nil, fmt.Errorf("page %d content: %w", p.Number, err)
	}

	st := &textState{ctm: identity, tm: identity, tlm: identity}
	for _, op := range ops {
		if _, known := ContentStreamOperators[op.Operator]; !known {
			continue
		}
		if err := st.apply(p, op); err != nil {
			return nil, fmt.Errorf("page %d: %s: %w", p.Number, op.Operator, err)
		}
	}
	return st.lines, nil
}

// Text returns the page text, one TextLine per output line.
func (p *Page) Text() (string, error) {
	lines, err := p.TextLines()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func numbers(operands []Object, n int) ([]float64, error) {
	if len(operands) < n {
		return nil, fmt.Errorf("expected %d operands, got %d", n, len(operands))
	}
	vals := make([]float64, n)
	for i, obj := range operands[len(operands)-n:] {
		v, ok := Number(obj)
		if !ok {
			return nil, fmt.Errorf("operand %d is not a number: %s", i, obj)
		}
		vals[i] = v
	}
	return vals, nil
}

func (st *textState) apply(p *Page, op Operation) error {
	switch op.Operator {
	case "q":
		st.stack = append(st.stack, st.ctm)
	case "Q":
		if n := len(st.stack); n > 0 {
			st.ctm = st.stack[n-1]
			st.stack = st.stack[:n-1]
		}
	case "cm":
		v, err := numbers(op.Operands, 6)
		if err != nil {
			return err
		}
		st.ctm = matrix(v).multiply(st.ctm)

	case "BT":
		st.tm, st.tlm = identity, identity

	case "Tf":
		if len(op.Operands) < 2 {
			return fmt.Errorf("expected 2 operands, got %d", len(op.Operands))
		}
		if name, ok := op.Operands[0].(Name); ok {
			st.font = p.FontName(name)
		}
		size, ok := Number(op.Operands[1])
		if !ok {
			return fmt.Errorf("font size is not a number: %s", op.Operands[1])
		}
		st.fontSize = size
	case "TL":
		v, err := numbers(op.Operands, 1)
		if err != nil {
			return err
		}
		st.leading = v[0]

	case "Td", "TD":
		v, err := numbers(op.Operands, 2)
		if err != nil {
			return err
		}
		if op.Operator == "TD" {
			st.leading = -v[1]
		}
		st.moveLine(v[0], v[1])
	case "Tm":
		v, err := numbers(op.Operands, 6)
		if err != nil {
			return err
		}
		st.tm = matrix(v)
		st.tlm = st.tm
	case "T*":
		st.moveLine(0, -st.leading)

	case "Tj":
		if len(op.Operands) < 1 {
			return fmt.Errorf("missing string operand")
		}
		st.show(stringText(op.Operands[0]))
	case "TJ":
		if len(op.Operands) < 1 {
			return fmt.Errorf("missing array operand")
		}
		arr, ok := op.Operands[0].(Array)
		if !ok {
			return fmt.Errorf("operand is not an array")
		}
		var sb strings.Builder
		for _, item := range arr {
			if n, ok := Number(item); ok {
				// a large negative adjustment is a word gap
				if n < -250 {
					sb.WriteByte(' ')
				}
				continue
			}
			sb.WriteString(stringText(item))
		}
		st.show(sb.String())
	case "'":
		if len(op.Operands) < 1 {
			return fmt.Errorf("missing string operand")
		}
		st.moveLine(0, -st.leading)
		st.show(stringText(op.Operands[len(op.Operands)-1]))
	case "\"":
		// aw ac string
		if _, err := numbers(op.Operands[:max(len(op.Operands)-1, 0)], 2); err != nil {
			return err
		}
		st.moveLine(0, -st.leading)
		st.show(stringText(op.Operands[len(op.Operands)-1]))
	}
	return nil
}

func (st *textState) moveLine(tx, ty float64) {
	st.tlm = translate(tx, ty).multiply(st.tlm)
	st.tm = st.tlm
}

func stringText(obj Object) string {
	if s, ok := obj.(String); ok {
		return s.Text()
	}
	return ""
}

func (st *textState) show(text string) {
	if text == "" {
		return
	}
	origin := st.tm.multiply(st.ctm)
	x, y := origin[4], origin[5]

	if n := len(st.lines); n > 0 && st.lastOrigin == [2]float64{x, y} {
		// glyph advances are not tracked, so a show without a move continues the line
		st.lines[n-1].Text += text
		return
	}

	st.lines = append(st.lines, TextLine{
		X:        x,
		Y:        y,
		FontName: st.font,
		FontSize: st.fontSize,
		Text:     text,
	})
	st.lastOrigin = [2]float64{x, y}
}
