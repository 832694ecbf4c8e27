package step

import (
	"fmt"
	"strings"
)

// parser is a single-pass scanner over the raw exchange structure.
// STEP files are ASCII outside of string literals, so byte-wise
// scanning is safe; extended characters inside strings travel as
// backslash escapes and are decoded later.
type parser struct {
	data []byte
	pos  int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		case '/':
			// /* comment */
			if p.pos+1 < len(p.data) && p.data[p.pos+1] == '*' {
				end := strings.Index(string(p.data[p.pos+2:]), "*/")
				if end < 0 {
					p.pos = len(p.data)
					return
				}
				p.pos += 2 + end + 2
			} else {
				return
			}
		default:
			return
		}
	}
}

// skipToData validates the file signature and positions the parser on
// the first instance of the DATA section.
func (p *parser) skipToData() error {
	p.skipSpace()
	if !p.hasPrefix("ISO-10303-21;") {
		return fmt.Errorf("step: missing ISO-10303-21 signature")
	}
	for p.pos < len(p.data) {
		p.skipSpace()
		if p.hasPrefix("DATA;") {
			return nil
		}
		if p.pos >= len(p.data) {
			break
		}
		if p.data[p.pos] == '\'' {
			if _, err := p.readString(); err != nil {
				return err
			}
			continue
		}
		p.pos++
	}
	return fmt.Errorf("step: no DATA section")
}

func (p *parser) hasPrefix(s string) bool {
	if p.pos+len(s) > len(p.data) {
		return false
	}
	if string(p.data[p.pos:p.pos+len(s)]) != s {
		return false
	}
	p.pos += len(s)
	return true
}

// readLine reads one `#id = NAME(...);` instance. It returns a nil line
// at ENDSEC.
func (p *parser) readLine() (uint32, *line, error) {
	p.skipSpace()
	if p.hasPrefix("ENDSEC;") {
		return 0, nil, nil
	}
	if p.pos >= len(p.data) {
		return 0, nil, fmt.Errorf("step: unexpected end of file in DATA section")
	}
	if p.data[p.pos] != '#' {
		return 0, nil, fmt.Errorf("step: expected instance at offset %d", p.pos)
	}
	p.pos++
	id, err := p.readID()
	if err != nil {
		return 0, nil, err
	}
	p.skipSpace()
	if p.pos >= len(p.data) || p.data[p.pos] != '=' {
		return 0, nil, fmt.Errorf("step: #%d: expected '='", id)
	}
	p.pos++
	p.skipSpace()
	name := p.readName()
	if name == "" {
		return 0, nil, fmt.Errorf("step: #%d: missing entity name", id)
	}
	args, err := p.readArgList(id)
	if err != nil {
		return 0, nil, err
	}
	p.skipSpace()
	if p.pos >= len(p.data) || p.data[p.pos] != ';' {
		return 0, nil, fmt.Errorf("step: #%d: missing terminator", id)
	}
	p.pos++
	return id, &line{typ: typeCodeFor(name), name: name, args: args}, nil
}

func (p *parser) readID() (uint32, error) {
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("step: malformed instance id at offset %d", start)
	}
	var id uint32
	for _, c := range p.data[start:p.pos] {
		id = id*10 + uint32(c-'0')
	}
	if id == 0 {
		return 0, fmt.Errorf("step: instance id 0 is reserved")
	}
	return id, nil
}

func (p *parser) readName() string {
	start := p.pos
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return strings.ToUpper(string(p.data[start:p.pos]))
}

func (p *parser) readArgList(id uint32) ([]value, error) {
	p.skipSpace()
	if p.pos >= len(p.data) || p.data[p.pos] != '(' {
		return nil, fmt.Errorf("step: #%d: expected '('", id)
	}
	p.pos++
	var args []value
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("step: #%d: unterminated argument list", id)
		}
		if p.data[p.pos] == ')' {
			p.pos++
			return args, nil
		}
		v, err := p.readValue(id)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		p.skipSpace()
		if p.pos < len(p.data) && p.data[p.pos] == ',' {
			p.pos++
		}
	}
}

func (p *parser) readValue(id uint32) (value, error) {
	p.skipSpace()
	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("step: #%d: unexpected end of value", id)
	}
	switch c := p.data[p.pos]; {
	case c == '$':
		p.pos++
		return nil, nil
	case c == '*':
		// derived attribute, treated like unset
		p.pos++
		return nil, nil
	case c == '#':
		p.pos++
		ref, err := p.readID()
		if err != nil {
			return nil, err
		}
		return entityRef(ref), nil
	case c == '\'':
		return p.readString()
	case c == '.':
		return p.readEnum(id)
	case c == '(':
		list, err := p.readArgList(id)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []value{}
		}
		return list, nil
	case c == '-' || c == '+' || c >= '0' && c <= '9':
		return p.readNumber(id)
	case c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z':
		// Typed value like IFCLABEL('x'): unwrap to the inner value.
		p.readName()
		inner, err := p.readArgList(id)
		if err != nil {
			return nil, err
		}
		if len(inner) != 1 {
			return nil, fmt.Errorf("step: #%d: typed value with %d components", id, len(inner))
		}
		return inner[0], nil
	}
	return nil, fmt.Errorf("step: #%d: unexpected character %q", id, p.data[p.pos])
}

// readString reads a quoted literal. Doubled quotes collapse to one;
// backslash escapes are kept verbatim for ifc.DecodeString.
func (p *parser) readString() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '\'' {
			if p.pos+1 < len(p.data) && p.data[p.pos+1] == '\'' {
				b.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", fmt.Errorf("step: unterminated string at offset %d", start)
}

func (p *parser) readEnum(id uint32) (value, error) {
	p.pos++ // leading dot
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] != '.' {
		p.pos++
	}
	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("step: #%d: unterminated enumeration", id)
	}
	name := string(p.data[start:p.pos])
	p.pos++ // trailing dot
	switch name {
	case "T":
		return int64(1), nil
	case "F":
		return int64(0), nil
	}
	return enum(name), nil
}

func (p *parser) readNumber(id uint32) (value, error) {
	start := p.pos
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c >= '0' && c <= '9' || c == '-' || c == '+' || c == '.' || c == 'E' || c == 'e' {
			p.pos++
			continue
		}
		break
	}
	return parseNumber(string(p.data[start:p.pos]))
}
