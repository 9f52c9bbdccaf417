package eflr

import (
	"fmt"

	"github.com/rxanders35/dlisgo/component"
	"github.com/rxanders35/dlisgo/diag"
	"github.com/rxanders35/dlisgo/dliserr"
	"github.com/rxanders35/dlisgo/repr"
)

// Parse decodes an assembled EFLR payload into a Record. sink receives
// warning-level events (VRL-version mismatches are a framing-layer
// concern and never appear here; this layer only warns about stray
// object-attribute labels and duplicate object keys) and may be nil.
func Parse(payload []byte, sink diag.Sink) (Record, error) {
	if sink == nil {
		sink = diag.NopSink
	}
	p := &parser{buf: payload, sink: sink}
	return p.parse()
}

type parser struct {
	buf  []byte
	pos  int
	sink diag.Sink
}

func (p *parser) parse() (Record, error) {
	rec := Record{}

	desc, err := p.consumeDescriptor()
	if err != nil {
		return Record{}, err
	}
	if !desc.Role.IsSet() {
		return Record{}, dliserr.New("parse_eflr", dliserr.ExpectedSet, fmt.Errorf("first component has role %s, want SET/RDSET/RSET", desc.Role))
	}
	if desc.Flags.HasType {
		s, err := p.decodeIdent()
		if err != nil {
			return Record{}, err
		}
		rec.SetType = &s
	}
	if desc.Flags.HasName {
		s, err := p.decodeIdent()
		if err != nil {
			return Record{}, err
		}
		rec.SetName = &s
	}

	if err := p.parseTemplate(&rec); err != nil {
		return Record{}, err
	}
	if err := p.parseObjects(&rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (p *parser) parseTemplate(rec *Record) error {
	for p.pos < len(p.buf) {
		role := p.peekRole()
		if role == component.RoleObject {
			return nil
		}

		desc, err := p.consumeDescriptor()
		if err != nil {
			return err
		}
		if desc.Role != component.RoleAttrib && desc.Role != component.RoleInvAttr {
			return dliserr.New("parse_eflr", dliserr.ExpectedAttribute, fmt.Errorf("template component has role %s, want ATTRIB/INVATR", desc.Role))
		}
		if !desc.Flags.HasLabel {
			return dliserr.New("parse_eflr", dliserr.TemplateMissLabel, fmt.Errorf("template component is missing its label"))
		}

		col, err := p.decodeAttribFields(desc.Flags)
		if err != nil {
			return err
		}
		if desc.Role == component.RoleAttrib {
			rec.Template = append(rec.Template, col)
		} else {
			rec.Invariants = append(rec.Invariants, col)
		}
	}
	return nil
}

func (p *parser) parseObjects(rec *Record) error {
	index := map[repr.Obname]int{}

	for p.pos < len(p.buf) {
		desc, err := p.consumeDescriptor()
		if err != nil {
			return err
		}
		if desc.Role != component.RoleObject {
			return dliserr.New("parse_eflr", dliserr.ExpectedObject, fmt.Errorf("object-phase component has role %s, want OBJECT", desc.Role))
		}

		name, n, err := repr.DecodeOBNAME(p.buf, p.pos)
		if err != nil {
			return err
		}
		p.pos += n

		row := ObjectRow{Name: name, Columns: make([]Column, 0, len(rec.Template)+len(rec.Invariants))}
		for _, c := range rec.Template {
			row.Columns = append(row.Columns, c.clone())
		}

		for colIdx := 0; colIdx < len(rec.Template); colIdx++ {
			if p.pos >= len(p.buf) {
				break
			}
			role := p.peekRole()
			if role == component.RoleObject {
				break
			}

			desc, err := p.consumeDescriptor()
			if err != nil {
				return err
			}
			switch desc.Role {
			case component.RoleAbsAttr:
				row.Columns[colIdx].Value = nil
			case component.RoleAttrib:
				if desc.Flags.HasLabel {
					p.sink.Warn("stray_object_attribute_label", "object attribute carries an unexpected label flag; skipping it",
						diag.Field{Key: "object", Value: name.ID})
					if _, err := p.decodeIdent(); err != nil {
						return err
					}
				}
				if err := p.overrideColumn(&row.Columns[colIdx], desc.Flags); err != nil {
					return err
				}
			default:
				return dliserr.New("parse_eflr", dliserr.ExpectedAttribute, fmt.Errorf("object-row component has role %s, want ATTRIB/ABSATR", desc.Role))
			}
		}

		for _, c := range rec.Invariants {
			row.Columns = append(row.Columns, c.clone())
		}

		if i, ok := index[name]; ok {
			p.sink.Warn("duplicate_object", "object name already present in this record; overwriting",
				diag.Field{Key: "origin", Value: name.Origin}, diag.Field{Key: "copy", Value: name.Copy}, diag.Field{Key: "id", Value: name.ID})
			rec.Objects[i] = row
		} else {
			index[name] = len(rec.Objects)
			rec.Objects = append(rec.Objects, row)
		}
	}
	return nil
}

// decodeAttribFields decodes the present-flagged fields of a template
// attribute component, in the order label, count, reprc, units, value.
// label is assumed present (the caller already checked HasLabel).
func (p *parser) decodeAttribFields(f component.Flags) (Column, error) {
	label, err := p.decodeIdent()
	if err != nil {
		return Column{}, err
	}
	col := defaultColumn(label)
	if err := p.overrideColumn(&col, f); err != nil {
		return Column{}, err
	}
	return col, nil
}

// overrideColumn applies an object attribute's present fields onto an
// already-template-seeded column, in the same order as
// decodeAttribFields (count, reprc, units, value - label was already
// consumed by the caller if present).
func (p *parser) overrideColumn(col *Column, f component.Flags) error {
	if f.HasCount {
		v, n, err := repr.DecodeUVARI(p.buf, p.pos)
		if err != nil {
			return err
		}
		p.pos += n
		col.Count = int(v)
	}
	if f.HasReprc {
		v, n, err := repr.DecodeUSHORT(p.buf, p.pos)
		if err != nil {
			return err
		}
		p.pos += n
		col.Reprc = repr.Code(v)
	}
	if f.HasUnits {
		u, err := p.decodeIdent()
		if err != nil {
			return err
		}
		col.Units = u
	}
	if f.HasValue {
		seq, n, err := repr.DecodeSeq(col.Reprc, col.Count, p.buf, p.pos)
		if err != nil {
			return err
		}
		p.pos += n
		col.Value = seq
	}
	return nil
}

func (p *parser) consumeDescriptor() (component.Descriptor, error) {
	if p.pos >= len(p.buf) {
		return component.Descriptor{}, dliserr.New("parse_eflr", dliserr.TruncatedField, fmt.Errorf("expected a component descriptor, found end of buffer"))
	}
	desc, err := component.Decode(p.buf[p.pos])
	if err != nil {
		return component.Descriptor{}, dliserr.New("parse_eflr", dliserr.BadComponent, err)
	}
	p.pos++
	return desc, nil
}

// peekRole reports the role of the byte at the cursor without consuming
// it or validating its flags.
func (p *parser) peekRole() component.Role {
	return component.Role(p.buf[p.pos] >> 5)
}

func (p *parser) decodeIdent() (string, error) {
	s, n, err := repr.DecodeIDENT(p.buf, p.pos)
	if err != nil {
		return "", err
	}
	p.pos += n
	return s, nil
}
