package template

import (
	"fmt"
	"strings"
)

type stmt struct {
	kind string // text, output, if, for, set
	text string

	expr exprNode_

	// if
	branches []ifBranch
	elseBody []stmt

	// for
	loopVar   string
	iterExpr  exprNode_
	condExpr  exprNode_
	recursive bool
	body      []stmt

	// set
	target    []string // ["ns", "field"] or ["name"]
	valueExpr exprNode_
}

type ifBranch struct {
	cond exprNode_
	body []stmt
}

type stmtParser struct {
	chunks []chunk
	pos    int
}

// parseTemplate turns the flat chunk stream into a tree of statements,
// recursively descending into if/for bodies until their matching
// endif/endfor tag.
func parseTemplate(src string) ([]stmt, error) {
	chunks, err := splitChunks(src)
	if err != nil {
		return nil, err
	}

	p := &stmtParser{chunks: chunks}

	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	if p.pos != len(p.chunks) {
		return nil, fmt.Errorf("template: unexpected tag %q", p.chunks[p.pos].text)
	}

	return body, nil
}

func tagKeyword(text string) (string, string) {
	text = strings.TrimSpace(text)

	i := strings.IndexAny(text, " \t")
	if i < 0 {
		return text, ""
	}

	return text[:i], strings.TrimSpace(text[i+1:])
}

// parseBody parses statements until end of input or a tag this level
// doesn't own (elif/else/endif/endfor), which is left for the caller.
func (p *stmtParser) parseBody() ([]stmt, error) {
	var out []stmt

	for p.pos < len(p.chunks) {
		ch := p.chunks[p.pos]

		switch ch.kind {
		case chunkText:
			out = append(out, stmt{kind: "text", text: ch.text})
			p.pos++
		case chunkOutput:
			expr, err := parseExpr(ch.text)
			if err != nil {
				return nil, err
			}

			out = append(out, stmt{kind: "output", expr: expr})
			p.pos++
		case chunkTag:
			kw, rest := tagKeyword(ch.text)

			switch kw {
			case "elif", "else", "endif", "endfor":
				return out, nil
			case "if":
				s, err := p.parseIf(rest)
				if err != nil {
					return nil, err
				}

				out = append(out, s)
			case "for":
				s, err := p.parseFor(rest)
				if err != nil {
					return nil, err
				}

				out = append(out, s)
			case "set":
				s, err := parseSet(rest)
				if err != nil {
					return nil, err
				}

				out = append(out, s)
			default:
				return nil, fmt.Errorf("template: unknown tag %q", kw)
			}
		}
	}

	return out, nil
}

func (p *stmtParser) parseIf(condText string) (stmt, error) {
	cond, err := parseExpr(condText)
	if err != nil {
		return stmt{}, err
	}

	p.pos++ // consume the "if" tag chunk

	body, err := p.parseBody()
	if err != nil {
		return stmt{}, err
	}

	s := stmt{kind: "if", branches: []ifBranch{{cond: cond, body: body}}}

	for p.pos < len(p.chunks) && p.chunks[p.pos].kind == chunkTag {
		kw, rest := tagKeyword(p.chunks[p.pos].text)

		switch kw {
		case "elif":
			c, err := parseExpr(rest)
			if err != nil {
				return stmt{}, err
			}

			p.pos++

			b, err := p.parseBody()
			if err != nil {
				return stmt{}, err
			}

			s.branches = append(s.branches, ifBranch{cond: c, body: b})

			continue
		case "else":
			p.pos++

			b, err := p.parseBody()
			if err != nil {
				return stmt{}, err
			}

			s.elseBody = b
		case "endif":
			p.pos++
			return s, nil
		}

		if kw == "else" {
			// else must be immediately followed by endif
			if p.pos < len(p.chunks) {
				kw2, _ := tagKeyword(p.chunks[p.pos].text)
				if kw2 == "endif" {
					p.pos++
				}
			}

			return s, nil
		}
	}

	return stmt{}, fmt.Errorf("template: unterminated if (missing endif)")
}

// parseFor parses `var in expr [if cond] [recursive]`.
func (p *stmtParser) parseFor(rest string) (stmt, error) {
	const inKw = " in "

	idx := strings.Index(rest, inKw)
	if idx < 0 {
		return stmt{}, fmt.Errorf("template: malformed for-loop %q", rest)
	}

	loopVar := strings.TrimSpace(rest[:idx])
	remainder := strings.TrimSpace(rest[idx+len(inKw):])

	recursive := false
	if strings.HasSuffix(remainder, "recursive") {
		recursive = true
		remainder = strings.TrimSpace(strings.TrimSuffix(remainder, "recursive"))
	}

	var condText string

	if i := strings.Index(remainder, " if "); i >= 0 {
		condText = strings.TrimSpace(remainder[i+4:])
		remainder = strings.TrimSpace(remainder[:i])
	}

	iterExpr, err := parseExpr(remainder)
	if err != nil {
		return stmt{}, err
	}

	var condExpr exprNode_

	if condText != "" {
		condExpr, err = parseExpr(condText)
		if err != nil {
			return stmt{}, err
		}
	}

	p.pos++ // consume "for" tag chunk

	body, err := p.parseBody()
	if err != nil {
		return stmt{}, err
	}

	if p.pos >= len(p.chunks) {
		return stmt{}, fmt.Errorf("template: unterminated for (missing endfor)")
	}

	kw, _ := tagKeyword(p.chunks[p.pos].text)
	if kw != "endfor" {
		return stmt{}, fmt.Errorf("template: expected endfor, got %q", kw)
	}

	p.pos++

	return stmt{kind: "for", loopVar: loopVar, iterExpr: iterExpr, condExpr: condExpr, recursive: recursive, body: body}, nil
}

func parseSet(rest string) (stmt, error) {
	idx := strings.Index(rest, "=")
	if idx < 0 {
		return stmt{}, fmt.Errorf("template: malformed set %q", rest)
	}

	targetText := strings.TrimSpace(rest[:idx])
	valueText := strings.TrimSpace(rest[idx+1:])

	target := strings.Split(targetText, ".")
	for i := range target {
		target[i] = strings.TrimSpace(target[i])
	}

	valueExpr, err := parseExpr(valueText)
	if err != nil {
		return stmt{}, err
	}

	return stmt{kind: "set", target: target, valueExpr: valueExpr}, nil
}
