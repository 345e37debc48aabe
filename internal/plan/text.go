package plan

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"

	"github.com/papapumpkin/sleigh/internal/dag"
)

// ErrSyntax is matched by every *SyntaxError.
var ErrSyntax = errors.New("malformed instruction")

// SyntaxError reports a line of instruction text that could not be parsed.
type SyntaxError struct {
	Line int
	Text string
	Err  error
}

// Error reports the line number, the offending text and the cause.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v: %q: %v", e.Line, ErrSyntax, e.Text, e.Err)
}

// Unwrap returns ErrSyntax and the underlying cause.
func (e *SyntaxError) Unwrap() []error { return []error{ErrSyntax, e.Err} }

// Token codes start at 1 to stay clear of parsly's reserved codes.
const (
	tWhitespace = iota + 1
	tIdentifier
	tStep
	tMust
	tBe
	tFinished
	tBefore
	tCan
	tBegin
	tDot
)

var (
	tokWS         = parsly.NewToken(tWhitespace, "Whitespace", matcher.NewWhiteSpace())
	tokIdentifier = parsly.NewToken(tIdentifier, "Identifier", &identifierMatcher{})
	tokStep       = parsly.NewToken(tStep, "Step", matcher.NewFragment("Step"))
	tokStepLower  = parsly.NewToken(tStep, "step", matcher.NewFragment("step"))
	tokMust       = parsly.NewToken(tMust, "must", matcher.NewFragment("must"))
	tokBe         = parsly.NewToken(tBe, "be", matcher.NewFragment("be"))
	tokFinished   = parsly.NewToken(tFinished, "finished", matcher.NewFragment("finished"))
	tokBefore     = parsly.NewToken(tBefore, "before", matcher.NewFragment("before"))
	tokCan        = parsly.NewToken(tCan, "can", matcher.NewFragment("can"))
	tokBegin      = parsly.NewToken(tBegin, "begin", matcher.NewFragment("begin"))
	tokDot        = parsly.NewToken(tDot, ".", matcher.NewByte('.'))
)

// ParseText parses instruction text, one edge per line:
//
//	Step C must be finished before step A can begin.
//
// Blank lines and lines starting with '#' are ignored.
func ParseText(data []byte) (*Plan, error) {
	p := &Plan{Costs: make(map[string]int)}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		edge, err := parseInstruction(line)
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Text: line, Err: err}
		}
		p.addTask(edge.Before)
		p.addTask(edge.After)
		p.Edges = append(p.Edges, edge)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading instructions: %w", err)
	}
	if len(p.Tasks) == 0 {
		return nil, ErrEmptyPlan
	}
	return p, nil
}

// parseInstruction parses a single trimmed instruction line.
func parseInstruction(line string) (dag.Edge[string], error) {
	cursor := parsly.NewCursor("", []byte(line), 0)

	expect := func(tokens ...*parsly.Token) (string, error) {
		matched := cursor.MatchAfterOptional(tokWS, tokens...)
		for _, tok := range tokens {
			if matched.Code == tok.Code {
				return matched.Text(cursor), nil
			}
		}
		return "", cursor.NewError(tokens...)
	}

	var edge dag.Edge[string]
	if _, err := expect(tokStep, tokStepLower); err != nil {
		return edge, err
	}
	before, err := expect(tokIdentifier)
	if err != nil {
		return edge, err
	}
	for _, tok := range []*parsly.Token{tokMust, tokBe, tokFinished, tokBefore} {
		if _, err := expect(tok); err != nil {
			return edge, err
		}
	}
	if _, err := expect(tokStep, tokStepLower); err != nil {
		return edge, err
	}
	after, err := expect(tokIdentifier)
	if err != nil {
		return edge, err
	}
	for _, tok := range []*parsly.Token{tokCan, tokBegin} {
		if _, err := expect(tok); err != nil {
			return edge, err
		}
	}
	cursor.MatchOne(tokDot)
	cursor.MatchOne(tokWS)
	if cursor.Pos < cursor.InputSize {
		return edge, fmt.Errorf("unexpected trailing text at offset %d", cursor.Pos)
	}
	edge.Before, edge.After = before, after
	return edge, nil
}

// identifierMatcher matches task identifiers: letters, digits, '_' and '-'.
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		c := input[i]
		if isLetter(c) || isDigit(c) || c == '_' || c == '-' {
			matched++
			continue
		}
		break
	}
	return matched
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
