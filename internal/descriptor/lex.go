package descriptor

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken = iota
	lineCommentToken
	blockCommentToken
	stringToken
	parenthesesBlockToken
	openBraceToken
	closeBraceToken
	semicolonToken
	identifierToken
	anyToken
)

var whitespaceMatcher = parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace())
var lineCommentMatcher = parsly.NewToken(lineCommentToken, "LineComment", matcher.NewSeqBlock("//", "\n"))
var blockCommentMatcher = parsly.NewToken(blockCommentToken, "BlockComment", matcher.NewSeqBlock("/*", "*/"))
var stringMatcher = parsly.NewToken(stringToken, "String", matcher.NewBlock('"', '"', '\\'))
var parenthesesBlockMatcher = parsly.NewToken(parenthesesBlockToken, "Parentheses", matcher.NewBlock('(', ')', '\\'))
var openBraceMatcher = parsly.NewToken(openBraceToken, "{", matcher.NewByte('{'))
var closeBraceMatcher = parsly.NewToken(closeBraceToken, "}", matcher.NewByte('}'))
var semicolonMatcher = parsly.NewToken(semicolonToken, ";", matcher.NewByte(';'))
var identifierMatcher = parsly.NewToken(identifierToken, "Identifier", &qualifiedNameMatch{})
var anyMatcher = parsly.NewToken(anyToken, "Any", &anyMatch{})

// tokens is the match order used everywhere in a descriptor: comments and
// literals first so their contents are never read as directives.
var tokens = []*parsly.Token{
	lineCommentMatcher,
	blockCommentMatcher,
	stringMatcher,
	parenthesesBlockMatcher,
	openBraceMatcher,
	closeBraceMatcher,
	semicolonMatcher,
	identifierMatcher,
	anyMatcher,
}

type anyMatch struct{}

func (a *anyMatch) Match(cursor *parsly.Cursor) int {
	if cursor.Pos < cursor.InputSize {
		return 1
	}
	return 0
}

// qualifiedNameMatch matches a Java identifier optionally followed by
// dot-separated parts, e.g. org.junit.jupiter.api.
type qualifiedNameMatch struct{}

func (q *qualifiedNameMatch) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize {
		return 0
	}
	if !isIdentifierStart(cursor.Input[cursor.Pos]) {
		return 0
	}
	pos := cursor.Pos + 1
	for pos < cursor.InputSize {
		b := cursor.Input[pos]
		if isIdentifierPart(b) {
			pos++
			continue
		}
		if b == '.' && pos+1 < cursor.InputSize && isIdentifierStart(cursor.Input[pos+1]) {
			pos++
			continue
		}
		break
	}
	return pos - cursor.Pos
}

func isIdentifierStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' || b == '$'
}

func isIdentifierPart(b byte) bool {
	return isIdentifierStart(b) || (b >= '0' && b <= '9')
}
