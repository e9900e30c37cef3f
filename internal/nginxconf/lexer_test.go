package nginxconf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexerBasicTokens(t *testing.T) {
	toks := tokenize(strings.NewReader(`server { listen 80; }`))
	kinds := []TokenKind{TokenWord, TokenBlockStart, TokenWord, TokenWord, TokenSemicolon, TokenBlockEnd, TokenEOF}
	assert.Len(t, toks, len(kinds))
	for i, k := range kinds {
		assert.Equalf(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestLexerComment(t *testing.T) {
	toks := tokenize(strings.NewReader("# a comment\nroot /x;"))
	assert.Equal(t, TokenComment, toks[0].Kind)
	assert.Equal(t, TokenWord, toks[1].Kind)
	assert.Equal(t, "root", toks[1].Literal)
}

func TestLexerDoubleQuote(t *testing.T) {
	toks := tokenize(strings.NewReader(`root "/a/b c";`))
	assert.Equal(t, TokenQuoteWord, toks[1].Kind)
	assert.Equal(t, "/a/b c", toks[1].Unquoted())
}

func TestLexerEscapedSpaceInWord(t *testing.T) {
	toks := tokenize(strings.NewReader(`root /a\ b;`))
	assert.Equal(t, TokenWord, toks[1].Kind)
	assert.Equal(t, "/a b", toks[1].Literal)
}

func TestLexerUnterminatedQuoteIsInvalid(t *testing.T) {
	toks := tokenize(strings.NewReader(`root "/a/b;`))
	assert.Equal(t, TokenInvalid, toks[len(toks)-1].Kind)
}

func TestLexerTrailerAfterQuoteMustBeSpaceOrSemicolon(t *testing.T) {
	toks := tokenize(strings.NewReader(`root "/a/b"c;`))
	assert.Equal(t, TokenInvalid, toks[len(toks)-1].Kind)
}

func TestLexerDeterministicOnRepeatedInput(t *testing.T) {
	const src = `server { listen 80; root /srv/www/; index index.html; }`
	first := tokenize(strings.NewReader(src))
	second := tokenize(strings.NewReader(src))
	assert.Equal(t, first, second)
}
