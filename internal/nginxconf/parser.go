package nginxconf

import (
	"io"
	"strconv"
	"strings"
)

// ctxKind is a frame on the parser's context stack, mirroring the
// main/http/server/location nesting the grammar allows.
type ctxKind uint8

const (
	ctxMain ctxKind = iota
	ctxHTTP
	ctxServer
	ctxLocation
)

var redirectStatusCodes = map[int]bool{
	301: true, 302: true, 303: true, 307: true, 308: true,
}

// parser walks a token stream with a context stack, assembling statements
// terminated by ';', '{', or '}' and dispatching each to the handler for
// the context it was found in. It reads one token at a time and dispatches
// with a switch per context, building the fixed ServerConfig/LocationBlock
// result shape this server needs instead of a general directive tree.
type parser struct {
	lex     *lexer
	cleaner PathCleaner

	stack       []ctxKind
	servers     []*ServerConfig
	curServer   *ServerConfig
	curLocation *LocationBlock
}

// Parse reads a full configuration file and returns the ServerConfig values
// it declares. workingDirectory is used to resolve relative root and ssl_*
// paths, per PathCleaner.
func Parse(r io.Reader, workingDirectory string) ([]*ServerConfig, error) {
	p := &parser{
		lex:     newLexer(r),
		cleaner: PathCleaner{WorkingDirectory: workingDirectory},
		stack:   []ctxKind{ctxMain},
	}
	return p.run()
}

func (p *parser) run() ([]*ServerConfig, error) {
	var stmt []Token

	for {
		tok := p.lex.next()

		switch tok.Kind {
		case TokenComment:
			continue

		case TokenWord, TokenQuoteWord:
			stmt = append(stmt, tok)

		case TokenSemicolon:
			if len(stmt) == 0 {
				return nil, errf(tok.Line, "unexpected ';'")
			}
			if err := p.handleStatement(stmt); err != nil {
				return nil, err
			}
			stmt = nil

		case TokenBlockStart:
			if len(stmt) == 0 {
				return nil, errf(tok.Line, "unexpected '{'")
			}
			if err := p.handleBlockStart(stmt); err != nil {
				return nil, err
			}
			stmt = nil

		case TokenBlockEnd:
			if len(stmt) != 0 {
				return nil, errf(tok.Line, "unexpected '}' mid-statement")
			}
			if err := p.handleBlockEnd(tok.Line); err != nil {
				return nil, err
			}

		case TokenEOF:
			if len(stmt) != 0 {
				return nil, errf(tok.Line, "unexpected end of file mid-statement")
			}
			if len(p.stack) != 1 {
				return nil, errf(tok.Line, "unclosed block at end of file")
			}
			if len(p.servers) == 0 {
				return nil, errf(tok.Line, "configuration declares no server blocks")
			}
			return p.servers, nil

		case TokenInvalid:
			return nil, errf(tok.Line, "malformed token %q", tok.Literal)
		}
	}
}

func (p *parser) top() ctxKind {
	return p.stack[len(p.stack)-1]
}

func (p *parser) handleBlockStart(head []Token) error {
	line := head[0].Line
	name := head[0].Unquoted()

	switch p.top() {
	case ctxMain:
		if name != "http" || len(head) != 1 {
			return errf(line, "only an \"http { }\" block is allowed at the top level")
		}
		p.stack = append(p.stack, ctxHTTP)

	case ctxHTTP:
		if name != "server" || len(head) != 1 {
			return errf(line, "only \"server { }\" blocks are allowed inside http")
		}
		p.curServer = newDefaultServerConfig(p.cleaner)
		p.stack = append(p.stack, ctxServer)

	case ctxServer:
		if name != "location" {
			return errf(line, "only \"location { }\" blocks are allowed inside server")
		}
		loc, err := parseLocationHead(head)
		if err != nil {
			return err
		}
		p.curServer.addLocation(loc)
		p.curLocation = loc
		p.stack = append(p.stack, ctxLocation)

	case ctxLocation:
		return errf(line, "nested blocks are not allowed inside location")
	}

	return nil
}

func parseLocationHead(head []Token) (*LocationBlock, error) {
	line := head[0].Line
	rest := head[1:]

	switch len(rest) {
	case 1:
		return &LocationBlock{Modifier: NoModifier, URI: rest[0].Unquoted()}, nil
	case 2:
		uri := rest[1].Unquoted()
		switch rest[0].Unquoted() {
		case "=":
			return &LocationBlock{Modifier: ExactMatch, URI: uri}, nil
		case "^~":
			return &LocationBlock{Modifier: PrefixStop, URI: uri}, nil
		case "~":
			return &LocationBlock{Modifier: RegexMatch, RegexCaseSensitive: true, URI: uri}, nil
		case "~*":
			return &LocationBlock{Modifier: RegexMatch, RegexCaseSensitive: false, URI: uri}, nil
		default:
			return nil, errf(line, "unknown location modifier %q", rest[0].Unquoted())
		}
	default:
		return nil, errf(line, "malformed location statement")
	}
}

func (p *parser) handleBlockEnd(line int) error {
	if len(p.stack) <= 1 {
		return errf(line, "unmatched '}'")
	}

	closed := p.top()
	p.stack = p.stack[:len(p.stack)-1]

	switch closed {
	case ctxLocation:
		p.curLocation = nil
	case ctxServer:
		return p.finishServer(line)
	}

	return nil
}

// finishServer runs root/index inheritance from server onto its locations
// and checks the invariants a server block must satisfy before it is
// accepted.
func (p *parser) finishServer(line int) error {
	srv := p.curServer

	for _, loc := range srv.AllLocations() {
		if loc.Root == "" {
			loc.Root = srv.Root
		}
		if loc.Index == "" {
			loc.Index = srv.Index
		}
	}

	if srv.Ret == 0 && (srv.Root == "" || srv.Index == "") {
		return errf(line, "server block must configure root and index, or a return directive")
	}

	switch srv.Type {
	case HTTPSServer:
		if srv.Certificate == "" || srv.PrivateKey == "" {
			return errf(line, "listen ... ssl requires ssl_certificate and ssl_certificate_key")
		}
	case HTTPServer:
		if srv.Certificate != "" || srv.PrivateKey != "" {
			return errf(line, "ssl_certificate directives require \"listen ... ssl\"")
		}
	}

	if srv.Ret != 0 && srv.Ret/100 == 3 {
		if !redirectStatusCodes[srv.Ret] {
			return errf(line, "%d is not a supported redirect status", srv.Ret)
		}
		if srv.RetVal == "" {
			return errf(line, "a 3xx return requires a redirect target")
		}
		if strings.Contains(srv.RetVal, "$host") && srv.Host == "" {
			return errf(line, "$host substitution in return requires server_name")
		}
	}

	p.servers = append(p.servers, srv)
	p.curServer = nil
	return nil
}

func (p *parser) handleStatement(stmt []Token) error {
	name := stmt[0].Unquoted()
	args := stmt[1:]
	line := stmt[0].Line

	switch p.top() {
	case ctxMain, ctxHTTP:
		return errf(line, "directive %q is not allowed here", name)
	case ctxServer:
		return p.handleServerDirective(name, args, line)
	case ctxLocation:
		return p.handleLocationDirective(name, args, line)
	}
	return nil
}

func (p *parser) handleServerDirective(name string, args []Token, line int) error {
	srv := p.curServer

	switch name {
	case "listen":
		if len(args) == 0 {
			return errf(line, "listen requires a port")
		}
		port, err := strconv.Atoi(args[0].Unquoted())
		if err != nil {
			return errf(line, "invalid listen port %q", args[0].Unquoted())
		}
		srv.Port = port
		if len(args) >= 2 && args[1].Unquoted() == "ssl" {
			srv.Type = HTTPSServer
		}

	case "index":
		if len(args) != 1 {
			return errf(line, "index takes exactly one argument")
		}
		srv.Index = args[0].Unquoted()

	case "root":
		if len(args) != 1 {
			return errf(line, "root takes exactly one argument")
		}
		srv.Root = p.cleaner.Clean(args[0].Unquoted(), DirOnly)

	case "server_name":
		if len(args) != 1 {
			return errf(line, "server_name takes exactly one argument")
		}
		srv.Host = args[0].Unquoted()

	case "ssl_certificate":
		if len(args) != 1 {
			return errf(line, "ssl_certificate takes exactly one argument")
		}
		srv.Certificate = p.cleaner.Clean(args[0].Unquoted(), DirFile)

	case "ssl_certificate_key":
		if len(args) != 1 {
			return errf(line, "ssl_certificate_key takes exactly one argument")
		}
		srv.PrivateKey = p.cleaner.Clean(args[0].Unquoted(), DirFile)

	case "return":
		return p.handleReturn(srv, args, line)

	case "ssl_protocols", "ssl_ciphers", "ssl_session_timeout":
		// Accepted for compatibility with real nginx configs; the TLS
		// handshake itself is out of scope here, so these are no-ops.

	default:
		return errf(line, "unknown directive %q in server block", name)
	}

	return nil
}

func (p *parser) handleReturn(srv *ServerConfig, args []Token, line int) error {
	if len(args) == 0 {
		return errf(line, "return requires at least one argument")
	}

	if code, err := strconv.Atoi(args[0].Unquoted()); err == nil {
		if len(args) > 2 {
			return errf(line, "return takes at most a code and a value")
		}
		srv.Ret = code
		if len(args) == 2 {
			srv.RetVal = args[1].Unquoted()
		}
		return nil
	}

	if len(args) != 1 {
		return errf(line, "single-argument return must be a redirect target")
	}
	srv.Ret = 302
	srv.RetVal = args[0].Unquoted()
	return nil
}

func (p *parser) handleLocationDirective(name string, args []Token, line int) error {
	loc := p.curLocation

	switch name {
	case "index":
		if len(args) != 1 {
			return errf(line, "index takes exactly one argument")
		}
		loc.Index = args[0].Unquoted()

	case "root":
		if len(args) != 1 {
			return errf(line, "root takes exactly one argument")
		}
		loc.Root = p.cleaner.Clean(args[0].Unquoted(), DirOnly)

	case "try_files":
		if len(args) < 2 {
			return errf(line, "try_files requires at least one candidate and a fallback")
		}
		for _, a := range args[:len(args)-1] {
			loc.TryFilesArgs = append(loc.TryFilesArgs, a.Unquoted())
		}
		loc.TryFilesFallback = args[len(args)-1].Unquoted()

	default:
		return errf(line, "unknown directive %q in location block", name)
	}

	return nil
}

func newDefaultServerConfig(cleaner PathCleaner) *ServerConfig {
	return &ServerConfig{
		Type:  HTTPServer,
		Port:  80,
		Root:  cleaner.Clean("html/", DirOnly),
		Index: "index.html",
	}
}
