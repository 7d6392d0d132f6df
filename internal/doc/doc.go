// Package doc parses the body of a QML documentation comment into topics and
// metacommands.
package doc

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Location identifies a position in a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// IsZero reports whether the location has not been set.
func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

func (l Location) String() string {
	switch {
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
}

// Topic is a topic command such as \qmlproperty together with its raw
// argument text.
type Topic struct {
	Command string
	Args    string
}

// Arg is one occurrence of a metacommand. Value holds the line argument and
// Optional the bracketed argument that may precede it, as in
// "\deprecated [6.2] Use foo instead".
type Arg struct {
	Value    string
	Optional string
}

// Block is the parsed form of one documentation comment.
type Block struct {
	Location Location
	Body     string
	Topics   []Topic

	meta map[string][]Arg
}

// IsEmpty reports whether the comment had no text at all.
func (b *Block) IsEmpty() bool {
	return b == nil || (strings.TrimSpace(b.Body) == "" && len(b.Topics) == 0 && len(b.meta) == 0)
}

// MetaCommands returns the distinct metacommands used in the comment, sorted
// by name.
func (b *Block) MetaCommands() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.meta))
	for name := range b.meta {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MetaCommandArgs returns the arguments of every occurrence of command, in
// source order.
func (b *Block) MetaCommandArgs(command string) []Arg {
	if b == nil {
		return nil
	}
	return b.meta[command]
}

// HasMetaCommand reports whether command occurs in the comment.
func (b *Block) HasMetaCommand(command string) bool {
	if b == nil {
		return false
	}
	_, ok := b.meta[command]
	return ok
}

// Parser recognizes a fixed set of topic and metacommand names. Commands
// outside both sets are left in the body as text.
type Parser struct {
	topics       map[string]struct{}
	metacommands map[string]struct{}
}

// QMLTopics are the topic commands recognized in QML files.
var QMLTopics = []string{
	"qmltype",
	"qmlvaluetype",
	"qmlbasictype",
	"qmlmodule",
	"qmlproperty",
	"qmlattachedproperty",
	"qmlsignal",
	"qmlattachedsignal",
	"qmlmethod",
	"qmlattachedmethod",
	"qmlenum",
}

// QMLMetaCommands are the metacommands recognized in QML files. Some of them
// have no meaning for QML and are reported as ignored when applied.
var QMLMetaCommands = []string{
	"abstract",
	"qmlabstract",
	"default",
	"deprecated",
	"ingroup",
	"inqmlmodule",
	"internal",
	"obsolete",
	"preliminary",
	"qmldefault",
	"qmlenumeratorsfrom",
	"qmlinherits",
	"qmlreadonly",
	"qmlrequired",
	"since",
	"wrapper",

	"inheaderfile",
	"inmodule",
	"keyword",
	"meta",
	"nativetype",
	"nonreentrant",
	"overload",
	"reentrant",
	"relates",
	"startpage",
	"subtitle",
	"threadsafe",
	"title",
}

// NewParser returns a parser for the given topic and metacommand names.
func NewParser(topics, metacommands []string) *Parser {
	p := &Parser{
		topics:       make(map[string]struct{}, len(topics)),
		metacommands: make(map[string]struct{}, len(metacommands)),
	}
	for _, t := range topics {
		p.topics[t] = struct{}{}
	}
	for _, m := range metacommands {
		p.metacommands[m] = struct{}{}
	}
	return p
}

// DefaultParser returns a parser for QMLTopics and QMLMetaCommands, plus any
// extra metacommand names.
func DefaultParser(extra ...string) *Parser {
	meta := append(append([]string(nil), QMLMetaCommands...), extra...)
	return NewParser(QMLTopics, meta)
}

// Parse splits text into topics, metacommands and body. A command is only
// recognized when it starts a line.
func (p *Parser) Parse(text string, loc Location) *Block {
	b := &Block{Location: loc, meta: make(map[string][]Arg)}

	var body []string
	for _, line := range strings.Split(text, "\n") {
		name, rest, ok := commandLine(line)
		if !ok {
			body = append(body, line)
			continue
		}
		if _, isTopic := p.topics[name]; isTopic {
			b.Topics = append(b.Topics, Topic{Command: name, Args: rest})
			continue
		}
		if _, isMeta := p.metacommands[name]; isMeta {
			b.meta[name] = append(b.meta[name], splitArg(rest))
			continue
		}
		body = append(body, line)
	}
	b.Body = strings.TrimSpace(strings.Join(body, "\n"))
	return b
}

// commandLine returns the command name and trimmed remainder of a line of the
// form "\name rest".
func commandLine(line string) (string, string, bool) {
	s := strings.TrimSpace(line)
	if len(s) < 2 || s[0] != '\\' {
		return "", "", false
	}
	end := 1
	for end < len(s) && isCommandChar(rune(s[end])) {
		end++
	}
	if end == 1 {
		return "", "", false
	}
	return s[1:end], strings.TrimSpace(s[end:]), true
}

func isCommandChar(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func splitArg(rest string) Arg {
	if !strings.HasPrefix(rest, "[") {
		return Arg{Value: rest}
	}
	depth := 0
	for i, r := range rest {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return Arg{
					Optional: strings.TrimSpace(rest[1:i]),
					Value:    strings.TrimSpace(rest[i+1:]),
				}
			}
		}
	}
	return Arg{Value: rest}
}
