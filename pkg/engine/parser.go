package engine

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

type ScriptCache struct {
	mu    sync.RWMutex
	files map[string]*CachedScript
}

type CachedScript struct {
	Root    *Node
	ModTime time.Time
}

var GlobalCache = &ScriptCache{files: make(map[string]*CachedScript)}

// LoadScript reads and parses a script file, reusing the cached tree while
// the file's modification time is unchanged.
func LoadScript(path string) (*Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	GlobalCache.mu.RLock()
	cached, exists := GlobalCache.files[path]
	GlobalCache.mu.RUnlock()

	if exists && cached.ModTime.Equal(info.ModTime()) {
		return cached.Root, nil
	}

	root, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	GlobalCache.mu.Lock()
	GlobalCache.files[path] = &CachedScript{Root: root, ModTime: info.ModTime()}
	GlobalCache.mu.Unlock()

	return root, nil
}

// ClearHandlerCache drops every cached handler so re-registered slots take
// effect on the next run.
func (c *ScriptCache) ClearHandlerCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cached := range c.files {
		clearNodeCache(cached.Root)
	}
}

func clearNodeCache(node *Node) {
	if node == nil {
		return
	}
	node.cached.Store(nil)
	for _, child := range node.Children {
		clearNodeCache(child)
	}
}

// ParseString parses ZenoLang source into a tree.
func ParseString(data string) (*Node, error) {
	return ParseNamed(data, "string")
}

// ParseNamed parses source and stamps nodes with filename for diagnostics.
func ParseNamed(data, filename string) (*Node, error) {
	return parse(NewLexer(data), filename)
}

func parseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	root, err := parse(NewLexer(string(data)), path)
	if err != nil {
		return nil, err
	}

	if err := resolveIncludes(root); err != nil {
		return nil, err
	}

	return root, nil
}

func parse(l *Lexer, filename string) (*Node, error) {
	root := &Node{Name: "root", Filename: filename}
	stack := []*Node{root}
	var lastNode *Node

	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			break
		}

		switch tok.Type {
		case TokenIdentifier:
			node := &Node{
				Name:     tok.Literal,
				Line:     tok.Line,
				Col:      tok.Column,
				Filename: filename,
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
			node.Parent = parent
			lastNode = node

		case TokenColon:
			// The value is every token left on the colon's line, up to a
			// block opener.
			currentLine := tok.Line
			var valueParts []Token

			for {
				peek := l.PeekToken()
				if peek.Type == TokenEOF || peek.Line != currentLine ||
					peek.Type == TokenLBrace || peek.Type == TokenRBrace || peek.Type == TokenColon || peek.Type == TokenError {
					break
				}
				valueParts = append(valueParts, l.NextToken())
			}

			if len(valueParts) > 0 && lastNode != nil {
				lastNode.Value = joinValue(valueParts)
			}

			peek := l.PeekToken()
			if peek.Type == TokenLBrace {
				l.NextToken()
				if lastNode != nil {
					stack = append(stack, lastNode)
				}
			} else if peek.Type == TokenRBrace {
				// name: }
				l.NextToken()
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
			}

		case TokenLBrace:
			if lastNode != nil {
				stack = append(stack, lastNode)
			} else {
				node := &Node{
					Line:     tok.Line,
					Col:      tok.Column,
					Filename: filename,
				}
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
				node.Parent = parent
				stack = append(stack, node)
			}

		case TokenRBrace:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case TokenComma:
			continue

		case TokenError:
			return nil, fmt.Errorf("lexical error at line %d, col %d in %s: %s", tok.Line, tok.Column, filename, tok.Literal)
		}
	}

	return root, nil
}

// joinValue turns the tokens of one value line back into source text. A
// single bare identifier is marked with a leading NUL so resolution can tell
// `x: worker` from `x: "worker"`.
func joinValue(parts []Token) string {
	if len(parts) == 1 && parts[0].Type == TokenIdentifier {
		return "\x00" + parts[0].Literal
	}

	var b strings.Builder
	for i, p := range parts {
		if p.Type == TokenComma {
			b.WriteByte(',')
			continue
		}
		if i > 0 && parts[i-1].Type != TokenComma {
			b.WriteByte(' ')
		}
		if p.Type == TokenString {
			b.WriteString(quote(p.Literal))
		} else {
			b.WriteString(p.Literal)
		}
	}
	return b.String()
}

func quote(s string) string {
	if strings.ContainsRune(s, '"') && !strings.ContainsRune(s, '\'') {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}

// resolveIncludes splices `include: path` directives into the including tree.
func resolveIncludes(node *Node) error {
	var newChildren []*Node
	for _, child := range node.Children {
		if strings.ToLower(child.Name) != "include" {
			if err := resolveIncludes(child); err != nil {
				return err
			}
			newChildren = append(newChildren, child)
			continue
		}

		path := strings.TrimSpace(unquote(strings.TrimPrefix(fmt.Sprintf("%v", child.Value), "\x00")))
		if path == "" {
			continue
		}

		includedRoot, err := parseFile(path)
		if err != nil {
			return fmt.Errorf("failed to include '%s': %w", path, err)
		}
		for _, c := range includedRoot.Children {
			c.Parent = node
		}
		newChildren = append(newChildren, includedRoot.Children...)
	}
	node.Children = newChildren
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
