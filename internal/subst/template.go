// SPDX-License-Identifier: MPL-2.0

package subst

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplate is the sentinel error wrapped by template expansion errors.
var ErrTemplate = errors.New("template expansion failed")

type (
	// UnresolvedError reports a placeholder with no value in the context.
	UnresolvedError struct {
		Command string
		Key     string
	}

	// MalformedError reports template syntax the expander cannot process,
	// such as an unterminated placeholder or a stray closing brace.
	MalformedError struct {
		Command string
		Detail  string
	}
)

// Error implements the error interface.
func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("no substitution for {%s} in command %q", e.Key, e.Command)
}

// Unwrap returns ErrTemplate so callers can use errors.Is for classification.
func (e *UnresolvedError) Unwrap() error { return ErrTemplate }

// Error implements the error interface.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s in command %q", e.Detail, e.Command)
}

// Unwrap returns ErrTemplate so callers can use errors.Is for classification.
func (e *MalformedError) Unwrap() error { return ErrTemplate }

// Expand resolves the named {placeholder} tokens of a command template
// against ctx. Literal braces are escaped by doubling ({{ and }}); an
// unresolved placeholder or malformed token is a fatal error naming the
// offending command.
func Expand(command string, ctx Context) (string, error) {
	var b strings.Builder
	b.Grow(len(command))

	for i := 0; i < len(command); {
		switch command[i] {
		case '{':
			if i+1 < len(command) && command[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(command[i+1:], '}')
			if end < 0 {
				return "", &MalformedError{Command: command, Detail: "unterminated placeholder"}
			}
			key := command[i+1 : i+1+end]
			val, ok := ctx[key]
			if !ok {
				return "", &UnresolvedError{Command: command, Key: key}
			}
			b.WriteString(val)
			i += end + 2
		case '}':
			if i+1 < len(command) && command[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", &MalformedError{Command: command, Detail: "stray '}' outside placeholder"}
		default:
			b.WriteByte(command[i])
			i++
		}
	}

	return b.String(), nil
}
