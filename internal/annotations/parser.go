package annotations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Parser turns //anchor:: comments into ParsedAnnotations
type Parser struct {
	parser    *participle.Parser[annotationAST]
	registry  AnnotationRegistry
	validator SchemaValidator
}

// annotationAST is the grammar of a single annotation comment
type annotationAST struct {
	Kind  string     `parser:"Comment 'anchor' Separator @Ident"`
	Items []*itemAST `parser:"@@*"`
}

// itemAST is a -Flag or a -Name=value pair
type itemAST struct {
	Name   string  `parser:"Dash @Ident"`
	Assign *string `parser:"@Assign?"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//`},
	{Name: "Separator", Pattern: `::`},
	{Name: "Assign", Pattern: `=("(\\.|[^"\\])*"|[^\s"]*)`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// NewParser creates a parser validating against registry. A nil registry
// uses DefaultRegistry.
func NewParser(registry AnnotationRegistry) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Parser{
		parser: participle.MustBuild[annotationAST](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.UseLookahead(2),
		),
		registry:  registry,
		validator: NewValidator(),
	}
}

// IsAnnotation reports whether a comment line is an anchor annotation
func IsAnnotation(comment string) bool {
	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "//"))
	return strings.HasPrefix(content, "anchor::")
}

// ParseAnnotation parses one annotation comment, converts its parameters to
// the types its schema declares and validates them
func (p *Parser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	comment = strings.TrimSpace(comment)
	ast, err := p.parser.ParseString(location.File, comment)
	if err != nil {
		return nil, &SyntaxError{
			Msg:  syntaxMessage(err),
			Loc:  location,
			Hint: "Annotations look like //anchor::<type> -Flag -Name=value",
		}
	}

	annotationType, err := ParseAnnotationType(ast.Kind)
	if err != nil || !p.registry.IsRegistered(annotationType) {
		return nil, &SyntaxError{
			Msg:  fmt.Sprintf("unknown annotation type '%s'", ast.Kind),
			Loc:  location,
			Hint: "Use one of: " + p.registeredTypes(),
		}
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Parameters: make(map[string]any),
		Location:   location,
		Raw:        comment,
	}

	for _, item := range ast.Items {
		if _, duplicate := parsed.Parameters[item.Name]; duplicate {
			return nil, &SyntaxError{
				Msg:  fmt.Sprintf("parameter '%s' is given more than once", item.Name),
				Loc:  location,
				Hint: "Combine the values, for example -Profiles=a,b",
			}
		}
		if item.Assign == nil {
			parsed.Parameters[item.Name] = true
			continue
		}
		value, err := unquote(strings.TrimPrefix(*item.Assign, "="))
		if err != nil {
			return nil, &SyntaxError{
				Msg:  fmt.Sprintf("malformed value for '%s': %v", item.Name, err),
				Loc:  location,
				Hint: "Quote values containing spaces with double quotes",
			}
		}
		parsed.Parameters[item.Name] = value
	}

	schema, err := p.registry.GetSchema(annotationType)
	if err != nil {
		return nil, err
	}
	if err := p.validator.TransformParameters(parsed, schema); err != nil {
		return nil, err
	}
	if err := p.validator.Validate(parsed, schema); err != nil {
		return nil, err
	}

	return parsed, nil
}

func (p *Parser) registeredTypes() string {
	var names []string
	for _, annotationType := range p.registry.ListTypes() {
		names = append(names, annotationType.String())
	}
	return strings.Join(names, ", ")
}

func unquote(value string) (string, error) {
	if strings.HasPrefix(value, `"`) {
		return strconv.Unquote(value)
	}
	return value, nil
}

// syntaxMessage strips the position participle prefixes to its errors; the
// SyntaxError carries the location itself
func syntaxMessage(err error) string {
	if perr, ok := err.(participle.Error); ok {
		return perr.Message()
	}
	return err.Error()
}
