package generator

import (
	"strconv"
	"strings"
	"text/template"
)

// catalogTemplate renders the generated registration file
const catalogTemplate = `// Code generated by anchor {{.Version}}; DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	{{.Alias}} {{quote .Path}}
{{- end}}
)

// Catalog registers the constructors, injected methods and delegates of the
// compiled definition
func Catalog() *{{.Container}}.Catalog {
	return {{.Container}}.NewCatalog(){{range .Constructors}}.
		Constructor({{quote .Service}}, {{.Expr}}{{params .Params}}){{end}}{{range .Methods}}.
		Method({{quote .Service}}, {{quote .Method}}{{params .Params}}){{end}}{{range .Functions}}.
		Function({{quote .Name}}, {{.Expr}}{{params .Params}}){{end}}
}

// Definition decodes the compiled container definition
func Definition() ({{.Definition}}.ContainerDefinition, error) {
	return {{.Serializer}}.New().Deserialize([]byte(definitionDocument))
}

// Stores builds the parameter stores configured at compile time
func Stores() ({{.Store}}.Stores, error) {
	stores := []{{.Store}}.ParameterStore{
		{{.Store}}.NewEnvironment({{.Store}}.WithDotenv({{quoteAll .Dotenv}})),
	}
{{- if .ConfigFile}}
	config, err := {{.Store}}.LoadConfig({{quote .ConfigFile}})
	if err != nil {
		return {{.Store}}.Stores{}, err
	}
	stores = append(stores, config)
{{- end}}
	return {{.Store}}.NewStores(stores...)
}

// NewContainer builds a reference container for the given profiles
func NewContainer(profiles ...string) ({{.Factory}}.Container, error) {
	return NewContainerWith(nil, profiles...)
}

// NewContainerWith is NewContainer with extra factory options, applied after
// the configured stores
func NewContainerWith(opts []{{.Factory}}.Option, profiles ...string) ({{.Factory}}.Container, error) {
	def, err := Definition()
	if err != nil {
		return nil, err
	}
	stores, err := Stores()
	if err != nil {
		return nil, err
	}
	opts = append([]{{.Factory}}.Option{ {{- .Factory}}.WithStores(stores)}, opts...)
	return {{.Factory}}.New({{.Container}}.NewAdapter(Catalog()), opts...).CreateContainer(def, profiles...)
}

const definitionDocument = {{quote .Document}}
`

type fileData struct {
	Version      string
	Package      string
	Imports      []importSpec
	Container    string
	Definition   string
	Factory      string
	Serializer   string
	Store        string
	Dotenv       []string
	ConfigFile   string
	Constructors []registration
	Methods      []registration
	Functions    []registration
	Document     string
}

// registration is one call on the generated catalog. Name is the service
// id for constructors and methods and the delegate name for functions.
type registration struct {
	Service string
	Name    string
	Method  string
	Expr    string
	Params  []string
}

var templateFuncs = template.FuncMap{
	"quote": strconv.Quote,
	"quoteAll": func(values []string) string {
		quoted := make([]string, len(values))
		for i, value := range values {
			quoted[i] = strconv.Quote(value)
		}
		return strings.Join(quoted, ", ")
	},
	"params": func(params []string) string {
		var b strings.Builder
		for _, param := range params {
			b.WriteString(", ")
			b.WriteString(strconv.Quote(param))
		}
		return b.String()
	},
}

var fileTemplate = template.Must(template.New("catalog").Funcs(templateFuncs).Parse(catalogTemplate))
