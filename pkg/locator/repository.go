package locator

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Repository is a page-object file of named locators:
//
//	login:
//	  username: "id:user"
//	  submit:
//	    strategy: css
//	    value: "button[type=submit]"
//	    platform: web
type Repository struct {
	Path  string
	Pages map[string]map[string]Descriptor
}

// LoadRepository parses a locator repository file.
func LoadRepository(path string) (*Repository, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided repository file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseRepository(data, path)
}

// ParseRepository parses repository YAML content.
func ParseRepository(data []byte, sourcePath string) (*Repository, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Path: sourcePath, Message: err.Error()}
	}

	repo := &Repository{Path: sourcePath, Pages: make(map[string]map[string]Descriptor)}
	if len(root.Content) == 0 {
		return repo, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &ParseError{Path: sourcePath, Line: doc.Line, Message: "expected a mapping of pages"}
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		pageKey, pageNode := doc.Content[i], doc.Content[i+1]
		if pageNode.Kind != yaml.MappingNode {
			return nil, &ParseError{Path: sourcePath, Line: pageNode.Line, Message: fmt.Sprintf("page %q must be a mapping of locators", pageKey.Value)}
		}

		page := make(map[string]Descriptor, len(pageNode.Content)/2)
		for j := 0; j+1 < len(pageNode.Content); j += 2 {
			nameKey, locNode := pageNode.Content[j], pageNode.Content[j+1]
			var d Descriptor
			if err := locNode.Decode(&d); err != nil {
				return nil, &ParseError{Path: sourcePath, Line: locNode.Line, Message: fmt.Sprintf("%s.%s: %v", pageKey.Value, nameKey.Value, err)}
			}
			page[nameKey.Value] = d
		}
		repo.Pages[pageKey.Value] = page
	}
	return repo, nil
}

// Lookup returns the locator named "page.name".
func (r *Repository) Lookup(ref string) (Descriptor, error) {
	page, name, ok := strings.Cut(ref, ".")
	if !ok {
		return Descriptor{}, core.ErrInvalidLocator.WithMessagef("repository reference %q must be page.name", ref)
	}
	d, ok := r.Pages[page][name]
	if !ok {
		return Descriptor{}, core.ErrInvalidLocator.WithMessagef("locator %q not found in %s", ref, r.Path)
	}
	return d, nil
}

// Names returns every "page.name" reference in sorted order.
func (r *Repository) Names() []string {
	var names []string
	for page, locs := range r.Pages {
		for name := range locs {
			names = append(names, page+"."+name)
		}
	}
	sort.Strings(names)
	return names
}
