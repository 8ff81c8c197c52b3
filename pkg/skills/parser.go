package skills

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// Dialect identifies the manifest file format.
type Dialect string

const (
	// DialectTOML is the canonical manifest format (SKILL.toml).
	DialectTOML Dialect = "toml"
	// DialectJSON carries the same document shape as TOML (skill.json).
	DialectJSON Dialect = "json"
	// DialectMarkdown is the minimal-metadata format (SKILL.md).
	DialectMarkdown Dialect = "markdown"
)

const defaultVersion = "0.1.0"

// tomlSkillMarker inside the content selects the TOML dialect regardless of
// file suffix.
const tomlSkillMarker = "[skill]"

// manifestDoc is the on-disk document shape shared by the TOML and JSON
// dialects: a [skill] table for identity, repeated [[tools]] tables, and
// prompts either as a string array or as a table of string fields.
type manifestDoc struct {
	Skill   skillSection `toml:"skill" json:"skill"`
	Tools   []Tool       `toml:"tools" json:"tools"`
	Prompts any          `toml:"prompts" json:"prompts"`
}

type skillSection struct {
	Name        string   `toml:"name" json:"name"`
	Description string   `toml:"description" json:"description"`
	Version     string   `toml:"version" json:"version"`
	Author      string   `toml:"author" json:"author"`
	Tags        []string `toml:"tags" json:"tags"`
	Prompts     []string `toml:"prompts" json:"prompts"`
}

// DetectDialect selects the manifest dialect for a path. A .toml suffix or a
// [skill] marker in the content selects TOML, .json selects JSON, and
// everything else is treated as Markdown.
func DetectDialect(path string, content []byte) Dialect {
	switch {
	case strings.HasSuffix(path, ".toml"):
		return DialectTOML
	case strings.HasSuffix(path, ".json"):
		return DialectJSON
	case strings.HasSuffix(path, ".md"):
		return DialectMarkdown
	case bytes.Contains(content, []byte(tomlSkillMarker)):
		return DialectTOML
	default:
		return DialectMarkdown
	}
}

// ParseManifest converts raw manifest text into a validated Manifest.
// hintName supplies the skill name for the Markdown dialect, where it is
// derived from the containing file or directory name; the TOML and JSON
// dialects ignore it. Structural errors surface as ErrParseFailed and
// missing required fields as ErrValidationFailed.
func ParseManifest(raw []byte, dialect Dialect, hintName string) (Manifest, error) {
	var (
		manifest Manifest
		err      error
	)
	switch dialect {
	case DialectTOML:
		manifest, err = parseTOML(raw)
	case DialectJSON:
		manifest, err = parseJSON(raw)
	case DialectMarkdown:
		manifest, err = parseMarkdown(raw, hintName)
	default:
		return Manifest{}, errors.Wrapf(ErrInvalidArgument, "unknown dialect %q", dialect)
	}
	if err != nil {
		return Manifest{}, err
	}
	if err := manifest.Validate(); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

func parseTOML(raw []byte) (Manifest, error) {
	var doc manifestDoc
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return Manifest{}, errors.Wrapf(ErrParseFailed, "invalid TOML manifest: %v", err)
	}
	return docToManifest(doc), nil
}

func parseJSON(raw []byte) (Manifest, error) {
	var doc manifestDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Manifest{}, errors.Wrapf(ErrParseFailed, "invalid JSON manifest: %v", err)
	}
	return docToManifest(doc), nil
}

func docToManifest(doc manifestDoc) Manifest {
	manifest := Manifest{
		Name:        doc.Skill.Name,
		Description: doc.Skill.Description,
		Version:     doc.Skill.Version,
		Author:      doc.Skill.Author,
		Tags:        doc.Skill.Tags,
		Tools:       doc.Tools,
		Prompts:     doc.Skill.Prompts,
	}
	manifest.Prompts = append(manifest.Prompts, normalizePrompts(doc.Prompts)...)
	if manifest.Version == "" {
		manifest.Version = defaultVersion
	}
	return manifest
}

// normalizePrompts accepts the two prompt encodings: a plain string array,
// or a table of string fields collected in key order so output stays
// deterministic.
func normalizePrompts(v any) []string {
	switch value := v.(type) {
	case nil:
		return nil
	case []string:
		return value
	case []any:
		var prompts []string
		for _, item := range value {
			if s, ok := item.(string); ok {
				prompts = append(prompts, s)
			}
		}
		return prompts
	case map[string]any:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var prompts []string
		for _, key := range keys {
			if s, ok := value[key].(string); ok {
				prompts = append(prompts, s)
			}
		}
		return prompts
	default:
		return nil
	}
}

// parseMarkdown extracts minimal metadata from a SKILL.md document. YAML
// frontmatter name/description take precedence when present; otherwise the
// name comes from hintName and the description from the first non-empty,
// non-heading body line. Markdown skills declare no tools or prompts — the
// document body is richer material consumed by the agent, not by this
// parser.
func parseMarkdown(raw []byte, hintName string) (Manifest, error) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(raw, &buf, parser.WithContext(pctx)); err != nil {
		return Manifest{}, errors.Wrapf(ErrParseFailed, "invalid markdown manifest: %v", err)
	}

	manifest := Manifest{
		Name:    hintName,
		Version: defaultVersion,
	}

	if metaData := meta.Get(pctx); metaData != nil {
		if name, ok := metaData["name"].(string); ok && name != "" {
			manifest.Name = name
		}
		if description, ok := metaData["description"].(string); ok && description != "" {
			manifest.Description = description
		}
	}

	if manifest.Description == "" {
		manifest.Description = firstContentLine(stripFrontmatter(string(raw)))
	}

	return manifest, nil
}

// stripFrontmatter removes a leading YAML frontmatter block delimited by
// "---" lines.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}

// firstContentLine returns the first non-empty line that is not a heading.
func firstContentLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed
	}
	return ""
}
