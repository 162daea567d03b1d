// Package template manages project scaffolding templates.
//
// A template is a template.json file describing the file tree for one
// framework. Rendering is plain string substitution: every occurrence of
// {{project_name}} is replaced with the project name. Built-in templates
// for flask, fastapi, vue and react are embedded; a templates directory
// on disk takes priority when configured.
package template

import (
	"bytes"
	"embed"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/boulevard-dev/boulevard/errors"
)

//go:embed templates
var builtin embed.FS

// placeholder replaced during rendering.
const placeholder = "{{project_name}}"

// Template describes one framework's scaffold.
type Template struct {
	// Name is the human-readable template name.
	Name string `json:"name"`

	// Version of the template definition.
	Version string `json:"version"`

	// Files maps relative paths to their contents.
	Files map[string]FileSpec `json:"files"`

	// InstallCommands are run (by an external provisioner) after the
	// files are written.
	InstallCommands []string `json:"install_commands,omitempty"`

	// StartCommands launch the scaffolded project; the first entry is
	// the default.
	StartCommands []string `json:"start_commands,omitempty"`
}

// FileSpec holds a single file's content. Content is either a JSON
// string or a JSON object (rendered pretty-printed, e.g. package.json).
type FileSpec struct {
	Content json.RawMessage `json:"content"`
}

// Info summarizes an available template.
type Info struct {
	Framework string `json:"framework"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

// Render returns the file content with the project name substituted.
func (f FileSpec) Render(projectName string) (string, error) {
	var s string
	if err := json.Unmarshal(f.Content, &s); err == nil {
		return strings.ReplaceAll(s, placeholder, projectName), nil
	}

	// Structured content: pretty-print, then substitute.
	var buf bytes.Buffer
	if err := json.Indent(&buf, f.Content, "", "  "); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "template file content is neither string nor JSON")
	}
	return strings.ReplaceAll(buf.String(), placeholder, projectName), nil
}

// StartCommand returns the default start command, if any.
func (t *Template) StartCommand() string {
	if len(t.StartCommands) == 0 {
		return ""
	}
	return t.StartCommands[0]
}

// Manager loads and applies templates.
type Manager struct {
	// dir is an optional on-disk templates directory overriding the
	// embedded defaults.
	dir string
}

// NewManager creates a template manager. dir may be empty to use only
// the embedded templates.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Load returns the template for a framework.
func (m *Manager) Load(framework string) (*Template, error) {
	data, err := m.read(framework)
	if err != nil {
		return nil, err
	}

	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInvalidInput,
			"parsing template for "+framework)
	}
	return &t, nil
}

// read fetches template.json, preferring the on-disk directory.
func (m *Manager) read(framework string) ([]byte, error) {
	if framework == "" || strings.ContainsAny(framework, "/\\.") {
		return nil, errors.Newf(errors.ErrCodeInvalidInput, "invalid framework name %q", framework)
	}

	if m.dir != "" {
		data, err := os.ReadFile(filepath.Join(m.dir, framework, "template.json"))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrCodeStorage, "reading template for "+framework)
		}
	}

	data, err := builtin.ReadFile("templates/" + framework + "/template.json")
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeTemplateNotFound, "no template for framework %q", framework)
	}
	return data, nil
}

// Apply scaffolds a project: it renders every template file into
// projectPath, creating directories as needed.
func (m *Manager) Apply(framework, projectPath, projectName string) error {
	t, err := m.Load(framework)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeStorage, "creating project directory")
	}

	for rel, spec := range t.Files {
		content, err := spec.Render(projectName)
		if err != nil {
			return errors.Wrapf(err, "rendering %s", rel)
		}

		full := filepath.Join(projectPath, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrCodeStorage, "creating directory for "+rel)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return errors.WrapWithCode(err, errors.ErrCodeStorage, "writing "+rel)
		}
	}

	return nil
}

// InstallCommands returns the install commands for a framework.
func (m *Manager) InstallCommands(framework string) ([]string, error) {
	t, err := m.Load(framework)
	if err != nil {
		return nil, err
	}
	return t.InstallCommands, nil
}

// StartCommand returns the default start command for a framework.
func (m *Manager) StartCommand(framework string) (string, error) {
	t, err := m.Load(framework)
	if err != nil {
		return "", err
	}
	return t.StartCommand(), nil
}

// List returns all available templates, on-disk ones overriding
// embedded ones of the same framework.
func (m *Manager) List() ([]Info, error) {
	frameworks := make(map[string]bool)

	entries, err := fs.ReadDir(builtin, "templates")
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInternal, "reading embedded templates")
	}
	for _, e := range entries {
		if e.IsDir() {
			frameworks[e.Name()] = true
		}
	}

	if m.dir != "" {
		entries, err := os.ReadDir(m.dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrCodeStorage, "reading templates directory")
		}
		for _, e := range entries {
			if e.IsDir() {
				frameworks[e.Name()] = true
			}
		}
	}

	infos := make([]Info, 0, len(frameworks))
	for fw := range frameworks {
		t, err := m.Load(fw)
		if err != nil {
			// Skip directories without a valid template.json.
			continue
		}
		infos = append(infos, Info{Framework: fw, Name: t.Name, Version: t.Version})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Framework < infos[j].Framework })
	return infos, nil
}
