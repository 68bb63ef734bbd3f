package locale

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

const toneCatalogSize = 5

// Template names accepted by Render.
const (
	TemplateToneUser     = "tone_user"
	TemplateScenarioUser = "scenario_user"
	TemplateInputError   = "input_error"
	TemplateUpstream     = "upstream"
	TemplateInternal     = "internal"
	TemplateReply        = "reply"
)

// Locale holds every deployment-specific string: input labels, section
// markers, the tone catalog, prompt templates and user-facing messages.
type Locale struct {
	Name     string   `yaml:"name"`
	Input    Input    `yaml:"input"`
	Markers  Markers  `yaml:"markers"`
	Tones    Tones    `yaml:"tones"`
	Prompts  Prompts  `yaml:"prompts"`
	Messages Messages `yaml:"messages"`

	templates map[string]*template.Template
}

type Input struct {
	TopicLabels   []string `yaml:"topic_labels"`
	OutlineLabels []string `yaml:"outline_labels"`
	Examples      []string `yaml:"examples"`
}

// Markers delimit the opening, body and closing regions of a generated
// script. A line belongs to a region switch when it contains the marker.
type Markers struct {
	Opening string   `yaml:"opening"`
	Body    string   `yaml:"body"`
	Closing string   `yaml:"closing"`
	Bullets []string `yaml:"bullets"`
	Headers Headers  `yaml:"headers"`
}

// Headers are the full section header lines written into prompts and
// re-serialized scripts. Each header must contain its marker.
type Headers struct {
	Opening string `yaml:"opening"`
	Body    string `yaml:"body"`
	Closing string `yaml:"closing"`
}

type Tones struct {
	Default           string `yaml:"default"`
	DefaultReason     string `yaml:"default_reason"`
	FallbackGuideline string `yaml:"fallback_guideline"`
	Catalog           []Tone `yaml:"catalog"`
}

type Tone struct {
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
	Guideline   string `yaml:"guideline"`
}

type Prompts struct {
	ToneSystem     string `yaml:"tone_system"`
	ToneUser       string `yaml:"tone_user"`
	ScenarioSystem string `yaml:"scenario_system"`
	ScenarioUser   string `yaml:"scenario_user"`
}

type Messages struct {
	InputError string            `yaml:"input_error"`
	Reasons    map[string]string `yaml:"reasons"`
	Malformed  string            `yaml:"malformed"`
	Upstream   string            `yaml:"upstream"`
	Internal   string            `yaml:"internal"`
	Reply      string            `yaml:"reply"`
}

// Load returns one of the embedded locales by name ("ko", "en").
func Load(name string) (*Locale, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("locale: name must not be empty")
	}
	data, err := embedded.ReadFile("locales/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("locale: unknown locale %q: %w", name, err)
	}
	return Parse(data)
}

// LoadFile reads a locale from a YAML file on disk.
func LoadFile(path string) (*Locale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("locale: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, validates and compiles a locale document.
func Parse(data []byte) (*Locale, error) {
	var l Locale
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("locale: decode: %w", err)
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	if err := l.compile(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Locale) validate() error {
	if len(l.Input.TopicLabels) == 0 || len(l.Input.OutlineLabels) == 0 {
		return errors.New("locale: topic and outline labels are required")
	}
	for _, label := range append(append([]string{}, l.Input.TopicLabels...), l.Input.OutlineLabels...) {
		if strings.TrimSpace(label) == "" {
			return errors.New("locale: input labels must not be blank")
		}
	}
	m := l.Markers
	if m.Opening == "" || m.Body == "" || m.Closing == "" {
		return errors.New("locale: opening, body and closing markers are required")
	}
	if len(m.Bullets) == 0 {
		return errors.New("locale: at least one bullet prefix is required")
	}
	if !strings.Contains(m.Headers.Opening, m.Opening) ||
		!strings.Contains(m.Headers.Body, m.Body) ||
		!strings.Contains(m.Headers.Closing, m.Closing) {
		return errors.New("locale: each section header must contain its marker")
	}
	if len(l.Tones.Catalog) != toneCatalogSize {
		return fmt.Errorf("locale: tone catalog must have %d entries, got %d", toneCatalogSize, len(l.Tones.Catalog))
	}
	if !l.IsTone(l.Tones.Default) {
		return fmt.Errorf("locale: default tone %q is not in the catalog", l.Tones.Default)
	}
	return nil
}

func (l *Locale) compile() error {
	funcs := template.FuncMap{"inc": func(i int) int { return i + 1 }}
	sources := map[string]string{
		TemplateToneUser:     l.Prompts.ToneUser,
		TemplateScenarioUser: l.Prompts.ScenarioUser,
		TemplateInputError:   l.Messages.InputError,
		TemplateUpstream:     l.Messages.Upstream,
		TemplateInternal:     l.Messages.Internal,
		TemplateReply:        l.Messages.Reply,
	}
	for reason, text := range l.Messages.Reasons {
		sources["reason."+reason] = text
	}
	l.templates = make(map[string]*template.Template, len(sources))
	for name, src := range sources {
		if strings.TrimSpace(src) == "" {
			return fmt.Errorf("locale: template %q is empty", name)
		}
		t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(src)
		if err != nil {
			return fmt.Errorf("locale: parse template %q: %w", name, err)
		}
		l.templates[name] = t
	}
	return nil
}

// Render executes a named template. Reason texts are addressed as
// "reason.<code>".
func (l *Locale) Render(name string, data any) (string, error) {
	t, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("locale: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("locale: render %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// IsTone reports whether label is one of the catalog tones.
func (l *Locale) IsTone(label string) bool {
	_, ok := l.tone(label)
	return ok
}

// Guideline returns the writing guideline for a tone, or the fallback
// guideline when the tone is unknown.
func (l *Locale) Guideline(label string) string {
	if t, ok := l.tone(label); ok {
		return t.Guideline
	}
	return l.Tones.FallbackGuideline
}

func (l *Locale) tone(label string) (Tone, bool) {
	for _, t := range l.Tones.Catalog {
		if t.Label == label {
			return t, true
		}
	}
	return Tone{}, false
}
