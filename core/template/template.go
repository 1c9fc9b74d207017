package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Error variables define template resolution failures.
var (
	ErrTemplateNotFound = errors.New("template: not found")
	ErrMissingVariable  = errors.New("template: missing variable")
	ErrInvalidKey       = errors.New("template: invalid key")
)

// Template is a stored message template. Text and HTML carry {{name}}
// placeholders resolved at send time.
type Template struct {
	Key     string
	Subject string
	Text    string
	HTML    string
}

// Store provides templates by key.
type Store interface {
	GetTemplate(ctx context.Context, key string) (Template, error)
}

// Resolver loads a template and substitutes variables into its subject and
// bodies. Strictness is an explicit construction-time flag: strict
// deployments fail on a missing template or unresolved placeholder, while
// development setups fall back to a built-in template and leave unresolved
// placeholders visible in the output.
type Resolver struct {
	store  Store
	strict bool
	log    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStrictMode makes missing templates and unresolved placeholders hard
// errors.
func WithStrictMode(strict bool) Option {
	return func(r *Resolver) { r.strict = strict }
}

// WithLogger sets the resolver logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store: store,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Resolve loads the template for key and substitutes vars into its subject
// and bodies. In strict mode a missing template or an unresolved
// placeholder is an error; otherwise a missing template falls back to the
// built-in development template and unresolved placeholders pass through
// unchanged.
func (r *Resolver) Resolve(ctx context.Context, key string, vars map[string]string) (Template, error) {
	if strings.TrimSpace(key) == "" {
		return Template{}, fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}

	tpl, err := r.load(ctx, key)
	if err != nil {
		return Template{}, err
	}

	tpl.Subject, err = r.substitute(tpl.Subject, vars)
	if err != nil {
		return Template{}, err
	}
	tpl.Text, err = r.substitute(tpl.Text, vars)
	if err != nil {
		return Template{}, err
	}
	tpl.HTML, err = r.substitute(tpl.HTML, vars)
	if err != nil {
		return Template{}, err
	}

	return tpl, nil
}

func (r *Resolver) load(ctx context.Context, key string) (Template, error) {
	if r.store != nil {
		tpl, err := r.store.GetTemplate(ctx, key)
		switch {
		case err == nil:
			return tpl, nil
		case !errors.Is(err, ErrTemplateNotFound):
			return Template{}, err
		}
	}

	if r.strict {
		return Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, key)
	}

	r.log.Debug("template not found, using development fallback", "key", key)
	return devFallback(key), nil
}

// devFallback is the template served for unknown keys outside strict mode,
// so new message kinds can be exercised before their templates exist.
func devFallback(key string) Template {
	return Template{
		Key:     key,
		Subject: "[dev] " + key,
		Text:    "Development fallback for template " + key + ".\r\n",
	}
}

func (r *Resolver) substitute(s string, vars map[string]string) (string, error) {
	if s == "" || !strings.Contains(s, "{{") {
		return s, nil
	}

	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		missing = append(missing, name)
		return m
	})

	if len(missing) > 0 {
		if r.strict {
			return "", fmt.Errorf("%w: %s", ErrMissingVariable, strings.Join(missing, ", "))
		}
		r.log.Debug("unresolved template placeholders left in place", "names", strings.Join(missing, ","))
	}
	return out, nil
}
