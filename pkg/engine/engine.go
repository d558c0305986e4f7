// Package engine wires the dialect parsers, transform passes and output
// serializers into three frozen registries and runs conversions through
// them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/format"
	"github.com/open-cli-collective/wikiconv/pkg/macro"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
	"github.com/open-cli-collective/wikiconv/pkg/registry"
	"github.com/open-cli-collective/wikiconv/pkg/render"
	"github.com/open-cli-collective/wikiconv/pkg/store"
	"github.com/open-cli-collective/wikiconv/pkg/transform"
	"github.com/open-cli-collective/wikiconv/pkg/transform/link"
)

// ErrNoConverter is returned when no registered converter accepts a
// request. It arrives wrapped in a validation error with text code
// NO_CONVERTER.
var ErrNoConverter = errors.New("no converter")

// Environment holds the collaborators conversions run against. Every field
// is optional.
type Environment struct {
	Store      store.Store
	Permission store.Permission
	Macros     *macro.Registry
	// Interwiki maps wiki names to URL prefixes.
	Interwiki map[string]string
	// Base prefixes resolved local links.
	Base   string
	Logger *slog.Logger
	// Now is the clock handed to date macros.
	Now func() time.Time
}

// Engine holds the converter registries. It is safe for concurrent use once
// New returns.
type Engine struct {
	env         Environment
	parsers     *registry.Registry[format.Parser]
	passes      *registry.Registry[transform.Pass]
	serializers *registry.Registry[render.Serializer]
	formats     *format.Registry
}

// New registers every built-in converter and freezes the registries.
func New(env Environment) (*Engine, error) {
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	if env.Macros == nil {
		env.Macros = macro.NewRegistry()
		if err := macro.RegisterBuiltins(env.Macros); err != nil {
			return nil, fmt.Errorf("failed to register macros: %w", err)
		}
	}
	if env.Permission == nil {
		if p, ok := env.Store.(store.Permission); ok {
			env.Permission = p
		} else {
			env.Permission = store.AllowAll{}
		}
	}

	e := &Engine{
		env:         env,
		parsers:     registry.New[format.Parser](),
		passes:      registry.New[transform.Pass](),
		serializers: registry.New[render.Serializer](),
		formats:     format.NewRegistry(),
	}
	for _, register := range []func() error{e.registerParsers, e.registerPasses, e.registerSerializers} {
		if err := register(); err != nil {
			return nil, err
		}
	}
	e.registerFormats()

	e.parsers.Freeze()
	e.passes.Freeze()
	e.serializers.Freeze()
	return e, nil
}

// Parsers returns the parser registry.
func (e *Engine) Parsers() *registry.Registry[format.Parser] { return e.parsers }

// Passes returns the pass registry.
func (e *Engine) Passes() *registry.Registry[transform.Pass] { return e.passes }

// Serializers returns the serializer registry.
func (e *Engine) Serializers() *registry.Registry[render.Serializer] { return e.serializers }

// Formats returns the embedded-format lookup.
func (e *Engine) Formats() format.Lookup { return e.formats }

func noConverter(what string, t mime.Type) error {
	return goerrors.Wrap(ErrNoConverter, goerrors.CategoryValidation, fmt.Sprintf("no %s for %s", what, t)).
		WithTextCode("NO_CONVERTER")
}

// Parser returns a new parser from in to the document type.
func (e *Engine) Parser(in mime.Type) (format.Parser, error) {
	p, ok := e.parsers.Get(in, mime.MoinDocument, nil)
	if !ok {
		return nil, noConverter("parser", in)
	}
	return p, nil
}

// Warnings parses req.Input and returns the problems the parser recovered
// from. Parsers that keep no record report none.
func (e *Engine) Warnings(req Request) ([]string, error) {
	p, err := e.Parser(req.From)
	if err != nil {
		return nil, err
	}
	w, ok := p.(format.Warner)
	if !ok {
		return nil, nil
	}
	return w.Warnings(req.Input), nil
}

// Pass returns a new document transform selected by opts, e.g.
// {"macros": "expandall"}.
func (e *Engine) Pass(opts registry.Options) (transform.Pass, error) {
	p, ok := e.passes.Get(mime.MoinDocument, mime.MoinDocument, opts)
	if !ok {
		return nil, goerrors.Wrap(ErrNoConverter, goerrors.CategoryValidation, fmt.Sprintf("no pass for %v", opts)).
			WithTextCode("NO_CONVERTER")
	}
	return p, nil
}

// Serializer returns a new serializer from the document type to out.
func (e *Engine) Serializer(out mime.Type) (render.Serializer, error) {
	s, ok := e.serializers.Get(mime.MoinDocument, out, nil)
	if !ok {
		return nil, noConverter("serializer", out)
	}
	return s, nil
}

// Request is one conversion.
type Request struct {
	Input string
	From  mime.Type
	To    mime.Type
	// Page is the absolute name of the page the input belongs to. It
	// anchors relative links and includes.
	Page string
	// Passes are pass names, see PassNames, applied in order.
	Passes []string
	// Args are handed to the parser.
	Args *args.Arguments
	// ID tags the log lines of the conversion. Empty means a new uuid.
	ID string
}

// Convert parses the input, runs the requested passes in order and
// serializes the result.
func (e *Engine) Convert(ctx context.Context, req Request) (string, error) {
	doc, err := e.Transform(ctx, req)
	if err != nil {
		return "", err
	}
	s, err := e.Serializer(req.To)
	if err != nil {
		return "", err
	}
	out, err := s.Serialize(doc)
	if err != nil {
		return "", fmt.Errorf("failed to serialize %s: %w", req.To, err)
	}
	return out, nil
}

// Transform parses the input and runs the requested passes, returning the
// document.
func (e *Engine) Transform(ctx context.Context, req Request) (*dom.Element, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	log := e.env.Logger.With("conversion_id", id)
	log.Debug("conversion started", "from", req.From.String(), "to", req.To.String(), "page", req.Page)

	passes := make([]transform.Pass, 0, len(req.Passes))
	for _, name := range req.Passes {
		opts, ok := passOptions[name]
		if !ok {
			return nil, goerrors.Wrap(ErrNoConverter, goerrors.CategoryValidation, fmt.Sprintf("unknown pass %q", name)).
				WithTextCode("NO_CONVERTER").WithRequestID(id)
		}
		p, err := e.Pass(opts)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}

	p, err := e.Parser(req.From)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(req.Input, req.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", req.From, err)
	}

	for i, pass := range passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := pass.Apply(ctx, doc, req.Page); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", req.Passes[i], err)
		}
	}
	log.Debug("conversion finished", "passes", len(passes))
	return doc, nil
}

// ParsePage parses a stored page by its content type.
func (e *Engine) ParsePage(_ context.Context, page store.Page) (*dom.Element, error) {
	in := page.ContentType
	if in.Type == "" {
		in = mime.MoinWiki
	}
	p, err := e.Parser(in)
	if err != nil {
		return nil, err
	}
	return p.Parse(page.Content, nil)
}

// Refs parses the input, runs the requested passes and returns the
// references of the result.
func (e *Engine) Refs(ctx context.Context, req Request) (link.Refs, error) {
	doc, err := e.Transform(ctx, req)
	if err != nil {
		return link.Refs{}, err
	}
	p, err := e.Pass(passOptions["refs"])
	if err != nil {
		return link.Refs{}, err
	}
	if err := p.Apply(ctx, doc, req.Page); err != nil {
		return link.Refs{}, err
	}
	return p.(*link.RefsPass).Refs, nil
}
