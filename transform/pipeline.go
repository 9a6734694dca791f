package transform

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"cssv/css"
	"cssv/vars"
)

// Options configures a Pipeline.
type Options struct {
	DisallowedProperties      []string // property names to drop before resolution
	RewriteAttributeSelectors bool
	Variables                 vars.Options
}

// Pipeline runs the full stylesheet pass: parse, strip disallowed
// properties, rewrite attribute selectors, resolve variables, serialize.
type Pipeline struct {
	log    *zap.Logger
	opts   Options
	parser *css.Parser
	engine *vars.Engine
	tr     *Transformer
}

// NewPipeline creates a processing pipeline.
func NewPipeline(log *zap.Logger, opts Options) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		log:    log.Named("css-pipeline"),
		opts:   opts,
		parser: css.NewParser(log),
		engine: vars.NewEngine(log, opts.Variables),
		tr:     NewTransformer(log),
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	CSS          []byte   // serialized stylesheet
	Warnings     []string // parser warnings followed by resolver warnings
	Iterations   int      // resolver passes used
	ReachedLimit bool     // resolver hit the iteration cap
}

// Run processes one stylesheet. Selector rewriting happens before variable
// collection so scopes are keyed by the final selector strings. The optional
// source parameter identifies the input in logs.
func (p *Pipeline) Run(data []byte, source ...string) (Result, error) {
	sheet := p.parser.Parse(data, source...)

	if stripped := p.tr.StripProperties(sheet, p.opts.DisallowedProperties); stripped > 0 {
		p.log.Debug("Stripped disallowed properties", zap.Int("count", stripped))
	}
	if p.opts.RewriteAttributeSelectors {
		if n := p.tr.RewriteAttributeSelectors(sheet); n > 0 {
			p.log.Debug("Rewrote attribute selectors", zap.Int("count", n))
		}
	}

	rr := p.engine.Process(sheet)

	res := Result{
		Warnings:     append(sheet.Warnings, rr.Warnings...),
		Iterations:   rr.Iterations,
		ReachedLimit: rr.ReachedLimit,
	}

	var buf bytes.Buffer
	if _, err := sheet.WriteTo(&buf); err != nil {
		return res, fmt.Errorf("unable to serialize stylesheet: %w", err)
	}
	res.CSS = buf.Bytes()
	return res, nil
}
