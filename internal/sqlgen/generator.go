package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/schema"
)

// Generator produces SQL candidates, templates first with the model path as
// the fallback for questions no template covers.
type Generator struct {
	registry        *schema.Descriptor
	model           SQLModel
	modelConfidence float64
}

func NewGenerator(registry *schema.Descriptor, model SQLModel, modelConfidence float64) *Generator {
	if modelConfidence <= 0 {
		modelConfidence = 0.4
	}
	return &Generator{
		registry:        registry,
		model:           model,
		modelConfidence: modelConfidence,
	}
}

// Template builds a deterministic candidate for the intent, or ErrNoTemplate
// when no template covers the intent and entity combination.
func (g *Generator) Template(intent nlu.Intent, ents nlu.Entities) (Candidate, error) {
	sql, params, err := buildTemplate(intent, ents)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Intent:     intent,
		Entities:   ents,
		SQL:        sql,
		Params:     params,
		Source:     SourceTemplate,
		Confidence: TemplateConfidence,
	}, nil
}

// Model asks the configured model for a statement. Entity values are bound as
// numbered parameters so the statement never carries user input inline.
func (g *Generator) Model(ctx context.Context, question string, intent nlu.Intent, ents nlu.Entities) (Candidate, error) {
	if g.model == nil {
		return Candidate{}, fmt.Errorf("model path not configured")
	}

	bound := entityParams(ents)
	prompt := buildModelPrompt(question, g.registry, bound)

	sql, err := g.model.GenerateSQL(ctx, systemPrompt, prompt)
	if err != nil {
		return Candidate{}, err
	}
	sql = stripMarkdownSQL(sql)
	if sql == "" {
		return Candidate{}, fmt.Errorf("model returned no SQL")
	}
	if strings.Contains(strings.TrimSuffix(strings.TrimSpace(sql), ";"), ";") {
		return Candidate{}, fmt.Errorf("model returned multiple statements")
	}

	params := make([]interface{}, len(bound))
	for i, p := range bound {
		params[i] = p.value
	}

	log.Debug().Str("intent", string(intent)).Int("params", len(params)).Msg("model candidate generated")
	return Candidate{
		Intent:     intent,
		Entities:   ents,
		SQL:        strings.TrimSuffix(strings.TrimSpace(sql), ";"),
		Params:     params,
		Source:     SourceModel,
		Confidence: g.modelConfidence,
	}, nil
}
