package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chainsight/chainsight/internal/executor"
	"github.com/chainsight/chainsight/internal/formatter"
	"github.com/chainsight/chainsight/internal/models"
	"github.com/chainsight/chainsight/internal/nlu"
	"github.com/chainsight/chainsight/internal/security"
	"github.com/chainsight/chainsight/internal/session"
	"github.com/chainsight/chainsight/internal/sqlgen"
)

// Pipeline wires the stages for one question: classify, extract, generate,
// validate, execute, format. Stages run strictly in sequence per request;
// concurrent requests share only the session manager and the executor cache.
type Pipeline struct {
	classifier   *nlu.Classifier
	extractor    *nlu.Extractor
	sessions     *session.Manager
	generator    *sqlgen.Generator
	validator    *security.SQLValidator
	executor     *executor.Executor
	audit        *security.AuditLogger
	modelTimeout time.Duration
	historyDepth int
	stats        Stats
}

type Config struct {
	Classifier   *nlu.Classifier
	Extractor    *nlu.Extractor
	Sessions     *session.Manager
	Generator    *sqlgen.Generator
	Validator    *security.SQLValidator
	Executor     *executor.Executor
	Audit        *security.AuditLogger
	ModelTimeout time.Duration
	HistoryDepth int
}

func New(cfg Config) *Pipeline {
	depth := cfg.HistoryDepth
	if depth <= 0 {
		depth = 5
	}
	timeout := cfg.ModelTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pipeline{
		classifier:   cfg.Classifier,
		extractor:    cfg.Extractor,
		sessions:     cfg.Sessions,
		generator:    cfg.Generator,
		validator:    cfg.Validator,
		executor:     cfg.Executor,
		audit:        cfg.Audit,
		modelTimeout: timeout,
		historyDepth: depth,
	}
}

func (p *Pipeline) Stats() *Stats { return &p.stats }

// Process answers one question. It never returns an error: every failure is
// folded into a user-safe Response per the recovery policy, and the turn is
// recorded regardless of outcome.
func (p *Pipeline) Process(ctx context.Context, sessionID, question string, clock time.Time) models.AskResponse {
	p.stats.Questions.Add(1)

	prior := p.recentPriors(sessionID)
	cls := p.classifier.Classify(question, prior)
	ents := p.extractor.Extract(question, cls.Intent, clock, prior)

	resp, meta := p.answer(ctx, sessionID, question, cls, ents)

	p.sessions.Append(sessionID, session.Turn{
		Timestamp: clock,
		UserText:  question,
		Intent:    cls.Intent,
		Entities:  ents,
		Summary:   resp.SummaryText,
	})

	return models.AskResponse{
		Status:     askStatus(resp),
		SessionID:  sessionID,
		Intent:     string(cls.Intent),
		Confidence: cls.Confidence,
		Response:   resp,
		Metadata:   meta,
	}
}

func askStatus(resp models.Response) string {
	if resp.Error != nil {
		return "error"
	}
	return "success"
}

func (p *Pipeline) recentPriors(sessionID string) []nlu.Prior {
	turns := p.sessions.Recent(sessionID, p.historyDepth)
	priors := make([]nlu.Prior, 0, len(turns))
	for _, t := range turns {
		priors = append(priors, nlu.Prior{
			Text:     t.UserText,
			Intent:   t.Intent,
			Entities: t.Entities,
		})
	}
	return priors
}

func (p *Pipeline) answer(ctx context.Context, sessionID, question string, cls nlu.Classification, ents nlu.Entities) (models.Response, models.QueryMetadata) {
	switch cls.Intent {
	case nlu.IntentHelp, nlu.IntentUnknown:
		p.stats.HelpResponses.Add(1)
		return formatter.FormatHelp(), models.QueryMetadata{}
	}

	if msg, incomplete := clarificationNeeded(cls.Intent, ents); incomplete {
		p.stats.Clarifications.Add(1)
		log.Info().Str("session_id", sessionID).Str("intent", string(cls.Intent)).Msg("clarification requested")
		return formatter.FormatClarification(msg), models.QueryMetadata{}
	}

	candidate, src, err := p.generate(ctx, sessionID, question, cls.Intent, ents)
	if err != nil {
		log.Warn().Err(err).Str("intent", string(cls.Intent)).Msg("generation failed on both paths")
		p.audit.LogQuestion(sessionID, question, "", string(cls.Intent), "", 0, 0, false, "GENERATION_FAILED")
		return formatter.FormatGenerationFailure(), models.QueryMetadata{}
	}

	res, execErr := p.executor.Execute(ctx, candidate.SanitizedSQL, candidate.Params, candidate.EffectiveRowLimit)
	if execErr != nil {
		p.stats.ExecutionErrors.Add(1)
		var ee *executor.ExecutionError
		reason := "EXECUTION_ERROR"
		if errors.As(execErr, &ee) {
			reason = string(ee.Kind)
		}
		p.audit.LogQuestion(sessionID, question, candidate.SanitizedSQL, string(cls.Intent), src, 0, 0, false, reason)
		return formatter.FormatExecutionError(), models.QueryMetadata{GenerationSrc: src}
	}

	if res.FromCache {
		p.stats.CacheHits.Add(1)
	}

	resp := formatter.Format(cls.Intent, res, ents)
	meta := models.QueryMetadata{
		RowCount:        len(res.Rows),
		Truncated:       res.Truncated,
		ExecutionTimeMs: res.ElapsedMs,
		ServedFromCache: res.FromCache,
		GenerationSrc:   src,
	}
	p.audit.LogQuestion(sessionID, question, candidate.SanitizedSQL, string(cls.Intent), src, res.ElapsedMs, len(res.Rows), true, "")
	return resp, meta
}

// validatedCandidate pairs a candidate with its accepted validation result.
type validatedCandidate struct {
	SanitizedSQL      string
	Params            []interface{}
	EffectiveRowLimit int
}

// generate tries the template path first, falling back to the model path when
// the template is missing or rejected, and vice versa when the template path
// produced nothing. Each path is attempted at most once.
func (p *Pipeline) generate(ctx context.Context, sessionID, question string, intent nlu.Intent, ents nlu.Entities) (validatedCandidate, string, error) {
	var firstErr error

	tmpl, err := p.generator.Template(intent, ents)
	if err == nil {
		if vr := p.validator.Validate(tmpl); vr.Verdict == security.VerdictAccept {
			p.stats.TemplateQueries.Add(1)
			return validatedCandidate{vr.SanitizedSQL, vr.Params, vr.EffectiveRowLimit}, string(sqlgen.SourceTemplate), nil
		} else {
			p.stats.ValidationRejects.Add(1)
			p.audit.LogRejection(sessionID, tmpl.SQL, vr.Reason, vr.Detail)
			firstErr = fmt.Errorf("template candidate rejected: %s", vr.Reason)
		}
	} else if !errors.Is(err, sqlgen.ErrNoTemplate) {
		firstErr = err
	}

	modelCtx, cancel := context.WithTimeout(ctx, p.modelTimeout)
	defer cancel()

	cand, err := p.generator.Model(modelCtx, question, intent, ents)
	if err != nil {
		if firstErr != nil {
			return validatedCandidate{}, "", fmt.Errorf("%v; model path: %w", firstErr, err)
		}
		return validatedCandidate{}, "", err
	}

	vr := p.validator.Validate(cand)
	if vr.Verdict != security.VerdictAccept {
		p.stats.ValidationRejects.Add(1)
		p.audit.LogRejection(sessionID, cand.SQL, vr.Reason, vr.Detail)
		return validatedCandidate{}, "", fmt.Errorf("model candidate rejected: %s", vr.Reason)
	}
	p.stats.ModelQueries.Add(1)
	return validatedCandidate{vr.SanitizedSQL, vr.Params, vr.EffectiveRowLimit}, string(sqlgen.SourceModel), nil
}

// clarificationNeeded decides whether a required slot is unresolved. The one
// hard case is a chain-shaped token that did not resolve against the
// registry: querying with an invented identifier is worse than asking.
func clarificationNeeded(intent nlu.Intent, ents nlu.Entities) (string, bool) {
	if ents.UnknownChainID != "" {
		return fmt.Sprintf("I don't recognize the chain %q. Ask for the chain list, or check the spelling.", ents.UnknownChainID), true
	}
	return "", false
}
