// Package vetting runs the full vetting pipeline for one prospect: fresh
// snapshot reuse, concurrent validator fan-out, weighted scoring, and
// immutable snapshot persistence.
package vetting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vetting-cli/internal/model"
	"github.com/sells-group/vetting-cli/internal/scorer"
	"github.com/sells-group/vetting-cli/internal/store"
)

// ErrNoConversation is returned when a prospect has no conversation turns;
// vetting is impossible and no snapshot is written.
var ErrNoConversation = eris.New("vetting: prospect has no conversation")

// FieldExtractor derives qualification fields from a conversation.
type FieldExtractor interface {
	Extract(ctx context.Context, conversation []model.ConversationTurn) model.FieldExtraction
}

// WebsiteAnalyzer scores a company domain's legitimacy.
type WebsiteAnalyzer interface {
	Analyze(ctx context.Context, domain string) model.ValidatorOutcome
}

// IdentityValidator verifies company and contact against a directory.
type IdentityValidator interface {
	Validate(ctx context.Context, companyName, contactName, domain string) model.ValidatorOutcome
}

// BudgetAssessor grades the realism of the claimed budget.
type BudgetAssessor interface {
	Assess(conversation []model.ConversationTurn, profile model.CompanyProfile) model.ValidatorOutcome
}

// Options control a single vetting run.
type Options struct {
	// ForceRefresh skips the snapshot freshness check and always reruns
	// the validators.
	ForceRefresh bool
}

// Orchestrator coordinates one vetting run per call. It owns no state
// beyond its collaborators; all persistence goes through the store.
type Orchestrator struct {
	store     store.Store
	extractor FieldExtractor
	website   WebsiteAnalyzer
	identity  IdentityValidator
	budget    BudgetAssessor
	weights   scorer.Weights

	freshness         time.Duration
	validatorTimeout  time.Duration
	extractionTimeout time.Duration

	now func() time.Time
}

// New creates an Orchestrator with production weights.
func New(st store.Store, extractor FieldExtractor, website WebsiteAnalyzer, identity IdentityValidator, budget BudgetAssessor, freshness, validatorTimeout, extractionTimeout time.Duration) *Orchestrator {
	if freshness <= 0 {
		freshness = 24 * time.Hour
	}
	if validatorTimeout <= 0 {
		validatorTimeout = 30 * time.Second
	}
	if extractionTimeout <= 0 {
		extractionTimeout = 60 * time.Second
	}
	return &Orchestrator{
		store:             st,
		extractor:         extractor,
		website:           website,
		identity:          identity,
		budget:            budget,
		weights:           scorer.DefaultWeights(),
		freshness:         freshness,
		validatorTimeout:  validatorTimeout,
		extractionTimeout: extractionTimeout,
		now:               time.Now,
	}
}

// Run vets one prospect. A snapshot younger than the freshness window is
// returned unchanged without touching any validator. Otherwise the three
// validators run concurrently, every branch settles to an outcome, and a
// new immutable snapshot is persisted and returned.
func (o *Orchestrator) Run(ctx context.Context, prospectID string, opts Options) (*model.ValidationSnapshot, error) {
	log := zap.L().With(zap.String("prospect_id", prospectID))

	prospect, err := o.store.GetProspect(ctx, prospectID)
	if err != nil {
		return nil, eris.Wrap(err, "vetting: load prospect")
	}

	if !opts.ForceRefresh {
		latest, err := o.store.LatestSnapshot(ctx, prospectID)
		if err != nil {
			return nil, eris.Wrap(err, "vetting: load latest snapshot")
		}
		if latest != nil && o.now().Sub(latest.CreatedAt) < o.freshness {
			log.Info("vetting: serving fresh snapshot",
				zap.String("snapshot_id", latest.ID),
				zap.Time("created_at", latest.CreatedAt),
			)
			return latest, nil
		}
	}

	conversation, err := o.store.GetConversation(ctx, prospect.SessionID)
	if err != nil {
		return nil, eris.Wrap(err, "vetting: load conversation")
	}
	if len(conversation) == 0 {
		return nil, ErrNoConversation
	}

	extractCtx, cancelExtract := context.WithTimeout(ctx, o.extractionTimeout)
	fields := o.extractor.Extract(extractCtx, conversation)
	cancelExtract()
	conversationScore := scorer.ConversationScore(fields)

	outcomes := o.fanOut(ctx, prospect, conversation)

	result := scorer.Score(o.weights, conversationScore, outcomes)

	var failures []model.ValidationFailure
	for _, out := range outcomes {
		if !out.OK() {
			failures = append(failures, model.ValidationFailure{
				Validator: out.Name,
				Reason:    out.Reason,
			})
		}
	}

	snapshot := model.ValidationSnapshot{
		ID:              uuid.NewString(),
		ProspectID:      prospectID,
		FinalScore:      result.FinalScore,
		Category:        result.Category,
		ConfidenceLevel: result.ConfidenceLevel,
		Signals:         result.Signals,
		Failures:        failures,
		CreatedAt:       o.now().UTC(),
	}

	// The run's results are persisted even when the caller's context has
	// been torn down mid-fan-out; by this point every branch has settled.
	if err := o.store.InsertSnapshot(context.WithoutCancel(ctx), snapshot); err != nil {
		return nil, eris.Wrap(err, "vetting: persist snapshot")
	}

	log.Info("vetting: run complete",
		zap.String("snapshot_id", snapshot.ID),
		zap.Float64("final_score", snapshot.FinalScore),
		zap.String("category", string(snapshot.Category)),
		zap.Int("validator_failures", len(failures)),
	)

	return &snapshot, nil
}

// fanOut runs the three validators concurrently, each under its own
// timeout. Branches always resolve to a ValidatorOutcome; a failure or
// timeout in one never cancels the siblings.
func (o *Orchestrator) fanOut(ctx context.Context, prospect *model.Prospect, conversation []model.ConversationTurn) []model.ValidatorOutcome {
	outcomes := make([]model.ValidatorOutcome, 3)

	var g errgroup.Group
	g.Go(func() error {
		vctx, cancel := context.WithTimeout(ctx, o.validatorTimeout)
		defer cancel()
		outcomes[0] = o.website.Analyze(vctx, prospect.Company.Domain)
		return nil
	})
	g.Go(func() error {
		vctx, cancel := context.WithTimeout(ctx, o.validatorTimeout)
		defer cancel()
		outcomes[1] = o.identity.Validate(vctx, prospect.Company.Name, prospect.Company.ContactName, prospect.Company.Domain)
		return nil
	})
	g.Go(func() error {
		outcomes[2] = o.budget.Assess(conversation, prospect.Company)
		return nil
	})

	_ = g.Wait() // branches never return errors

	return outcomes
}

// Snapshot returns the most recent snapshot for a prospect, or nil when the
// prospect has never been vetted.
func (o *Orchestrator) Snapshot(ctx context.Context, prospectID string) (*model.ValidationSnapshot, error) {
	snap, err := o.store.LatestSnapshot(ctx, prospectID)
	if err != nil {
		return nil, eris.Wrap(err, "vetting: load latest snapshot")
	}
	return snap, nil
}

// History returns snapshots for a prospect, newest first. A limit of 0
// returns all of them.
func (o *Orchestrator) History(ctx context.Context, prospectID string, limit int) ([]model.ValidationSnapshot, error) {
	snaps, err := o.store.ListSnapshots(ctx, prospectID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "vetting: list snapshots")
	}
	return snaps, nil
}
