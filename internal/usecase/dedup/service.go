package dedup

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/formdex/internal/domain"
	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
	"github.com/kailas-cloud/formdex/internal/logger"
	"github.com/kailas-cloud/formdex/internal/metrics"
)

// Service is the duplicate detection engine.
type Service struct {
	finder   Finder
	policies map[domsub.Kind]Policy
}

// New creates an engine with the default policy table.
func New(finder Finder) *Service {
	return &Service{finder: finder, policies: DefaultPolicies()}
}

// WithPolicy overrides the policy for one entity kind.
func (s *Service) WithPolicy(kind domsub.Kind, p Policy) *Service {
	s.policies[kind] = p
	return s
}

// Check runs detection for rec under its kind's policy, excluding rec's own id.
// A blocking match returns the decision together with a *domain.ConflictError.
func (s *Service) Check(ctx context.Context, rec domsub.Record, op Operation) (Decision, error) {
	p, ok := s.policies[rec.Kind()]
	if !ok {
		return Decision{Action: ActionNone, Flag: domsub.Clear}, nil
	}

	matched, err := s.Match(ctx, rec.TenantID(), rec.Kind(), p.Identifiers(rec.Identity()), p.Mode(), rec.ID())
	if err != nil {
		return Decision{}, err
	}

	d := p.Decide(matched, op)
	metrics.DuplicateDecisionsTotal.WithLabelValues(string(rec.Kind()), string(d.Action)).Inc()

	if d.Action != ActionNone {
		logger.FromContext(ctx).Info("Duplicate detected",
			zap.String("tenant", rec.TenantID()),
			zap.String("kind", string(rec.Kind())),
			zap.String("action", string(d.Action)),
			zap.Strings("matched_ids", d.MatchedIDs),
		)
	}

	if d.Action == ActionReject {
		return d, domain.NewConflict(d.MatchedIDs)
	}
	return d, nil
}

// Match returns ids of records sharing the identifiers, combined by mode, oldest first.
func (s *Service) Match(
	ctx context.Context, tenantID string, kind domsub.Kind,
	idents []domsub.Identifier, mode MatchMode, excludeID string,
) ([]string, error) {
	if len(idents) == 0 {
		return nil, nil
	}

	var out []string
	for i, ident := range idents {
		ids, err := s.finder.FindByIdentifier(ctx, tenantID, kind, ident, excludeID)
		if err != nil {
			return nil, fmt.Errorf("find by %s: %w: %w", ident.Kind, domain.ErrInternal, err)
		}
		switch {
		case i == 0:
			out = slices.Clone(ids)
		case mode == MatchAll:
			out = slices.DeleteFunc(out, func(id string) bool { return !slices.Contains(ids, id) })
		default:
			for _, id := range ids {
				if !slices.Contains(out, id) {
					out = append(out, id)
				}
			}
		}
		if mode == MatchAll && len(out) == 0 {
			return nil, nil
		}
	}
	return slices.DeleteFunc(out, func(id string) bool { return id == excludeID }), nil
}

// Claims returns the identifiers rec must hold unique under its kind's policy.
func (s *Service) Claims(rec domsub.Record) []domsub.Identifier {
	p, ok := s.policies[rec.Kind()]
	if !ok {
		return nil
	}
	return p.Claims(rec.Identity())
}
