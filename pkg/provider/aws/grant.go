package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/stack"
	"go.uber.org/zap"
)

type GrantOutcome int

const (
	// GrantCreated means no policy existed for the bucket and one was declared holding the statement.
	GrantCreated GrantOutcome = iota
	// GrantAppended means the statement was added to the bucket's existing policy.
	GrantAppended
	// GrantUnchanged means the existing policy already held an identical statement.
	GrantUnchanged
)

func (o GrantOutcome) String() string {
	switch o {
	case GrantCreated:
		return "created"
	case GrantAppended:
		return "appended"
	case GrantUnchanged:
		return "unchanged"
	}
	return fmt.Sprintf("GrantOutcome(%d)", int(o))
}

type GrantResult struct {
	Outcome GrantOutcome
	Policy  construct.ResourceId
}

// GrantConflictError is returned when a grant cannot be added to a bucket's policy without changing the meaning
// of what is already there.
type GrantConflictError struct {
	Policy construct.ResourceId
	Sid    string
	Reason string
}

func (e GrantConflictError) Error() string {
	return fmt.Sprintf("cannot grant %s on %s: %s", e.Sid, e.Policy, e.Reason)
}

// EnsureGrant makes sure the policy of `bucket` holds `stmt`. Buckets may only have one policy, so when `u`
// already declares a policy for the same underlying bucket the statement is appended to it; otherwise a new
// policy is declared in `u`. Repeating a grant is a no-op.
func EnsureGrant(ctx context.Context, u *stack.Unit, bucket Bucket, stmt PolicyStatement) (GrantResult, error) {
	log := logging.GetLogger(ctx).With(logging.UnitField(u.Name), zap.String("sid", stmt.Sid))

	if err := stmt.Validate(); err != nil {
		return GrantResult{}, err
	}
	g := u.App().Resources
	var missing error
	for _, ref := range construct.References(stmt.ToMap()) {
		if _, err := g.Vertex(ref); err != nil {
			missing = errors.Join(missing, fmt.Errorf("statement %s references %s: %w", stmt.Sid, ref, err))
		}
	}
	if missing != nil {
		return GrantResult{}, missing
	}

	policy, err := findBucketPolicy(g, bucket.ID)
	if err != nil {
		return GrantResult{}, err
	}

	if policy == nil {
		policy, err = u.Declare(Id(BucketPolicyType, bucket.ID.Name+"Policy"), construct.Properties{
			"Bucket":         bucket.Name(),
			"PolicyDocument": PolicyDocument(stmt),
		})
		if err != nil {
			return GrantResult{}, err
		}
		log.Debug("Created bucket policy", logging.ResourceField(policy.ID))
		return GrantResult{Outcome: GrantCreated, Policy: policy.ID}, nil
	}

	switch {
	case policy.Imported:
		return GrantResult{}, GrantConflictError{Policy: policy.ID, Sid: stmt.Sid, Reason: "the policy is imported"}
	case policy.ID.Namespace != u.Name:
		return GrantResult{}, GrantConflictError{
			Policy: policy.ID,
			Sid:    stmt.Sid,
			Reason: fmt.Sprintf("the policy is owned by unit %s", policy.ID.Namespace),
		}
	}

	existing, err := policy.GetProperty("PolicyDocument.Statement")
	if err != nil {
		return GrantResult{}, err
	}
	list, _ := existing.([]any)
	for i, v := range list {
		s, err := DecodeStatement(v)
		if err != nil {
			return GrantResult{}, fmt.Errorf("%s statement %d: %w", policy.ID, i, err)
		}
		if s.Sid != stmt.Sid {
			continue
		}
		if s.Equal(stmt) {
			log.Debug("Bucket policy already grants statement", logging.ResourceField(policy.ID))
			return GrantResult{Outcome: GrantUnchanged, Policy: policy.ID}, nil
		}
		return GrantResult{}, GrantConflictError{
			Policy: policy.ID,
			Sid:    stmt.Sid,
			Reason: "a different statement with the same Sid exists",
		}
	}

	if err := policy.AppendProperty("PolicyDocument.Statement", stmt.ToMap()); err != nil {
		return GrantResult{}, err
	}
	for _, ref := range construct.References(stmt.ToMap()) {
		if ref == policy.ID {
			continue
		}
		if err := u.AddResourceDependency(policy.ID, ref); err != nil {
			return GrantResult{}, err
		}
	}
	log.Debug("Appended statement to bucket policy", logging.ResourceField(policy.ID))
	return GrantResult{Outcome: GrantAppended, Policy: policy.ID}, nil
}

// findBucketPolicy returns the policy attached to the same underlying bucket as `bucket`, or nil if there is
// none.
func findBucketPolicy(g construct.Graph, bucket construct.ResourceId) (*construct.Resource, error) {
	target, err := underlyingBucket(g, bucket)
	if err != nil {
		return nil, err
	}
	policies, err := construct.ResourcesOf(g, construct.ResourceId{Provider: Provider, Type: BucketPolicyType})
	if err != nil {
		return nil, err
	}
	for _, p := range policies {
		for _, ref := range construct.References(p.Properties["Bucket"]) {
			id, err := underlyingBucket(g, ref)
			if err != nil {
				return nil, err
			}
			if id == target {
				return p, nil
			}
		}
	}
	return nil, nil
}

// underlyingBucket follows imported buckets back to the bucket they were imported from, for imports made
// within the app.
func underlyingBucket(g construct.Graph, id construct.ResourceId) (construct.ResourceId, error) {
	seen := make(map[construct.ResourceId]struct{})
	for {
		if _, ok := seen[id]; ok {
			return id, fmt.Errorf("imported bucket %s refers back to itself", id)
		}
		seen[id] = struct{}{}

		r, err := g.Vertex(id)
		if err != nil {
			return id, fmt.Errorf("bucket %s: %w", id, err)
		}
		if !r.Imported {
			return id, nil
		}
		ref, ok := r.Properties["BucketName"].(construct.Ref)
		if !ok {
			return id, nil
		}
		id = ref.Resource
	}
}
