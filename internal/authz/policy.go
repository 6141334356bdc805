// Package authz is the single place where allow/deny rules live. The
// original system expressed these as per-row database policies; here they
// are one ordered rule list evaluated in application code so they can be
// tested without a datastore and cannot drift between duplicate policy sets.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log"

	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
)

// Operation names what the caller wants to do with a resource.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpAppend Operation = "append" // add a message to a session

	// Reserved for the identity provider. Even admins are denied these;
	// credential management never goes through this service.
	OpResetPassword     Operation = "reset_password"
	OpRotateCredentials Operation = "rotate_credentials"
)

// ResourceKind identifies what is being accessed.
type ResourceKind string

const (
	KindProfile             ResourceKind = "profile"
	KindSession             ResourceKind = "session"
	KindMessage             ResourceKind = "message"
	KindConversationContext ResourceKind = "conversation_context"
	KindArticle             ResourceKind = "article"
)

// Resource describes the target of an operation. Ownership is resolved at
// most one hop before the engine runs: for a message or conversation
// context the caller loads the session and passes its owner here.
type Resource struct {
	Kind    ResourceKind
	ID      uuid.UUID
	OwnerID uuid.UUID // sessions, messages, conversation contexts

	TargetRole models.Role // profile directory reads

	AuthorID      uuid.UUID            // articles
	ArticleStatus models.ArticleStatus // articles
}

// Reason explains a deny.
type Reason string

const (
	ReasonNotOwner         Reason = "NotOwner"
	ReasonRoleInsufficient Reason = "RoleInsufficient"
	ReasonNotFound         Reason = "NotFound"
)

// Decision is the engine's verdict. Reason is empty on allow.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Allowed: false, Reason: r} }

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return fmt.Sprintf("deny(%s)", d.Reason)
}

// ProfileGetter is the slice of the store the engine needs.
type ProfileGetter interface {
	GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Engine evaluates the ordered rule list. It is total: every
// (operation, resource) pair reaches an allow or a deny, never "undecided".
type Engine struct {
	profiles ProfileGetter
}

func NewEngine(profiles ProfileGetter) *Engine {
	return &Engine{profiles: profiles}
}

// Authorize decides whether subjectID may perform op on res. The caller's
// role is read fresh from the profile store on every call - roles change
// over time (unassigned -> patient, promotions) and must take effect
// without re-authentication.
//
// First match wins. Self-access and the public doctor-directory rule run
// before the admin and ownership rules so a user's own data never requires
// the admin role.
func (e *Engine) Authorize(ctx context.Context, subjectID uuid.UUID, op Operation, res Resource) (Decision, error) {
	caller, err := e.profiles.GetProfileByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// No implicit provisioning here; that is the event bridge's job.
			return deny(ReasonNotFound), nil
		}
		return Decision{}, fmt.Errorf("authz: resolving caller profile: %w", err)
	}

	d := e.evaluate(caller, op, res)
	if !d.Allowed {
		log.Printf("[Authz] %s by %s (%s) on %s %s: %s", op, subjectID, caller.Role, res.Kind, res.ID, d)
	}
	return d, nil
}

func (e *Engine) evaluate(caller *models.Profile, op Operation, res Resource) Decision {
	// Self read/update of one's own profile.
	if res.Kind == KindProfile && res.ID == caller.ID && (op == OpRead || op == OpUpdate) {
		return allow()
	}

	// The doctor directory is public to any authenticated caller.
	if res.Kind == KindProfile && res.TargetRole == models.RoleDoctor && op == OpRead {
		return allow()
	}

	// Admins may do everything except the operations reserved for the
	// identity provider.
	if caller.Role == models.RoleAdmin {
		if op == OpResetPassword || op == OpRotateCredentials {
			return deny(ReasonRoleInsufficient)
		}
		return allow()
	}

	// Ownership of sessions and everything one hop below them.
	if ownedKind(res.Kind) {
		if res.OwnerID == caller.ID {
			return allow()
		}
		return deny(ReasonNotOwner)
	}

	// Published articles are readable by anyone verified.
	if res.Kind == KindArticle && op == OpRead && res.ArticleStatus == models.ArticleStatusPublished {
		return allow()
	}

	// Authors keep full control of their own articles.
	if res.Kind == KindArticle && res.AuthorID == caller.ID &&
		(op == OpRead || op == OpUpdate || op == OpDelete) {
		return allow()
	}

	return deny(ReasonRoleInsufficient)
}

func ownedKind(k ResourceKind) bool {
	return k == KindSession || k == KindMessage || k == KindConversationContext
}
