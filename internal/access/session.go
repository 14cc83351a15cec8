// Copyright (c) 2026 FPTSphere. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package access

// # Session Gating

// Session is the auth provider's state as seen by a route guard.
type Session struct {
	// Loading is true while the provider is still restoring the session.
	Loading bool

	// Authenticated is true once a user has signed in.
	Authenticated bool

	// User is the signed-in user's snapshot; nil when anonymous.
	User *CurrentUser
}

// Anonymous returns a fully loaded session without a user.
func Anonymous() Session {
	return Session{}
}

// SignedIn returns a fully loaded session for user.
func SignedIn(user CurrentUser) Session {
	return Session{Authenticated: true, User: &user}
}

// Outcome is what a route guard should do with a navigation request.
type Outcome string

const (
	// OutcomePending means the session is still loading; show a placeholder.
	OutcomePending Outcome = "pending"

	// OutcomeLogin means the caller is anonymous; redirect to [LoginPath].
	OutcomeLogin Outcome = "login"

	// OutcomeForbidden means the role is not allowed; show [ForbiddenPath].
	OutcomeForbidden Outcome = "forbidden"

	// OutcomeAllow means the requested view may render.
	OutcomeAllow Outcome = "allow"
)

// Redirect returns the path a client should move to, or "" to stay put.
func (outcome Outcome) Redirect() string {
	switch outcome {
	case OutcomeLogin:
		return LoginPath
	case OutcomeForbidden:
		return ForbiddenPath
	default:
		return ""
	}
}

// Decide gates guard evaluation on the session state.
//
// Evaluation only happens once loading is complete and the session is
// authenticated, so a half-restored session never produces a false deny.
func Decide(session Session, guard Guard) (Outcome, Decision) {
	if session.Loading {
		return OutcomePending, Decision{}
	}

	if !session.Authenticated || session.User == nil {
		return OutcomeLogin, Decision{}
	}

	decision := Evaluate(*session.User, guard)
	if !decision.Allowed {
		return OutcomeForbidden, decision
	}

	return OutcomeAllow, decision
}
