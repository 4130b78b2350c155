package guard

import "github.com/expert-buddy/expertbuddy-backend/internal/session/domain"

// Requirement is the role a view demands.
type Requirement string

const (
	Any        Requirement = "any"
	ClientOnly Requirement = "client-only"
	ExpertOnly Requirement = "expert-only"
)

// Landing targets for redirects.
const (
	SignInPath        = "/sign-in"
	ClientLandingPath = "/profile"
	ExpertLandingPath = "/dashboard"
)

// Decision is the guard's verdict for one navigation. PromptProfile is
// advisory: the view renders, with a non-blocking completion prompt.
type Decision struct {
	Allow         bool
	RedirectTo    string
	Notice        string
	PromptProfile bool
}

// Evaluate gates a view against the current session. It owns no state
// and is evaluated fresh on every navigation.
func Evaluate(required Requirement, s *domain.Session) Decision {
	if s == nil {
		return Decision{
			RedirectTo: SignInPath,
			Notice:     "Please sign in to access this page",
		}
	}

	if !roleSatisfies(required, s.Role) {
		return Decision{
			RedirectTo: landingFor(s.Role),
			Notice:     "You don't have access to this page",
		}
	}

	return Decision{
		Allow:         true,
		PromptProfile: !s.ProfileComplete,
	}
}

func roleSatisfies(required Requirement, role domain.Role) bool {
	switch required {
	case ClientOnly:
		return role == domain.RoleClient
	case ExpertOnly:
		return role == domain.RoleExpert
	default:
		return true
	}
}

func landingFor(role domain.Role) string {
	if role == domain.RoleExpert {
		return ExpertLandingPath
	}
	return ClientLandingPath
}
