package identity

// Role is assigned by the identity API, never inferred client-side. The
// projector applies RoleUser as the flagged system default when the backend
// omits one.
type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Principal is the authenticated identity's stable profile. ID is backend
// assigned and never empty once a Principal exists; DisplayImage is the only
// field that may change after sign-in.
type Principal struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	DisplayImage string `json:"displayImage,omitempty"`
}

// TokenPair is the bearer credential bundle issued by the identity API. Each
// refresh produces a brand-new pair that replaces the old one whole; the two
// fields never update independently.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Grant is what a successful authentication yields.
type Grant struct {
	Principal Principal
	Tokens    TokenPair
}

// Kind tags the assertion variants.
type Kind string

const (
	KindCredentials Kind = "credentials"
	KindSocial      Kind = "social"
)

// Assertion is a claim of identity awaiting backend verification. Exactly two
// variants exist; dispatch is a pure switch on Kind.
type Assertion interface {
	Kind() Kind
	// Provider names the identity source for projection and audit.
	Provider() string
}

// Credentials asserts identity with a password plus email or phone.
type Credentials struct {
	Email    string
	Phone    string
	Password string
}

func (Credentials) Kind() Kind { return KindCredentials }

func (Credentials) Provider() string { return "credentials" }

// SocialLogin asserts identity with a provider-issued identity token. The
// claimed fields come from the OAuth handshake and are display hints only;
// the identity API remains the source of truth.
type SocialLogin struct {
	ProviderName  string
	IdentityToken string
	ClaimedEmail  string
	ClaimedName   string
	// ClaimedImage is the avatar URL from the OAuth provider. Best-effort
	// enrichment: it survives backend responses that lack an image and is
	// never a hard dependency of the sign-in.
	ClaimedImage string
}

func (SocialLogin) Kind() Kind { return KindSocial }

func (s SocialLogin) Provider() string { return s.ProviderName }
