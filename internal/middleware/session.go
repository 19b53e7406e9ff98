package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"ticket-checkout/internal/logging"
)

const (
	// SessionName is the cookie holding the buyer session
	SessionName = "checkout_session"

	buyerIDKey = "buyer_id"
)

type buyerCtxKey struct{}

// SessionMiddleware resolves the buyer of a request from a signed cookie
// session
type SessionMiddleware struct {
	store sessions.Store
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(store sessions.Store) *SessionMiddleware {
	return &SessionMiddleware{
		store: store,
	}
}

// NewCookieStore creates the cookie store used for buyer sessions
func NewCookieStore(secret string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Start binds the response's session to buyerID
func (m *SessionMiddleware) Start(w http.ResponseWriter, r *http.Request, buyerID uuid.UUID) error {
	// A cookie signed with an old secret yields an error and a fresh session
	session, _ := m.store.Get(r, SessionName)
	session.Values[buyerIDKey] = buyerID.String()
	return session.Save(r, w)
}

// LoadBuyer puts the session's buyer id into the request context. Requests
// without a valid session pass through unchanged.
func (m *SessionMiddleware) LoadBuyer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, SessionName)
		if err != nil {
			logging.FromContext(r.Context()).WithError(err).Debug("Ignoring invalid session")
			next.ServeHTTP(w, r)
			return
		}

		raw, _ := session.Values[buyerIDKey].(string)
		buyerID, err := uuid.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), buyerCtxKey{}, buyerID)
		entry := logging.FromContext(ctx).WithField("buyer_id", buyerID.String())
		next.ServeHTTP(w, r.WithContext(logging.WithContext(ctx, entry)))
	})
}

// RequireSession rejects requests without a buyer session
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := BuyerIDFromContext(r.Context()); !ok {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "A buyer session is required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireBuyer rejects requests whose {buyerID} path parameter is not the
// session's buyer
func RequireBuyer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buyerID, ok := BuyerIDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "A buyer session is required.")
			return
		}

		requested, err := uuid.Parse(chi.URLParam(r, "buyerID"))
		if err != nil || requested != buyerID {
			WriteError(w, http.StatusForbidden, "FORBIDDEN", "You cannot access another buyer's data.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// BuyerIDFromContext returns the buyer id stored by LoadBuyer
func BuyerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(buyerCtxKey{}).(uuid.UUID)
	return id, ok
}

// WithBuyerID returns a copy of ctx carrying buyerID
func WithBuyerID(ctx context.Context, buyerID uuid.UUID) context.Context {
	return context.WithValue(ctx, buyerCtxKey{}, buyerID)
}
