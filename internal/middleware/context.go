package middleware

import (
	"context"
	"net/http"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

type contextKey string

const (
	ActorRoleKey contextKey = "actor_role"
	ActorIDKey   contextKey = "actor_id"
)

// GetActorRole returns the acting role from the context (set by ActorContext).
func GetActorRole(ctx context.Context) model.SenderRole {
	v, _ := ctx.Value(ActorRoleKey).(model.SenderRole)
	return v
}

// GetActorID returns the actor id from the context (set by ActorContext).
func GetActorID(ctx context.Context) string {
	v, _ := ctx.Value(ActorIDKey).(string)
	return v
}

// ActorContext lifts the caller identity asserted by the gateway
// (X-Actor-Role / X-Actor-Id) into the request context. Requests without
// a recognized role pass through with an empty identity; handlers that
// require one reject on their own.
func ActorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := model.SenderRole(r.Header.Get("X-Actor-Role"))
		id := r.Header.Get("X-Actor-Id")
		if model.ValidSenderRole(role) && id != "" {
			ctx := context.WithValue(r.Context(), ActorRoleKey, role)
			ctx = context.WithValue(ctx, ActorIDKey, id)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor rejects requests that carry no actor identity.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetActorID(r.Context()) == "" {
			http.Error(w, "missing actor identity", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
