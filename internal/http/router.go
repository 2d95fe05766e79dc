package http

import (
	"net/http"
	"strings"
	"time"

	"teacha/internal/domain/principal"
	"teacha/internal/http/handlers"
	"teacha/internal/http/metrics"
	httpmw "teacha/internal/http/middleware"
)

type RouterDependencies struct {
	OfferHandler        *handlers.OfferHandler
	ApplicationHandler  *handlers.ApplicationHandler
	ConversationHandler *handlers.ConversationHandler
	NotificationHandler *handlers.NotificationHandler
	MetricsHandler      *handlers.MetricsHandler
	AuthMiddleware      *httpmw.AuthMiddleware
	Metrics             *metrics.Collector
	RequestTimeout      time.Duration
}

type Router struct {
	deps RouterDependencies
}

const maxBodyBytes = 1 << 20

func NewRouter(deps RouterDependencies) http.Handler {
	return &Router{deps: deps}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := httpmw.Chain(r.baseHandler(), httpmw.RequestID, httpmw.Logging, httpmw.BodyLimit(maxBodyBytes), httpmw.Recover, httpmw.Metrics(r.deps.Metrics), httpmw.Timeout(r.deps.RequestTimeout))
	handler.ServeHTTP(w, req)
}

func (r *Router) baseHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		switch {
		case req.Method == http.MethodGet && path == "/health":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		case req.Method == http.MethodGet && path == "/metrics":
			r.deps.MetricsHandler.Get(w, req)
			return
		case req.Method == http.MethodGet && path == "/offers":
			r.deps.OfferHandler.ListOpen(w, req)
			return
		case req.Method == http.MethodGet && strings.HasPrefix(path, "/offers/") && strings.Count(path, "/") == 2:
			r.deps.OfferHandler.Get(w, req)
			return
		}

		if strings.HasPrefix(path, "/offers") || strings.HasPrefix(path, "/institutions") || strings.HasPrefix(path, "/applications") || strings.HasPrefix(path, "/conversations") || strings.HasPrefix(path, "/notifications") {
			protected := r.deps.AuthMiddleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				r.handleProtected(w, req)
			}))
			protected.ServeHTTP(w, req)
			return
		}

		http.NotFound(w, req)
	})
}

func (r *Router) handleProtected(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path

	switch {
	case req.Method == http.MethodPost && path == "/offers":
		httpmw.RequireRole(principal.RoleInstitution)(http.HandlerFunc(r.deps.OfferHandler.Create)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/institutions/offers":
		httpmw.RequireRole(principal.RoleInstitution)(http.HandlerFunc(r.deps.OfferHandler.ListMine)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && strings.HasPrefix(path, "/offers/") && strings.HasSuffix(path, "/applications"):
		httpmw.RequireRole(principal.RoleInstitution)(http.HandlerFunc(r.deps.ApplicationHandler.ListByOffer)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/offers/") && strings.HasSuffix(path, "/invite"):
		httpmw.RequireRole(principal.RoleInstitution)(http.HandlerFunc(r.deps.OfferHandler.Invite)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodPost && path == "/applications":
		httpmw.RequireRole(principal.RoleCandidate)(http.HandlerFunc(r.deps.ApplicationHandler.Apply)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/applications":
		r.deps.ApplicationHandler.List(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/applications/") && strings.HasSuffix(path, "/accept"):
		httpmw.RequireRole(principal.RoleInstitution)(http.HandlerFunc(r.deps.ApplicationHandler.Accept)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodDelete && strings.HasPrefix(path, "/applications/") && strings.Count(path, "/") == 2:
		httpmw.RequireRole(principal.RoleCandidate)(http.HandlerFunc(r.deps.ApplicationHandler.Withdraw)).ServeHTTP(w, req)
		return
	case req.Method == http.MethodGet && path == "/conversations":
		r.deps.ConversationHandler.List(w, req)
		return
	case req.Method == http.MethodGet && strings.HasPrefix(path, "/conversations/") && strings.HasSuffix(path, "/messages"):
		r.deps.ConversationHandler.ListMessages(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/conversations/") && strings.HasSuffix(path, "/messages"):
		r.deps.ConversationHandler.Send(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/conversations/") && strings.HasSuffix(path, "/read"):
		r.deps.ConversationHandler.MarkRead(w, req)
		return
	case req.Method == http.MethodGet && path == "/notifications":
		r.deps.NotificationHandler.List(w, req)
		return
	case req.Method == http.MethodGet && path == "/notifications/unread-count":
		r.deps.NotificationHandler.UnreadCount(w, req)
		return
	case req.Method == http.MethodPost && strings.HasPrefix(path, "/notifications/") && strings.HasSuffix(path, "/read"):
		r.deps.NotificationHandler.MarkRead(w, req)
		return
	}

	http.NotFound(w, req)
}
