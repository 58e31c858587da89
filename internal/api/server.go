// Package api provides the HTTP server for the written backend.
//
// It's the main, monolithic package that wires the feed selectors, the
// identity verifier, and the session handling into routes.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"go.uber.org/fx"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	wrerrs "github.com/writtenhq/written/internal/errors"
	"github.com/writtenhq/written/internal/identity"
	"github.com/writtenhq/written/internal/serverutil"
	"github.com/writtenhq/written/internal/written"
)

type (
	// Server handles every request of the written API: postings, titles,
	// scraps, subscriptions, and the feeds over them.
	Server struct {
		*http.Server

		repo     written.Repository
		verifier identity.Verifier

		fbOauthConfig  oauth2.Config
		secureCookie   *securecookie.SecureCookie
		httpsCookies   bool   // Whether or not HTTPS should be used for cookies
		ssoRedirectURL string // URL to redirect to after successful SSO login
	}

	ServerConfig struct {
		Port                 int
		CookieHashKey        []byte
		CookieBlockKey       []byte
		HttpsCookies         bool
		FacebookClientID     string
		FacebookClientSecret string
		CorsHeader           string
		SSORedirectURL       string
	}

	Params struct {
		fx.In

		Config   ServerConfig
		Repo     written.Repository
		Verifier identity.Verifier
	}
)

func NewServer(lc fx.Lifecycle, p Params) *Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter()}

	srvr := Server{
		repo:           p.Repo,
		verifier:       p.Verifier,
		secureCookie:   securecookie.New(p.Config.CookieHashKey, p.Config.CookieBlockKey),
		httpsCookies:   p.Config.HttpsCookies,
		ssoRedirectURL: p.Config.SSORedirectURL,
		fbOauthConfig: oauth2.Config{
			ClientID:     p.Config.FacebookClientID,
			ClientSecret: p.Config.FacebookClientSecret,
			Scopes:       []string{},
			Endpoint:     facebook.Endpoint,
		},
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", p.Config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{p.Config.CorsHeader}),
				handlers.AllowCredentials(),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}
	srvr.routes(r)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srvr.ListenAndServe()

			slog.Debug("started api server", "port", p.Config.Port)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srvr.Shutdown(ctx)
		},
	})

	return &srvr
}

func (s *Server) routes(r serverutil.ErrRouter) {
	r.Use(serverutil.AccessLogMiddleware) // Log everything

	// Session bootstrap
	r.HandleFuncE("/api/users", s.postSignup).Methods(http.MethodPost)
	r.HandleFuncE("/api/users/login", s.putLogin).Methods(http.MethodPut)
	r.HandleFuncE("/api/sso-login", s.handleSSORedirect).Methods(http.MethodGet)
	r.HandleFuncE("/api/sso-callback", s.handleSSOCallback).Methods(http.MethodGet)
	r.HandleFuncE("/api/logout", s.getLogout).Methods(http.MethodGet)

	// Anonymous reads. The viewer is still resolved when a session exists
	// so writers see their own private postings.
	anon := serverutil.ErrRouter{Router: r.NewRoute().Subrouter()}
	anon.HandleFuncE("/api/titles", s.getTitles).Methods(http.MethodGet)
	anon.HandleFuncE("/api/titles/today", s.getTodayTitle).Methods(http.MethodGet)
	anon.HandleFuncE("/api/titles/{titleID}/postings", s.getTitlePostings).Methods(http.MethodGet)
	anon.HandleFuncE("/api/postings/{postingID:[0-9]+}", s.getPosting).Methods(http.MethodGet)
	anon.HandleFuncE("/api/users/{userID}/postings", s.getUserPostings).Methods(http.MethodGet)

	authed := serverutil.ErrRouter{Router: r.NewRoute().Subrouter()}
	authed.Use(requireSessionMiddleware(s.secureCookie))

	// Users & subscriptions. Literal paths go first so mux doesn't
	// swallow them into {userID}.
	authed.HandleFuncE("/api/users/subscribed", s.getSubscribedWriters).Methods(http.MethodGet)
	authed.HandleFuncE("/api/users/subscriber", s.getSubscribers).Methods(http.MethodGet)
	authed.HandleFuncE("/api/users/me", s.putMe).Methods(http.MethodPut)
	authed.HandleFuncE("/api/users/{userID}", s.getUser).Methods(http.MethodGet)
	authed.HandleFuncE("/api/users/{userID:[0-9]+}/subscribe", s.postSubscribe).Methods(http.MethodPost)
	authed.HandleFuncE("/api/users/{userID:[0-9]+}/unsubscribe", s.postUnsubscribe).Methods(http.MethodPost)

	// Postings, scraps, and the two personal feeds
	authed.HandleFuncE("/api/postings", s.postPosting).Methods(http.MethodPost)
	authed.HandleFuncE("/api/postings/scrapped", s.getScrappedPostings).Methods(http.MethodGet)
	authed.HandleFuncE("/api/postings/subscribed", s.getSubscribedPostings).Methods(http.MethodGet)
	authed.HandleFuncE("/api/postings/{postingID:[0-9]+}", s.putPosting).Methods(http.MethodPut)
	authed.HandleFuncE("/api/postings/{postingID:[0-9]+}", s.deletePosting).Methods(http.MethodDelete)
	authed.HandleFuncE("/api/postings/{postingID:[0-9]+}/scrap", s.postScrap).Methods(http.MethodPost)
	authed.HandleFuncE("/api/postings/{postingID:[0-9]+}/unscrap", s.postUnscrap).Methods(http.MethodPost)

	// Titles
	authed.HandleFuncE("/api/titles", s.postTitle).Methods(http.MethodPost)
}

// decodeValid decodes and validates a request body. Malformed JSON becomes
// the invalid-payload errorcode so clients never see an uncoded envelope;
// Validate failures are already coded and pass through untouched.
func decodeValid[V serverutil.Validator](r io.Reader) (V, error) {
	v, err := serverutil.DecodeValid[V](r)
	if err != nil {
		wErr := &wrerrs.Error{}
		if !errors.As(err, &wErr) || wErr.Code == 0 {
			return v, written.ErrInvalidPayload
		}
	}

	return v, err
}
