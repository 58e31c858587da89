package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
)

const sessionCookieName = "written_session"

// Describes a user's sessionState that's persisted to their cookie.
type sessionState struct {
	State  string // For SSO
	UserID int64
}

// Fetches the current session tied to the request.
func session(r *http.Request, secureCookie *securecookie.SecureCookie) sessionState {
	cookie, err := r.Cookie(sessionCookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return sessionState{}
	}
	if err != nil {
		slog.Error("error fetching cookie", "err", err)
		return sessionState{}
	}

	value := sessionState{}
	if err := secureCookie.Decode(sessionCookieName, cookie.Value, &value); err != nil {
		slog.Error("error decoding cookie", "err", err)
		return sessionState{}
	}

	return value
}

// Sets the session on the request.
func setSession(w http.ResponseWriter, secureCookie *securecookie.SecureCookie, https bool, sess sessionState) {
	encoded, err := secureCookie.Encode(sessionCookieName, sess)
	if err != nil {
		slog.Error("error encoding cookie", "err", err)
		return
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    encoded,
		Path:     "/",
		Secure:   https,
		HttpOnly: true,
	}
	http.SetCookie(w, cookie)
}

func requireSessionMiddleware(sc *securecookie.SecureCookie) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := session(r, sc)
			if state.UserID == 0 {
				http.Error(w, "Unauthenticated", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Redirects the user to the SSO login page.
func (s *Server) handleSSORedirect(w http.ResponseWriter, r *http.Request) error {
	// Create a state to store as part of the flow
	state := sessionState{
		State: uuid.NewString(),
	}
	setSession(w, s.secureCookie, s.httpsCookies, state)

	http.Redirect(w, r, s.fbOauthConfig.AuthCodeURL(state.State), http.StatusTemporaryRedirect)
	return nil
}

// Handles the code coming back from facebook. Only users who already
// signed up can come in this way; there's no nickname to collect here.
func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) error {
	// Check the state and error
	sess := session(r, s.secureCookie)
	q := r.URL.Query()
	if q.Get("state") != sess.State {
		http.Redirect(w, r, "/welcome?error="+url.QueryEscape("invalid_state"), http.StatusFound)
		return nil
	}
	if q.Get("error") != "" {
		http.Redirect(w, r, "/welcome?error="+url.QueryEscape(q.Get("error")), http.StatusFound)
		return nil
	}

	// Exchange:
	code := r.URL.Query().Get("code")
	tok, err := s.fbOauthConfig.Exchange(r.Context(), code)
	if err != nil {
		http.Redirect(w, r, "/welcome?error="+url.QueryEscape(err.Error()), http.StatusFound)
		return nil
	}

	// Get some details about our person
	client := s.fbOauthConfig.Client(r.Context(), tok)
	resp, err := client.Get("https://graph.facebook.com/v7.0/me")
	if err != nil {
		http.Redirect(w, r, "/welcome?error="+url.QueryEscape(err.Error()), http.StatusFound)
		return nil
	}
	defer resp.Body.Close()

	type userInfo struct {
		FacebookID string `json:"id"`
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		http.Redirect(w, r, "/welcome?error="+url.QueryEscape(err.Error()), http.StatusFound)
		return nil
	}

	usr, err := s.repo.UserByFacebookID(r.Context(), info.FacebookID)
	if err != nil {
		http.Redirect(w, r, "/welcome?error="+url.QueryEscape("signup_required"), http.StatusFound)
		return nil
	}

	// Start a session
	setSession(w, s.secureCookie, s.httpsCookies, sessionState{
		UserID: usr.ID,
	})

	// Use the configured redirect URL, defaulting to "/" if not set
	redirectURL := s.ssoRedirectURL
	if redirectURL == "" {
		redirectURL = "/"
	}
	http.Redirect(w, r, redirectURL, http.StatusFound)
	return nil
}

func (s *Server) getLogout(w http.ResponseWriter, r *http.Request) error {
	setSession(w, s.secureCookie, s.httpsCookies, sessionState{})

	http.Redirect(w, r, "/welcome", http.StatusFound)

	return nil
}
