package api

import (
	"net/http"
	"strconv"
	"time"

	goaway "github.com/TwiN/go-away"
	"github.com/gorilla/mux"

	"github.com/writtenhq/written/internal/serverutil"
	"github.com/writtenhq/written/internal/written"
)

type UserResp struct {
	ID            int64      `json:"id"`
	Nickname      string     `json:"nickname"`
	Description   string     `json:"description"`
	FirstPostedAt *time.Time `json:"first_posted_at"`
}

func apiUser(usr written.User, p written.Profile) UserResp {
	resp := UserResp{
		ID:          usr.ID,
		Nickname:    p.Nickname,
		Description: p.Description,
	}
	if p.FirstPostedAt.Valid {
		t := p.FirstPostedAt.Time
		resp.FirstPostedAt = &t
	}

	return resp
}

type SignupReq struct {
	FacebookID  string `json:"facebookid"`
	AccessToken string `json:"access_token"`
	Nickname    string `json:"nickname"`
}

func (req SignupReq) Validate() error {
	if req.FacebookID == "" || req.AccessToken == "" || req.Nickname == "" {
		return written.ErrInvalidPayload
	}
	if goaway.IsProfane(req.Nickname) {
		return written.ErrProfaneNickname
	}

	return nil
}

func (s *Server) postSignup(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	body, err := decodeValid[SignupReq](r.Body)
	if err != nil {
		return err
	}

	ident, err := s.verifier.Verify(ctx, body.FacebookID, body.AccessToken)
	if err != nil {
		return err
	}

	usr, err := s.repo.CreateUser(ctx, ident.FacebookID, ident.Name, body.Nickname)
	if err != nil {
		return err
	}
	profile, err := s.repo.Profile(ctx, usr.ID)
	if err != nil {
		return err
	}

	setSession(w, s.secureCookie, s.httpsCookies, sessionState{UserID: usr.ID})

	return serverutil.WriteJSON(w, http.StatusCreated, struct {
		User UserResp `json:"user"`
	}{User: apiUser(usr, profile)})
}

type LoginReq struct {
	FacebookID  string `json:"facebookid"`
	AccessToken string `json:"access_token"`
}

func (req LoginReq) Validate() error {
	if req.FacebookID == "" || req.AccessToken == "" {
		return written.ErrInvalidPayload
	}

	return nil
}

func (s *Server) putLogin(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	body, err := decodeValid[LoginReq](r.Body)
	if err != nil {
		return err
	}

	ident, err := s.verifier.Verify(ctx, body.FacebookID, body.AccessToken)
	if err != nil {
		return err
	}

	usr, err := s.repo.UserByFacebookID(ctx, ident.FacebookID)
	if err != nil {
		return err
	}
	profile, err := s.repo.Profile(ctx, usr.ID)
	if err != nil {
		return err
	}

	setSession(w, s.secureCookie, s.httpsCookies, sessionState{UserID: usr.ID})

	return serverutil.WriteJSON(w, http.StatusOK, struct {
		User UserResp `json:"user"`
	}{User: apiUser(usr, profile)})
}

// pathUserID resolves the {userID} variable, where the literal "me" means
// the session user.
func pathUserID(r *http.Request, sess sessionState) (int64, error) {
	raw := mux.Vars(r)["userID"]
	if raw == "me" {
		if sess.UserID == 0 {
			return 0, written.ErrNotAuthorized
		}
		return sess.UserID, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, written.ErrUserNotFound
	}

	return id, nil
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	userID, err := pathUserID(r, session(r, s.secureCookie))
	if err != nil {
		return err
	}

	usr, err := s.repo.User(ctx, userID)
	if err != nil {
		return err
	}
	profile, err := s.repo.Profile(ctx, usr.ID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiUser(usr, profile))
}

type UpdateMeReq struct {
	Nickname    *string `json:"nickname"`
	Description *string `json:"description"`
}

func (req UpdateMeReq) Validate() error {
	if req.Nickname != nil {
		if *req.Nickname == "" {
			return written.ErrInvalidPayload
		}
		if goaway.IsProfane(*req.Nickname) {
			return written.ErrProfaneNickname
		}
	}

	return nil
}

func (s *Server) putMe(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	body, err := decodeValid[UpdateMeReq](r.Body)
	if err != nil {
		return err
	}

	profile, err := s.repo.UpdateProfile(ctx, sess.UserID, written.UpdateProfileArgs{
		Nickname:    body.Nickname,
		Description: body.Description,
	})
	if err != nil {
		return err
	}

	usr, err := s.repo.User(ctx, sess.UserID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiUser(usr, profile))
}

func (s *Server) getUserPostings(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	userID, err := pathUserID(r, sess)
	if err != nil {
		return err
	}

	args, err := pageArgs(r, userPageSize)
	if err != nil {
		return err
	}

	page, err := s.repo.PostingsByUser(ctx, userID, sess.UserID, args)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPostingList(page))
}

func (s *Server) postSubscribe(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	writerID, err := pathUserID(r, sess)
	if err != nil {
		return err
	}

	if err := s.repo.Subscribe(ctx, sess.UserID, writerID); err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) postUnsubscribe(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	writerID, err := pathUserID(r, sess)
	if err != nil {
		return err
	}

	if err := s.repo.Unsubscribe(ctx, sess.UserID, writerID); err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) getSubscribedWriters(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	args, err := pageArgs(r, writerListPageSize)
	if err != nil {
		return err
	}

	page, err := s.repo.SubscribedWriters(ctx, sess.UserID, args)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, WriterListResp{
		Writers: apiWriters(page.Items),
		HasNext: page.HasNext,
		Cursor:  page.Cursor,
	})
}

func (s *Server) getSubscribers(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	args, err := pageArgs(r, writerListPageSize)
	if err != nil {
		return err
	}

	page, err := s.repo.Subscribers(ctx, sess.UserID, args)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, SubscriberListResp{
		Subscribers: apiWriters(page.Items),
		HasNext:     page.HasNext,
		Cursor:      page.Cursor,
	})
}
