package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"

	"github.com/writtenhq/written/internal/serverutil"
	"github.com/writtenhq/written/internal/written"
)

var stripPolicy = bluemonday.StrictPolicy()

// Removes html tags from user-supplied content before it's stored.
func sanitize(s string) string {
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}

func pathPostingID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["postingID"], 10, 64)
	if err != nil {
		return 0, written.ErrPostingNotFound
	}

	return id, nil
}

type CreatePostingReq struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Alignment string `json:"alignment"`
	IsPublic  *bool  `json:"is_public"`
}

func (req CreatePostingReq) Validate() error {
	if req.Title == "" || sanitize(req.Content) == "" {
		return written.ErrInvalidPayload
	}
	if req.Alignment != "" && !written.Alignment(req.Alignment).Valid() {
		return written.ErrInvalidPayload
	}

	return nil
}

func (s *Server) postPosting(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	body, err := decodeValid[CreatePostingReq](r.Body)
	if err != nil {
		return err
	}

	title, err := s.repo.TitleByName(ctx, body.Title)
	if err != nil {
		return err
	}

	alignment := written.AlignmentLeft
	if body.Alignment != "" {
		alignment = written.Alignment(body.Alignment)
	}
	isPublic := true
	if body.IsPublic != nil {
		isPublic = *body.IsPublic
	}

	posting, err := s.repo.CreatePosting(ctx, written.Posting{
		TitleID:   title.ID,
		WriterID:  sess.UserID,
		Content:   sanitize(body.Content),
		Alignment: alignment,
		IsPublic:  isPublic,
	})
	if err != nil {
		return err
	}

	row, err := s.repo.PostingDetail(ctx, posting.ID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusCreated, apiPosting(row))
}

func (s *Server) getPosting(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	postingID, err := pathPostingID(r)
	if err != nil {
		return err
	}

	row, err := s.repo.PostingDetail(ctx, postingID)
	if err != nil {
		return err
	}

	// A private posting looks absent to anyone but its writer.
	if !row.IsPublic && row.WriterID != sess.UserID {
		return written.ErrPostingNotFound
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPosting(row))
}

type UpdatePostingReq struct {
	Content   *string `json:"content"`
	Alignment *string `json:"alignment"`
	IsPublic  *bool   `json:"is_public"`
}

func (req UpdatePostingReq) Validate() error {
	if req.Content != nil && sanitize(*req.Content) == "" {
		return written.ErrInvalidPayload
	}
	if req.Alignment != nil && !written.Alignment(*req.Alignment).Valid() {
		return written.ErrInvalidPayload
	}

	return nil
}

func (s *Server) putPosting(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	postingID, err := pathPostingID(r)
	if err != nil {
		return err
	}

	body, err := decodeValid[UpdatePostingReq](r.Body)
	if err != nil {
		return err
	}

	posting, err := s.repo.Posting(ctx, postingID)
	if err != nil {
		return err
	}
	if posting.WriterID != sess.UserID {
		return written.ErrNotAuthorized
	}

	args := written.UpdatePostingArgs{IsPublic: body.IsPublic}
	if body.Content != nil {
		content := sanitize(*body.Content)
		args.Content = &content
	}
	if body.Alignment != nil {
		alignment := written.Alignment(*body.Alignment)
		args.Alignment = &alignment
	}

	if _, err := s.repo.UpdatePosting(ctx, postingID, args); err != nil {
		return err
	}

	row, err := s.repo.PostingDetail(ctx, postingID)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPosting(row))
}

func (s *Server) deletePosting(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	postingID, err := pathPostingID(r)
	if err != nil {
		return err
	}

	posting, err := s.repo.Posting(ctx, postingID)
	if err != nil {
		return err
	}
	if posting.WriterID != sess.UserID {
		return written.ErrNotAuthorized
	}

	if err := s.repo.DeletePosting(ctx, postingID); err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) postScrap(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	postingID, err := pathPostingID(r)
	if err != nil {
		return err
	}

	if err := s.repo.CreateScrap(ctx, sess.UserID, postingID); err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) postUnscrap(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	postingID, err := pathPostingID(r)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteScrap(ctx, sess.UserID, postingID); err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) getScrappedPostings(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	args, err := pageArgs(r, scrapPageSize)
	if err != nil {
		return err
	}

	page, err := s.repo.ScrappedPostings(ctx, sess.UserID, args)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, StoredPostingListResp{
		StoredPostings: apiPostings(page.Items, func(row written.ScrappedPostingRow) PostingResp {
			return apiPosting(row.PostingRow)
		}),
		HasNext: page.HasNext,
		Cursor:  page.Cursor,
	})
}

func (s *Server) getSubscribedPostings(w http.ResponseWriter, r *http.Request) error {
	var (
		ctx  = r.Context()
		sess = session(r, s.secureCookie)
	)

	args, err := pageArgs(r, subscribedPageSize)
	if err != nil {
		return err
	}

	page, err := s.repo.SubscribedPostings(ctx, sess.UserID, args)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, apiPostingList(page))
}
