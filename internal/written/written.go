// Package written holds the domain types and service surfaces for the
// posting backend: users write short postings under shared titles, follow
// other writers, and scrap (bookmark) public postings.
package written

import (
	"context"
	"database/sql"
	"time"

	"github.com/writtenhq/written/internal/pagination"
)

type (
	// User is an account backed by a third-party identity.
	User struct {
		ID         int64     `db:"id"`
		FacebookID string    `db:"facebook_id"`
		Username   string    `db:"username"`
		CreatedAt  time.Time `db:"created_at"`
	}

	// Profile is the public-facing half of a user, 1:1 with User.
	Profile struct {
		UserID      int64  `db:"user_id"`
		Nickname    string `db:"nickname"`
		Description string `db:"description"`

		// Set once, when the user creates their first posting.
		FirstPostedAt sql.NullTime `db:"first_posted_at"`
	}

	// Title is a shared topic tag postings are grouped under.
	Title struct {
		ID         int64     `db:"id"`
		Name       string    `db:"name"`
		IsOfficial bool      `db:"is_official"`
		CreatedAt  time.Time `db:"created_at"`
		UpdatedAt  time.Time `db:"updated_at"`
	}

	// Posting is a short text written under a title.
	Posting struct {
		ID        int64     `db:"id"`
		TitleID   int64     `db:"title_id"`
		WriterID  int64     `db:"writer_id"`
		Content   string    `db:"content"`
		Alignment Alignment `db:"alignment"`
		IsPublic  bool      `db:"is_public"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	// Scrap is a user's bookmark of a public posting.
	// At most one scrap exists per (user, posting) pair.
	Scrap struct {
		ID        int64     `db:"id"`
		UserID    int64     `db:"user_id"`
		PostingID int64     `db:"posting_id"`
		CreatedAt time.Time `db:"created_at"`
	}

	// Subscription follows a writer's stream. Rows are toggled inactive
	// rather than deleted so re-subscribing reuses the same row.
	Subscription struct {
		ID           int64     `db:"id"`
		SubscriberID int64     `db:"subscriber_id"`
		WriterID     int64     `db:"writer_id"`
		IsActive     bool      `db:"is_active"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}
)

// Alignment is the text alignment of a posting.
type Alignment string

const (
	AlignmentLeft   Alignment = "LEFT"
	AlignmentCenter Alignment = "CENTER"
)

func (a Alignment) Valid() bool {
	return a == AlignmentLeft || a == AlignmentCenter
}

type (
	// Holds the optional fields for updating a posting.
	UpdatePostingArgs struct {
		Content   *string
		Alignment *Alignment
		IsPublic  *bool
	}

	// Holds the optional fields for updating a profile.
	UpdateProfileArgs struct {
		Nickname    *string
		Description *string
	}

	UserService interface {
		// CreateUser creates the user and its profile in one step.
		CreateUser(ctx context.Context, facebookID, username, nickname string) (User, error)
		User(ctx context.Context, id int64) (User, error)
		UserByFacebookID(ctx context.Context, facebookID string) (User, error)
		Profile(ctx context.Context, userID int64) (Profile, error)
		UpdateProfile(ctx context.Context, userID int64, args UpdateProfileArgs) (Profile, error)
	}

	TitleService interface {
		CreateTitle(ctx context.Context, name string) (Title, error)
		Title(ctx context.Context, id int64) (Title, error)
		TitleByName(ctx context.Context, name string) (Title, error)
		// TodayTitle is the single featured title: the most recently
		// created official one.
		TodayTitle(ctx context.Context) (Title, error)
		Titles(ctx context.Context, args TitleFeedArgs) (pagination.Page[Title], error)
	}

	PostingService interface {
		CreatePosting(ctx context.Context, p Posting) (Posting, error)
		Posting(ctx context.Context, id int64) (Posting, error)
		// PostingDetail returns the denormalized join row for a single posting.
		PostingDetail(ctx context.Context, id int64) (PostingRow, error)
		// UpdatePosting applies the partial update. Flipping is_public from
		// true to false deletes every scrap of the posting in the same
		// transaction.
		UpdatePosting(ctx context.Context, id int64, args UpdatePostingArgs) (Posting, error)
		DeletePosting(ctx context.Context, id int64) error

		PostingsByTitle(ctx context.Context, titleID int64, page PageArgs) (pagination.Page[PostingRow], error)
		// PostingsByUser returns the writer's stream. The writer sees every
		// posting; anyone else only sees public ones. viewerID of zero means
		// anonymous.
		PostingsByUser(ctx context.Context, userID, viewerID int64, page PageArgs) (pagination.Page[PostingRow], error)
		// ScrappedPostings pages over the user's scraps; the cursor domain is
		// the scrap id, not the posting id.
		ScrappedPostings(ctx context.Context, userID int64, page PageArgs) (pagination.Page[ScrappedPostingRow], error)
		// SubscribedPostings is the feed of public postings by writers the
		// user actively subscribes to.
		SubscribedPostings(ctx context.Context, userID int64, page PageArgs) (pagination.Page[PostingRow], error)
	}

	ScrapService interface {
		CreateScrap(ctx context.Context, userID, postingID int64) error
		DeleteScrap(ctx context.Context, userID, postingID int64) error
	}

	SubscriptionService interface {
		Subscribe(ctx context.Context, subscriberID, writerID int64) error
		Unsubscribe(ctx context.Context, subscriberID, writerID int64) error
		SubscribedWriters(ctx context.Context, subscriberID int64, page PageArgs) (pagination.Page[WriterRow], error)
		Subscribers(ctx context.Context, writerID int64, page PageArgs) (pagination.Page[WriterRow], error)
	}

	// Repository is everything the persistence layer provides.
	Repository interface {
		UserService
		TitleService
		PostingService
		ScrapService
		SubscriptionService
	}
)
