package post

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("post not found")
	ErrNotOwner = errors.New("permission denied")
)

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		GetPostByID(ctx context.Context, id string) (Post, error)
		// FilterPosts applies AND operation on available QueryFilter fields,
		// ordered by created_at DESC then id DESC.
		FilterPosts(ctx context.Context, filter QueryFilter) ([]Post, error)
		UpdatePost(ctx context.Context, p Post) (Post, error)
		// DeletePost removes the post and cascades deletion of its likes.
		DeletePost(ctx context.Context, id string) error
		// ToggleLike flips the (userID, postID) like row and adjusts the
		// denormalized counter in the same transaction; the decrement is
		// floored at 0.
		ToggleLike(ctx context.Context, userID, postID string) (liked bool, likes int, err error)
		GetLikedPostIDs(ctx context.Context, userID string) ([]string, error)
	}

	// PointsAwarder applies the points schedule for a post creation event
	// and returns the earned delta.
	PointsAwarder interface {
		AwardPostPoints(ctx context.Context, userID string, fileCount int) (int, error)
	}

	Service interface {
		Create(ctx context.Context, authorID string, np NewPost) (Post, int, error)
		GetByID(ctx context.Context, id string) (Post, error)
		Update(ctx context.Context, actorID, id string, up UpdatePost) (Post, error)
		Delete(ctx context.Context, actorID, id string) error
		ToggleLike(ctx context.Context, userID, id string) (bool, int, error)
		Timeline(ctx context.Context, filter QueryFilter) ([]Post, error)
		LikedPostIDs(ctx context.Context, userID string) ([]string, error)
	}

	service struct {
		repo    Repository
		awarder PointsAwarder
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, awarder PointsAwarder) Service {
	return &service{repo: repo, awarder: awarder}
}

// Create persists the post and applies the creation points award. Returns
// the created post and the earned points.
func (svc *service) Create(ctx context.Context, authorID string, np NewPost) (Post, int, error) {
	p := Post{
		UniversityID: np.UniversityID,
		Year:         np.Year,
		Type:         np.Type,
		Title:        np.Title,
		Subject:      np.Subject,
		Professor:    np.Professor,
		Content:      np.Content,
		Files:        np.Files,
		AuthorID:     authorID,
		CreatedAt:    time.Now().UTC(),
	}
	p, err := svc.repo.CreatePost(ctx, p)
	if err != nil {
		return Post{}, 0, err
	}

	earned, err := svc.awarder.AwardPostPoints(ctx, authorID, len(p.Files))
	if err != nil {
		return Post{}, 0, err
	}
	return p, earned, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPostByID(ctx, id)
}

// guardOwner gates post mutations to the recorded owner: absent posts fail
// with ErrNotFound, foreign posts with ErrNotOwner.
func (svc *service) guardOwner(ctx context.Context, actorID, id string) (Post, error) {
	p, err := svc.repo.GetPostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if p.AuthorID != actorID {
		return Post{}, ErrNotOwner
	}
	return p, nil
}

// Update edits an owned post. Edits never re-trigger point awards, even when
// files are added.
func (svc *service) Update(ctx context.Context, actorID, id string, up UpdatePost) (Post, error) {
	orig, err := svc.guardOwner(ctx, actorID, id)
	if err != nil {
		return Post{}, err
	}
	if err = up.Validate(orig); err != nil {
		return Post{}, err
	}

	orig.Type = up.Type
	orig.Title = up.Title
	orig.Subject = up.Subject
	orig.Professor = up.Professor
	orig.Content = up.Content
	orig.Files = up.Files
	now := time.Now().UTC()
	orig.EditedAt = &now

	return svc.repo.UpdatePost(ctx, orig)
}

func (svc *service) Delete(ctx context.Context, actorID, id string) error {
	if _, err := svc.guardOwner(ctx, actorID, id); err != nil {
		return err
	}
	return svc.repo.DeletePost(ctx, id)
}

// ToggleLike flips the user's like on the post and returns the new liked
// state with the post's like count.
func (svc *service) ToggleLike(ctx context.Context, userID, id string) (bool, int, error) {
	if _, err := svc.repo.GetPostByID(ctx, id); err != nil {
		return false, 0, err
	}
	return svc.repo.ToggleLike(ctx, userID, id)
}

func (svc *service) Timeline(ctx context.Context, filter QueryFilter) ([]Post, error) {
	filter.Clean()
	return svc.repo.FilterPosts(ctx, filter)
}

func (svc *service) LikedPostIDs(ctx context.Context, userID string) ([]string, error) {
	return svc.repo.GetLikedPostIDs(ctx, userID)
}
