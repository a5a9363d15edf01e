package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/medshare/backend/core/post"
)

type postRepository struct {
	db   *postTable
	like *likeTable
}

var _ post.Repository = (*postRepository)(nil)

func NewPostRepository(db *DB) post.Repository {
	return &postRepository{db: db.post, like: db.like}
}

func (repo *postRepository) query() []post.Post {
	posts := make([]post.Post, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		posts = append(posts, *p)
	}
	return posts
}

func (repo *postRepository) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.NewString()
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *postRepository) GetPostByID(ctx context.Context, id string) (post.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return post.Post{}, post.ErrNotFound
}

func (repo *postRepository) FilterPosts(ctx context.Context, filter post.QueryFilter) ([]post.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	posts := make([]post.Post, 0)
	for _, p := range repo.query() {
		if p.UniversityID != filter.UniversityID || p.Year != filter.Year {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		posts = append(posts, p)
	}

	// newest first
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

func (repo *postRepository) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[p.ID]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	orig.Type = p.Type
	orig.Title = p.Title
	orig.Subject = p.Subject
	orig.Professor = p.Professor
	orig.Content = p.Content
	orig.Files = p.Files
	orig.EditedAt = p.EditedAt
	return *orig, nil
}

func (repo *postRepository) DeletePost(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return post.ErrNotFound
	}
	delete(repo.db.table, id)

	repo.like.mutex.Lock()
	defer repo.like.mutex.Unlock()
	for key := range repo.like.table {
		if key.postID == id {
			delete(repo.like.table, key)
		}
	}
	return nil
}

func (repo *postRepository) ToggleLike(ctx context.Context, userID, postID string) (bool, int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.like.mutex.Lock()
	defer repo.like.mutex.Unlock()

	p, ok := repo.db.table[postID]
	if !ok {
		return false, 0, post.ErrNotFound
	}

	key := likeKey{userID: userID, postID: postID}
	if _, liked := repo.like.table[key]; liked {
		delete(repo.like.table, key)
		if p.Likes > 0 {
			p.Likes--
		}
		return false, p.Likes, nil
	}
	repo.like.table[key] = struct{}{}
	p.Likes++
	return true, p.Likes, nil
}

func (repo *postRepository) GetLikedPostIDs(ctx context.Context, userID string) ([]string, error) {
	repo.like.mutex.RLock()
	defer repo.like.mutex.RUnlock()

	ids := make([]string, 0)
	for key := range repo.like.table {
		if key.userID == userID {
			ids = append(ids, key.postID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
