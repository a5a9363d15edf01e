package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/medshare/backend/core/post"
)

type postRepository struct {
	db *sqlx.DB
}

var _ post.Repository = (*postRepository)(nil)

func NewPostRepository(db *sqlx.DB) post.Repository {
	return &postRepository{db: db}
}

type dbPost struct {
	ID           string       `db:"id"`
	UniversityID string       `db:"university_id"`
	Year         string       `db:"year"`
	Type         string       `db:"type"`
	Title        string       `db:"title"`
	Subject      string       `db:"subject"`
	Professor    string       `db:"professor"`
	Content      string       `db:"content"`
	Files        []byte       `db:"files"` // jsonb
	Likes        int          `db:"likes"`
	AuthorID     string       `db:"author_id"`
	CreatedAt    time.Time    `db:"created_at"`
	EditedAt     sql.NullTime `db:"edited_at"`
}

func (dp dbPost) toPost() (post.Post, error) {
	p := post.Post{
		ID:           dp.ID,
		UniversityID: dp.UniversityID,
		Year:         dp.Year,
		Type:         dp.Type,
		Title:        dp.Title,
		Subject:      dp.Subject,
		Professor:    dp.Professor,
		Content:      dp.Content,
		Likes:        dp.Likes,
		AuthorID:     dp.AuthorID,
		CreatedAt:    dp.CreatedAt.UTC(),
	}
	if dp.EditedAt.Valid {
		t := dp.EditedAt.Time.UTC()
		p.EditedAt = &t
	}
	if len(dp.Files) > 0 {
		if err := json.Unmarshal(dp.Files, &p.Files); err != nil {
			return post.Post{}, errors.Wrap(err, "unmarshalling post files")
		}
	}
	return p, nil
}

func marshalFiles(files []post.File) ([]byte, error) {
	if files == nil {
		files = []post.File{}
	}
	data, err := json.Marshal(files)
	return data, errors.Wrap(err, "marshalling post files")
}

const postColumns = `id, university_id, year, type, title, subject, professor, content, files, likes, author_id, created_at, edited_at`

func (repo *postRepository) CreatePost(ctx context.Context, p post.Post) (post.Post, error) {
	files, err := marshalFiles(p.Files)
	if err != nil {
		return post.Post{}, err
	}

	var dp dbPost
	err = repo.db.QueryRowxContext(ctx,
		`INSERT INTO posts (university_id, year, type, title, subject, professor, content, files, author_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+postColumns,
		p.UniversityID, p.Year, p.Type, p.Title, p.Subject, p.Professor, p.Content, files, p.AuthorID, p.CreatedAt,
	).StructScan(&dp)
	if err != nil {
		return post.Post{}, errors.Wrap(err, "creating post")
	}
	return dp.toPost()
}

func (repo *postRepository) GetPostByID(ctx context.Context, id string) (post.Post, error) {
	if !validUUID(id) {
		return post.Post{}, post.ErrNotFound
	}
	var dp dbPost
	err := repo.db.GetContext(ctx, &dp, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, errors.Wrap(err, "getting post by ID")
	}
	return dp.toPost()
}

func (repo *postRepository) FilterPosts(ctx context.Context, filter post.QueryFilter) ([]post.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE university_id = $1 AND year = $2`
	args := []interface{}{filter.UniversityID, filter.Year}
	if filter.Type != "" {
		q += ` AND type = $3`
		args = append(args, filter.Type)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	var dps []dbPost
	if err := repo.db.SelectContext(ctx, &dps, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering posts")
	}
	posts := make([]post.Post, 0, len(dps))
	for _, dp := range dps {
		p, err := dp.toPost()
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (repo *postRepository) UpdatePost(ctx context.Context, p post.Post) (post.Post, error) {
	files, err := marshalFiles(p.Files)
	if err != nil {
		return post.Post{}, err
	}

	var dp dbPost
	err = repo.db.QueryRowxContext(ctx,
		`UPDATE posts
		 SET type = $2, title = $3, subject = $4, professor = $5, content = $6, files = $7, edited_at = $8
		 WHERE id = $1
		 RETURNING `+postColumns,
		p.ID, p.Type, p.Title, p.Subject, p.Professor, p.Content, files, p.EditedAt,
	).StructScan(&dp)
	if err != nil {
		if err == sql.ErrNoRows {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, errors.Wrap(err, "updating post")
	}
	return dp.toPost()
}

func (repo *postRepository) DeletePost(ctx context.Context, id string) error {
	// likes go with the post via FK cascade
	res, err := repo.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return checkAffected(res, post.ErrNotFound)
}

// ToggleLike flips the like row and the denormalized counter in one
// transaction. The unique (user_id, post_id) constraint keeps a racing
// double-insert from double-incrementing.
func (repo *postRepository) ToggleLike(ctx context.Context, userID, postID string) (bool, int, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return false, 0, errors.Wrap(err, "deleting like")
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, 0, errors.Wrap(err, "deleting like")
	}

	var liked bool
	var likes int
	if deleted > 0 {
		// unliked; floor the counter at 0
		err = tx.GetContext(ctx, &likes,
			`UPDATE posts SET likes = GREATEST(likes - 1, 0) WHERE id = $1 RETURNING likes`, postID)
	} else {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO likes (user_id, post_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, postID)
		if err != nil {
			return false, 0, errors.Wrap(err, "inserting like")
		}
		var inserted int64
		if inserted, err = res.RowsAffected(); err != nil {
			return false, 0, errors.Wrap(err, "inserting like")
		}
		liked = true
		if inserted > 0 {
			err = tx.GetContext(ctx, &likes,
				`UPDATE posts SET likes = likes + 1 WHERE id = $1 RETURNING likes`, postID)
		} else {
			// lost the race to a concurrent like; report current count
			err = tx.GetContext(ctx, &likes, `SELECT likes FROM posts WHERE id = $1`, postID)
		}
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return false, 0, post.ErrNotFound
		}
		return false, 0, errors.Wrap(err, "updating like count")
	}

	if err = tx.Commit(); err != nil {
		return false, 0, errors.Wrap(err, "committing transaction")
	}
	return liked, likes, nil
}

func (repo *postRepository) GetLikedPostIDs(ctx context.Context, userID string) ([]string, error) {
	ids := make([]string, 0)
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT post_id FROM likes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "getting liked post IDs")
	}
	return ids, nil
}
