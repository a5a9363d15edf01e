package post

import (
	"time"

	"github.com/medshare/backend/core"
)

// Post types
const (
	TypeExam     = "exam"     // 試験対策
	TypeInfo     = "info"     // 試験・授業情報
	TypeClinical = "clinical" // 実習情報
)

// AllTypes lists the valid post types, in display order.
var AllTypes = []string{TypeExam, TypeInfo, TypeClinical}

// File is a material attached to a post. Data is a data-URL content reference.
type File struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type Post struct {
	ID           string     `json:"id"`
	UniversityID string     `json:"university_id"`
	Year         string     `json:"year"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Subject      string     `json:"subject"`
	Professor    string     `json:"professor,omitempty"`
	Content      string     `json:"content,omitempty"`
	Files        []File     `json:"files"`
	Likes        int        `json:"likes"`
	AuthorID     string     `json:"author_id"`
	CreatedAt    time.Time  `json:"created_at"`          // UTC
	EditedAt     *time.Time `json:"edited_at,omitempty"` // UTC; nil when never edited
}

// NewPost contains information needed to create a new Post.
type NewPost struct {
	UniversityID string `json:"university_id" validate:"required,university"`
	Year         string `json:"year" validate:"required"`
	Type         string `json:"type" validate:"required,posttype"`
	Title        string `json:"title" validate:"required"`
	Subject      string `json:"subject" validate:"required"`
	Professor    string `json:"professor"`
	Content      string `json:"content"`
	Files        []File `json:"files"`
}

func (np *NewPost) Validate() error {
	np.UniversityID = core.CleanString(np.UniversityID, true /* lower */)
	np.Year = core.CleanString(np.Year, true /* lower */)
	np.Type = core.CleanString(np.Type, true /* lower */)
	np.Title = core.CleanString(np.Title)
	np.Subject = core.CleanString(np.Subject)
	np.Professor = core.CleanString(np.Professor)
	return core.Validate.Struct(np)
}

// UpdatePost defines what information may be provided to modify an existing
// Post. The owning user and scope are immutable once set. Required fields
// keep their current values when omitted or empty. An absent files field
// keeps the current attachments; an explicit empty list clears them.
type UpdatePost struct {
	Type      string `json:"type" validate:"omitempty,posttype"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Professor string `json:"professor"`
	Content   string `json:"content"`
	Files     []File `json:"files"`
}

func (up *UpdatePost) Validate(orig Post) error {
	up.Type = core.CleanString(up.Type, true /* lower */)
	if up.Type == "" {
		up.Type = orig.Type
	}
	title := core.CleanString(up.Title)
	if title != "" {
		up.Title = title
	} else {
		up.Title = orig.Title
	}
	subject := core.CleanString(up.Subject)
	if subject != "" {
		up.Subject = subject
	} else {
		up.Subject = orig.Subject
	}
	up.Professor = core.CleanString(up.Professor)
	// a nil slice means the field was absent from the payload
	if up.Files == nil {
		up.Files = orig.Files
	}
	return core.Validate.Struct(up)
}

// QueryFilter scopes a timeline query. Type is optional ("" or "all" matches
// every type).
type QueryFilter struct {
	UniversityID string `query:"university"`
	Year         string `query:"year"`
	Type         string `query:"type"`
}

func (qf *QueryFilter) Clean() {
	qf.UniversityID = core.CleanString(qf.UniversityID, true /* lower */)
	qf.Year = core.CleanString(qf.Year, true /* lower */)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	if qf.Type == "all" {
		qf.Type = ""
	}
}
