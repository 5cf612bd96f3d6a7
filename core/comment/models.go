package comment

import (
	"time"

	"github.com/trezcool/vidyalaya/core"
)

// RecentDays is how far back comments are listed.
const RecentDays = 10

var (
	ErrNotFound         = core.NewNotFoundError("comment not found")
	ErrEmptyComment     = core.NewFieldError("comment", "Please enter a comment")
	ErrNotCommenter     = core.NewPermissionError("You must be a teacher or admin to add comments")
	ErrNotAuthor        = core.NewPermissionError("You can only delete your own comments")
	ErrPermissionDenied = core.NewPermissionError("You do not have permission to comment on this student")
)

type Comment struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	Text          string    `json:"comment"`
	CommenterRole string    `json:"commenter_role"` // teacher | admin
	CommentedBy   string    `json:"commented_by"`
	CommenterName string    `json:"commenter_name"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

type NewComment struct {
	StudentID string `json:"student_id" validate:"required"`
	Text      string `json:"comment" validate:"max=2000"`
}
