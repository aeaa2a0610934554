package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ sentiment.PostFetcher = (*PostRepository)(nil)

// postRow mirrors one row of the posts table. Comments are stored as parallel arrays.
type postRow struct {
	ID               string    `ch:"id"`
	Source           string    `ch:"source"`
	Title            string    `ch:"title"`
	URL              string    `ch:"url"`
	CreatedAt        time.Time `ch:"created_at"`
	Score            int64     `ch:"score"`
	UpvoteRatio      float64   `ch:"upvote_ratio"`
	NumComments      int64     `ch:"num_comments"`
	TopCommentScores []int64   `ch:"top_comment_scores"`
	CommentBodies    []string  `ch:"comment_bodies"`
	CommentVotes     []int64   `ch:"comment_votes"`
}

func (r postRow) toDomain() sentiment.RawPost {
	top := make([]int, len(r.TopCommentScores))
	for i, s := range r.TopCommentScores {
		top[i] = int(s)
	}

	comments := make([]sentiment.Comment, 0, len(r.CommentBodies))
	for i, body := range r.CommentBodies {
		var votes int
		if i < len(r.CommentVotes) {
			votes = int(r.CommentVotes[i])
		}
		comments = append(comments, sentiment.Comment{Body: body, Votes: votes})
	}

	return sentiment.RawPost{
		ID:         r.ID,
		Source:     r.Source,
		Title:      r.Title,
		ArticleURL: r.URL,
		Timestamp:  r.CreatedAt,
		Engagement: sentiment.Engagement{
			Score:            int(r.Score),
			UpvoteRatio:      r.UpvoteRatio,
			NumComments:      int(r.NumComments),
			TopCommentScores: top,
		},
		Comments: comments,
	}
}

func postRowFromDomain(p sentiment.RawPost) postRow {
	top := make([]int64, len(p.Engagement.TopCommentScores))
	for i, s := range p.Engagement.TopCommentScores {
		top[i] = int64(s)
	}
	bodies := make([]string, len(p.Comments))
	votes := make([]int64, len(p.Comments))
	for i, c := range p.Comments {
		bodies[i] = c.Body
		votes[i] = int64(c.Votes)
	}

	return postRow{
		ID:               p.ID,
		Source:           p.Source,
		Title:            p.Title,
		URL:              p.ArticleURL,
		CreatedAt:        p.Timestamp.UTC(),
		Score:            int64(p.Engagement.Score),
		UpvoteRatio:      p.Engagement.UpvoteRatio,
		NumComments:      int64(p.Engagement.NumComments),
		TopCommentScores: top,
		CommentBodies:    bodies,
		CommentVotes:     votes,
	}
}

// PostRepository reads ingested social posts from ClickHouse
type PostRepository struct {
	conn driver.Conn
}

// NewPostRepository creates a new post repository
func NewPostRepository(conn driver.Conn) *PostRepository {
	return &PostRepository{conn: conn}
}

// buildPostQuery renders the select for q. Query text is matched case-insensitively
// against the title.
func buildPostQuery(q sentiment.PostQuery) (string, []interface{}) {
	sql := `
		SELECT id, source, title, url, created_at, score, upvote_ratio, num_comments,
			top_comment_scores, comment_bodies, comment_votes
		FROM posts FINAL
		WHERE source = $1 AND created_at >= $2 AND created_at <= $3`
	args := []interface{}{q.Source, q.Start, q.End}

	if q.Query != "" {
		args = append(args, q.Query)
		sql += fmt.Sprintf(" AND positionCaseInsensitiveUTF8(title, $%d) > 0", len(args))
	}

	sql += " ORDER BY score DESC, created_at ASC"

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return sql, args
}

// FetchPosts returns posts of q.Source inside [q.Start, q.End], most upvoted first
func (r *PostRepository) FetchPosts(ctx context.Context, q sentiment.PostQuery) ([]sentiment.RawPost, error) {
	if q.Source == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "post source is required")
	}
	if q.End.Before(q.Start) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "window end %s before start %s", q.End, q.Start)
	}

	sql, args := buildPostQuery(q)

	var rows []postRow
	start := time.Now()
	err := r.conn.Select(ctx, &rows, sql, args...)
	metrics.RecordDBQuery("clickhouse", "select_posts", time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch posts")
	}

	posts := make([]sentiment.RawPost, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toDomain())
	}
	return posts, nil
}

// CountPostsSince returns how many posts were ingested after since
func (r *PostRepository) CountPostsSince(ctx context.Context, since time.Time) (uint64, error) {
	var count uint64
	row := r.conn.QueryRow(ctx, `SELECT count() FROM posts WHERE created_at >= $1`, since)
	if err := row.Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count posts")
	}
	return count, nil
}

// InsertPosts writes posts in a single batch. Re-inserting an id replaces the row on merge.
func (r *PostRepository) InsertPosts(ctx context.Context, posts []sentiment.RawPost) error {
	if len(posts) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO posts (
			id, source, title, url, created_at, score, upvote_ratio, num_comments,
			top_comment_scores, comment_bodies, comment_votes
		)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare posts batch")
	}
	defer batch.Close()

	for _, p := range posts {
		row := postRowFromDomain(p)
		if err := batch.AppendStruct(&row); err != nil {
			return errors.Wrapf(err, "failed to append post %s", p.ID)
		}
	}

	start := time.Now()
	err = batch.Send()
	metrics.RecordDBQuery("clickhouse", "insert_posts", time.Since(start), err)
	if err != nil {
		return errors.Wrap(err, "failed to send posts batch")
	}
	return nil
}
