package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const pgUniqueViolation = "23505"

// DefaultPostPageSize is applied when the caller passes a page size
// outside the 1..100 range.
const DefaultPostPageSize = 10

type BlogRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewBlogRepository(db *pgxpool.Pool) *BlogRepo {
	return &BlogRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreatePost inserts the post and resolves its tag set in one transaction.
// A duplicate slug surfaces as storage.ErrSlugTaken.
func (b *BlogRepo) CreatePost(ctx context.Context, post models.BlogPost, tagNames []string) (*models.BlogPost, error) {
	const op = "repository.blog_repository.CreatePost"

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query, args, err := b.sb.Insert("blog_posts").
		Columns(
			"title",
			"slug",
			"content",
			"excerpt",
			"cover_image",
			"published_at",
			"author_name",
			"author_avatar",
		).
		Values(
			post.Title,
			post.Slug,
			post.Content,
			post.Excerpt,
			post.CoverImage,
			post.PublishedAt,
			post.AuthorName,
			post.AuthorAvatar,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created := post
	err = tx.QueryRow(ctx, query, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrSlugTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created.Tags = []models.BlogTag{}
	seen := make(map[string]struct{}, len(tagNames))
	for _, name := range tagNames {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		tag, err := findOrCreateBlogTag(ctx, tx, b.sb, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := insertPostTag(ctx, tx, b.sb, created.ID, tag.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		created.Tags = append(created.Tags, tag)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &created, nil
}

func insertPostTag(ctx context.Context, q querier, sb sq.StatementBuilderType, postID, tagID int64) error {
	query, args, err := sb.Insert("blog_posts_tags").
		Columns("post_id", "tag_id").
		Values(postID, tagID).
		ToSql()
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, query, args...)
	return err
}

// UpdatePostFields applies a partial update. Identity and created_at are
// untouchable; updated_at is always recomputed. A non-nil tagNames replaces
// the post's tag set inside the same transaction.
func (b *BlogRepo) UpdatePostFields(ctx context.Context, postID int64, updates map[string]interface{}, tagNames []string) error {
	const op = "repository.blog_repository.UpdatePostFields"

	allowedFields := map[string]bool{
		"title":         true,
		"slug":          true,
		"content":       true,
		"excerpt":       true,
		"cover_image":   true,
		"published_at":  true,
		"author_name":   true,
		"author_avatar": true,
	}

	for field := range updates {
		if !allowedFields[field] {
			return fmt.Errorf("%s: field '%s' is not allowed for update", op, field)
		}
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	updateBuilder := b.sb.Update("blog_posts").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": postID})
	for field, value := range updates {
		updateBuilder = updateBuilder.Set(field, value)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrSlugTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	if tagNames != nil {
		deleteSQL, deleteArgs, err := b.sb.Delete("blog_posts_tags").
			Where(sq.Eq{"post_id": postID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if _, err := tx.Exec(ctx, deleteSQL, deleteArgs...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		seen := make(map[string]struct{}, len(tagNames))
		for _, name := range tagNames {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}

			tag, err := findOrCreateBlogTag(ctx, tx, b.sb, name)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if err := insertPostTag(ctx, tx, b.sb, postID, tag.ID); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (b *BlogRepo) GetPostByID(ctx context.Context, postID int64) (*models.BlogPost, error) {
	const op = "repository.blog_repository.GetPostByID"

	return b.getPost(ctx, op, sq.Eq{"id": postID})
}

func (b *BlogRepo) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	const op = "repository.blog_repository.GetPostBySlug"

	return b.getPost(ctx, op, sq.Eq{"slug": slug})
}

func (b *BlogRepo) getPost(ctx context.Context, op string, where sq.Eq) (*models.BlogPost, error) {
	query, args, err := b.sb.Select(
		"id", "title", "slug", "content", "excerpt", "cover_image",
		"published_at", "created_at", "updated_at", "author_name", "author_avatar",
	).
		From("blog_posts").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	post, err := scanPost(b.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tagsByPost, err := b.tagsForPosts(ctx, []int64{post.ID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	post.Tags = tagsByPost[post.ID]
	if post.Tags == nil {
		post.Tags = []models.BlogTag{}
	}

	return post, nil
}

// ListPosts mirrors ListImages but orders by publish time, newest first.
// The tag filter matches blog tag names.
func (b *BlogRepo) ListPosts(ctx context.Context, page, pageSize int, tagFilter string) ([]models.BlogPost, int64, error) {
	const op = "repository.blog_repository.ListPosts"

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = DefaultPostPageSize
	}

	dataBuilder := b.sb.Select(
		"p.id", "p.title", "p.slug", "p.content", "p.excerpt", "p.cover_image",
		"p.published_at", "p.created_at", "p.updated_at", "p.author_name", "p.author_avatar",
	).Distinct().From("blog_posts p")
	countBuilder := b.sb.Select("COUNT(DISTINCT p.id)").From("blog_posts p")

	switch tagFilter {
	case TagFilterAll, "":
	case TagFilterNone:
		dataBuilder = dataBuilder.
			LeftJoin("blog_posts_tags pt ON pt.post_id = p.id").
			Where("pt.post_id IS NULL")
		countBuilder = countBuilder.
			LeftJoin("blog_posts_tags pt ON pt.post_id = p.id").
			Where("pt.post_id IS NULL")
	default:
		dataBuilder = dataBuilder.
			Join("blog_posts_tags pt ON pt.post_id = p.id").
			Join("blog_tags bt ON bt.id = pt.tag_id").
			Where(sq.Eq{"bt.name": tagFilter})
		countBuilder = countBuilder.
			Join("blog_posts_tags pt ON pt.post_id = p.id").
			Join("blog_tags bt ON bt.id = pt.tag_id").
			Where(sq.Eq{"bt.name": tagFilter})
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int64
	if err := b.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	dataSQL, dataArgs, err := dataBuilder.
		OrderBy("p.published_at DESC", "p.id DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := b.db.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	posts := []models.BlogPost{}
	ids := []int64{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		posts = append(posts, *post)
		ids = append(ids, post.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	if len(ids) > 0 {
		tagsByPost, err := b.tagsForPosts(ctx, ids)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		for idx := range posts {
			posts[idx].Tags = tagsByPost[posts[idx].ID]
			if posts[idx].Tags == nil {
				posts[idx].Tags = []models.BlogTag{}
			}
		}
	}

	return posts, total, nil
}

func (b *BlogRepo) tagsForPosts(ctx context.Context, postIDs []int64) (map[int64][]models.BlogTag, error) {
	const op = "repository.blog_repository.tagsForPosts"

	rows, err := b.db.Query(ctx,
		`SELECT pt.post_id, bt.id, bt.name
		 FROM blog_tags bt
		 JOIN blog_posts_tags pt ON pt.tag_id = bt.id
		 WHERE pt.post_id = ANY($1)
		 ORDER BY bt.name ASC`,
		postIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make(map[int64][]models.BlogTag, len(postIDs))
	for rows.Next() {
		var postID int64
		var tag models.BlogTag
		if err := rows.Scan(&postID, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[postID] = append(result[postID], tag)
	}

	return result, rows.Err()
}

func (b *BlogRepo) DeletePost(ctx context.Context, postID int64) error {
	const op = "repository.blog_repository.DeletePost"

	query, args, err := b.sb.Delete("blog_posts").
		Where(sq.Eq{"id": postID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := b.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
	}

	return nil
}

func scanPost(row pgx.Row) (*models.BlogPost, error) {
	var post models.BlogPost
	var avatar sql.NullString

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Content,
		&post.Excerpt,
		&post.CoverImage,
		&post.PublishedAt,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.AuthorName,
		&avatar,
	)
	if err != nil {
		return nil, err
	}

	if avatar.Valid {
		post.AuthorAvatar = &avatar.String
	}

	return &post, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
