package repository

import (
	"context"
	"errors"
	"fmt"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/lib/slug"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the tag helpers
// can run inside the callers' transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type TagRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewTagRepository(db *pgxpool.Pool) *TagRepo {
	return &TagRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ListTags returns every gallery tag ordered by name.
func (r *TagRepo) ListTags(ctx context.Context) ([]models.Tag, error) {
	const op = "repository.tag_repository.ListTags"

	query, args, err := r.sb.Select("id", "name", "slug").
		From("tags").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tags = append(tags, t)
	}

	return tags, rows.Err()
}

// ListTagsWithCounts returns every tag with the number of distinct images
// referencing it, ordered by name. Tags with no images are included.
func (r *TagRepo) ListTagsWithCounts(ctx context.Context) ([]models.TagWithCount, error) {
	const op = "repository.tag_repository.ListTagsWithCounts"

	query, args, err := r.sb.Select("t.id", "t.name", "t.slug", "COUNT(DISTINCT it.image_id) AS image_count").
		From("tags t").
		LeftJoin("image_tags it ON it.tag_id = t.id").
		GroupBy("t.id", "t.name", "t.slug").
		OrderBy("t.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tags := []models.TagWithCount{}
	for rows.Next() {
		var t models.TagWithCount
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.ImageCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tags = append(tags, t)
	}

	return tags, rows.Err()
}

// findOrCreateTag resolves a tag by its normalized slug, creating it when
// absent. A create that loses a race against a concurrent caller is treated
// as "already exists" and re-read, never surfaced as an error.
func findOrCreateTag(ctx context.Context, q querier, sb sq.StatementBuilderType, name string) (models.Tag, error) {
	const op = "repository.tag_repository.findOrCreateTag"

	tagSlug := slug.Make(name)
	if tagSlug == "" {
		return models.Tag{}, fmt.Errorf("%s: tag name %q normalizes to empty slug", op, name)
	}

	selectSQL, selectArgs, err := sb.Select("id", "name", "slug").
		From("tags").
		Where(sq.Eq{"slug": tagSlug}).
		ToSql()
	if err != nil {
		return models.Tag{}, fmt.Errorf("%s: %w", op, err)
	}

	var tag models.Tag
	err = q.QueryRow(ctx, selectSQL, selectArgs...).Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Tag{}, fmt.Errorf("%s: %w", op, err)
	}

	insertSQL, insertArgs, err := sb.Insert("tags").
		Columns("name", "slug").
		Values(name, tagSlug).
		Suffix("ON CONFLICT (slug) DO NOTHING RETURNING id, name, slug").
		ToSql()
	if err != nil {
		return models.Tag{}, fmt.Errorf("%s: %w", op, err)
	}

	err = q.QueryRow(ctx, insertSQL, insertArgs...).Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Tag{}, fmt.Errorf("%s: %w", op, err)
	}

	// lost the race: the conflicting row was created in between, re-read it
	err = q.QueryRow(ctx, selectSQL, selectArgs...).Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err != nil {
		return models.Tag{}, fmt.Errorf("%s: %w", op, err)
	}

	return tag, nil
}

// findOrCreateBlogTag is the blog-side counterpart; blog tags key on the
// unique name alone.
func findOrCreateBlogTag(ctx context.Context, q querier, sb sq.StatementBuilderType, name string) (models.BlogTag, error) {
	const op = "repository.tag_repository.findOrCreateBlogTag"

	selectSQL, selectArgs, err := sb.Select("id", "name").
		From("blog_tags").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return models.BlogTag{}, fmt.Errorf("%s: %w", op, err)
	}

	var tag models.BlogTag
	err = q.QueryRow(ctx, selectSQL, selectArgs...).Scan(&tag.ID, &tag.Name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.BlogTag{}, fmt.Errorf("%s: %w", op, err)
	}

	insertSQL, insertArgs, err := sb.Insert("blog_tags").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO NOTHING RETURNING id, name").
		ToSql()
	if err != nil {
		return models.BlogTag{}, fmt.Errorf("%s: %w", op, err)
	}

	err = q.QueryRow(ctx, insertSQL, insertArgs...).Scan(&tag.ID, &tag.Name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.BlogTag{}, fmt.Errorf("%s: %w", op, err)
	}

	err = q.QueryRow(ctx, selectSQL, selectArgs...).Scan(&tag.ID, &tag.Name)
	if err != nil {
		return models.BlogTag{}, fmt.Errorf("%s: %w", op, err)
	}

	return tag, nil
}
