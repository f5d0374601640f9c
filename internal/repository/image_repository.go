package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"henna_gallery/internal/domain/models"
	"henna_gallery/internal/lib/slug"
	"henna_gallery/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Tag filter values understood by ListImages.
const (
	TagFilterAll  = "all"
	TagFilterNone = "none"
)

// DefaultImagePageSize is applied when the caller passes a page size
// outside the 1..100 range.
const DefaultImagePageSize = 20

type ImageRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewImageRepository(db *pgxpool.Pool) *ImageRepo {
	return &ImageRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateImageWithTags inserts the image row and its initial tag set in one
// transaction. Tags are resolved sequentially through findOrCreateTag so the
// transaction never commits with associations missing.
func (r *ImageRepo) CreateImageWithTags(ctx context.Context, image models.Image, tagNames []string) (*models.Image, error) {
	const op = "repository.image_repository.CreateImageWithTags"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.sb.Insert("images").
		Columns("name", "object_key", "object_url", "description").
		Values(image.Name, image.ObjectKey, image.ObjectURL, image.Description).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created := image
	err = tx.QueryRow(ctx, query, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created.Tags = []models.Tag{}
	seen := make(map[string]struct{}, len(tagNames))
	for _, name := range tagNames {
		// duplicate spellings of one tag collapse to a single association
		if _, ok := seen[slug.Make(name)]; ok {
			continue
		}
		seen[slug.Make(name)] = struct{}{}

		tag, err := findOrCreateTag(ctx, tx, r.sb, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := insertImageTag(ctx, tx, r.sb, created.ID, tag.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		created.Tags = append(created.Tags, tag)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &created, nil
}

func insertImageTag(ctx context.Context, q querier, sb sq.StatementBuilderType, imageID, tagID int64) error {
	query, args, err := sb.Insert("image_tags").
		Columns("image_id", "tag_id").
		Values(imageID, tagID).
		ToSql()
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, query, args...)
	return err
}

func (r *ImageRepo) GetImageByID(ctx context.Context, id int64) (*models.Image, error) {
	const op = "repository.image_repository.GetImageByID"

	query, args, err := r.sb.Select(
		"id", "name", "object_key", "object_url", "description", "created_at", "updated_at",
	).
		From("images").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	img, err := scanImage(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tagsByImage, err := r.tagsForImages(ctx, []int64{img.ID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	img.Tags = tagsByImage[img.ID]
	if img.Tags == nil {
		img.Tags = []models.Tag{}
	}

	return img, nil
}

// ListImages returns one page of images plus the distinct total. The count
// deliberately uses COUNT(DISTINCT i.id): the association join multiplies
// rows per tag and a naive count(*) would double-count multi-tag images.
func (r *ImageRepo) ListImages(ctx context.Context, page, pageSize int, tagFilter string) ([]models.Image, int64, error) {
	const op = "repository.image_repository.ListImages"

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = DefaultImagePageSize
	}

	dataBuilder := r.sb.Select(
		"i.id", "i.name", "i.object_key", "i.object_url", "i.description", "i.created_at", "i.updated_at",
	).Distinct().From("images i")
	countBuilder := r.sb.Select("COUNT(DISTINCT i.id)").From("images i")

	switch tagFilter {
	case TagFilterAll, "":
	case TagFilterNone:
		dataBuilder = dataBuilder.
			LeftJoin("image_tags it ON it.image_id = i.id").
			Where("it.image_id IS NULL")
		countBuilder = countBuilder.
			LeftJoin("image_tags it ON it.image_id = i.id").
			Where("it.image_id IS NULL")
	default:
		dataBuilder = dataBuilder.
			Join("image_tags it ON it.image_id = i.id").
			Join("tags t ON t.id = it.tag_id").
			Where(sq.Eq{"t.slug": tagFilter})
		countBuilder = countBuilder.
			Join("image_tags it ON it.image_id = i.id").
			Join("tags t ON t.id = it.tag_id").
			Where(sq.Eq{"t.slug": tagFilter})
	}

	countSQL, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	dataSQL, dataArgs, err := dataBuilder.
		OrderBy("i.id DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	images := []models.Image{}
	ids := []int64{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		images = append(images, *img)
		ids = append(ids, img.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	if len(ids) > 0 {
		tagsByImage, err := r.tagsForImages(ctx, ids)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		for idx := range images {
			images[idx].Tags = tagsByImage[images[idx].ID]
			if images[idx].Tags == nil {
				images[idx].Tags = []models.Tag{}
			}
		}
	}

	return images, total, nil
}

// tagsForImages fetches tags for a whole page in a single query; one
// round-trip per page, never per tag.
func (r *ImageRepo) tagsForImages(ctx context.Context, imageIDs []int64) (map[int64][]models.Tag, error) {
	const op = "repository.image_repository.tagsForImages"

	rows, err := r.db.Query(ctx,
		`SELECT it.image_id, t.id, t.name, t.slug
		 FROM tags t
		 JOIN image_tags it ON it.tag_id = t.id
		 WHERE it.image_id = ANY($1)
		 ORDER BY t.name ASC`,
		imageIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make(map[int64][]models.Tag, len(imageIDs))
	for rows.Next() {
		var imageID int64
		var tag models.Tag
		if err := rows.Scan(&imageID, &tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result[imageID] = append(result[imageID], tag)
	}

	return result, rows.Err()
}

// ReplaceImageTags makes the image's association set equal to tagIDs exactly.
// Delete and insert run in one transaction; unknown tag ids reject the whole
// batch instead of being silently dropped.
func (r *ImageRepo) ReplaceImageTags(ctx context.Context, imageID int64, tagIDs []int64) ([]models.Tag, error) {
	const op = "repository.image_repository.ReplaceImageTags"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	var one int
	err = tx.QueryRow(ctx, "SELECT 1 FROM images WHERE id = $1", imageID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unique := dedupeIDs(tagIDs)

	if len(unique) > 0 {
		var known int
		err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM tags WHERE id = ANY($1)", unique).Scan(&known)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if known != len(unique) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrTagNotFound)
		}
	}

	deleteSQL, deleteArgs, err := r.sb.Delete("image_tags").
		Where(sq.Eq{"image_id": imageID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := tx.Exec(ctx, deleteSQL, deleteArgs...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(unique) > 0 {
		insertBuilder := r.sb.Insert("image_tags").Columns("image_id", "tag_id")
		for _, tagID := range unique {
			insertBuilder = insertBuilder.Values(imageID, tagID)
		}
		insertSQL, insertArgs, err := insertBuilder.ToSql()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, err := tx.Exec(ctx, insertSQL, insertArgs...); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	tags := []models.Tag{}
	rows, err := tx.Query(ctx,
		`SELECT t.id, t.name, t.slug
		 FROM tags t
		 JOIN image_tags it ON it.tag_id = t.id
		 WHERE it.image_id = $1
		 ORDER BY t.name ASC`,
		imageID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tags = append(tags, tag)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tags, nil
}

// DeleteImage removes the metadata row (associations cascade) and returns
// the object key so the caller can clean up object storage.
func (r *ImageRepo) DeleteImage(ctx context.Context, id int64) (string, error) {
	const op = "repository.image_repository.DeleteImage"

	var objectKey string
	err := r.db.QueryRow(ctx,
		"DELETE FROM images WHERE id = $1 RETURNING object_key", id,
	).Scan(&objectKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrImageNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return objectKey, nil
}

func scanImage(row pgx.Row) (*models.Image, error) {
	var img models.Image
	var objectURL, description sql.NullString

	err := row.Scan(&img.ID, &img.Name, &img.ObjectKey, &objectURL, &description, &img.CreatedAt, &img.UpdatedAt)
	if err != nil {
		return nil, err
	}

	img.ObjectURL = objectURL.String
	img.Description = description.String

	return &img, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
