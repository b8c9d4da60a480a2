package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"inventory/domain"
	"inventory/pkg/events"

	"go.uber.org/zap"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrPhotoNotFound = fmt.Errorf("photo %w", ErrNotFound)
)

// Photo is an uploaded photo payload.
type Photo struct {
	Content  io.Reader
	Filename string
}

type RegisterInput struct {
	Name        string
	Description string
	Photo       *Photo
}

// UpdateInput carries optional fields; nil means keep the stored value.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Service coordinates the record store and the blob store. It holds no state
// between calls.
type Service struct {
	repository Repository
	blobs      BlobStore
	publisher  events.Publisher
	source     string
	logger     *zap.Logger
}

// NewService wires the service. publisher may be nil.
func NewService(repository Repository, blobs BlobStore, publisher events.Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repository: repository,
		blobs:      blobs,
		publisher:  publisher,
		source:     "inventory",
		logger:     logger,
	}
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.InventoryItemDTO, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.InventoryItemDTO{}, validationError("inventory_name is required")
	}

	var photoFilename *string
	if in.Photo != nil {
		stored, err := s.blobs.Save(ctx, in.Photo.Content, filepath.Ext(in.Photo.Filename))
		if err != nil {
			return domain.InventoryItemDTO{}, fmt.Errorf("save photo: %w", err)
		}
		photoFilename = &stored
	}

	id, err := s.repository.CreateItem(ctx, name, in.Description, photoFilename)
	if err != nil {
		if photoFilename != nil {
			s.removeBlob(ctx, *photoFilename)
		}
		return domain.InventoryItemDTO{}, fmt.Errorf("create item: %w", err)
	}

	item := domain.InventoryItem{
		ID:            id,
		InventoryName: name,
		Description:   in.Description,
		PhotoFilename: photoFilename,
	}

	s.publish(ctx, events.ItemRegisteredEvent, events.ItemRegisteredPayload{
		ID:            item.ID,
		InventoryName: item.InventoryName,
		Description:   item.Description,
		HasPhoto:      item.HasPhoto(),
		RegisteredAt:  time.Now().UTC(),
	})

	return item.ToDTO(), nil
}

func (s *Service) List(ctx context.Context) ([]domain.InventoryItemDTO, error) {
	items, err := s.repository.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]domain.InventoryItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, item.ToDTO())
	}
	return dtos, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.InventoryItemDTO, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return domain.InventoryItemDTO{}, err
	}
	return item.ToDTO(), nil
}

func (s *Service) UpdateMetadata(ctx context.Context, id int64, in UpdateInput) (domain.InventoryItemDTO, error) {
	name := in.Name
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return domain.InventoryItemDTO{}, validationError("inventory_name must not be blank")
		}
		name = &trimmed
	}

	if err := s.repository.UpdateItem(ctx, id, name, in.Description); err != nil {
		return domain.InventoryItemDTO{}, notFoundOr(err)
	}

	item, err := s.getItem(ctx, id)
	if err != nil {
		return domain.InventoryItemDTO{}, err
	}

	s.publish(ctx, events.ItemUpdatedEvent, events.ItemUpdatedPayload{
		ID:            item.ID,
		InventoryName: item.InventoryName,
		Description:   item.Description,
		UpdatedAt:     time.Now().UTC(),
	})

	return item.ToDTO(), nil
}

// GetPhoto opens the photo of item id. A missing item, an item without a photo
// and a missing blob all return ErrPhotoNotFound.
func (s *Service) GetPhoto(ctx context.Context, id int64) (io.ReadCloser, error) {
	item, err := s.repository.GetItem(ctx, id)
	if errors.Is(err, domain.ErrItemNotFound) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	if !item.HasPhoto() {
		return nil, ErrPhotoNotFound
	}

	rc, err := s.blobs.Open(ctx, *item.PhotoFilename)
	if errors.Is(err, domain.ErrBlobNotFound) {
		s.logger.Warn("Photo blob missing for item",
			zap.Int64("itemId", id),
			zap.String("blob", *item.PhotoFilename))
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return rc, nil
}

// ReplacePhoto stores the new blob, repoints the record at it and only then
// removes the old blob. A crash in between leaves an orphan, never a dangling
// reference.
func (s *Service) ReplacePhoto(ctx context.Context, id int64, photo *Photo) (domain.InventoryItemDTO, error) {
	if photo == nil || photo.Content == nil {
		return domain.InventoryItemDTO{}, validationError("photo file is required")
	}
	if _, err := s.getItem(ctx, id); err != nil {
		return domain.InventoryItemDTO{}, err
	}

	stored, err := s.blobs.Save(ctx, photo.Content, filepath.Ext(photo.Filename))
	if err != nil {
		return domain.InventoryItemDTO{}, fmt.Errorf("save photo: %w", err)
	}

	previous, err := s.repository.UpdatePhoto(ctx, id, stored)
	if err != nil {
		s.removeBlob(ctx, stored)
		return domain.InventoryItemDTO{}, notFoundOr(err)
	}
	if previous != nil && *previous != "" && *previous != stored {
		s.removeBlob(ctx, *previous)
	}

	item, err := s.getItem(ctx, id)
	if err != nil {
		return domain.InventoryItemDTO{}, err
	}

	s.publish(ctx, events.ItemPhotoReplacedEvent, events.ItemPhotoReplacedPayload{
		ID:         item.ID,
		PhotoURL:   domain.PhotoURL(item.ID),
		ReplacedAt: time.Now().UTC(),
	})

	return item.ToDTO(), nil
}

// Delete removes the record first and then its blob, so a failed blob removal
// leaves an orphan file rather than a resurrected record.
func (s *Service) Delete(ctx context.Context, id int64) (domain.InventoryItemDTO, error) {
	item, err := s.repository.DeleteItem(ctx, id)
	if err != nil {
		return domain.InventoryItemDTO{}, notFoundOr(err)
	}
	if item.HasPhoto() {
		s.removeBlob(ctx, *item.PhotoFilename)
	}

	s.publish(ctx, events.ItemDeletedEvent, events.ItemDeletedPayload{
		ID:        item.ID,
		HadPhoto:  item.HasPhoto(),
		DeletedAt: time.Now().UTC(),
	})

	return item.ToDTO(), nil
}

// SearchRender renders the search result page for item id.
func (s *Service) SearchRender(ctx context.Context, id int64, includePhoto bool) (string, error) {
	item, err := s.getItem(ctx, id)
	if err != nil {
		return "", err
	}
	return renderSearchPage(item, includePhoto)
}

func (s *Service) getItem(ctx context.Context, id int64) (domain.InventoryItem, error) {
	item, err := s.repository.GetItem(ctx, id)
	if err != nil {
		return item, notFoundOr(err)
	}
	return item, nil
}

// removeBlob is best effort: failures are logged and swallowed.
func (s *Service) removeBlob(ctx context.Context, name string) {
	if err := s.blobs.Remove(ctx, name); err != nil {
		s.logger.Warn("Failed to remove photo blob", zap.String("blob", name), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, name string, payload any) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(name, s.source, payload)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("event", name),
			zap.String("traceId", event.TraceID),
			zap.Error(err))
	}
}

func notFoundOr(err error) error {
	if errors.Is(err, domain.ErrItemNotFound) {
		return fmt.Errorf("item %w", ErrNotFound)
	}
	return err
}
