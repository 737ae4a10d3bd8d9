package users

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-user-service/store"
)

// Service orchestrates validation, store calls, and error-kind mapping for
// the user lifecycle. It is stateless across calls: every request stands
// alone, and the only ordering guarantee for a given id comes from the
// store's conditional writes.
type Service struct {
	store    store.Store
	validate *playgroundvalidator.Validate
	nowTime  func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with the backing store.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewService(st store.Store, options ...ServiceOption) (*Service, error) {
	if st == nil {
		return nil, errors.New("[NewService] store is required")
	}

	service := &Service{
		store:    st,
		validate: newValidate(),
		nowTime:  time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// Create stores a new user. The store's create-if-absent primitive is the
// sole guard against duplicate ids: there is no separate existence check, so
// concurrent creates for the same id admit exactly one winner.
func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, validationError(err)
	}

	now := s.nowTime().UTC()
	user := &User{
		ID:        params.ID,
		Name:      params.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	blob, err := json.Marshal(user)
	if err != nil {
		return nil, NewRepositoryError(errors.Wrap(err, "[Service.Create] marshal user"))
	}

	if err := s.store.PutIfAbsent(ctx, user.ID, blob); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, &AlreadyExistsError{ID: params.ID}
		}
		return nil, NewRepositoryError(errors.Wrap(err, "[Service.Create] store.PutIfAbsent"))
	}

	return user, nil
}

// Get returns the stored user unchanged; reads never touch UpdatedAt.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	if err := s.validateID(id); err != nil {
		return nil, err
	}

	blob, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, NewRepositoryError(errors.Wrap(err, "[Service.Get] store.Get"))
	}

	var user User
	if err := json.Unmarshal(blob, &user); err != nil {
		return nil, NewRepositoryError(errors.Wrap(err, "[Service.Get] unmarshal user"))
	}

	return &user, nil
}

// Delete removes the user, reporting NotFoundError when the id was absent so
// callers can tell "removed" apart from "nothing happened".
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.validateID(id); err != nil {
		return err
	}

	if err := s.store.DeleteIfExists(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{ID: id}
		}
		return NewRepositoryError(errors.Wrap(err, "[Service.Delete] store.DeleteIfExists"))
	}

	return nil
}

// validateID applies the same rules as create: ids double as store keys, so a
// malformed id is rejected before any lookup.
func (s *Service) validateID(id string) error {
	if err := s.validate.Var(id, idRules); err != nil {
		fieldErrors, ok := err.(playgroundvalidator.ValidationErrors)
		if !ok {
			return &ValidationError{Violations: []string{err.Error()}}
		}
		violations := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			violations = append(violations, idViolationMessage(fe))
		}
		return &ValidationError{Violations: violations}
	}
	return nil
}

func idViolationMessage(fe playgroundvalidator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "id is required"
	case "max":
		return fmt.Sprintf("id must be at most %d characters", MaxIDLength)
	case "user_id":
		return "id may only contain letters, digits, '-' and '_'"
	default:
		return "id is invalid"
	}
}
