// Package contact accepts messages from the public contact form, stores them
// and notifies the site owner in the background.
package contact

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/eringen/folio/content"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	msgFieldsRequired = "All fields are required"
	msgInvalidEmail   = "Invalid email format"
)

// notifyTimeout bounds one background notification.
const notifyTimeout = 30 * time.Second

// emailPattern treats every Unicode space separator, \v and U+FEFF as
// whitespace, not only RE2's ASCII \s.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// something@something.tld, nothing stricter.
	err := v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("contact: register email rule: %v", err))
	}
	return v
}

// Submission is the contact form body.
type Submission struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,contact_email"`
	Subject   string `json:"subject" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

// Validate reports the first failing rule as a *content.ValidationError.
// Missing fields take precedence over a malformed email.
func (s Submission) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate submission: %w", err)
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &content.ValidationError{Message: msgFieldsRequired}
		}
	}
	return &content.ValidationError{Message: msgInvalidEmail}
}

// Store persists contact messages.
type Store interface {
	InsertContactMessage(ctx context.Context, m content.ContactMessage) (content.ContactMessage, error)
}

// Result is returned for an accepted submission.
type Result struct {
	ID string `json:"id"`
}

// Service validates and stores submissions, then hands a notification email
// to a Mailer without waiting for it.
type Service struct {
	store  Store
	mailer Mailer
	inbox  string
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewService returns a Service that stores into store and notifies inbox
// through mailer. A nil mailer logs the email instead of sending it.
func NewService(store Store, mailer Mailer, inbox string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("contact")
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &Service{store: store, mailer: mailer, inbox: inbox, logger: logger}
}

// Submit validates sub, stores it as an unread message and starts the owner
// notification. A notification failure never affects the result.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	if err := sub.Validate(); err != nil {
		return Result{}, err
	}

	msg, err := s.store.InsertContactMessage(ctx, content.ContactMessage{
		Name:    sub.FirstName + " " + sub.LastName,
		Email:   sub.Email,
		Subject: sub.Subject,
		Message: sub.Message,
	})
	if err != nil {
		s.logger.Error("store contact message", zap.Error(err))
		return Result{}, err
	}
	s.logger.Info("contact message stored", zap.String("id", msg.ID))

	s.notify(ctx, buildEmail(s.inbox, sub))
	return Result{ID: msg.ID}, nil
}

// notify sends e on its own goroutine, detached from the request context.
func (s *Service) notify(ctx context.Context, e Email) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("contact notification panicked", zap.Any("panic", r))
			}
		}()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := s.mailer.Send(nctx, e); err != nil {
			s.logger.Warn("contact notification failed", zap.String("subject", e.Subject), zap.Error(err))
		}
	}()
}

// Close waits for in-flight notifications.
func (s *Service) Close() {
	s.wg.Wait()
}
