package rating

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/vidyalaya/core"
	"github.com/trezcool/vidyalaya/core/user"
)

const (
	testimonialsCacheKey = "testimonials:%d"
	testimonialsCacheTTL = time.Hour
)

type (
	Repository interface {
		// QueryRatings returns ratings with `status` (all when empty), newest first.
		QueryRatings(ctx context.Context, status string) ([]Rating, error)
		GetRatingByID(ctx context.Context, id string) (Rating, error)
		CreateRating(ctx context.Context, r Rating) (Rating, error)
		UpdateRating(ctx context.Context, r Rating) (Rating, error)
		DeleteRating(ctx context.Context, id string) error
	}

	AdminDirectory interface {
		QueryAdmins(ctx context.Context) ([]user.Admin, error)
	}

	Service interface {
		Submit(ctx context.Context, nr NewRating) (Rating, error)
		// Testimonials returns the newest approved ratings with their count & average.
		Testimonials(ctx context.Context, limit int) (Testimonials, error)
		List(ctx context.Context, status string) ([]Rating, error)
		Moderate(ctx context.Context, id string, m Moderate) (Rating, error)
		Delete(ctx context.Context, id string) error
		// SendPendingDigest emails the admins the ratings awaiting moderation. It returns their number.
		SendPendingDigest(ctx context.Context) (int, error)
	}

	service struct {
		repo   Repository
		admins AdminDirectory
		cache  core.Cache
		mailer core.EmailService
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, admins AdminDirectory, cache core.Cache, mailer core.EmailService, logger core.Logger) Service {
	return &service{repo: repo, admins: admins, cache: cache, mailer: mailer, logger: logger}
}

func (svc *service) Submit(ctx context.Context, nr NewRating) (Rating, error) {
	now := core.NowFunc().UTC()
	r, err := svc.repo.CreateRating(ctx, Rating{
		Name:         nr.Name,
		Email:        nr.Email,
		Phone:        nr.Phone,
		Relationship: nr.Relationship,
		Rating:       nr.Rating,
		Comment:      nr.Comment,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Rating{}, errors.Wrap(err, "creating rating")
	}

	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: r.Name, Address: r.Email}},
		Subject:      "Thank you for your feedback",
		TemplateName: "rating_received",
		TemplateData: map[string]interface{}{"Rating": r},
	})
	return r, nil
}

// ToTestimonial shows an approved rating on the public site.
func ToTestimonial(r Rating) Testimonial {
	t := Testimonial{ID: r.ID, Name: r.Name, Role: r.Relationship, Content: r.Comment, Rating: r.Rating}
	if t.Role == "" {
		t.Role = defaultRole
	}
	if t.Content == "" {
		t.Content = defaultContent
	}
	return t
}

// BuildTestimonials keeps the first `limit` approved ratings and averages all of them.
func BuildTestimonials(approved []Rating, limit int) Testimonials {
	ts := Testimonials{Testimonials: make([]Testimonial, 0, limit), Count: len(approved)}
	var sum int
	for i, r := range approved {
		sum += r.Rating
		if i < limit {
			ts.Testimonials = append(ts.Testimonials, ToTestimonial(r))
		}
	}
	if len(approved) > 0 {
		ts.AverageRating = core.Round(float64(sum)/float64(len(approved)), 1)
	}
	return ts
}

func (svc *service) Testimonials(ctx context.Context, limit int) (Testimonials, error) {
	if limit <= 0 {
		limit = DefaultTestimonialsLimit
	} else if limit > MaxTestimonialsLimit {
		limit = MaxTestimonialsLimit
	}

	key := fmt.Sprintf(testimonialsCacheKey, limit)
	if cached, err := svc.cache.Get(ctx, key); err == nil {
		var ts Testimonials
		if err := json.Unmarshal([]byte(cached), &ts); err == nil {
			return ts, nil
		}
	} else if err != core.ErrCacheMiss {
		svc.logger.Warn("reading testimonials cache: "+err.Error(), err)
	}

	approved, err := svc.repo.QueryRatings(ctx, StatusApproved)
	if err != nil {
		return Testimonials{}, errors.Wrap(err, "querying ratings")
	}
	ts := BuildTestimonials(approved, limit)

	if data, err := json.Marshal(ts); err == nil {
		if err := svc.cache.Set(ctx, key, string(data), testimonialsCacheTTL); err != nil {
			svc.logger.Warn("writing testimonials cache: "+err.Error(), err)
		}
	}
	return ts, nil
}

func (svc *service) invalidate(ctx context.Context) {
	keys := make([]string, 0, MaxTestimonialsLimit)
	for i := 1; i <= MaxTestimonialsLimit; i++ {
		keys = append(keys, fmt.Sprintf(testimonialsCacheKey, i))
	}
	if err := svc.cache.Delete(ctx, keys...); err != nil {
		svc.logger.Warn("clearing testimonials cache: "+err.Error(), err)
	}
}

func (svc *service) List(ctx context.Context, status string) ([]Rating, error) {
	return svc.repo.QueryRatings(ctx, status)
}

func (svc *service) Moderate(ctx context.Context, id string, m Moderate) (Rating, error) {
	r, err := svc.repo.GetRatingByID(ctx, id)
	if err != nil {
		return Rating{}, err
	}
	r.Status = m.Status
	r.UpdatedAt = core.NowFunc().UTC()
	if r, err = svc.repo.UpdateRating(ctx, r); err != nil {
		return Rating{}, errors.Wrap(err, "updating rating")
	}
	svc.invalidate(ctx)
	return r, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteRating(ctx, id); err != nil {
		return err
	}
	svc.invalidate(ctx)
	return nil
}

func (svc *service) SendPendingDigest(ctx context.Context) (int, error) {
	pending, err := svc.repo.QueryRatings(ctx, StatusPending)
	if err != nil {
		return 0, errors.Wrap(err, "querying ratings")
	}
	if len(pending) == 0 {
		return 0, nil
	}

	admins, err := svc.admins.QueryAdmins(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying admins")
	}
	to := make([]mail.Address, 0, len(admins))
	for _, a := range admins {
		if a.Email != "" && !user.IsDeactivated(a.Status) {
			to = append(to, mail.Address{Name: a.Name, Address: a.Email})
		}
	}
	if len(to) == 0 {
		return len(pending), nil
	}

	svc.mailer.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("%d rating(s) awaiting moderation", len(pending)),
		TemplateName: "ratings_digest",
		TemplateData: map[string]interface{}{"Ratings": pending},
	})
	return len(pending), nil
}
