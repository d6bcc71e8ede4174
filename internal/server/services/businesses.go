package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/repositories/repomanager"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	maxBusinessName        = 100
	maxBusinessDescription = 2000
	maxListItems           = 20

	slugAttempts = 50
)

// BusinessInput is the writable part of a listing.
type BusinessInput struct {
	Name        string
	Description string
	Category    string
	Address     string
	City        string
	State       string
	Zip         string
	Country     string
	Phone       string
	Email       string
	Website     string
	Logo        string
	Images      []string
	Tags        []string
	// IsActive is only applied on update; nil keeps the current value.
	IsActive *bool
}

type BusinessService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewBusinessService(m repomanager.RepositoryManager, logger logging.Logger) *BusinessService {
	return &BusinessService{repomanager: m, logger: logger.With("module", "businesses")}
}

// CanManage reports whether actor may edit b.
func CanManage(actor *models.Account, b *models.Business) bool {
	return actor != nil && (actor.Role == models.RoleAdmin || actor.ID == b.OwnerID)
}

// Slugify lowercases name and joins its letter and digit runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "business"
	}
	return slug
}

func cleanList(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}

// normalizeBusiness trims in and checks it, reporting every problem.
func normalizeBusiness(in BusinessInput) (BusinessInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Email = auth.NormalizeEmail(in.Email)
	in.Images = cleanList(in.Images)
	in.Tags = cleanList(in.Tags)
	for _, f := range []*string{&in.Address, &in.City, &in.State, &in.Zip, &in.Country, &in.Phone, &in.Website, &in.Logo} {
		*f = strings.TrimSpace(*f)
	}
	if in.Category == "" {
		in.Category = "other"
	}

	verr := &auth.ValidationError{}
	switch {
	case in.Name == "":
		verr.Add("name", auth.CodeRequired, "name is required")
	case utf8.RuneCountInString(in.Name) > maxBusinessName:
		verr.Add("name", auth.CodeInvalidValue, fmt.Sprintf("name must be at most %d characters", maxBusinessName))
	}
	if utf8.RuneCountInString(in.Description) > maxBusinessDescription {
		verr.Add("description", auth.CodeInvalidValue, fmt.Sprintf("description must be at most %d characters", maxBusinessDescription))
	}
	if !models.ValidCategory(in.Category) {
		verr.Add("category", auth.CodeInvalidValue, "category must be one of "+strings.Join(models.Categories, ", "))
	}
	if in.Email != "" && !auth.ValidEmail(in.Email) {
		verr.Add("email", auth.CodeInvalidEmail, "email is not a valid address")
	}
	if len(in.Images) > maxListItems {
		verr.Add("images", auth.CodeInvalidValue, fmt.Sprintf("at most %d images are allowed", maxListItems))
	}
	if len(in.Tags) > maxListItems {
		verr.Add("tags", auth.CodeInvalidValue, fmt.Sprintf("at most %d tags are allowed", maxListItems))
	}

	if err := verr.Err(); err != nil {
		return BusinessInput{}, err
	}
	return in, nil
}

func (s *BusinessService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

// Create stores a new listing owned by actor under a unique slug.
func (s *BusinessService) Create(ctx context.Context, actor *models.Account, in BusinessInput) (*models.Business, error) {
	if !actor.Role.CanOwnBusinesses() {
		return nil, common.ErrForbidden
	}

	in, err := normalizeBusiness(in)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Businesses(s.repomanager.Conn())
	base := Slugify(in.Name)

	for i := 1; i <= slugAttempts; i++ {
		slug := base
		if i > 1 {
			slug = fmt.Sprintf("%s-%d", base, i)
		}

		taken, err := repo.SlugExists(ctx, slug)
		if err != nil {
			return nil, s.internal(ctx, "slug lookup failed", err)
		}
		if taken {
			continue
		}

		b, err := repo.Create(ctx, &models.Business{
			OwnerID:     actor.ID,
			Name:        in.Name,
			Slug:        slug,
			Description: in.Description,
			Category:    in.Category,
			Address:     in.Address,
			City:        in.City,
			State:       in.State,
			Zip:         in.Zip,
			Country:     in.Country,
			Phone:       in.Phone,
			Email:       in.Email,
			Website:     in.Website,
			Logo:        in.Logo,
			Images:      in.Images,
			Tags:        in.Tags,
			IsActive:    true,
		})
		if errors.Is(err, common.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, s.internal(ctx, "business create failed", err)
		}

		s.logger.Info(ctx, "business created", "business_id", b.ID, "owner_id", actor.ID)
		return b, nil
	}

	return nil, s.internal(ctx, "slug exhausted", fmt.Errorf("no free slug for %q", base))
}

func (s *BusinessService) Get(ctx context.Context, id string) (*models.Business, error) {
	b, err := s.repomanager.Businesses(s.repomanager.Conn()).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "business lookup failed", err)
	}
	return b, nil
}

// List returns active businesses. Limit is clamped to [1, MaxPageSize]
// with DefaultPageSize for zero.
func (s *BusinessService) List(ctx context.Context, f models.BusinessFilter) ([]*models.Business, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	f.City = strings.TrimSpace(f.City)
	f.Query = strings.TrimSpace(f.Query)

	out, err := s.repomanager.Businesses(s.repomanager.Conn()).List(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "business list failed", err)
	}
	return out, nil
}

// managed loads id and checks actor may edit it.
func (s *BusinessService) managed(ctx context.Context, actor *models.Account, id string) (*models.Business, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManage(actor, b) {
		return nil, common.ErrForbidden
	}
	return b, nil
}

func (s *BusinessService) Update(ctx context.Context, actor *models.Account, id string, in BusinessInput) (*models.Business, error) {
	b, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	in, err = normalizeBusiness(in)
	if err != nil {
		return nil, err
	}

	b.Name = in.Name
	b.Description = in.Description
	b.Category = in.Category
	b.Address = in.Address
	b.City = in.City
	b.State = in.State
	b.Zip = in.Zip
	b.Country = in.Country
	b.Phone = in.Phone
	b.Email = in.Email
	b.Website = in.Website
	b.Logo = in.Logo
	b.Images = in.Images
	b.Tags = in.Tags
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}

	out, err := s.repomanager.Businesses(s.repomanager.Conn()).Update(ctx, b)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "business update failed", err)
	}
	return out, nil
}

// AddImage appends an uploaded image reference to the listing.
func (s *BusinessService) AddImage(ctx context.Context, actor *models.Account, id, image string) (*models.Business, error) {
	b, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	image = strings.TrimSpace(image)
	verr := &auth.ValidationError{}
	if image == "" {
		verr.Add("image", auth.CodeRequired, "image is required")
	} else if len(b.Images) >= maxListItems {
		verr.Add("images", auth.CodeInvalidValue, fmt.Sprintf("at most %d images are allowed", maxListItems))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	b.Images = append(b.Images, image)
	out, err := s.repomanager.Businesses(s.repomanager.Conn()).Update(ctx, b)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "business update failed", err)
	}
	return out, nil
}

func (s *BusinessService) Delete(ctx context.Context, actor *models.Account, id string) error {
	if _, err := s.managed(ctx, actor, id); err != nil {
		return err
	}

	err := s.repomanager.Businesses(s.repomanager.Conn()).Delete(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return s.internal(ctx, "business delete failed", err)
	}

	s.logger.Info(ctx, "business deleted", "business_id", id, "actor_id", actor.ID)
	return nil
}
