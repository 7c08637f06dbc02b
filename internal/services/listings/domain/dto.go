package domain

import (
	"strings"

	"harborlist/internal/core/listing"
)

// BoatInput carries vessel attributes on create
type BoatInput struct {
	Make         string  `json:"make"                   validate:"required,min=1,max=60" example:"Sea Ray"`
	Model        string  `json:"model"                  validate:"required,min=1,max=60" example:"SLX 280"`
	LengthFt     float64 `json:"lengthFt"               validate:"required,min=1,max=500" example:"28"`
	Type         string  `json:"type"                   validate:"required,oneof=sail power pontoon fishing pwc other" example:"power"`
	HullMaterial string  `json:"hullMaterial,omitempty" validate:"omitempty,max=60" example:"fiberglass"`
}

// CreateInput is the createListing request body
type CreateInput struct {
	Title       string    `json:"title"       validate:"required,min=3,max=120" example:"2019 Sea Ray SLX 280"`
	Description string    `json:"description" validate:"required,min=10,max=5000"`
	Price       int64     `json:"price"       validate:"required,min=1,max=100000000" example:"85000"`
	Year        int       `json:"year"        validate:"required,min=1900" example:"2019"`
	Boat        BoatInput `json:"boat"        validate:"required"`
	Images      []string  `json:"images"      validate:"max=100,dive,required,url"`
	Features    []string  `json:"features"    validate:"max=50,dive,min=1,max=60"`
}

// Normalize trims text fields in place
func (in *CreateInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Boat.Make = strings.TrimSpace(in.Boat.Make)
	in.Boat.Model = strings.TrimSpace(in.Boat.Model)
	in.Boat.HullMaterial = strings.TrimSpace(in.Boat.HullMaterial)
	in.Features = trimAll(in.Features)
	in.Images = trimAll(in.Images)
}

// Fields converts the request into published fields
func (in CreateInput) Fields() listing.Fields {
	return listing.Fields{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Year:        in.Year,
		Boat: listing.Boat{
			Make:         in.Boat.Make,
			Model:        in.Boat.Model,
			LengthFt:     in.Boat.LengthFt,
			Type:         in.Boat.Type,
			HullMaterial: in.Boat.HullMaterial,
		},
		Images:   nonNil(in.Images),
		Features: nonNil(in.Features),
	}
}

// BoatPatchInput is a partial boat edit
type BoatPatchInput struct {
	Make         *string  `json:"make,omitempty"         validate:"omitempty,min=1,max=60"`
	Model        *string  `json:"model,omitempty"        validate:"omitempty,min=1,max=60"`
	LengthFt     *float64 `json:"lengthFt,omitempty"     validate:"omitempty,min=1,max=500"`
	Type         *string  `json:"type,omitempty"         validate:"omitempty,oneof=sail power pontoon fishing pwc other"`
	HullMaterial *string  `json:"hullMaterial,omitempty" validate:"omitempty,max=60"`
}

// UpdateInput is the updateListing request body; absent fields stay as they are
type UpdateInput struct {
	Title       *string         `json:"title,omitempty"       validate:"omitempty,min=3,max=120"`
	Description *string         `json:"description,omitempty" validate:"omitempty,min=10,max=5000"`
	Price       *int64          `json:"price,omitempty"       validate:"omitempty,min=1,max=100000000"`
	Year        *int            `json:"year,omitempty"        validate:"omitempty,min=1900"`
	Boat        *BoatPatchInput `json:"boat,omitempty"`
	Images      *[]string       `json:"images,omitempty"      validate:"omitempty,max=100,dive,required,url"`
	Features    *[]string       `json:"features,omitempty"    validate:"omitempty,max=50,dive,min=1,max=60"`

	// ExpectedVersion rejects the edit with a conflict when the listing moved on
	ExpectedVersion *int64 `json:"expectedVersion,omitempty" validate:"omitempty,min=1"`
}

// Normalize trims text fields in place
func (in *UpdateInput) Normalize() {
	trimPtr(in.Title)
	trimPtr(in.Description)
	if in.Boat != nil {
		trimPtr(in.Boat.Make)
		trimPtr(in.Boat.Model)
		trimPtr(in.Boat.HullMaterial)
	}
	if in.Images != nil {
		v := trimAll(*in.Images)
		in.Images = &v
	}
	if in.Features != nil {
		v := trimAll(*in.Features)
		in.Features = &v
	}
}

// Patch converts the request into a core patch
func (in UpdateInput) Patch() listing.Patch {
	p := listing.Patch{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Year:        in.Year,
		Images:      in.Images,
		Features:    in.Features,
	}
	if b := in.Boat; b != nil && (b.Make != nil || b.Model != nil || b.LengthFt != nil || b.Type != nil || b.HullMaterial != nil) {
		p.Boat = &listing.BoatPatch{
			Make:         b.Make,
			Model:        b.Model,
			LengthFt:     b.LengthFt,
			Type:         b.Type,
			HullMaterial: b.HullMaterial,
		}
	}
	return p
}

// ModerateInput is the moderateListing request body
type ModerateInput struct {
	Decision        string   `json:"decision"                  validate:"required,oneof=approve reject request_changes" example:"approve"`
	Notes           string   `json:"notes,omitempty"           validate:"max=2000"`
	RequiredChanges []string `json:"requiredChanges,omitempty" validate:"max=20,dive,min=1,max=200"`
	ExpectedVersion *int64   `json:"expectedVersion,omitempty" validate:"omitempty,min=1"`
}

// CreateResult is returned by createListing
type CreateResult struct {
	ListingID string         `json:"listingId"`
	Slug      string         `json:"slug"`
	Status    listing.Status `json:"status"`
	Version   int64          `json:"version"`
}

// UpdateResult is returned by updateListing
type UpdateResult struct {
	Status        listing.Status `json:"status"`
	PendingReview bool           `json:"pendingReview"`
	ChangesCount  int            `json:"changesCount"`
	Slug          string         `json:"slug"`
	Version       int64          `json:"version"`
}

// StatusResult is returned by moderateListing and markSold
type StatusResult struct {
	Status         listing.Status         `json:"status"`
	WorkflowStatus listing.WorkflowStatus `json:"workflowStatus"`
	Version        int64                  `json:"version"`
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
