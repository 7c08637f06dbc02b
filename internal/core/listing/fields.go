package listing

import (
	"reflect"
	"slices"
)

// Boat holds vessel attributes
type Boat struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	LengthFt     float64 `json:"lengthFt"`
	Type         string  `json:"type"`
	HullMaterial string  `json:"hullMaterial,omitempty"`
}

// Fields are the published, publicly visible listing fields
type Fields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Year        int      `json:"year"`
	Boat        Boat     `json:"boat"`
	Images      []string `json:"images"`
	Features    []string `json:"features"`
}

// Clone copies the slices so callers can mutate freely
func (f Fields) Clone() Fields {
	c := f
	c.Images = slices.Clone(f.Images)
	c.Features = slices.Clone(f.Features)
	return c
}

// BoatPatch is a partial boat edit
type BoatPatch struct {
	Make         *string  `json:"make,omitempty"`
	Model        *string  `json:"model,omitempty"`
	LengthFt     *float64 `json:"lengthFt,omitempty"`
	Type         *string  `json:"type,omitempty"`
	HullMaterial *string  `json:"hullMaterial,omitempty"`
}

// Patch is a partial edit; nil means untouched
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Price       *int64     `json:"price,omitempty"`
	Year        *int       `json:"year,omitempty"`
	Boat        *BoatPatch `json:"boat,omitempty"`
	Images      *[]string  `json:"images,omitempty"`
	Features    *[]string  `json:"features,omitempty"`
}

// Field names used in change logs
const (
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldPrice        = "price"
	FieldYear         = "year"
	FieldMake         = "boat.make"
	FieldModel        = "boat.model"
	FieldLengthFt     = "boat.lengthFt"
	FieldBoatType     = "boat.type"
	FieldHullMaterial = "boat.hullMaterial"
	FieldImages       = "images"
	FieldFeatures     = "features"
)

// FieldNames is the fixed order used when walking a patch
var FieldNames = []string{
	FieldTitle, FieldDescription, FieldPrice, FieldYear,
	FieldMake, FieldModel, FieldLengthFt, FieldBoatType, FieldHullMaterial,
	FieldImages, FieldFeatures,
}

// Value returns the published value of a named field
func (f Fields) Value(name string) any {
	switch name {
	case FieldTitle:
		return f.Title
	case FieldDescription:
		return f.Description
	case FieldPrice:
		return f.Price
	case FieldYear:
		return f.Year
	case FieldMake:
		return f.Boat.Make
	case FieldModel:
		return f.Boat.Model
	case FieldLengthFt:
		return f.Boat.LengthFt
	case FieldBoatType:
		return f.Boat.Type
	case FieldHullMaterial:
		return f.Boat.HullMaterial
	case FieldImages:
		return slices.Clone(f.Images)
	case FieldFeatures:
		return slices.Clone(f.Features)
	}
	return nil
}

// Get returns the value a patch sets for name, and whether it sets it
func (p Patch) Get(name string) (any, bool) {
	switch name {
	case FieldTitle:
		return deref(p.Title)
	case FieldDescription:
		return deref(p.Description)
	case FieldPrice:
		return deref(p.Price)
	case FieldYear:
		return deref(p.Year)
	case FieldImages:
		if p.Images == nil {
			return nil, false
		}
		return slices.Clone(*p.Images), true
	case FieldFeatures:
		if p.Features == nil {
			return nil, false
		}
		return slices.Clone(*p.Features), true
	}
	if p.Boat == nil {
		return nil, false
	}
	switch name {
	case FieldMake:
		return deref(p.Boat.Make)
	case FieldModel:
		return deref(p.Boat.Model)
	case FieldLengthFt:
		return deref(p.Boat.LengthFt)
	case FieldBoatType:
		return deref(p.Boat.Type)
	case FieldHullMaterial:
		return deref(p.Boat.HullMaterial)
	}
	return nil, false
}

func deref[T any](v *T) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

// Names returns the fields a patch touches, in FieldNames order
func (p Patch) Names() []string {
	var out []string
	for _, n := range FieldNames {
		if _, ok := p.Get(n); ok {
			out = append(out, n)
		}
	}
	return out
}

// Empty reports whether the patch touches nothing
func (p Patch) Empty() bool { return len(p.Names()) == 0 }

// Clone deep copies the patch
func (p Patch) Clone() Patch {
	var c Patch
	c.Title = clonePtr(p.Title)
	c.Description = clonePtr(p.Description)
	c.Price = clonePtr(p.Price)
	c.Year = clonePtr(p.Year)
	if p.Boat != nil {
		c.Boat = &BoatPatch{
			Make:         clonePtr(p.Boat.Make),
			Model:        clonePtr(p.Boat.Model),
			LengthFt:     clonePtr(p.Boat.LengthFt),
			Type:         clonePtr(p.Boat.Type),
			HullMaterial: clonePtr(p.Boat.HullMaterial),
		}
	}
	if p.Images != nil {
		v := slices.Clone(*p.Images)
		c.Images = &v
	}
	if p.Features != nil {
		v := slices.Clone(*p.Features)
		c.Features = &v
	}
	return c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Merge overlays next on p field by field; next wins wherever it sets a value
func (p Patch) Merge(next Patch) Patch {
	out := p.Clone()
	n := next.Clone()
	if n.Title != nil {
		out.Title = n.Title
	}
	if n.Description != nil {
		out.Description = n.Description
	}
	if n.Price != nil {
		out.Price = n.Price
	}
	if n.Year != nil {
		out.Year = n.Year
	}
	if n.Images != nil {
		out.Images = n.Images
	}
	if n.Features != nil {
		out.Features = n.Features
	}
	if n.Boat != nil {
		if out.Boat == nil {
			out.Boat = &BoatPatch{}
		}
		if n.Boat.Make != nil {
			out.Boat.Make = n.Boat.Make
		}
		if n.Boat.Model != nil {
			out.Boat.Model = n.Boat.Model
		}
		if n.Boat.LengthFt != nil {
			out.Boat.LengthFt = n.Boat.LengthFt
		}
		if n.Boat.Type != nil {
			out.Boat.Type = n.Boat.Type
		}
		if n.Boat.HullMaterial != nil {
			out.Boat.HullMaterial = n.Boat.HullMaterial
		}
	}
	return out
}

// Apply returns f with every field p sets overwritten
func (f Fields) Apply(p Patch) Fields {
	out := f.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.Year != nil {
		out.Year = *p.Year
	}
	if p.Images != nil {
		out.Images = slices.Clone(*p.Images)
	}
	if p.Features != nil {
		out.Features = slices.Clone(*p.Features)
	}
	if b := p.Boat; b != nil {
		if b.Make != nil {
			out.Boat.Make = *b.Make
		}
		if b.Model != nil {
			out.Boat.Model = *b.Model
		}
		if b.LengthFt != nil {
			out.Boat.LengthFt = *b.LengthFt
		}
		if b.Type != nil {
			out.Boat.Type = *b.Type
		}
		if b.HullMaterial != nil {
			out.Boat.HullMaterial = *b.HullMaterial
		}
	}
	return out
}

// Equal compares two field values as stored in a change log
func Equal(a, b any) bool {
	as, aok := a.([]string)
	bs, bok := b.([]string)
	if aok && bok {
		// nil and empty lists mean the same thing
		return slices.Equal(as, bs)
	}
	return reflect.DeepEqual(a, b)
}

// Ptr returns a pointer to v; handy for building patches
func Ptr[T any](v T) *T { return &v }
