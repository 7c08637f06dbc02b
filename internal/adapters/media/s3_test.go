package media

import (
	"context"
	"errors"
	"testing"

	perr "harborlist/internal/platform/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeHead struct {
	keys    map[string]bool
	err     error
	checked []string
}

func (f *fakeHead) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	k := aws.ToString(in.Key)
	f.checked = append(f.checked, k)
	if f.err != nil {
		return nil, f.err
	}
	if !f.keys[k] {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func newValidator(api headAPI) *Validator {
	return &Validator{api: api, bucket: "listings", base: "https://img.example.com"}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	api := &fakeHead{keys: map[string]bool{"owner-1/a.jpg": true, "owner-1/deck photo.jpg": true}}
	v := newValidator(api)

	cases := []struct {
		name  string
		urls  []string
		field string
	}{
		{"owned and present", []string{"https://img.example.com/owner-1/a.jpg", "https://img.example.com/owner-1/deck%20photo.jpg"}, ""},
		{"foreign host", []string{"https://elsewhere.example.com/owner-1/a.jpg"}, "images"},
		{"other owner", []string{"https://img.example.com/owner-2/a.jpg"}, "images"},
		{"traversal", []string{"https://img.example.com/owner-1/../owner-2/a.jpg"}, "images"},
		{"missing object", []string{"https://img.example.com/owner-1/gone.jpg"}, "images"},
	}
	for _, c := range cases {
		err := v.Validate(context.Background(), "owner-1", c.urls)
		if c.field == "" {
			if err != nil {
				t.Fatalf("%s: err=%v", c.name, err)
			}
			continue
		}
		e, ok := perr.As(err)
		if !ok || e.Code() != perr.ErrorCodeValidation || e.Field() != c.field {
			t.Fatalf("%s: err got=%v want validation on %s", c.name, err, c.field)
		}
	}
}

func TestValidate_StoreDownIsUnavailable(t *testing.T) {
	t.Parallel()
	v := newValidator(&fakeHead{err: errors.New("connection refused")})
	err := v.Validate(context.Background(), "owner-1", []string{"https://img.example.com/owner-1/a.jpg"})
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err got=%v want unavailable", err)
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	t.Parallel()
	if _, err := New(context.Background(), Config{}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err got=%v", err)
	}
}
