package form_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formstream/form"
	"github.com/dmitrymomot/formstream/validate"
)

func TestFieldRules(t *testing.T) {
	type signup struct {
		Name  string `form:"name" validate:"required,minlen=2,maxlen=10"`
		Email string `form:"email" validate:"email"`
		Age   uint8  `form:"age" validate:"min=18,max=150"`
	}

	push := func(p *form.Parser[signup], name, email, age string) {
		p.PushValue(form.Value("name", name))
		p.PushValue(form.Value("email", email))
		p.PushValue(form.Value("age", age))
	}

	t.Run("all rules pass", func(t *testing.T) {
		p := form.New[signup](form.Options{})
		push(p, "Ada", "ada@example.com", "36")

		v, err := p.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "Ada", v.Name)
	})

	t.Run("violations are located validation errors", func(t *testing.T) {
		p := form.New[signup](form.Options{})
		push(p, "A", "not-an-email", "12")

		_, err := p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 3)
		for _, name := range []form.Name{"name", "email", "age"} {
			fieldErrs := errs.For(name)
			require.Len(t, fieldErrs, 1, "field %s", name)
			assert.Equal(t, form.KindValidation, fieldErrs[0].Kind, "field %s", name)
		}
	})

	t.Run("rules run only after a clean bind", func(t *testing.T) {
		p := form.New[signup](form.Options{})
		push(p, "A", "ada@example.com", "nope")

		_, err := p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, form.KindConversion, errs[0].Kind)
		assert.Equal(t, form.Name("age"), errs[0].Name)
	})

	t.Run("absent optional skips its rules", func(t *testing.T) {
		type f struct {
			Name string  `form:"name"`
			Bio  *string `form:"bio" validate:"minlen=10"`
		}
		p := form.New[f](form.Options{})
		p.PushValue(form.Value("name", "Ada"))

		v, err := p.Finalize()
		require.NoError(t, err)
		assert.Nil(t, v.Bio)
	})

	t.Run("present optional is checked", func(t *testing.T) {
		type f struct {
			Bio *string `form:"bio" validate:"minlen=10"`
		}
		p := form.New[f](form.Options{})
		p.PushValue(form.Value("bio", "short"))

		_, err := p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, form.KindValidation, errs[0].Kind)
	})

	t.Run("oneof", func(t *testing.T) {
		type f struct {
			Color string `form:"color" validate:"oneof=red green blue"`
		}
		p := form.New[f](form.Options{})
		p.PushValue(form.Value("color", "green"))
		_, err := p.Finalize()
		require.NoError(t, err)

		p = form.New[f](form.Options{})
		p.PushValue(form.Value("color", "mauve"))
		_, err = p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		assert.True(t, errs.Has(form.KindValidation))
	})

	t.Run("matches", func(t *testing.T) {
		type f struct {
			Slug string `form:"slug" validate:"matches=^[a-z0-9-]+$"`
		}
		p := form.New[f](form.Options{})
		p.PushValue(form.Value("slug", "my-post-1"))
		_, err := p.Finalize()
		require.NoError(t, err)

		p = form.New[f](form.Options{})
		p.PushValue(form.Value("slug", "Not A Slug"))
		_, err = p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		assert.True(t, errs.Has(form.KindValidation))
	})
}

func TestStructValidator(t *testing.T) {
	t.Run("matching passwords pass", func(t *testing.T) {
		p := form.New[mismatchForm](form.Options{})
		p.PushValue(form.Value("password", "hunter2hunter2"))
		p.PushValue(form.Value("confirm", "hunter2hunter2"))

		_, err := p.Finalize()
		require.NoError(t, err)
	})

	t.Run("field-attributed failures are located", func(t *testing.T) {
		p := form.New[mismatchForm](form.Options{})
		p.PushValue(form.Value("password", "hunter2hunter2"))
		p.PushValue(form.Value("confirm", "different"))

		_, err := p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, form.KindValidation, errs[0].Kind)
		assert.Equal(t, form.Name("confirm"), errs[0].Name)
		assert.Equal(t, "passwords do not match", errs[0].Message)
	})

	t.Run("validators never run on an invalid form", func(t *testing.T) {
		p := form.New[mismatchForm](form.Options{})
		p.PushValue(form.Value("password", "hunter2hunter2"))

		_, err := p.Finalize()
		var errs form.Errors
		require.ErrorAs(t, err, &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, form.KindMissing, errs[0].Kind)
		assert.Equal(t, form.Name("confirm"), errs[0].Name)
	})
}

type mismatchForm struct {
	Password string `form:"password"`
	Confirm  string `form:"confirm"`
}

func (f *mismatchForm) Validate() error {
	var errs validate.ValidationErrors
	if f.Password != f.Confirm {
		errs.Add(validate.ValidationError{Field: "confirm", Message: "passwords do not match"})
	}
	if errs.IsEmpty() {
		return nil
	}
	return errs
}
