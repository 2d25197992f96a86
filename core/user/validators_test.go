package user

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

func newTestValidator() *validator.Validate {
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)
	return validate
}

func hasFieldError(err error, tag string) bool {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, vErr := range vErrs {
		if vErr.Tag() == tag {
			return true
		}
	}
	return false
}

func Test_roleValidation(t *testing.T) {
	validate := newTestValidator()

	nu := NewUser{Name: "Awe", Email: "awe@test.cd", Password: "Str0ng!Pass", PasswordConfirm: "Str0ng!Pass"}
	for _, role := range AllRoles {
		nu.Role = role
		if err := validate.Struct(nu); err != nil {
			t.Errorf("Struct() role %q error = %v; want nil", role, err)
		}
	}

	for _, role := range []string{"admin", "Teacher", "lol"} {
		nu.Role = role
		err := validate.Struct(nu)
		if !hasFieldError(err, roleTag) {
			t.Errorf("Struct() role %q error = %v; want %q failure", role, err, roleTag)
		}
	}
}

func Test_passwordPolicy(t *testing.T) {
	validate := newTestValidator()

	tests := []struct {
		name    string
		pwd     string
		wantTag string // empty means valid
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "has space", pwd: "Ab1! cdef", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "12345678", wantTag: pwdNotAllNumTag},
		{name: "no special char", pwd: "Abcdef12", wantTag: pwdComplexityTag},
		{name: "no digit", pwd: "Abcdefg!", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdef1!", wantTag: pwdComplexityTag},
		{name: "similar to email", pwd: "awe@test.cd1A!", wantTag: pwdAttrSimTag},
		{name: "valid", pwd: "Str0ng!Pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Name:            "Awe",
				Email:           "awe@test.cd",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
				Role:            RoleStudent,
			}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("Struct() error = %v; want nil", err)
				}
				return
			}
			if !hasFieldError(err, tt.wantTag) {
				t.Errorf("Struct() error = %v; want %q failure", err, tt.wantTag)
			}
		})
	}
}

func Test_passwordPolicy_updateSkipsWhenEmpty(t *testing.T) {
	validate := newTestValidator()

	// no password change requested
	uu := UpdateUser{Name: "Awe"}
	if err := validate.Struct(uu); err != nil {
		t.Errorf("Struct() error = %v; want nil", err)
	}

	// a weak replacement is still rejected
	uu = UpdateUser{Name: "Awe", Password: "weak", PasswordConfirm: "weak"}
	if err := validate.Struct(uu); !hasFieldError(err, pwdMinLenTag) {
		t.Errorf("Struct() error = %v; want %q failure", err, pwdMinLenTag)
	}
}
