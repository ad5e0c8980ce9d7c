package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report fields by their query parameter names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return paramName(f)
	})
}

// ReadAndValidateRequest applies struct defaults, binds query parameters over
// them and validates the result. Defaults go first so that explicitly passed
// zero values, such as orb=0, survive. The returned error is an *AppError.
func ReadAndValidateRequest(c echo.Context, req interface{}) error {
	if err := defaults.Set(req); err != nil {
		return InternalError("request defaults").WithError(err)
	}

	if err := c.Bind(req); err != nil {
		return bindError(err)
	}

	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return validationError(req, err)
	}

	return nil
}

func bindError(err error) *AppError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		// echo copies the internal error's text into Message.
		if he.Internal != nil {
			return BadRequestError(he.Internal.Error()).WithError(err)
		}
		return BadRequestError(fmt.Sprintf("%v", he.Message)).WithError(err)
	}
	return BadRequestError(err.Error()).WithError(err)
}

func validationError(req interface{}, err error) *AppError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return BadRequestError(err.Error()).WithError(err)
	}

	for _, e := range validationErrors {
		if e.Tag() == "required" {
			return BadRequestError(MissingMessage(requiredParams(req))).
				WithField(e.Field()).
				WithError(err)
		}
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, getErrorMessage(e))
	}
	return BadRequestError(strings.Join(msgs, "; ")).
		WithField(validationErrors[0].Field()).
		WithError(err)
}

// MissingMessage renders the missing-parameter message naming every required
// parameter of a request.
func MissingMessage(params []string) string {
	quoted := make([]string, len(params))
	for i, p := range params {
		quoted[i] = "'" + p + "'"
	}
	switch len(quoted) {
	case 0:
		return "Missing required parameter"
	case 1:
		return fmt.Sprintf("Missing %s parameter", quoted[0])
	case 2:
		return fmt.Sprintf("Missing %s or %s parameter", quoted[0], quoted[1])
	default:
		last := len(quoted) - 1
		return fmt.Sprintf("Missing %s, or %s parameter", strings.Join(quoted[:last], ", "), quoted[last])
	}
}

// requiredParams lists the query names of fields tagged required, in
// declaration order.
func requiredParams(req interface{}) []string {
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
			if rule == "required" {
				out = append(out, paramName(f))
				break
			}
		}
	}
	return out
}

func paramName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("query"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

func getErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
