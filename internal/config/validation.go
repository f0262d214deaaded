package config

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	sqlIdentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
			return sqlIdentPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks struct tags first, then rules that span several fields.
func Validate(cfg *Config) error {
	if err := structValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return ferrors.ValidationError("invalid configuration field").
				WithContext("field", first.Namespace()).
				WithContext("rule", first.Tag()).
				WithContext("param", first.Param()).
				WithContext("violations", len(verrs)).
				WithCause(err).
				Build()
		}
		return ferrors.WrapError(err, ferrors.CategoryValidation, "validate configuration").Build()
	}

	if strings.Contains(cfg.APIBase, "..") {
		return ferrors.ValidationError("api_base must not contain '..'").
			WithContext("api_base", cfg.APIBase).
			Build()
	}

	switch cfg.Content.Type {
	case ContentSourceFS:
		if cfg.Content.Dir == "" {
			return requiredFor("content.dir", cfg.Content.Type)
		}
	case ContentSourceSQLite:
		if cfg.Content.SQLite.Path == "" {
			return requiredFor("content.sqlite.path", cfg.Content.Type)
		}
	case ContentSourceNATS:
		if cfg.Content.NATS.URL == "" {
			return requiredFor("content.nats.url", cfg.Content.Type)
		}
	case ContentSourceGit:
		if cfg.Content.Git.URL == "" {
			return requiredFor("content.git.url", cfg.Content.Type)
		}
	}
	return nil
}

func requiredFor(field string, source ContentSourceType) error {
	return ferrors.ValidationError("missing field required by content source").
		WithContext("field", field).
		WithContext("source", string(source)).
		Build()
}
