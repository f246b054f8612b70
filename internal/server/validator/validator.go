package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// languageTag accepts codes like "de", "pt-BR", "zh_Hant" and "auto".
var languageTag = regexp.MustCompile(`^(auto|[A-Za-z]{2,3}([-_][A-Za-z0-9]{2,8})*)$`)

var (
	once  sync.Once
	trans ut.Translator
)

// Validator renders binding failures as field → message maps.
type Validator struct {
	trans ut.Translator
}

// New configures gin's validator engine the first time it is called: field
// names come from json tags, messages are English and the "lang" tag checks
// language codes.
func New() *Validator {
	once.Do(func() {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ = uni.GetTranslator("en")

		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
			return languageTag.MatchString(fl.Field().String())
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)
		_ = v.RegisterTranslation("lang", trans,
			func(t ut.Translator) error {
				return t.Add("lang", "{0} must be a language code such as 'de' or 'pt-BR'", true)
			},
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T("lang", fe.Field())
				return msg
			},
		)
	})
	return &Validator{trans: trans}
}

// ParseError converts binding errors into a map keyed by the json path of
// the offending field, e.g. "items[2].key".
func (v *Validator) ParseError(err error) map[string]string {
	errMap := make(map[string]string)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			ns := e.Namespace()
			if i := strings.Index(ns, "."); i != -1 {
				ns = ns[i+1:]
			}

			msg := e.Error()
			if v.trans != nil {
				msg = e.Translate(v.trans)
			}
			if e.Tag() == "oneof" {
				msg = fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(e.Param(), " ", ", "))
			}
			errMap[ns] = msg
		}
		return errMap
	}

	errMap["body"] = "Invalid request body format. Please fix your payload."
	return errMap
}
