package cataloro

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validatorOnce sync.Once
var validate *validator.Validate

// objectIDPattern matches the 24-hex mongo ids the backend used before it
// switched new records to uuids. Both shapes are still in the wild.
var objectIDPattern = regexp.MustCompile(`^[a-f0-9]{24}$`)

func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")

		if err := validate.RegisterValidation("itemid", itemID); err != nil {
			log.Fatalf("Unexpected err %v", err)
		}

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

			if name == "-" {
				return ""
			}

			return name
		})
	})
	return validate
}

// itemID accepts either a uuid or a legacy mongo object id.
func itemID(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if objectIDPattern.MatchString(v) {
		return true
	}
	_, err := uuid.Parse(v)
	return err == nil
}

func ValidateStruct(obj interface{}) error {
	if kindOfData(obj) == reflect.Struct {
		if err := Validator().Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func kindOfData(data interface{}) reflect.Kind {

	value := reflect.ValueOf(data)
	valueType := value.Kind()

	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}
