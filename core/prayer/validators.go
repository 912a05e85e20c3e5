package prayer

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/mutabaah/mutabaah/core"
)

var (
	prayerTypeTag  = "prayertype"
	prayerTypeText = "must be one of Subuh, Duha, Syuruq, Dzuhur, Ashar, Maghrib or Isya"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(prayerTypeTag, prayerTypeValidation)
	core.RegisterCustomTranslation(validate, translator, prayerTypeTag, prayerTypeText)
}

func prayerTypeValidation(fl validator.FieldLevel) bool {
	_, ok := ParseType(fl.Field().String())
	return ok
}
