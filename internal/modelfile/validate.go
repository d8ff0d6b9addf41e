package modelfile

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks field constraints, then that the models the document
// describes can actually be built.
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalid)
	}
	if err := validate.Struct(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	switch doc.Kind {
	case KindHMM:
		if len(doc.Models) != 1 {
			return fmt.Errorf("%w: kind %s needs exactly one model, got %d", ErrInvalid, doc.Kind, len(doc.Models))
		}
	case KindHMMClassifier:
		if len(doc.Models) == 0 {
			return fmt.Errorf("%w: kind %s needs at least one model", ErrInvalid, doc.Kind)
		}
	case KindGaussianClassifier:
		if len(doc.Gaussian) == 0 {
			return fmt.Errorf("%w: kind %s needs at least one gaussian model", ErrInvalid, doc.Kind)
		}
	case KindHCRF:
		if doc.HCRF == nil {
			return fmt.Errorf("%w: kind %s needs hcrf weights", ErrInvalid, doc.Kind)
		}
	}
	if doc.Threshold != nil && doc.Kind != KindHMMClassifier {
		return fmt.Errorf("%w: threshold model only applies to %s", ErrInvalid, KindHMMClassifier)
	}

	n := doc.Classes()
	if len(doc.Labels) > 0 && len(doc.Labels) != n {
		return fmt.Errorf("%w: %d labels for %d classes", ErrInvalid, len(doc.Labels), n)
	}
	if len(doc.Priors) > 0 && len(doc.Priors) != n {
		return fmt.Errorf("%w: %d priors for %d classes", ErrInvalid, len(doc.Priors), n)
	}

	var err error
	switch doc.Kind {
	case KindHMM, KindHMMClassifier:
		if _, err = doc.Discrete(); err == nil {
			_, err = doc.ThresholdModel()
		}
	case KindGaussianClassifier:
		_, err = doc.GaussianModels()
	case KindHCRF:
		_, err = doc.Weights()
	}
	return err
}
